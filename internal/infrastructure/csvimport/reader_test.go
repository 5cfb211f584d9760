package csvimport

import (
	"strings"
	"testing"

	"github.com/briannabogos1157/threadtwin/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCommaSeparated(t *testing.T) {
	in := "\uFEFFTitle,Brand,Price,Image,Link,Material\n" +
		"Linen Shirt,H&M,$39.90,https://img/1,https://ltk/1,100% linen\n" +
		"\n" +
		"\"Wool Coat, long\",Zara,\"1,299.00\",,,\n"

	res, err := Read(strings.NewReader(in), "ltk")
	require.NoError(t, err)
	require.Len(t, res.Drafts, 2)
	assert.Empty(t, res.Errors)

	first := res.Drafts[0]
	assert.Equal(t, "Linen Shirt", first.Title)
	assert.Equal(t, "H&M", first.Brand)
	assert.Equal(t, "$39.90", first.Price)
	assert.Equal(t, "https://img/1", first.ImageURL)
	assert.Equal(t, "https://ltk/1", first.AffiliateLink)
	assert.Equal(t, "100% linen", first.Fabric)
	assert.Equal(t, "ltk", first.Source)

	assert.Equal(t, "Wool Coat, long", res.Drafts[1].Title)
	assert.Equal(t, "1,299.00", res.Drafts[1].Price)
	assert.Equal(t, []int{2, 4}, res.Rows)
}

func TestReadSemicolonSeparated(t *testing.T) {
	in := "product_name;price;source;category\n" +
		"Silk Scarf;12,50;vendor;Accessories\n"

	res, err := Read(strings.NewReader(in), "csv")
	require.NoError(t, err)
	require.Len(t, res.Drafts, 1)
	d := res.Drafts[0]
	assert.Equal(t, "Silk Scarf", d.Name)
	assert.Equal(t, "12.50", d.Price)
	assert.Equal(t, "vendor", d.Source)
	assert.Equal(t, "Accessories", d.Category)
}

func TestNormalizePrice(t *testing.T) {
	assert.Equal(t, "12.50", normalizePrice("12,50", true))
	assert.Equal(t, "1,299", normalizePrice("1,299", true))
	assert.Equal(t, "1.299,00", normalizePrice("1.299,00", true))
	assert.Equal(t, "12,50", normalizePrice("12,50", false))
}

func TestReadBadInput(t *testing.T) {
	_, err := Read(strings.NewReader(""), "csv")
	require.ErrorIs(t, err, e.ErrInvalidArgument)

	_, err = Read(strings.NewReader("brand,price\nZara,10\n"), "csv")
	require.ErrorIs(t, err, e.ErrMissingFields)

	res, err := Read(strings.NewReader("title,price\n\"broken,10\nok,5\n"), "csv")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Errors)
}
