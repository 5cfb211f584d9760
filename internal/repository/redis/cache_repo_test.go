package redis

import (
	"testing"

	"github.com/briannabogos1157/threadtwin/internal/repository/redis/converter"
	"github.com/briannabogos1157/threadtwin/internal/usecase"
	"github.com/stretchr/testify/assert"
)

func TestSearchKey(t *testing.T) {
	assert.Equal(t, searchKey(1, "Linen Shirt"), searchKey(1, "  linen shirt "))
	assert.NotEqual(t, searchKey(1, "linen"), searchKey(2, "linen"))
	assert.NotEqual(t, searchKey(1, "linen"), searchKey(1, "wool"))
	assert.Regexp(t, `^products:search:v7:[0-9a-f]{16}$`, searchKey(7, "silk"))
}

func TestSummaryConverter(t *testing.T) {
	conv := converter.ProductSummaryConverter{}
	in := []usecase.ProductSummary{{ID: 3, Title: "Silk Scarf", Price: "12.50", Brand: "Zara"}}

	assert.Equal(t, in, conv.ToArrUseCase(conv.ToArrRedisModel(in)))
	assert.NotNil(t, conv.ToArrUseCase(nil))
}
