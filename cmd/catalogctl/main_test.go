package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLinesSkipsBlank(t *testing.T) {
	path := filepath.Join(t.TempDir(), "descriptions.txt")
	require.NoError(t, os.WriteFile(path, []byte("Linen shirt, $19.99\n\n   \nWool coat by Zara\n"), 0o644))

	lines, err := readLines(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Linen shirt, $19.99", "Wool coat by Zara"}, lines)
}

func TestReportFailsOnlyWhenNothingSucceeded(t *testing.T) {
	assert.NoError(t, report("import", 3, 1))
	assert.NoError(t, report("import", 0, 0))
	assert.Error(t, report("import", 0, 2))
}

func TestSeedProductsHavePrices(t *testing.T) {
	for _, p := range seedProducts {
		assert.NotEmpty(t, p.Title)
		assert.NotEmpty(t, p.Price, p.Title)
		assert.Empty(t, p.Source, "source is assigned by the seed command")
	}
}
