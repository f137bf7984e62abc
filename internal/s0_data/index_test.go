package s0_data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex(t *testing.T) {
	idx := NewIndex(loadSample(t))

	assert.Equal(t, []string{"information_technology", "consumer_staples"}, idx.SectorKeys())
	assert.Equal(t, []string{"MSFT", "ODD", "AAPL"}, idx.SymbolsBySector("information_technology"))
	assert.Empty(t, idx.SymbolsBySector("unknown"))
	assert.Equal(t, 4, idx.Len())

	entry, ok := idx.Lookup("MSFT")
	require.True(t, ok)
	assert.Equal(t, "information_technology", entry.SectorKey)
	assert.Equal(t, "Information Technology", entry.SectorLabel)
	// percent semantics come from the aggregator, never re-derived
	assert.Equal(t, 8.0, *entry.Stock.RevenueGrowth)

	_, ok = idx.Lookup("GONE")
	assert.False(t, ok)

	assert.Equal(t, "KO", idx.StockName("KO"))
	assert.Equal(t, "ZZZ", idx.StockName("ZZZ"))
}

func TestIndex_ReturnsCopies(t *testing.T) {
	idx := NewIndex(loadSample(t))

	keys := idx.SectorKeys()
	keys[0] = "mutated"
	assert.Equal(t, "information_technology", idx.SectorKeys()[0])

	symbols := idx.SymbolsBySector("consumer_staples")
	symbols[0] = "mutated"
	assert.Equal(t, []string{"KO"}, idx.SymbolsBySector("consumer_staples"))
}

func TestIndex_Nil(t *testing.T) {
	idx := NewIndex(nil)
	assert.Empty(t, idx.SectorKeys())
	assert.Zero(t, idx.Len())
}
