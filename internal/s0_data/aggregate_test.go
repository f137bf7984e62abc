package s0_data

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sectorscope/internal/contracts"
)

const sampleDataset = `{
  "sectors": {
    "information_technology": {
      "sector_name": "  Information Technology Sector ",
      "sector_etf": "XLK",
      "stocks": {
        "MSFT": {"price": 410, "pe_ratio": 35, "pb_ratio": 12, "ps_ratio": 13, "roe": 38,
                 "free_cash_flow_margin": 0.32, "rev_growth": 0.08, "net_income_growth": -0.5},
        "ODD": {"price": "abc", "pe_ratio": 9999},
        "GONE": null,
        "AAPL": {"price": "185-195", "pe_ratio": 29, "rev_growth": 5}
      }
    },
    "consumer_staples": {
      "stocks": {
        "KO": {"price": 60, "pe_ratio": 24, "free_cash_flow_margin": 1, "rev_growth": -1}
      }
    },
    "skip_me": {"sector_name": "Nothing"},
    "null_sector": null
  }
}`

func loadSample(t *testing.T) *contracts.Dataset {
	t.Helper()
	var ds contracts.Dataset
	require.NoError(t, json.Unmarshal([]byte(sampleDataset), &ds))
	return &ds
}

func TestFlatten(t *testing.T) {
	result := Flatten(loadSample(t))

	require.Len(t, result.Stocks, 4)
	symbols := []string{}
	for _, s := range result.Stocks {
		symbols = append(symbols, s.Symbol)
	}
	assert.Equal(t, []string{"MSFT", "ODD", "AAPL", "KO"}, symbols)

	msft := result.Stocks[0]
	assert.Equal(t, "Information Technology", msft.Sector)
	assert.Equal(t, 32.0, *msft.FreeCashFlowMargin)
	assert.Equal(t, 8.0, *msft.RevenueGrowth)
	assert.Equal(t, -50.0, *msft.NetIncomeGrowth)
	assert.Equal(t, 38.0, *msft.ROE)
	assert.NotNil(t, msft.ValidationIssues)
	assert.Empty(t, msft.ValidationIssues)

	odd := result.Stocks[1]
	assert.Equal(t, []string{
		"Missing or invalid price",
		"Out of range peRatio: 9999 (expected 0.01..500)",
	}, odd.ValidationIssues)
	assert.Equal(t, odd.ValidationIssues, result.Issues["ODD"])

	aapl := result.Stocks[2]
	assert.Equal(t, 190.0, *aapl.Price)
	assert.Equal(t, 5.0, *aapl.RevenueGrowth)

	ko := result.Stocks[3]
	assert.Equal(t, "Consumer Staples", ko.Sector)
	// boundary values are already percentages
	assert.Equal(t, 1.0, *ko.FreeCashFlowMargin)
	assert.Equal(t, -1.0, *ko.RevenueGrowth)

	assert.Len(t, result.Issues, 1)
	assert.NotContains(t, result.Issues, "MSFT")
}

func TestFlatten_Empty(t *testing.T) {
	result := Flatten(nil)
	assert.NotNil(t, result.Stocks)
	assert.Empty(t, result.Stocks)
	assert.NotNil(t, result.Issues)

	result = Flatten(&contracts.Dataset{})
	assert.Empty(t, result.Stocks)
}

func TestToPercentIfFraction(t *testing.T) {
	tests := []struct {
		name string
		in   contracts.RawNumber
		want contracts.RawNumber
	}{
		{"fraction", contracts.RawNum(0.08), contracts.RawNum(8)},
		{"negative fraction", contracts.RawNum(-0.25), contracts.RawNum(-25)},
		{"zero", contracts.RawNum(0), contracts.RawNum(0)},
		{"already percent", contracts.RawNum(12), contracts.RawNum(12)},
		{"boundary", contracts.RawNum(1), contracts.RawNum(1)},
		{"absent", contracts.RawNumber{}, contracts.RawNumber{}},
		{"malformed", contracts.RawText("n/a"), contracts.RawText("n/a")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToPercentIfFraction(tt.in))
		})
	}
}

func TestFormatSectorName(t *testing.T) {
	hint := func(s string) *string { return &s }

	tests := []struct {
		key  string
		hint *string
		want string
	}{
		{"energy", hint("Energy Sector"), "Energy"},
		{"energy", hint("  Energy  "), "Energy"},
		{"energy", hint("Sector"), "Sector"},
		{"information_technology", nil, "Information Technology"},
		{"real__estate", nil, "Real  Estate"},
		{"", nil, ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatSectorName(tt.key, tt.hint), tt.key)
	}
}

func TestFlatten_RescaleIsIdempotent(t *testing.T) {
	first := Flatten(loadSample(t))

	// rebuild a dataset from canonical output and flatten again
	node := &contracts.SectorNode{HasStocks: true}
	label := "Information Technology"
	node.SectorName = &label
	for _, s := range first.Stocks[:1] {
		raw := Denormalize(s)
		node.Stocks = append(node.Stocks, contracts.StockEntry{Symbol: s.Symbol, Raw: &raw})
	}
	second := Flatten(&contracts.Dataset{Sectors: []contracts.SectorEntry{{Key: "information_technology", Node: node}}})

	require.Len(t, second.Stocks, 1)
	assert.Equal(t, first.Stocks[0], second.Stocks[0])
}

func TestFlatten_RepeatedSymbolAppearsOnce(t *testing.T) {
	var ds contracts.Dataset
	require.NoError(t, json.Unmarshal([]byte(
		`{"sectors":{"tech":{"stocks":{"AAA":{"price":1,"pe_ratio":10},"AAA":{"price":2,"pe_ratio":30}}}}}`), &ds))

	result := Flatten(&ds)
	require.Len(t, result.Stocks, 1)
	assert.Equal(t, "AAA", result.Stocks[0].Symbol)
	assert.Equal(t, 2.0, *result.Stocks[0].Price)
	assert.Equal(t, 30.0, *result.Stocks[0].PERatio)
}
