package s0_data

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sectorscope/internal/contracts"
)

func decodeRecord(t *testing.T, body string) *contracts.RawStockRecord {
	t.Helper()
	var rec contracts.RawStockRecord
	require.NoError(t, json.Unmarshal([]byte(body), &rec))
	return &rec
}

func TestNormalize_MapsFields(t *testing.T) {
	raw := decodeRecord(t, `{
		"price": 120, "pe_ratio": 15, "pb_ratio": 2.5, "ps_ratio": "3",
		"roe": 18, "net_income": 5e9, "free_cash_flow_margin": 0.12,
		"de_ratio": 0.6, "rev_growth": 7, "net_income_growth": 9,
		"market_cap": 1.2e11, "name": "Acme Corp"
	}`)

	stock := Normalize("ACME", "Industrials", raw)

	assert.Equal(t, "ACME", stock.Symbol)
	assert.Equal(t, "Industrials", stock.Sector)
	assert.Equal(t, 120.0, *stock.Price)
	assert.Equal(t, 15.0, *stock.PERatio)
	assert.Equal(t, 2.5, *stock.PriceToBook)
	assert.Equal(t, 3.0, *stock.PriceToSales)
	assert.Equal(t, 18.0, *stock.ROE)
	assert.Equal(t, 5e9, *stock.NetIncome)
	// no rescaling in the normalizer itself
	assert.Equal(t, 0.12, *stock.FreeCashFlowMargin)
	assert.Equal(t, 0.6, *stock.DebtToEquity)
	assert.Equal(t, 7.0, *stock.RevenueGrowth)
	assert.Equal(t, 9.0, *stock.NetIncomeGrowth)
	assert.Equal(t, 1.2e11, *stock.MarketCap)
	assert.Equal(t, "Acme Corp", stock.Name)
	assert.Empty(t, stock.MalformedFields)
}

func TestNormalize_MissingAndMalformed(t *testing.T) {
	raw := decodeRecord(t, `{"price": "n/a", "pe_ratio": null, "roe": "high"}`)

	stock := Normalize("XYZ", "Energy", raw)

	assert.Nil(t, stock.Price)
	assert.Nil(t, stock.PERatio)
	assert.Nil(t, stock.ROE)
	assert.Nil(t, stock.PriceToBook)
	assert.ElementsMatch(t, []string{contracts.FieldPrice, contracts.FieldROE}, stock.MalformedFields)

	empty := Normalize("NIL", "Energy", nil)
	assert.Nil(t, empty.Price)
	assert.Empty(t, empty.MalformedFields)
}

func TestNormalize_PriceVariants(t *testing.T) {
	tests := []struct {
		name string
		body string
		want *float64
	}{
		{"number", `{"price": 42.5}`, contracts.Float(42.5)},
		{"numeric string", `{"price": "42.5"}`, contracts.Float(42.5)},
		{"range string", `{"price": "100-120"}`, contracts.Float(110)},
		{"spaced range", `{"price": " 10.5 - 11.5 "}`, contracts.Float(11)},
		{"price_range fallback", `{"price_range": "180-190"}`, contracts.Float(185)},
		{"price wins over range", `{"price": 50, "price_range": "180-190"}`, contracts.Float(50)},
		{"missing", `{}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stock := Normalize("S", "Tech", decodeRecord(t, tt.body))
			if tt.want == nil {
				assert.Nil(t, stock.Price)
				return
			}
			require.NotNil(t, stock.Price)
			assert.Equal(t, *tt.want, *stock.Price)
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	raw := decodeRecord(t, `{
		"price": 88.4, "pe_ratio": 21, "pb_ratio": 4.2, "roe": 0.5,
		"free_cash_flow_margin": 0.08, "rev_growth": 12, "name": "Idem"
	}`)

	first := Normalize("IDM", "Tech", raw)
	again := Denormalize(first)
	second := Normalize("IDM", "Tech", &again)

	assert.Equal(t, first, second)
}
