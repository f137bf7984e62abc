package s0_data

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/sectorscope/internal/contracts"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		stock      contracts.CanonicalStock
		wantValid  bool
		wantIssues []string
	}{
		{
			name: "valid stock",
			stock: contracts.CanonicalStock{
				Symbol: "AAPL", Sector: "Tech", Price: contracts.Float(190),
				PERatio: contracts.Float(29), DebtToEquity: contracts.Float(0),
			},
			wantValid:  true,
			wantIssues: []string{},
		},
		{
			name:      "missing identifiers and price",
			stock:     contracts.CanonicalStock{},
			wantValid: false,
			wantIssues: []string{
				"Missing symbol",
				"Missing sector",
				"Missing or invalid price",
			},
		},
		{
			name: "out of range pe",
			stock: contracts.CanonicalStock{
				Symbol: "BIG", Sector: "Tech", Price: contracts.Float(10), PERatio: contracts.Float(9999),
			},
			wantValid:  false,
			wantIssues: []string{"Out of range peRatio: 9999 (expected 0.01..500)"},
		},
		{
			name: "net income bounds print without exponent",
			stock: contracts.CanonicalStock{
				Symbol: "NI", Sector: "Tech", Price: contracts.Float(10), NetIncome: contracts.Float(2e14),
			},
			wantValid:  false,
			wantIssues: []string{"Out of range netIncome: 200000000000000 (expected -10000000000000..100000000000000)"},
		},
		{
			name: "non-finite metric",
			stock: contracts.CanonicalStock{
				Symbol: "INF", Sector: "Tech", Price: contracts.Float(10), ROE: contracts.Float(math.Inf(1)),
			},
			wantValid:  false,
			wantIssues: []string{"Invalid roe: not a number"},
		},
		{
			name: "malformed fields",
			stock: contracts.CanonicalStock{
				Symbol: "BAD", Sector: "Tech",
				MalformedFields: []string{contracts.FieldPrice, contracts.FieldMarketCap},
			},
			wantValid: false,
			wantIssues: []string{
				"Missing or invalid price",
				"Invalid marketCap: not a number",
			},
		},
		{
			name: "non-finite price reported once",
			stock: contracts.CanonicalStock{
				Symbol: "NAN", Sector: "Tech", Price: contracts.Float(math.NaN()),
			},
			wantValid:  false,
			wantIssues: []string{"Missing or invalid price"},
		},
		{
			name: "price below minimum",
			stock: contracts.CanonicalStock{
				Symbol: "PNY", Sector: "Tech", Price: contracts.Float(0.001),
			},
			wantValid:  false,
			wantIssues: []string{"Out of range price: 0.001 (expected 0.01..100000)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Validate(&tt.stock)
			assert.Equal(t, tt.wantValid, got.Valid)
			assert.Equal(t, tt.wantIssues, got.Issues)
		})
	}
}
