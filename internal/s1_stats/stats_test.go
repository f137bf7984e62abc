package s1_stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/sectorscope/internal/contracts"
)

func stock(sector string, price, pe, pb, ps *float64) contracts.CanonicalStock {
	return contracts.CanonicalStock{Symbol: "X", Sector: sector, Price: price, PERatio: pe, PriceToBook: pb, PriceToSales: ps}
}

var f = contracts.Float

func TestComputeSectorStats(t *testing.T) {
	tests := []struct {
		name   string
		stocks []contracts.CanonicalStock
		sector string
		want   contracts.SectorStatistics
	}{
		{
			name: "negative multiple excluded",
			stocks: []contracts.CanonicalStock{
				stock("Tech", f(10), f(-5), nil, nil),
				stock("Tech", f(10), f(20), nil, nil),
			},
			sector: "Tech",
			want:   contracts.SectorStatistics{Sector: "Tech", MeanPE: 20},
		},
		{
			name: "other sectors and unusable prices ignored",
			stocks: []contracts.CanonicalStock{
				stock("Tech", f(10), f(10), f(2), f(4)),
				stock("Tech", f(0), f(100), f(100), f(100)),
				stock("Tech", nil, f(100), f(100), f(100)),
				stock("Energy", f(10), f(100), f(100), f(100)),
				stock("Tech", f(10), f(30), f(0), f(math.Inf(1))),
			},
			sector: "Tech",
			want:   contracts.SectorStatistics{Sector: "Tech", MeanPE: 20, MeanPriceToBook: 2, MeanPriceToSales: 4},
		},
		{
			name:   "no qualifying values yields zero sentinel",
			stocks: []contracts.CanonicalStock{stock("Tech", f(10), nil, nil, nil)},
			sector: "Tech",
			want:   contracts.SectorStatistics{Sector: "Tech"},
		},
		{
			name:   "empty input",
			sector: "Tech",
			want:   contracts.SectorStatistics{Sector: "Tech"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeSectorStats(tt.stocks, tt.sector)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.MeanPE > 0 || tt.want.MeanPriceToBook > 0 || tt.want.MeanPriceToSales > 0, got.HasSignal())
		})
	}
}

func TestComputeAll_MatchesPerSector(t *testing.T) {
	stocks := []contracts.CanonicalStock{
		stock("Tech", f(10), f(10), f(3), nil),
		stock("Tech", f(12), f(30), nil, f(5)),
		stock("Energy", f(50), f(8), f(1.5), f(1)),
		stock("Energy", f(-1), f(80), nil, nil),
		stock("Utilities", nil, f(15), nil, nil),
	}

	all := ComputeAll(stocks)
	assert.Len(t, all, 3)
	for sector, stats := range all {
		assert.Equal(t, ComputeSectorStats(stocks, sector), stats, sector)
	}
	assert.False(t, all["Utilities"].HasSignal())
}
