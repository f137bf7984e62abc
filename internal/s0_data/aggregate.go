package s0_data

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/wonny/sectorscope/internal/contracts"
)

// FlattenResult is the canonical stock list plus issues of invalid records by symbol
type FlattenResult struct {
	Stocks []contracts.CanonicalStock `json:"stocks"`
	Issues map[string][]string        `json:"issues"`
}

// Flatten normalizes and validates every stock of a dataset in source order.
// ⭐ SSOT: 분수→퍼센트 보정은 이 단계에서 한 번만 수행
func Flatten(dataset *contracts.Dataset) FlattenResult {
	result := FlattenResult{
		Stocks: make([]contracts.CanonicalStock, 0),
		Issues: make(map[string][]string),
	}
	if dataset == nil {
		return result
	}

	for _, sector := range dataset.Sectors {
		if sector.Node == nil || !sector.Node.HasStocks {
			continue
		}
		label := FormatSectorName(sector.Key, sector.Node.SectorName)

		for _, entry := range sector.Node.Stocks {
			if entry.Raw == nil {
				continue
			}

			adjusted := *entry.Raw
			adjusted.FreeCashFlowMargin = ToPercentIfFraction(adjusted.FreeCashFlowMargin)
			adjusted.RevGrowth = ToPercentIfFraction(adjusted.RevGrowth)
			adjusted.NetIncomeGrowth = ToPercentIfFraction(adjusted.NetIncomeGrowth)
			// roe is already on the percent scale in source data

			stock := Normalize(entry.Symbol, label, &adjusted)
			validation := Validate(&stock)
			if !validation.Valid {
				result.Issues[entry.Symbol] = validation.Issues
			}
			stock.ValidationIssues = validation.Issues
			result.Stocks = append(result.Stocks, stock)
		}
	}

	return result
}

// FormatSectorName prefers the label hint without a trailing " Sector",
// otherwise title-cases the underscore separated key
func FormatSectorName(sectorKey string, hint *string) string {
	if hint != nil {
		name := strings.TrimSpace(*hint)
		return strings.TrimSuffix(name, " Sector")
	}
	return titleWords(sectorKey)
}

// ToPercentIfFraction scales a value strictly inside (-1, 1) by 100.
// Lossy for genuinely tiny percentages (0.5% reads as a fraction).
func ToPercentIfFraction(n contracts.RawNumber) contracts.RawNumber {
	if !n.Valid {
		return n
	}
	if n.Value > -1 && n.Value < 1 {
		return contracts.RawNum(n.Value * 100)
	}
	return n
}

func titleWords(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if r, size := utf8.DecodeRuneInString(w); size > 0 {
			words[i] = string(unicode.ToUpper(r)) + w[size:]
		}
	}
	return strings.Join(words, " ")
}
