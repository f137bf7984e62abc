package s0_data

import (
	"fmt"
	"math"
	"strconv"

	"github.com/wonny/sectorscope/internal/contracts"
)

// Range is an inclusive acceptable interval for a metric
type Range struct {
	Field string
	Min   float64
	Max   float64
}

// Ranges is the acceptable range table, checked in this order.
// Percent fields are on the 0-100 scale.
var Ranges = []Range{
	{contracts.FieldPERatio, 0.01, 500},
	{contracts.FieldPriceToBook, 0.01, 200},
	{contracts.FieldPriceToSales, 0.01, 200},
	{contracts.FieldDebtToEquity, 0, 10},
	{contracts.FieldROE, -200, 500},
	{contracts.FieldFreeCashFlowMargin, -100, 100},
	{contracts.FieldRevenueGrowth, -100, 500},
	{contracts.FieldNetIncomeGrowth, -100, 1000},
	{contracts.FieldPrice, 0.01, 100000},
	{contracts.FieldNetIncome, -1e13, 1e14},
}

// ValidationResult is the outcome of a soft validation
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues"`
}

// Validate checks identifiers, price and metric ranges.
// Annotates only: the caller keeps the record either way.
func Validate(stock *contracts.CanonicalStock) ValidationResult {
	issues := make([]string, 0)

	if stock.Symbol == "" {
		issues = append(issues, "Missing symbol")
	}
	if stock.Sector == "" {
		issues = append(issues, "Missing sector")
	}
	priceReported := stock.Price == nil || !isFinite(*stock.Price)
	if priceReported {
		issues = append(issues, "Missing or invalid price")
	}

	checked := make(map[string]bool, len(Ranges))
	for _, r := range Ranges {
		checked[r.Field] = true
		// one issue per defect: an unusable price is already reported above
		if r.Field == contracts.FieldPrice && priceReported {
			continue
		}
		if stock.IsMalformed(r.Field) {
			issues = append(issues, fmt.Sprintf("Invalid %s: not a number", r.Field))
			continue
		}
		v := stock.Metric(r.Field)
		if v == nil {
			continue
		}
		if !isFinite(*v) {
			issues = append(issues, fmt.Sprintf("Invalid %s: not a number", r.Field))
			continue
		}
		if *v < r.Min || *v > r.Max {
			issues = append(issues, fmt.Sprintf("Out of range %s: %s (expected %s..%s)",
				r.Field, formatNumber(*v), formatNumber(r.Min), formatNumber(r.Max)))
		}
	}

	// fields without a range (marketCap) still report unparseable input
	for _, field := range stock.MalformedFields {
		if !checked[field] {
			issues = append(issues, fmt.Sprintf("Invalid %s: not a number", field))
		}
	}

	return ValidationResult{Valid: len(issues) == 0, Issues: issues}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
