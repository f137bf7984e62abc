package s0_data

import (
	"regexp"
	"strconv"

	"github.com/wonny/sectorscope/internal/contracts"
)

// priceRangePattern matches "lo-hi" price strings such as "185.5 - 190"
var priceRangePattern = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)\s*-\s*(\d+(?:\.\d+)?)\s*$`)

// Normalize maps a raw record onto the canonical schema.
// Pure mapping: no range checks and no percent rescaling.
// ⭐ SSOT: raw(snake_case) → canonical(camelCase) 매핑은 여기서만
func Normalize(symbol, sectorLabel string, raw *contracts.RawStockRecord) contracts.CanonicalStock {
	stock := contracts.CanonicalStock{
		Symbol: symbol,
		Sector: sectorLabel,
	}
	if raw == nil {
		return stock
	}

	var malformed []string
	take := func(field string, n contracts.RawNumber) *float64 {
		if n.Malformed() {
			malformed = append(malformed, field)
		}
		return n.Ptr()
	}

	stock.Price = normalizePrice(raw, &malformed)
	stock.PERatio = take(contracts.FieldPERatio, raw.PERatio)
	stock.PriceToBook = take(contracts.FieldPriceToBook, raw.PBRatio)
	stock.PriceToSales = take(contracts.FieldPriceToSales, raw.PSRatio)
	stock.ROE = take(contracts.FieldROE, raw.ROE)
	stock.NetIncome = take(contracts.FieldNetIncome, raw.NetIncome)
	stock.FreeCashFlowMargin = take(contracts.FieldFreeCashFlowMargin, raw.FreeCashFlowMargin)
	stock.DebtToEquity = take(contracts.FieldDebtToEquity, raw.DERatio)
	stock.RevenueGrowth = take(contracts.FieldRevenueGrowth, raw.RevGrowth)
	stock.NetIncomeGrowth = take(contracts.FieldNetIncomeGrowth, raw.NetIncomeGrowth)
	stock.MarketCap = take(contracts.FieldMarketCap, raw.MarketCap)
	stock.Name = raw.Name
	stock.MalformedFields = malformed

	return stock
}

// normalizePrice reads price, falling back to price_range when price is absent
func normalizePrice(raw *contracts.RawStockRecord, malformed *[]string) *float64 {
	source := raw.Price
	if !source.Present {
		source = raw.PriceRange
	}
	if !source.Present {
		return nil
	}

	if v, ok := ParsePriceLike(source); ok {
		return &v
	}
	*malformed = append(*malformed, contracts.FieldPrice)
	return nil
}

// ParsePriceLike resolves a numeric price or the midpoint of a "lo-hi" range
func ParsePriceLike(n contracts.RawNumber) (float64, bool) {
	if n.Valid {
		return n.Value, true
	}
	m := priceRangePattern.FindStringSubmatch(n.Text)
	if m == nil {
		return 0, false
	}
	lo, err1 := strconv.ParseFloat(m[1], 64)
	hi, err2 := strconv.ParseFloat(m[2], 64)
	if err1 != nil || err2 != nil {
		return 0, false
	}
	return (lo + hi) / 2, true
}

// Denormalize re-expresses a canonical record with raw field names
func Denormalize(stock contracts.CanonicalStock) contracts.RawStockRecord {
	raw := func(v *float64) contracts.RawNumber {
		if v == nil {
			return contracts.RawNumber{}
		}
		return contracts.RawNum(*v)
	}

	return contracts.RawStockRecord{
		Price:              raw(stock.Price),
		PERatio:            raw(stock.PERatio),
		PBRatio:            raw(stock.PriceToBook),
		PSRatio:            raw(stock.PriceToSales),
		ROE:                raw(stock.ROE),
		NetIncome:          raw(stock.NetIncome),
		FreeCashFlowMargin: raw(stock.FreeCashFlowMargin),
		DERatio:            raw(stock.DebtToEquity),
		RevGrowth:          raw(stock.RevenueGrowth),
		NetIncomeGrowth:    raw(stock.NetIncomeGrowth),
		MarketCap:          raw(stock.MarketCap),
		Name:               stock.Name,
	}
}
