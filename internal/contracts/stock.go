package contracts

// CanonicalStock is the normalized per-stock record (camelCase, percent fields on 0-100)
// ⭐ SSOT: S0 → S1/S2 정규화된 종목 데이터
type CanonicalStock struct {
	Symbol             string   `json:"symbol"`
	Sector             string   `json:"sector"`
	Price              *float64 `json:"price"`
	PERatio            *float64 `json:"peRatio"`
	PriceToBook        *float64 `json:"priceToBook"`
	PriceToSales       *float64 `json:"priceToSales"`
	ROE                *float64 `json:"roe"`                // percent
	NetIncome          *float64 `json:"netIncome"`
	FreeCashFlowMargin *float64 `json:"freeCashFlowMargin"` // percent
	DebtToEquity       *float64 `json:"debtToEquity"`
	RevenueGrowth      *float64 `json:"revenueGrowth"`   // percent
	NetIncomeGrowth    *float64 `json:"netIncomeGrowth"` // percent
	Name               string   `json:"name,omitempty"`
	MarketCap          *float64 `json:"marketCap"`
	ValidationIssues   []string `json:"validationIssues"`

	// MalformedFields lists canonical field names that were supplied but not numeric
	MalformedFields []string `json:"-"`
}

// Canonical field names
const (
	FieldPrice              = "price"
	FieldPERatio            = "peRatio"
	FieldPriceToBook        = "priceToBook"
	FieldPriceToSales       = "priceToSales"
	FieldROE                = "roe"
	FieldNetIncome          = "netIncome"
	FieldFreeCashFlowMargin = "freeCashFlowMargin"
	FieldDebtToEquity       = "debtToEquity"
	FieldRevenueGrowth      = "revenueGrowth"
	FieldNetIncomeGrowth    = "netIncomeGrowth"
	FieldMarketCap          = "marketCap"
)

// Metric returns a numeric field by canonical name
func (s *CanonicalStock) Metric(field string) *float64 {
	switch field {
	case FieldPrice:
		return s.Price
	case FieldPERatio:
		return s.PERatio
	case FieldPriceToBook:
		return s.PriceToBook
	case FieldPriceToSales:
		return s.PriceToSales
	case FieldROE:
		return s.ROE
	case FieldNetIncome:
		return s.NetIncome
	case FieldFreeCashFlowMargin:
		return s.FreeCashFlowMargin
	case FieldDebtToEquity:
		return s.DebtToEquity
	case FieldRevenueGrowth:
		return s.RevenueGrowth
	case FieldNetIncomeGrowth:
		return s.NetIncomeGrowth
	case FieldMarketCap:
		return s.MarketCap
	default:
		return nil
	}
}

// IsMalformed reports whether field was supplied with a non-numeric value
func (s *CanonicalStock) IsMalformed(field string) bool {
	for _, f := range s.MalformedFields {
		if f == field {
			return true
		}
	}
	return false
}

// HasPositivePrice reports whether price is usable for statistics and valuation
func (s *CanonicalStock) HasPositivePrice() bool {
	return s.Price != nil && *s.Price > 0
}

// DisplayName returns the company name, falling back to the symbol
func (s *CanonicalStock) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Symbol
}

// SectorStatistics holds sector mean multiples; 0 means "no sector signal"
// ⭐ SSOT: S1 섹터 통계 (0 = 신호 없음)
type SectorStatistics struct {
	Sector           string  `json:"sector"`
	MeanPE           float64 `json:"meanPE"`
	MeanPriceToBook  float64 `json:"meanPriceToBook"`
	MeanPriceToSales float64 `json:"meanPriceToSales"`
}

// HasSignal reports whether at least one multiple has a sector mean
func (s SectorStatistics) HasSignal() bool {
	return s.MeanPE > 0 || s.MeanPriceToBook > 0 || s.MeanPriceToSales > 0
}

// Float returns a pointer to v
func Float(v float64) *float64 {
	return &v
}
