package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wonny/sectorscope/internal/contracts"
)

// MaxIssuesPerStock caps validation issues carried into prompts
const MaxIssuesPerStock = 5

// promptStock is the per-stock payload sent to the analyst model
type promptStock struct {
	Symbol             string   `json:"symbol"`
	Price              *float64 `json:"price"`
	PERatio            *float64 `json:"peRatio"`
	PriceToBook        *float64 `json:"priceToBook"`
	PriceToSales       *float64 `json:"priceToSales"`
	ROE                *float64 `json:"roe"`
	NetIncome          *float64 `json:"netIncome"`
	FreeCashFlowMargin *float64 `json:"freeCashFlowMargin"`
	DebtToEquity       *float64 `json:"debtToEquity"`
	RevenueGrowth      *float64 `json:"revenueGrowth"`
	NetIncomeGrowth    *float64 `json:"netIncomeGrowth"`
	ScreeningScore     *float64 `json:"screeningScore"`
	ValidationIssues   []string `json:"validationIssues"`
}

type analysisPayload struct {
	Sector        string                      `json:"sector"`
	Stocks        []promptStock               `json:"stocks"`
	SectorMetrics *contracts.SectorStatistics `json:"sectorMetrics"`
	MarketTrends  json.RawMessage             `json:"marketTrends"`
}

// AnalysisInput is the data behind a sector analysis prompt
type AnalysisInput struct {
	Sector        string
	Stocks        []contracts.ScreeningResult
	SectorMetrics *contracts.SectorStatistics
	MarketTrends  json.RawMessage // optional, passed through verbatim
}

// BuildAnalysisPrompt serializes the top screened stocks into a sector analysis request
// ⭐ SSOT: 섹터 분석 프롬프트 생성은 여기서만
func BuildAnalysisPrompt(in AnalysisInput) (string, error) {
	payload := analysisPayload{
		Sector:        in.Sector,
		Stocks:        make([]promptStock, 0, len(in.Stocks)),
		SectorMetrics: in.SectorMetrics,
		MarketTrends:  in.MarketTrends,
	}
	if len(payload.MarketTrends) == 0 {
		payload.MarketTrends = json.RawMessage("null")
	}

	for i := range in.Stocks {
		s := &in.Stocks[i]
		payload.Stocks = append(payload.Stocks, promptStock{
			Symbol:             s.Symbol,
			Price:              s.Price,
			PERatio:            s.PERatio,
			PriceToBook:        s.PriceToBook,
			PriceToSales:       s.PriceToSales,
			ROE:                s.ROE,
			NetIncome:          s.NetIncome,
			FreeCashFlowMargin: s.FreeCashFlowMargin,
			DebtToEquity:       s.DebtToEquity,
			RevenueGrowth:      s.RevenueGrowth,
			NetIncomeGrowth:    s.NetIncomeGrowth,
			ScreeningScore:     s.ScreeningScore,
			ValidationIssues:   capIssues(s.ValidationIssues),
		})
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal prompt payload: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are an equity research analyst. Analyze %s sector for mean reversion opportunities.\n\n", in.Sector)
	fmt.Fprintf(&b, "Data (JSON):\n%s\n\n", data)
	b.WriteString("Instructions:\n")
	b.WriteString("1) Identify undervalued stocks with potential for mean reversion.\n")
	b.WriteString("2) Provide risk assessment and rationale (valuation vs sector, ROE, FCF margin, leverage, growth).\n")
	b.WriteString("3) Give clear investment recommendations and caveats.\n")
	b.WriteString("4) Return sections: Executive Summary, Key Findings, Market Analysis, Risks, Recommendations, Conclusion.")

	return b.String(), nil
}

// BuildStockPrompt asks for a single-stock report in the StockReport JSON shape
func BuildStockPrompt(candidate *contracts.RankedCandidate, sector *contracts.RankingOutcome) (string, error) {
	stockJSON, err := json.MarshalIndent(candidate, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal stock data: %w", err)
	}

	var sectorJSON []byte
	if sector != nil {
		sectorJSON, err = json.MarshalIndent(struct {
			Sector      string                      `json:"sector"`
			SectorStats *contracts.SectorStatistics `json:"sectorStats"`
		}{sector.Sector, sector.SectorStats}, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal sector data: %w", err)
		}
	} else {
		sectorJSON = []byte("{}")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a senior financial analyst. Using ONLY the structured JSON data below, generate a comprehensive investment analysis for %s. Do not invent metrics that are not present in the data.\n\n", candidate.Symbol)
	fmt.Fprintf(&b, "STOCK DATA:\n%s\n\n", stockJSON)
	fmt.Fprintf(&b, "SECTOR DATA:\n%s\n\n", sectorJSON)
	b.WriteString(stockReportInstructions)
	return b.String(), nil
}

const stockReportInstructions = `You must provide your analysis in this EXACT JSON format (no markdown, no additional text):

{
  "introduction": "A 2-3 sentence company overview describing what the company does and its business model",
  "recommendation": "LONG or SHORT",
  "confidence": "HIGH or MEDIUM or LOW",
  "strengths": ["First key strength based on the data", "Second key strength", "Third key strength"],
  "weaknesses": ["First key weakness or risk based on the data", "Second key weakness", "Third key weakness"],
  "marketPosition": "A single paragraph describing the company's competitive position and market dynamics"
}

Analysis guidelines:
- Base your recommendation on actual financial metrics provided (P/E, P/B, ROE, growth rates, etc.)
- If data is missing, mention it as a limitation but still provide analysis based on available information
- Keep each array item to 1-2 sentences maximum

Return ONLY the JSON object, no other text.`

func capIssues(issues []string) []string {
	if issues == nil {
		return []string{}
	}
	if len(issues) > MaxIssuesPerStock {
		return issues[:MaxIssuesPerStock]
	}
	return issues
}
