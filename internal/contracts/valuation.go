package contracts

// Valuation is the blended fair value estimate of one stock
// ⭐ SSOT: S3 밸류에이션 결과
type Valuation struct {
	Inputs           ValuationInputs     `json:"inputs"`
	Components       ValuationComponents `json:"components"`
	BlendedFairPrice *float64            `json:"blendedFairPrice"`
	UpsidePct        *float64            `json:"upsidePct"`
	MarginOfSafety   *float64            `json:"marginOfSafety"`
}

// ValuationInputs echoes the values used
type ValuationInputs struct {
	Price   *float64         `json:"price"`
	PE      *float64         `json:"pe"`
	PB      *float64         `json:"pb"`
	PS      *float64         `json:"ps"`
	MeanPE  float64          `json:"meanPE"`
	MeanPB  float64          `json:"meanPB"`
	MeanPS  float64          `json:"meanPS"`
	Weights ValuationWeights `json:"weights"`
}

// ValuationWeights are the effective method weights
type ValuationWeights struct {
	PE float64 `json:"pe"`
	PB float64 `json:"pb"`
	PS float64 `json:"ps"`
}

// ValuationComponents holds implied per-share fundamentals and per-method fair prices
type ValuationComponents struct {
	EarningsPerShare *float64 `json:"earningsPerShare"`
	BookPerShare     *float64 `json:"bookPerShare"`
	SalesPerShare    *float64 `json:"salesPerShare"`
	FairByPE         *float64 `json:"fairByPE"`
	FairByPB         *float64 `json:"fairByPB"`
	FairByPS         *float64 `json:"fairByPS"`
}

// ValuedCandidate is a screening result with its valuation attached
type ValuedCandidate struct {
	ScreeningResult
	Valuation Valuation `json:"valuation"`
}

// Upside returns the upside percentage or nil
func (c *ValuedCandidate) Upside() *float64 {
	return c.Valuation.UpsidePct
}
