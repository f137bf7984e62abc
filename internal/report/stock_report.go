package report

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/wonny/sectorscope/internal/s0_data"
)

// StockReport is the structured single-stock analysis returned by the report generator
type StockReport struct {
	Introduction   string   `json:"introduction" validate:"required"`
	Recommendation string   `json:"recommendation" validate:"required,oneof=LONG SHORT"`
	Confidence     string   `json:"confidence" validate:"required,oneof=HIGH MEDIUM LOW"`
	Strengths      []string `json:"strengths" validate:"required,min=1,dive,required"`
	Weaknesses     []string `json:"weaknesses" validate:"required,min=1,dive,required"`
	MarketPosition string   `json:"marketPosition"`
}

var reportValidator = validator.New()

// ParseStockReport extracts and validates a StockReport from model output.
// Fenced or slightly malformed JSON is accepted.
func ParseStockReport(text string) (*StockReport, error) {
	var r StockReport
	if _, err := s0_data.ParseJSONLenient(text, &r); err != nil {
		return nil, fmt.Errorf("failed to parse stock report: %w", err)
	}

	r.Recommendation = strings.ToUpper(strings.TrimSpace(r.Recommendation))
	r.Confidence = strings.ToUpper(strings.TrimSpace(r.Confidence))

	if err := reportValidator.Struct(&r); err != nil {
		return nil, fmt.Errorf("invalid stock report: %w", err)
	}
	return &r, nil
}
