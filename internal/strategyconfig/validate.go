package strategyconfig

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

var structValidator = newStructValidator()

// newStructValidator reports field paths using yaml names
func newStructValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Struct tags ===
	if err := structValidator.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return ValidationError{fieldPath(fe.Namespace()), ruleMessage(fe)}
		}
		return err
	}

	// === Screening ===
	if err := validateWeightsSum(scoringWeightList(cfg.Screening.Weights), 1.0, 1e-6); err != nil {
		return ValidationError{"screening.weights", err.Error()}
	}
	b := cfg.Screening.Bands
	if b.RelativeFullCredit >= b.RelativeZeroCredit {
		return ValidationError{"screening.bands", "relative_full_credit must be < relative_zero_credit"}
	}

	// === Valuation ===
	vw := cfg.Valuation.Weights
	if vw.PE+vw.PB+vw.PS <= 0 {
		return ValidationError{"valuation.weights", "at least one weight must be > 0"}
	}

	// === Ranking ===
	cw := cfg.Ranking.Combined
	if err := validateWeightsSum([]float64{cw.Screening, cw.Upside}, 1.0, 1e-6); err != nil {
		return ValidationError{"ranking.combined", err.Error()}
	}
	if cw.UpsideFloor >= cw.UpsideCeiling {
		return ValidationError{"ranking.combined", "upside_floor must be < upside_ceiling"}
	}
	if cfg.Ranking.TopN > cfg.Ranking.PromptLimit {
		return ValidationError{"ranking.top_n", fmt.Sprintf("must be <= prompt_limit (%d)", cfg.Ranking.PromptLimit)}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	// 규칙 없음 → 모든 종목이 passed
	if cfg.Screening.Criteria.Configured() == 0 {
		warnings = append(warnings, Warning{
			Code:    "NO_CRITERIA",
			Message: "스크리닝 규칙 미설정: 모든 종목이 통과 처리됨",
		})
	}

	// 업사이드 비중 과다 경고
	if cfg.Ranking.Combined.Upside > 0.5 {
		warnings = append(warnings, Warning{
			Code:    "UPSIDE_HEAVY",
			Message: "upside weight > 50%: 섹터 평균 멀티플 왜곡에 민감",
		})
	}

	// 단일 밸류에이션 방법 의존 경고
	vw := cfg.Valuation.Weights
	methods := 0
	for _, w := range []float64{vw.PE, vw.PB, vw.PS} {
		if w > 0 {
			methods++
		}
	}
	if methods == 1 {
		warnings = append(warnings, Warning{
			Code:    "SINGLE_METHOD",
			Message: "밸류에이션 방법 1개: 해당 멀티플 결측 시 공정가 없음",
		})
	}

	// 상위 N 과다 경고
	if cfg.Ranking.TopN > 10 {
		warnings = append(warnings, Warning{
			Code:    "LARGE_TOP_N",
			Message: "top_n > 10: 섹터별 후보가 과도함",
		})
	}

	return warnings
}

// === Helper Functions ===

func scoringWeightList(w ScoringWeights) []float64 {
	return []float64{w.PE, w.PB, w.PS, w.ROE, w.FCFMargin, w.RevenueGrowth, w.DebtToEquity}
}

func validateWeightsSum(weights []float64, target float64, epsilon float64) error {
	if len(weights) == 0 {
		return errors.New("must not be empty")
	}
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if math.Abs(sum-target) > epsilon {
		return fmt.Errorf("must sum to %.2f, got %.4f", target, sum)
	}
	return nil
}

// fieldPath drops the root struct name ("Config.meta.strategy_id" → "meta.strategy_id")
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "gt", "gte", "lt", "lte", "min", "max":
		return fmt.Sprintf("must satisfy %s=%s", fe.Tag(), fe.Param())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
