package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gocarina/gocsv"

	"github.com/wonny/sectorscope/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const (
	doubleLine = "═══════════════════════════════════════════════════════════"
	singleLine = "───────────────────────────────────────────────────────────"
)

// PrintRunHeader prints the header of an analysis run
func PrintRunHeader(w io.Writer, run *contracts.AnalysisRun) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, doubleLine)
	fmt.Fprintf(w, "  %s Sector Analysis\n", run.Sector)
	fmt.Fprintln(w, singleLine)
	PrintKeyValue(w, "Run ID", run.RunID, 12)
	if run.StrategyID != "" {
		PrintKeyValue(w, "Strategy", run.StrategyID, 12)
	}
	PrintKeyValue(w, "Stocks", fmt.Sprintf("%d in sector / %d total", run.SectorStocks, run.TotalStocks), 12)
	PrintKeyValue(w, "Invalid", strconv.Itoa(run.InvalidCount), 12)
	if run.Quality != nil {
		status := "passed"
		if !run.Quality.Passed {
			status = "below threshold"
		}
		PrintKeyValue(w, "Quality", fmt.Sprintf("%.2f (%s)", run.Quality.QualityScore, status), 12)
	}
	PrintKeyValue(w, "Duration", run.Duration().String(), 12)
	fmt.Fprintln(w, singleLine)
}

// PrintRankingTable prints ranked candidates as a table
func PrintRankingTable(w io.Writer, outcome contracts.RankingOutcome) {
	if len(outcome.Results) == 0 {
		PrintWarning(w, "No candidates for "+outcome.Sector)
		return
	}

	columns := []string{"#", "Symbol", "Price", "Fair", "Upside", "Screen", "Combined", "Rating"}
	widths := []int{3, 8, 12, 12, 9, 7, 9, 16}
	PrintTableHeader(w, columns, widths)

	for _, c := range outcome.Results {
		PrintTableRow(w, []string{
			strconv.Itoa(c.Rank),
			c.Symbol,
			formatPrice(c.Price),
			formatPrice(c.Valuation.BlendedFairPrice),
			formatPct(c.Valuation.UpsidePct),
			formatOptional(c.ScreeningScore, 2),
			strconv.FormatFloat(c.CombinedScore, 'f', 2, 64),
			c.Rating.Label,
		}, widths)
	}

	fmt.Fprintln(w)
	for _, c := range outcome.Results {
		if len(c.Notes) == 0 {
			continue
		}
		fmt.Fprintf(w, "%d. %s\n", c.Rank, c.DisplayName())
		PrintList(w, c.Notes)
	}
}

// PrintScreenedTable prints screening results as a table
func PrintScreenedTable(w io.Writer, results []contracts.ScreeningResult) {
	columns := []string{"Symbol", "Price", "Mkt Cap", "P/E", "P/B", "ROE", "Score", "Pass"}
	widths := []int{8, 12, 9, 7, 7, 8, 6, 5}
	PrintTableHeader(w, columns, widths)

	for i := range results {
		r := &results[i]
		pass := "no"
		if r.Passed {
			pass = "yes"
		}
		PrintTableRow(w, []string{
			r.Symbol,
			formatPrice(r.Price),
			formatMarketCap(r.MarketCap),
			formatOptional(r.PERatio, 1),
			formatOptional(r.PriceToBook, 1),
			formatPct(r.ROE),
			formatOptional(r.ScreeningScore, 2),
			pass,
		}, widths)
	}
}

// rankingRecord is one CSV row of a ranking export
type rankingRecord struct {
	Rank           int    `csv:"rank"`
	Symbol         string `csv:"symbol"`
	Name           string `csv:"name"`
	Sector         string `csv:"sector"`
	Price          string `csv:"price"`
	FairPrice      string `csv:"fair_price"`
	UpsidePct      string `csv:"upside_pct"`
	MarginOfSafety string `csv:"margin_of_safety"`
	ScreeningScore string `csv:"screening_score"`
	CombinedScore  string `csv:"combined_score"`
	Rating         string `csv:"rating"`
	Notes          string `csv:"notes"`
}

// rankingRecords converts an outcome into CSV rows; missing values are empty cells
func rankingRecords(outcome contracts.RankingOutcome) []rankingRecord {
	records := make([]rankingRecord, 0, len(outcome.Results))
	for _, c := range outcome.Results {
		records = append(records, rankingRecord{
			Rank:           c.Rank,
			Symbol:         c.Symbol,
			Name:           c.Name,
			Sector:         c.Sector,
			Price:          csvNumber(c.Price),
			FairPrice:      csvNumber(c.Valuation.BlendedFairPrice),
			UpsidePct:      csvNumber(c.Valuation.UpsidePct),
			MarginOfSafety: csvNumber(c.Valuation.MarginOfSafety),
			ScreeningScore: csvNumber(c.ScreeningScore),
			CombinedScore:  strconv.FormatFloat(c.CombinedScore, 'f', -1, 64),
			Rating:         c.Rating.Label,
			Notes:          strings.Join(c.Notes, "; "),
		})
	}
	return records
}

// WriteRankingCSV writes ranked candidates as CSV
func WriteRankingCSV(w io.Writer, outcome contracts.RankingOutcome) error {
	return gocsv.Marshal(rankingRecords(outcome), w)
}

func csvNumber(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// formatPrice renders 1234.567 as "1,234.56"
func formatPrice(v *float64) string {
	if v == nil {
		return "-"
	}
	return humanize.CommafWithDigits(*v, 2)
}

// formatMarketCap renders 2.5e12 as "2.5 T"
func formatMarketCap(v *float64) string {
	if v == nil {
		return "-"
	}
	return humanize.SIWithDigits(*v, 1, "")
}

func formatPct(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f%%", *v)
}

func formatOptional(v *float64, digits int) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', digits, 64)
}

// PrintSeparator prints a visual separator
func PrintSeparator(w io.Writer) {
	fmt.Fprintln(w, singleLine)
}

// PrintWarning prints a warning message
func PrintWarning(w io.Writer, message string) {
	fmt.Fprintf(w, "⚠️  %s\n", message)
}

// PrintSuccess prints a success message
func PrintSuccess(w io.Writer, message string) {
	fmt.Fprintf(w, "✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(w io.Writer, message string) {
	fmt.Fprintf(w, "❌ %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(w io.Writer, columns []string, widths []int) {
	PrintTableRow(w, columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Fprintln(w, strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(w io.Writer, values []string, widths []int) {
	for i, val := range values {
		fmt.Fprintf(w, "%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Fprint(w, "  ")
		}
	}
	fmt.Fprintln(w)
}

// PrintList prints a bulleted list
func PrintList(w io.Writer, items []string) {
	for _, item := range items {
		fmt.Fprintf(w, "   • %s\n", item)
	}
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(w io.Writer, key string, value string, keyWidth int) {
	fmt.Fprintf(w, "   %-*s : %s\n", keyWidth, key, value)
}
