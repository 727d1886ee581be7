// Package output provides utilities for displaying and exporting payoff
// simulation results.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/payoff-planner/pkg/format"
	"github.com/iwvelando/payoff-planner/pkg/optimization"
	"github.com/iwvelando/payoff-planner/pkg/payoff"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ByteOrderMark prefixes exported CSV so spreadsheet tools detect UTF-8.
const ByteOrderMark = "\uFEFF"

// PrettyFormat writes the plan headline figures followed by a human-readable
// table of monthly totals.
func PrettyFormat(w io.Writer, result payoff.Result, summary payoff.Summary) {
	p := message.NewPrinter(language.English)
	_, _ = fmt.Fprintf(w, "--- Payoff plan (%s) ---\n", summary.Strategy)
	_, _ = p.Fprintf(w, "First month interest     : %.0f\n", summary.FirstMonthInterest)
	_, _ = p.Fprintf(w, "Minimum monthly payments : %.0f\n", summary.MinMonthlyTotal)
	_, _ = p.Fprintf(w, "Monthly with extra       : %.0f\n", summary.MonthlyTotalWithExtra)
	_, _ = p.Fprintf(w, "Total interest           : %.0f\n", summary.TotalInterest)
	_, _ = fmt.Fprintf(w, "Time to payoff           : %s\n", format.Duration(summary.PayoffMonths))
	for _, meta := range result.LoansMeta {
		if month, ok := summary.LoanPayoffMonths[meta.ID]; ok {
			_, _ = fmt.Fprintf(w, "  %s paid off in month %d\n", meta.Name, month)
		} else {
			_, _ = fmt.Fprintf(w, "  %s not paid off\n", meta.Name)
		}
	}
	if !result.Converged {
		_, _ = p.Fprintf(w, "WARNING: plan did not pay off all loans, %.0f outstanding", result.Outstanding)
		if result.CapReached {
			_, _ = fmt.Fprintf(w, " (stopped after %d months)", len(result.Months))
		}
		_, _ = fmt.Fprintf(w, "\n")
	}
	_, _ = fmt.Fprintf(w, "\n")

	_, _ = fmt.Fprintf(w, "Month    | Payment        | Principal      | Interest       | Balance\n")
	_, _ = fmt.Fprintf(w, "_____    | ______________ | ______________ | ______________ | _______\n")
	for _, m := range result.Months {
		_, _ = p.Fprintf(w, "%-8s | %14.0f | %14.0f | %14.0f | %.0f\n",
			m.Label, m.TotalPayment, m.TotalPrincipal, m.TotalInterest, m.TotalBalance)
	}
}

// PrettyLoanSchedule writes one loan's repayment rows.
func PrettyLoanSchedule(w io.Writer, result payoff.Result, loanID string) error {
	var meta *payoff.LoanMeta
	for i := range result.LoansMeta {
		if result.LoansMeta[i].ID == loanID {
			meta = &result.LoansMeta[i]
		}
	}
	if meta == nil {
		return fmt.Errorf("loan %q is not part of the plan", loanID)
	}

	_, _ = fmt.Fprintf(w, "--- Schedule for %s (%s APR) ---\n", meta.Name, format.Percent(meta.APR))
	_, _ = fmt.Fprintf(w, "Month    | Principal      | Interest       | Payment        | Balance\n")
	for _, row := range payoff.LoanSchedule(result, loanID) {
		_, _ = fmt.Fprintf(w, "%-8s | %14s | %14s | %14s | %s\n", row.Label,
			format.WholeCurrency(row.Principal), format.WholeCurrency(row.Interest),
			format.WholeCurrency(row.Payment), format.WholeCurrency(row.Balance))
	}
	return nil
}

// PrettyComparison writes one line of headline figures per strategy.
func PrettyComparison(w io.Writer, summaries []payoff.Summary) {
	p := message.NewPrinter(language.English)
	_, _ = fmt.Fprintf(w, "--- Strategy comparison ---\n")
	_, _ = fmt.Fprintf(w, "Strategy   | Months | Total interest | Total paid\n")
	for _, s := range summaries {
		months := fmt.Sprintf("%d", s.PayoffMonths)
		if !s.Converged {
			months += "*"
		}
		_, _ = p.Fprintf(w, "%-10s | %6s | %14.0f | %.0f\n", s.Strategy, months, s.TotalInterest, s.TotalPaid)
	}
	for _, s := range summaries {
		if !s.Converged {
			_, _ = fmt.Fprintf(w, "* did not pay off all loans\n")
			break
		}
	}
}

// PrettyOptimization writes the outcome of an extra budget search.
func PrettyOptimization(w io.Writer, summary optimization.Summary) {
	_, _ = fmt.Fprintf(w, "--- Extra budget for %s ---\n", format.Duration(summary.TargetMonths))
	if summary.Converged {
		_, _ = fmt.Fprintf(w, "Minimum extra budget : %s (currently %s)\n", summary.ValueDisplay, summary.OriginalDisplay)
		_, _ = fmt.Fprintf(w, "Payoff at that budget: %s\n", format.Duration(summary.PayoffMonths))
		_, _ = fmt.Fprintf(w, "Total interest       : %s\n", format.WholeCurrency(summary.TotalInterest))
	} else {
		_, _ = fmt.Fprintf(w, "No extra budget meets the target\n")
	}
	for _, note := range summary.Notes {
		_, _ = fmt.Fprintf(w, "Note: %s\n", note)
	}
}

// CsvFormat writes the export artifact, byte-order mark included.
func CsvFormat(w io.Writer, result payoff.Result) error {
	_, err := io.WriteString(w, CsvString(result))
	return err
}

// CsvString builds the export artifact: a header of month totals followed by
// principal, interest and balance columns per loan, then one row per month.
// Numbers are written unformatted and rows are joined by newlines.
func CsvString(result payoff.Result) string {
	header := []string{"month", "label", "totalPayment", "totalPrincipal", "totalInterest", "totalBalance"}
	for _, meta := range result.LoansMeta {
		header = append(header, meta.Name+"_principal", meta.Name+"_interest", meta.Name+"_balance")
	}

	lines := make([]string, 0, len(result.Months)+1)
	lines = append(lines, joinFields(header))
	for _, m := range result.Months {
		row := []string{
			fmt.Sprintf("%d", m.Month),
			m.Label,
			number(m.TotalPayment),
			number(m.TotalPrincipal),
			number(m.TotalInterest),
			number(m.TotalBalance),
		}
		for _, meta := range result.LoansMeta {
			row = append(row,
				number(m.ByLoanPrincipal[meta.ID]),
				number(m.ByLoanInterest[meta.ID]),
				number(m.ByLoanBalance[meta.ID]),
			)
		}
		lines = append(lines, joinFields(row))
	}

	return ByteOrderMark + strings.Join(lines, "\n")
}

// JSONFormat writes the flattened monthly series as a JSON array.
func JSONFormat(w io.Writer, result payoff.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payoff.Flatten(result.Months))
}

func number(v float64) string {
	return decimal.NewFromFloat(v).String()
}

func joinFields(fields []string) string {
	escaped := make([]string, len(fields))
	for i, field := range fields {
		if strings.ContainsAny(field, ",\"\n\r") {
			field = `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
		}
		escaped[i] = field
	}
	return strings.Join(escaped, ",")
}
