package payoff

import (
	"github.com/iwvelando/payoff-planner/pkg/mathutil"
)

// Summary holds the headline figures of a plan.
type Summary struct {
	Strategy              Strategy       `json:"strategy"`
	FirstMonthInterest    float64        `json:"firstMonthInterest"`
	MinMonthlyTotal       float64        `json:"minMonthlyTotal"`
	MonthlyTotalWithExtra float64        `json:"monthlyTotalWithExtra"`
	PayoffMonths          int            `json:"payoffMonths"`
	TotalInterest         float64        `json:"totalInterest"`
	TotalPaid             float64        `json:"totalPaid"`
	DiscardedExtra        float64        `json:"discardedExtra"`
	LoanPayoffMonths      map[string]int `json:"loanPayoffMonths"`
	Converged             bool           `json:"converged"`
	CapReached            bool           `json:"capReached"`
}

// Summarize computes the headline figures of a result simulated with opts.
func Summarize(result Result, opts Options) Summary {
	summary := Summary{
		Strategy:              opts.Strategy,
		MinMonthlyTotal:       result.MinMonthlyTotal,
		MonthlyTotalWithExtra: result.MinMonthlyTotal + opts.ExtraBudget,
		PayoffMonths:          len(result.Months),
		LoanPayoffMonths:      make(map[string]int, len(result.LoansMeta)),
		Converged:             result.Converged,
		CapReached:            result.CapReached,
	}
	if len(result.Months) > 0 {
		summary.FirstMonthInterest = result.Months[0].TotalInterest
	}
	for _, m := range result.Months {
		summary.TotalInterest += m.TotalInterest
		summary.TotalPaid += m.TotalPayment
		summary.DiscardedExtra += m.UnallocatedExtra
	}
	for _, meta := range result.LoansMeta {
		if month, ok := result.PayoffMonth(meta.ID); ok {
			summary.LoanPayoffMonths[meta.ID] = month
		}
	}
	return summary
}

// PayoffMonth returns the first month at whose end the loan's balance is at or
// below the epsilon.
func (r Result) PayoffMonth(loanID string) (int, bool) {
	for _, m := range r.Months {
		balance, ok := m.ByLoanBalance[loanID]
		if ok && mathutil.IsPaid(balance) {
			return m.Month, true
		}
	}
	return 0, false
}

// ScheduleRow is one month of a single loan's repayment.
type ScheduleRow struct {
	Month     int     `json:"month"`
	Label     string  `json:"label"`
	Principal float64 `json:"principal"`
	Interest  float64 `json:"interest"`
	Payment   float64 `json:"payment"`
	Balance   float64 `json:"balance"`
}

// LoanSchedule extracts one loan's rows from the ledger. Rows after the loan
// is gone (zero balance and zero payment) are skipped, except for the first
// month.
func LoanSchedule(result Result, loanID string) []ScheduleRow {
	var rows []ScheduleRow
	for i, m := range result.Months {
		row := ScheduleRow{
			Month:     m.Month,
			Label:     m.Label,
			Principal: m.ByLoanPrincipal[loanID],
			Interest:  m.ByLoanInterest[loanID],
			Balance:   m.ByLoanBalance[loanID],
		}
		row.Payment = row.Principal + row.Interest
		if row.Balance == 0 && row.Payment == 0 && i > 0 {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}
