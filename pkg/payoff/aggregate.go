package payoff

import (
	"encoding/json"
)

// Per-loan series key prefixes used by the flattened view.
const (
	BalancePrefix   = "byLoanBalance."
	InterestPrefix  = "byLoanInterest."
	PrincipalPrefix = "byLoanPrincipal."
)

// SeriesKey returns the flattened key for a loan's metric, e.g.
// SeriesKey(BalancePrefix, "abc") == "byLoanBalance.abc".
func SeriesKey(prefix, loanID string) string {
	return prefix + loanID
}

// SeriesPoint is one month of the column-oriented view: month totals plus one
// scalar per loan per metric.
type SeriesPoint struct {
	Month          int
	Label          string
	TotalInterest  float64
	TotalPrincipal float64
	TotalPayment   float64
	TotalBalance   float64
	Values         map[string]float64
}

// Flatten turns the nested ledger into a time series in the same month order.
// The input is not modified.
func Flatten(months []MonthRecord) []SeriesPoint {
	points := make([]SeriesPoint, 0, len(months))
	for _, m := range months {
		values := make(map[string]float64, len(m.ByLoanBalance)+len(m.ByLoanInterest)+len(m.ByLoanPrincipal))
		for id, v := range m.ByLoanBalance {
			values[SeriesKey(BalancePrefix, id)] = v
		}
		for id, v := range m.ByLoanInterest {
			values[SeriesKey(InterestPrefix, id)] = v
		}
		for id, v := range m.ByLoanPrincipal {
			values[SeriesKey(PrincipalPrefix, id)] = v
		}
		points = append(points, SeriesPoint{
			Month:          m.Month,
			Label:          m.Label,
			TotalInterest:  m.TotalInterest,
			TotalPrincipal: m.TotalPrincipal,
			TotalPayment:   m.TotalPayment,
			TotalBalance:   m.TotalBalance,
			Values:         values,
		})
	}
	return points
}

// MarshalJSON writes the point as a single flat object so chart clients can
// address "byLoanBalance.<id>" directly.
func (p SeriesPoint) MarshalJSON() ([]byte, error) {
	flat := make(map[string]interface{}, len(p.Values)+6)
	for key, v := range p.Values {
		flat[key] = v
	}
	flat["month"] = p.Month
	flat["label"] = p.Label
	flat["totalInterest"] = p.TotalInterest
	flat["totalPrincipal"] = p.TotalPrincipal
	flat["totalPayment"] = p.TotalPayment
	flat["totalBalance"] = p.TotalBalance
	return json.Marshal(flat)
}
