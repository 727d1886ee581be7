// Package optimization provides shared data structures for optimization results.
package optimization

// Summary captures the result of a single optimization directive.
type Summary struct {
	Scope           string   `json:"scope"`
	TargetName      string   `json:"targetName"`
	Field           string   `json:"field"`
	Original        float64  `json:"original"`
	Value           float64  `json:"value"`
	TargetMonths    int      `json:"targetMonths"`
	PayoffMonths    int      `json:"payoffMonths"`
	TotalInterest   float64  `json:"totalInterest"`
	Iterations      int      `json:"iterations"`
	Converged       bool     `json:"converged"`
	Notes           []string `json:"notes,omitempty"`
	OriginalDisplay string   `json:"originalDisplay,omitempty"`
	ValueDisplay    string   `json:"valueDisplay,omitempty"`
}
