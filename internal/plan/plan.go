// Package plan runs payoff simulations for a loaded configuration and collects
// the results, the headline summary and any validation warnings.
package plan

import (
	"fmt"

	"github.com/iwvelando/payoff-planner/internal/config"
	"github.com/iwvelando/payoff-planner/pkg/loans"
	"github.com/iwvelando/payoff-planner/pkg/payoff"
	"go.uber.org/zap"
)

// Plan holds everything produced by one simulation run.
type Plan struct {
	Options  payoff.Options `json:"options"`
	Loans    []loans.Loan   `json:"loans"`
	Result   payoff.Result  `json:"result"`
	Summary  payoff.Summary `json:"summary"`
	Warnings []string       `json:"warnings,omitempty"`
}

// GetPlan normalizes the configured loans, validates the plan and simulates
// it. Warnings are logged and returned; only an unusable strategy is an error.
func GetPlan(logger *zap.Logger, conf config.Configuration) (Plan, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	conf.ProcessLoans(logger)
	warnings := conf.ValidateConfiguration()
	for _, w := range warnings {
		logger.Warn(w, zap.String("op", "plan.GetPlan"))
	}

	opts, err := conf.Options()
	if err != nil {
		return Plan{}, fmt.Errorf("invalid plan: %w", err)
	}

	p := Run(logger, conf.Loans, opts)
	p.Warnings = warnings
	return p, nil
}

// Run simulates already-normalized loans with opts.
func Run(logger *zap.Logger, loanList []loans.Loan, opts payoff.Options) Plan {
	if logger == nil {
		logger = zap.NewNop()
	}

	result := payoff.NewEngine(logger).Simulate(loanList, opts)
	summary := payoff.Summarize(result, opts)

	logger.Debug(fmt.Sprintf("simulated %d loans with the %s strategy", len(loanList), opts.Strategy),
		zap.String("op", "plan.Run"),
		zap.Int("months", summary.PayoffMonths),
		zap.Float64("totalInterest", summary.TotalInterest),
		zap.Bool("converged", summary.Converged),
	)

	return Plan{
		Options: opts,
		Loans:   loanList,
		Result:  result,
		Summary: summary,
	}
}

// ComparePlans simulates the configured plan once per supported strategy,
// keeping every other option unchanged. The configured strategy is still
// validated so a typo is reported instead of silently compared away.
func ComparePlans(logger *zap.Logger, conf config.Configuration) ([]Plan, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	conf.ProcessLoans(logger)
	warnings := conf.ValidateConfiguration()

	opts, err := conf.Options()
	if err != nil {
		return nil, fmt.Errorf("invalid plan: %w", err)
	}

	return Compare(logger, conf.Loans, opts, warnings), nil
}

// Compare runs opts under every supported strategy.
func Compare(logger *zap.Logger, loanList []loans.Loan, opts payoff.Options, warnings []string) []Plan {
	plans := make([]Plan, 0, len(payoff.Strategies))
	for _, strategy := range payoff.Strategies {
		o := opts
		o.Strategy = strategy
		p := Run(logger, loanList, o)
		p.Warnings = warnings
		plans = append(plans, p)
	}
	return plans
}
