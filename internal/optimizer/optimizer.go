// Package optimizer searches for the smallest monthly extra budget that pays a
// plan off within a target number of months.
package optimizer

import (
	"fmt"
	"math"

	"github.com/iwvelando/payoff-planner/internal/config"
	"github.com/iwvelando/payoff-planner/pkg/format"
	"github.com/iwvelando/payoff-planner/pkg/loans"
	"github.com/iwvelando/payoff-planner/pkg/optimization"
	"github.com/iwvelando/payoff-planner/pkg/payoff"
	"go.uber.org/zap"
)

// FieldExtraBudget names the optimized field in summaries.
const FieldExtraBudget = "extraBudget"

// DefaultMaxIterations bounds the bisection. Whole currency units up to 2^64
// are covered well before that.
const DefaultMaxIterations = 64

// Runner evaluates one loan set and option set at varying extra budgets.
type Runner struct {
	logger        *zap.Logger
	engine        *payoff.Engine
	loans         []loans.Loan
	opts          payoff.Options
	maxIterations int
}

type evaluation struct {
	budget   float64
	months   int
	interest float64
	paid     bool
}

func (e evaluation) feasible(targetMonths int) bool {
	return e.paid && e.months <= targetMonths
}

// NewRunner constructs a Runner for normalized loans.
func NewRunner(logger *zap.Logger, loanList []loans.Loan, opts payoff.Options) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		logger: logger,
		// Unlogged: the search runs the engine many times.
		engine:        payoff.NewEngine(nil),
		loans:         loanList,
		opts:          opts,
		maxIterations: DefaultMaxIterations,
	}
}

// NewRunnerFromConfiguration normalizes the configured loans and builds a
// Runner for the configured plan.
func NewRunnerFromConfiguration(logger *zap.Logger, conf *config.Configuration) (*Runner, error) {
	if conf == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	opts, err := conf.Options()
	if err != nil {
		return nil, err
	}
	return NewRunner(logger, loans.Normalize(logger, conf.Loans), opts), nil
}

// UpperBound is a budget large enough to pay every prepayable loan in the
// first month, so no larger budget can finish sooner.
func UpperBound(loanList []loans.Loan) float64 {
	total := 0.0
	for _, loan := range loanList {
		if loan.PrepayAllowed() && loan.Principal > 0 {
			total += loan.Principal
		}
	}
	return math.Max(1, math.Ceil(total))
}

// MinimumExtraBudget bisects over whole currency units for the smallest extra
// budget whose simulation pays everything off within targetMonths. A larger
// budget never pays off later, so feasibility is monotonic in the budget.
// maxBudget of zero or less uses UpperBound.
func (r *Runner) MinimumExtraBudget(targetMonths int, maxBudget float64) (optimization.Summary, error) {
	if targetMonths <= 0 {
		return optimization.Summary{}, fmt.Errorf("target months must be positive, got %d", targetMonths)
	}

	upperBudget := math.Ceil(maxBudget)
	if upperBudget <= 0 {
		upperBudget = UpperBound(r.loans)
	}

	summary := optimization.Summary{
		Scope:           "plan",
		TargetName:      string(r.opts.Strategy),
		Field:           FieldExtraBudget,
		Original:        r.opts.ExtraBudget,
		OriginalDisplay: format.Currency(r.opts.ExtraBudget),
		TargetMonths:    targetMonths,
	}

	lowerEval := r.evaluate(0)
	if lowerEval.feasible(targetMonths) {
		r.fill(&summary, lowerEval, 0, true)
		summary.Notes = []string{"minimum payments alone meet the target"}
		return summary, nil
	}

	upperEval := r.evaluate(upperBudget)
	if !upperEval.feasible(targetMonths) {
		r.fill(&summary, upperEval, 0, false)
		summary.Notes = []string{fmt.Sprintf(
			"unable to pay off within %s at an extra budget up to %s",
			format.Duration(targetMonths),
			format.Currency(upperBudget),
		)}
		return summary, nil
	}

	iterations := 0
	lower := lowerEval.budget
	finalEval := upperEval
	for iterations < r.maxIterations && finalEval.budget-lower > 1 {
		mid := math.Floor(lower + (finalEval.budget-lower)/2)
		evalMid := r.evaluate(mid)
		iterations++
		if evalMid.feasible(targetMonths) {
			finalEval = evalMid
		} else {
			lower = mid
		}
	}

	r.fill(&summary, finalEval, iterations, true)
	r.logger.Debug(fmt.Sprintf("minimum extra budget for %d months is %s", targetMonths, summary.ValueDisplay),
		zap.String("op", "optimizer.MinimumExtraBudget"),
		zap.Int("iterations", iterations),
	)
	return summary, nil
}

func (r *Runner) evaluate(budget float64) evaluation {
	opts := r.opts
	opts.ExtraBudget = budget
	result := r.engine.Simulate(r.loans, opts)
	summary := payoff.Summarize(result, opts)
	return evaluation{
		budget:   budget,
		months:   summary.PayoffMonths,
		interest: summary.TotalInterest,
		paid:     result.Converged,
	}
}

func (r *Runner) fill(summary *optimization.Summary, eval evaluation, iterations int, converged bool) {
	summary.Value = eval.budget
	summary.ValueDisplay = format.Currency(eval.budget)
	summary.PayoffMonths = eval.months
	summary.TotalInterest = eval.interest
	summary.Iterations = iterations
	summary.Converged = converged
}
