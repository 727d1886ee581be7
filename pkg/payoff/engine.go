package payoff

import (
	"fmt"

	"github.com/iwvelando/payoff-planner/pkg/constants"
	"github.com/iwvelando/payoff-planner/pkg/datetime"
	"github.com/iwvelando/payoff-planner/pkg/loans"
	"github.com/iwvelando/payoff-planner/pkg/mathutil"
	"go.uber.org/zap"
)

// Options holds the plan-wide inputs of a simulation.
type Options struct {
	Strategy Strategy
	// ExtraBudget is the monthly amount paid on top of minimum obligations.
	// Whatever cannot be placed in a month is discarded, not carried forward.
	ExtraBudget float64
	// LockedTargetID, when set and still eligible, receives the extra budget
	// first every month regardless of ranking.
	LockedTargetID string
	// StartDate optionally anchors labels to calendar months (YYYY-MM).
	StartDate string
}

// MonthRecord is the ledger entry for one simulated month.
type MonthRecord struct {
	Month           int                `json:"month"`
	Label           string             `json:"label"`
	TotalInterest   float64            `json:"totalInterest"`
	TotalPrincipal  float64            `json:"totalPrincipal"`
	TotalPayment    float64            `json:"totalPayment"`
	TotalBalance    float64            `json:"totalBalance"`
	ByLoanInterest  map[string]float64 `json:"byLoanInterest"`
	ByLoanPrincipal map[string]float64 `json:"byLoanPrincipal"`
	ByLoanBalance   map[string]float64 `json:"byLoanBalance"`
	// ExtraTargetID is the loan that was served first with the extra budget.
	ExtraTargetID string `json:"extraTargetId,omitempty"`
	// UnallocatedExtra is the part of the extra budget no eligible loan could
	// absorb this month.
	UnallocatedExtra float64 `json:"unallocatedExtra"`
}

// LoanMeta labels a loan in downstream output.
type LoanMeta struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	APR  float64 `json:"apr"`
}

// Result is the outcome of one simulation run.
type Result struct {
	Months          []MonthRecord `json:"months"`
	MinMonthlyTotal float64       `json:"minMonthlyTotal"`
	LoansMeta       []LoanMeta    `json:"loansMeta"`
	// Converged is true when every balance ended at or below the epsilon.
	Converged bool `json:"converged"`
	// CapReached is true when the run stopped at the iteration cap with
	// loans still active.
	CapReached bool `json:"capReached"`
	// Outstanding is the balance left across all loans after the last month.
	Outstanding float64 `json:"outstanding"`
}

type liveLoan struct {
	loan     loans.Loan
	balance  float64
	termLeft int
}

func (l *liveLoan) active() bool {
	return !mathutil.IsPaid(l.balance) && l.termLeft > 0
}

func (l *liveLoan) prepayEligible() bool {
	return l.loan.PrepayAllowed() && l.active()
}

// payMinimum accrues the month's interest and applies the loan's scheduled
// principal, returning both amounts.
func (l *liveLoan) payMinimum() (interest, principal float64) {
	if !l.active() {
		return 0, 0
	}

	interest = loans.CalculateInterestPayment(l.balance, l.loan.APR)
	switch l.loan.RepaymentType {
	case loans.Bullet:
		if l.termLeft == 1 {
			principal = l.balance
		}
	default:
		payment := mathutil.Min(l.minPay(), l.balance+interest)
		principal = mathutil.Max(0, payment-interest)
	}

	l.balance = mathutil.Max(0, l.balance-principal)
	return interest, principal
}

func (l *liveLoan) minPay() float64 {
	if l.loan.MinPay != nil {
		return *l.loan.MinPay
	}
	return loans.CalculateMonthlyPayment(l.loan.Principal, l.loan.APR, l.loan.TermMonths)
}

// Engine runs payoff simulations.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates an engine. A nil logger is replaced with a no-op logger.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// Simulate runs a simulation without logging.
func Simulate(loanList []loans.Loan, opts Options) Result {
	return NewEngine(nil).Simulate(loanList, opts)
}

// Simulate produces the month-by-month ledger for normalized loans. It never
// fails: when the iteration cap is hit before payoff the result is marked
// CapReached and not Converged.
func (e *Engine) Simulate(loanList []loans.Loan, opts Options) Result {
	live := make([]*liveLoan, len(loanList))
	result := Result{LoansMeta: make([]LoanMeta, len(loanList))}
	for i, loan := range loanList {
		live[i] = &liveLoan{loan: loan, balance: loan.Principal, termLeft: loan.TermMonths}
		result.LoansMeta[i] = LoanMeta{ID: loan.ID, Name: loan.Name, APR: loan.APR}
		result.MinMonthlyTotal += loans.MinimumObligation(loan)
	}

	startDate := opts.StartDate
	if err := datetime.ValidateStartDate(startDate); err != nil {
		e.logger.Warn("ignoring start date for labels",
			zap.String("op", "payoff.Simulate"),
			zap.Error(err),
		)
		startDate = ""
	}

	for month := 1; month <= constants.MaxSimulationMonths; month++ {
		ranked := activeLoans(live)
		if len(ranked) == 0 {
			break
		}
		opts.Strategy.rank(ranked)

		record := MonthRecord{
			Month:           month,
			ByLoanInterest:  make(map[string]float64, len(live)),
			ByLoanPrincipal: make(map[string]float64, len(live)),
			ByLoanBalance:   make(map[string]float64, len(live)),
		}
		record.Label, _ = datetime.PeriodLabel(month, startDate)

		for _, l := range live {
			interest, principal := l.payMinimum()
			record.ByLoanInterest[l.loan.ID] = interest
			record.ByLoanPrincipal[l.loan.ID] = principal
		}

		if opts.ExtraBudget > 0 {
			record.ExtraTargetID, record.UnallocatedExtra = distributeExtra(live, ranked, opts, record.ByLoanPrincipal)
			if record.UnallocatedExtra > 0 {
				e.logger.Debug(fmt.Sprintf("month %d: discarding %.2f of extra budget", month, record.UnallocatedExtra),
					zap.String("op", "payoff.Simulate"),
				)
			}
		}

		for _, l := range live {
			balance := mathutil.Max(0, l.balance)
			record.TotalInterest += record.ByLoanInterest[l.loan.ID]
			record.TotalPrincipal += record.ByLoanPrincipal[l.loan.ID]
			record.TotalBalance += balance
			record.ByLoanBalance[l.loan.ID] = balance
			if l.termLeft > 0 && mathutil.IsPaid(balance) && record.ByLoanPrincipal[l.loan.ID] > 0 {
				e.logger.Debug(fmt.Sprintf("month %d: loan %s paid off", month, l.loan.Name),
					zap.String("op", "payoff.Simulate"),
					zap.String("loan", l.loan.ID),
				)
			}
		}
		record.TotalPayment = record.TotalPrincipal + record.TotalInterest
		result.Months = append(result.Months, record)

		for _, l := range live {
			if l.termLeft > 0 {
				l.termLeft--
			}
		}

		if mathutil.IsPaid(record.TotalBalance) {
			break
		}
	}

	converged := true
	for _, l := range live {
		result.Outstanding += mathutil.Max(0, l.balance)
		if !mathutil.IsPaid(l.balance) {
			converged = false
		}
	}
	result.Converged = converged
	result.CapReached = len(result.Months) == constants.MaxSimulationMonths && len(activeLoans(live)) > 0

	if result.CapReached {
		e.logger.Warn("simulation stopped at iteration cap before payoff",
			zap.String("op", "payoff.Simulate"),
			zap.Int("months", len(result.Months)),
			zap.Float64("outstanding", result.Outstanding),
		)
	}

	return result
}

func activeLoans(live []*liveLoan) []*liveLoan {
	active := make([]*liveLoan, 0, len(live))
	for _, l := range live {
		if l.active() {
			active = append(active, l)
		}
	}
	return active
}

// distributeExtra places the month's extra budget: first on the locked target
// when it is still eligible, else on the top-ranked eligible loan, then down
// the ranking until the pool or the eligible loans run out. It returns the
// served target and the amount left unplaced.
func distributeExtra(live, ranked []*liveLoan, opts Options, principal map[string]float64) (string, float64) {
	pool := opts.ExtraBudget

	var target *liveLoan
	if opts.LockedTargetID != "" {
		for _, l := range live {
			if l.loan.ID == opts.LockedTargetID && l.prepayEligible() {
				target = l
				break
			}
		}
	}
	if target == nil {
		for _, l := range ranked {
			if l.prepayEligible() {
				target = l
				break
			}
		}
	}
	if target == nil {
		return "", pool
	}

	apply := func(l *liveLoan) {
		use := mathutil.Min(pool, l.balance)
		l.balance -= use
		principal[l.loan.ID] += use
		pool -= use
	}

	apply(target)
	for _, l := range ranked {
		if pool <= 0 {
			break
		}
		if l == target || !l.prepayEligible() {
			continue
		}
		apply(l)
	}

	return target.loan.ID, pool
}
