// Package payoff simulates paying down several concurrent loans month by
// month under a debt-reduction strategy and a shared extra-payment budget.
package payoff

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/iwvelando/payoff-planner/pkg/constants"
)

// ErrUnknownStrategy is returned by ParseStrategy for unsupported names.
var ErrUnknownStrategy = errors.New("unknown strategy")

// Strategy selects the order in which loans receive the extra budget.
type Strategy string

const (
	// Avalanche ranks by descending APR, then ascending balance.
	Avalanche Strategy = constants.StrategyAvalanche
	// Snowball ranks by ascending balance, then descending APR.
	Snowball Strategy = constants.StrategySnowball
)

// Strategies lists the supported strategies in display order.
var Strategies = []Strategy{Avalanche, Snowball}

// ParseStrategy converts a configured strategy name. An empty name selects
// Avalanche.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", constants.StrategyAvalanche:
		return Avalanche, nil
	case constants.StrategySnowball:
		return Snowball, nil
	default:
		return "", fmt.Errorf("%w %q, expected %s or %s", ErrUnknownStrategy, name, Avalanche, Snowball)
	}
}

// less reports whether a outranks b. Anything other than Snowball ranks as
// Avalanche.
func (s Strategy) less(a, b *liveLoan) bool {
	if s == Snowball {
		if a.balance != b.balance {
			return a.balance < b.balance
		}
		return a.loan.APR > b.loan.APR
	}
	if a.loan.APR != b.loan.APR {
		return a.loan.APR > b.loan.APR
	}
	return a.balance < b.balance
}

// rank orders loans in place by priority. Loans equal on both keys keep their
// input order.
func (s Strategy) rank(active []*liveLoan) {
	sort.SliceStable(active, func(i, j int) bool {
		return s.less(active[i], active[j])
	})
}
