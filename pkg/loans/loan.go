package loans

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/iwvelando/payoff-planner/pkg/constants"
	"go.uber.org/zap"
)

// RepaymentType selects how the minimum payment of a loan is structured.
type RepaymentType string

const (
	// Amortized loans repay a fixed installment of principal and interest.
	Amortized RepaymentType = constants.RepaymentAmortized
	// Bullet loans pay interest only and the full principal at maturity.
	Bullet RepaymentType = constants.RepaymentBullet
)

// ParseRepaymentType converts a configured repayment type. An empty value is
// amortized.
func ParseRepaymentType(value string) (RepaymentType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", constants.RepaymentAmortized:
		return Amortized, nil
	case constants.RepaymentBullet:
		return Bullet, nil
	default:
		return "", fmt.Errorf("unknown repayment type %q, expected %s or %s",
			value, constants.RepaymentAmortized, constants.RepaymentBullet)
	}
}

// Loan describes one loan taking part in a payoff plan. AllowPrepay and MinPay
// are optional on input and filled in by Normalize.
type Loan struct {
	ID            string        `json:"id" yaml:"id"`
	Name          string        `json:"name" yaml:"name"`
	Principal     float64       `json:"principal" yaml:"principal"`
	APR           float64       `json:"apr" yaml:"apr"`
	TermMonths    int           `json:"termMonths" yaml:"termMonths"`
	RepaymentType RepaymentType `json:"repaymentType,omitempty" yaml:"repaymentType,omitempty"`
	AllowPrepay   *bool         `json:"allowPrepay,omitempty" yaml:"allowPrepay,omitempty"`
	MinPay        *float64      `json:"minPay,omitempty" yaml:"minPay,omitempty"`
}

// PrepayAllowed reports whether the loan may receive extra payments. Loans
// that never set the flag allow prepayment.
func (l Loan) PrepayAllowed() bool {
	return l.AllowPrepay == nil || *l.AllowPrepay
}

// Normalize returns a copy of the loans with defaults applied and the minimum
// payment derived once from the original principal and term. Bullet loans get
// a nil MinPay since their payment is computed month by month.
func Normalize(logger *zap.Logger, input []Loan) []Loan {
	if logger == nil {
		logger = zap.NewNop()
	}

	normalized := make([]Loan, len(input))
	for i, loan := range input {
		if strings.TrimSpace(loan.ID) == "" {
			loan.ID = uuid.NewString()
		}

		repaymentType, err := ParseRepaymentType(string(loan.RepaymentType))
		if err != nil {
			logger.Warn("treating loan as amortized",
				zap.String("op", "loans.Normalize"),
				zap.String("loan", loan.Name),
				zap.Error(err),
			)
			repaymentType = Amortized
		}
		loan.RepaymentType = repaymentType

		allow := loan.PrepayAllowed()
		loan.AllowPrepay = &allow

		if loan.RepaymentType == Bullet {
			loan.MinPay = nil
		} else {
			minPay := CalculateMonthlyPayment(loan.Principal, loan.APR, loan.TermMonths)
			loan.MinPay = &minPay
		}

		logger.Debug(fmt.Sprintf("normalized loan %s", loan.Name),
			zap.String("op", "loans.Normalize"),
			zap.String("id", loan.ID),
			zap.String("repaymentType", string(loan.RepaymentType)),
		)
		normalized[i] = loan
	}
	return normalized
}

// Bool returns a pointer to v, for building loans with an explicit prepay flag.
func Bool(v bool) *bool {
	return &v
}
