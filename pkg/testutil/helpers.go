// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/payoff-planner/pkg/loans"
	"go.uber.org/zap"
)

// Amortized returns an unnormalized amortized loan.
func Amortized(id string, principal, apr float64, termMonths int) loans.Loan {
	return loans.Loan{
		ID:            id,
		Name:          id,
		Principal:     principal,
		APR:           apr,
		TermMonths:    termMonths,
		RepaymentType: loans.Amortized,
	}
}

// Bullet returns an unnormalized bullet loan.
func Bullet(id string, principal, apr float64, termMonths int) loans.Loan {
	loan := Amortized(id, principal, apr, termMonths)
	loan.RepaymentType = loans.Bullet
	return loan
}

// NoPrepay returns the loan with prepayment disabled.
func NoPrepay(loan loans.Loan) loans.Loan {
	loan.AllowPrepay = loans.Bool(false)
	return loan
}

// Normalized runs the loans through the normalizer with a no-op logger.
func Normalized(list ...loans.Loan) []loans.Loan {
	return loans.Normalize(zap.NewNop(), list)
}

// Sum adds up a list of values.
func Sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}
