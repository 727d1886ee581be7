// Package loans provides the loan data model, the fixed payment calculator and
// the normalization applied to loans before a payoff simulation.
package loans

import (
	"math"

	"github.com/iwvelando/payoff-planner/pkg/mathutil"
)

// CalculateMonthlyPayment calculates the fixed installment that repays
// principal over the given number of months at the monthly rate apr/12.
// A non-positive term yields 0.
func CalculateMonthlyPayment(principal, apr float64, termMonths int) float64 {
	if termMonths <= 0 {
		return 0
	}

	periodicInterestRate := mathutil.MonthlyRate(apr)
	if periodicInterestRate == 0 {
		// For zero interest, simply divide the principal by term
		return principal / float64(termMonths)
	}

	return principal * periodicInterestRate / (1.00 - math.Pow(1.00+periodicInterestRate, -float64(termMonths)))
}

// CalculateInterestPayment calculates one month of interest accrued on the
// remaining balance.
func CalculateInterestPayment(remainingPrincipal, apr float64) float64 {
	return remainingPrincipal * mathutil.MonthlyRate(apr)
}

// MinimumObligation returns the first month's required payment for a
// normalized loan: the fixed installment for amortized loans and one month of
// interest on the original principal for bullet loans.
func MinimumObligation(loan Loan) float64 {
	if loan.RepaymentType == Bullet {
		return CalculateInterestPayment(loan.Principal, loan.APR)
	}
	if loan.MinPay != nil {
		return *loan.MinPay
	}
	return CalculateMonthlyPayment(loan.Principal, loan.APR, loan.TermMonths)
}
