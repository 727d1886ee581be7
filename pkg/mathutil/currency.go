// Package mathutil provides common mathematical utility functions.
package mathutil

import "github.com/iwvelando/payoff-planner/pkg/constants"

// IsPaid reports whether a balance is at or below the payoff epsilon.
func IsPaid(balance float64) bool {
	return balance <= constants.BalanceEpsilon
}

// Min returns the minimum of two float64 values
func Min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// Max returns the maximum of two float64 values
func Max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// MonthlyRate converts a nominal annual rate fraction into the periodic
// monthly rate.
func MonthlyRate(apr float64) float64 {
	return apr / constants.MonthsPerYear
}
