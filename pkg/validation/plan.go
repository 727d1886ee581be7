package validation

import (
	"fmt"

	"github.com/iwvelando/payoff-planner/pkg/constants"
	"github.com/iwvelando/payoff-planner/pkg/datetime"
	"github.com/iwvelando/payoff-planner/pkg/loans"
)

// PlanInput is what plan validation looks at. Loans are expected to be
// normalized.
type PlanInput struct {
	Loans          []loans.Loan
	ExtraBudget    float64
	LockedTargetID string
	StartDate      string
}

// ValidateLoan returns warnings for a single normalized loan. None of them
// stop a simulation.
func ValidateLoan(loan loans.Loan) []string {
	var warnings []string

	if loan.Principal < 0 {
		warnings = append(warnings, fmt.Sprintf("Loan '%s' has a negative principal (%.2f)", loan.Name, loan.Principal))
	}
	if loan.APR < 0 {
		warnings = append(warnings, fmt.Sprintf("Loan '%s' has a negative APR (%.4f)", loan.Name, loan.APR))
	}
	if loan.TermMonths <= 0 {
		warnings = append(warnings, fmt.Sprintf("Loan '%s' has no remaining term (%d months) and will not be simulated", loan.Name, loan.TermMonths))
		return warnings
	}
	if loan.TermMonths > constants.MaxSimulationMonths {
		warnings = append(warnings, fmt.Sprintf("Loan '%s' term of %d months exceeds the %d month simulation limit",
			loan.Name, loan.TermMonths, constants.MaxSimulationMonths))
	}

	if loan.RepaymentType == loans.Amortized && loan.MinPay != nil && loan.Principal > 0 {
		interest := loans.CalculateInterestPayment(loan.Principal, loan.APR)
		if *loan.MinPay <= interest {
			warnings = append(warnings, fmt.Sprintf("Loan '%s' minimum payment %.2f does not cover monthly interest %.2f - balance will not shrink",
				loan.Name, *loan.MinPay, interest))
		}
	}

	return warnings
}

// ValidatePlan returns warnings for the whole plan.
func ValidatePlan(input PlanInput) []string {
	var warnings []string

	seen := make(map[string]bool, len(input.Loans))
	for _, loan := range input.Loans {
		if seen[loan.ID] {
			warnings = append(warnings, fmt.Sprintf("Loan id '%s' is used more than once - per-loan results will collide", loan.ID))
		}
		seen[loan.ID] = true
		warnings = append(warnings, ValidateLoan(loan)...)
	}

	if input.ExtraBudget < 0 {
		warnings = append(warnings, fmt.Sprintf("Extra budget %.2f is negative and will be ignored", input.ExtraBudget))
	}

	if input.LockedTargetID != "" {
		found := false
		for _, loan := range input.Loans {
			if loan.ID != input.LockedTargetID {
				continue
			}
			found = true
			if !loan.PrepayAllowed() {
				warnings = append(warnings, fmt.Sprintf("Locked target '%s' does not allow prepayment - strategy ranking will be used", loan.Name))
			}
		}
		if !found {
			warnings = append(warnings, fmt.Sprintf("Locked target id '%s' does not match any loan - strategy ranking will be used", input.LockedTargetID))
		}
	}

	if err := datetime.ValidateStartDate(input.StartDate); err != nil {
		warnings = append(warnings, fmt.Sprintf("Start date ignored: %v", err))
	}

	return warnings
}
