// Package format provides display formatting for amounts, rates and
// durations.
package format

import (
	"fmt"
	"math"
	"strings"

	"github.com/iwvelando/payoff-planner/pkg/constants"
)

// Currency returns an amount with thousands separators and two decimals
// (e.g., "-1,234.56").
func Currency(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
	}
	return sign + groupThousands(fmt.Sprintf("%.2f", math.Abs(amount)))
}

// WholeCurrency returns an amount rounded to whole units with thousands
// separators (e.g., "88,849"). Non-finite values render as "-".
func WholeCurrency(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "-"
	}
	rounded := math.Round(amount)
	sign := ""
	if rounded < 0 {
		sign = "-"
	}
	return sign + groupThousands(fmt.Sprintf("%.0f", math.Abs(rounded)))
}

// Percent renders a rate fraction as a percentage with two decimals
// (0.035 -> "3.50%").
func Percent(rate float64) string {
	return fmt.Sprintf("%.2f%%", rate*constants.PercentageMultiplier)
}

// Duration renders a month count as "N months (Y years M months)".
func Duration(months int) string {
	return fmt.Sprintf("%d months (%d years %d months)",
		months, months/constants.MonthsPerYear, months%constants.MonthsPerYear)
}

func groupThousands(formatted string) string {
	parts := strings.SplitN(formatted, ".", 2)
	intPart := parts[0]

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	if len(parts) == 2 {
		return intPart + "." + parts[1]
	}
	return intPart
}
