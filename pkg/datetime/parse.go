// Package datetime provides date and time utility functions.
package datetime

import (
	"fmt"
	"time"

	"github.com/iwvelando/payoff-planner/pkg/constants"
)

const (
	// DateTimeLayout is the format expected in config files and is also the
	// calendar label format.
	DateTimeLayout = constants.DateTimeLayout
)

// OffsetDate returns the string-formatted date offset by the given number of
// months relative to the given date.
func OffsetDate(date, layout string, months int) (string, error) {
	t, err := time.Parse(layout, date)
	if err != nil {
		return date, err
	}
	return t.AddDate(0, months, 0).Format(layout), nil
}

// ValidateStartDate checks that a plan start date is empty or a YYYY-MM month.
func ValidateStartDate(date string) error {
	if date == "" {
		return nil
	}
	if _, err := time.Parse(DateTimeLayout, date); err != nil {
		return fmt.Errorf("invalid start date %q, expected format %s: %w", date, DateTimeLayout, err)
	}
	return nil
}

// PeriodLabel names the 1-based simulated month. Without a start date the
// label is relative ("0y 1m" is the first month, "1y 1m" the thirteenth);
// with one it is the calendar month in DateTimeLayout.
func PeriodLabel(month int, startDate string) (string, error) {
	if startDate == "" {
		return RelativeLabel(month), nil
	}
	return OffsetDate(startDate, DateTimeLayout, month-1)
}

// RelativeLabel returns the "{years}y {month}m" label for a 1-based month.
func RelativeLabel(month int) string {
	return fmt.Sprintf("%dy %dm", (month-1)/constants.MonthsPerYear, (month-1)%constants.MonthsPerYear+1)
}
