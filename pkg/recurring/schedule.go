package recurring

import (
	"fmt"
	"time"
)

// Frequency is the period between occurrences of a recurring definition.
type Frequency string

const (
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyBiweekly  Frequency = "biweekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

// Valid reports whether f is one of the accepted frequency values.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly,
		FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return true
	}
	return false
}

// dateLayout is the storage form of all calendar dates.
const dateLayout = "2006-01-02"

// NextDate advances a date by one period.
//
// monthly, quarterly and yearly keep the source day-of-month, clamped to
// the last day of the target month when the target month is shorter
// (Jan 31 -> Feb 28, Feb 29 -> Feb 28 the following year).
func NextDate(d time.Time, freq Frequency) time.Time {
	switch freq {
	case FrequencyDaily:
		return d.AddDate(0, 0, 1)
	case FrequencyWeekly:
		return d.AddDate(0, 0, 7)
	case FrequencyBiweekly:
		return d.AddDate(0, 0, 14)
	case FrequencyMonthly:
		return addMonthsClamped(d, 1)
	case FrequencyQuarterly:
		return addMonthsClamped(d, 3)
	case FrequencyYearly:
		return addMonthsClamped(d, 12)
	}
	return d
}

// addMonthsClamped adds months keeping the day-of-month, clamping to the
// end of the target month. time.AddDate is unsuitable here because it
// normalizes overflow forward (Jan 31 + 1 month = Mar 2/3).
func addMonthsClamped(d time.Time, months int) time.Time {
	year, month, day := d.Date()

	m := int(month) + months
	for m > 12 {
		m -= 12
		year++
	}

	if last := daysInMonth(year, time.Month(m)); day > last {
		day = last
	}
	return time.Date(year, time.Month(m), day, 0, 0, 0, 0, time.UTC)
}

// daysInMonth returns the number of days in the given month.
func daysInMonth(year int, month time.Month) int {
	// Day zero of the next month normalizes to this month's last day.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// parseDate parses a stored YYYY-MM-DD date.
func parseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}

// formatDate renders a date in its storage form.
func formatDate(d time.Time) string {
	return d.Format(dateLayout)
}
