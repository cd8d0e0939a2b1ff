package recurring

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextDate(t *testing.T) {
	tests := []struct {
		name     string
		from     time.Time
		freq     Frequency
		expected time.Time
	}{
		{"daily", date(2026, 3, 15), FrequencyDaily, date(2026, 3, 16)},
		{"daily month rollover", date(2026, 3, 31), FrequencyDaily, date(2026, 4, 1)},
		{"weekly", date(2026, 3, 15), FrequencyWeekly, date(2026, 3, 22)},
		{"biweekly", date(2026, 3, 15), FrequencyBiweekly, date(2026, 3, 29)},
		{"monthly", date(2026, 3, 15), FrequencyMonthly, date(2026, 4, 15)},
		{"monthly keeps day", date(2026, 1, 30), FrequencyMonthly, date(2026, 2, 28)},
		{"monthly jan 31 clamps", date(2026, 1, 31), FrequencyMonthly, date(2026, 2, 28)},
		{"monthly jan 31 leap year", date(2024, 1, 31), FrequencyMonthly, date(2024, 2, 29)},
		{"monthly feb 28 stays", date(2026, 2, 28), FrequencyMonthly, date(2026, 3, 28)},
		{"monthly dec wraps year", date(2026, 12, 15), FrequencyMonthly, date(2027, 1, 15)},
		{"quarterly", date(2026, 1, 10), FrequencyQuarterly, date(2026, 4, 10)},
		{"quarterly nov 30 clamps feb", date(2026, 11, 30), FrequencyQuarterly, date(2027, 2, 28)},
		{"quarterly wraps year", date(2026, 11, 15), FrequencyQuarterly, date(2027, 2, 15)},
		{"yearly", date(2026, 6, 1), FrequencyYearly, date(2027, 6, 1)},
		{"yearly feb 29 clamps", date(2024, 2, 29), FrequencyYearly, date(2025, 2, 28)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextDate(tt.from, tt.freq)
			if !got.Equal(tt.expected) {
				t.Errorf("NextDate(%s, %s) = %s, expected %s",
					tt.from.Format(dateLayout), tt.freq,
					got.Format(dateLayout), tt.expected.Format(dateLayout))
			}
		})
	}
}

func TestFrequencyValid(t *testing.T) {
	valid := []Frequency{
		FrequencyDaily, FrequencyWeekly, FrequencyBiweekly,
		FrequencyMonthly, FrequencyQuarterly, FrequencyYearly,
	}
	for _, f := range valid {
		if !f.Valid() {
			t.Errorf("Valid(%q) = false, expected true", f)
		}
	}

	for _, f := range []Frequency{"", "fortnightly", "Monthly"} {
		if f.Valid() {
			t.Errorf("Valid(%q) = true, expected false", f)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("2026-03-15")
	if err != nil {
		t.Fatalf("parseDate() error = %v", err)
	}
	if !d.Equal(date(2026, 3, 15)) {
		t.Errorf("parseDate() = %s, expected 2026-03-15", d)
	}

	if _, err := parseDate("15/03/2026"); err == nil {
		t.Error("parseDate accepted a malformed date")
	}
}
