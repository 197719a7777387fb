// Package util holds small formatting and parsing helpers shared across layers.
package util

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// PeriodLayout is the YYYY-MM layout of a rental income period.
const PeriodLayout = "2006-01"

// ParsePeriod parses a YYYY-MM income period into the first instant of that month in UTC.
func ParsePeriod(period string) (time.Time, error) {
	t, err := time.Parse(PeriodLayout, period)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "period %q must be formatted as YYYY-MM", period)
	}

	return t, nil
}

// FormatDuration formats duration into human readable format (e.g., "1h30m", "5m10s", "45s").
func FormatDuration(duration time.Duration) string {
	duration = duration.Round(time.Second)

	if duration < time.Minute {
		return fmt.Sprintf("%ds", int(duration.Seconds()))
	}

	if duration < time.Hour {
		m := int(duration.Minutes())
		s := int(duration.Seconds()) % 60

		return fmt.Sprintf("%dm%ds", m, s)
	}

	if duration < 48*time.Hour {
		h := int(duration.Hours())
		m := int(duration.Minutes()) % 60

		return fmt.Sprintf("%dh%dm", h, m)
	}

	d := int(duration.Hours()) / 24
	h := int(duration.Hours()) % 24

	return fmt.Sprintf("%dd%dh", d, h)
}
