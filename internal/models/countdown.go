package models

import (
	"fmt"
	"time"
)

// CountdownExpired is the fixed marker shown once a deadline passes.
const CountdownExpired = "Süre Doldu"

// Countdown captures the remaining time to a deadline in display form.
type Countdown struct {
	Expired   bool   `json:"expired"`
	Humanized string `json:"humanized"`
}

// TimeRemaining computes the countdown between now and the due instant.
// The humanized form keeps the two coarsest non-zero units: days and
// hours, hours and minutes, or minutes alone below one hour. Pure over
// its inputs; callers re-evaluate it on every query since now advances.
func TimeRemaining(due, now time.Time) Countdown {
	diff := due.Sub(now)
	if diff <= 0 {
		return Countdown{Expired: true, Humanized: CountdownExpired}
	}

	days := int(diff / (24 * time.Hour))
	hours := int(diff%(24*time.Hour)) / int(time.Hour)
	minutes := int(diff%time.Hour) / int(time.Minute)

	switch {
	case days > 0:
		return Countdown{Humanized: fmt.Sprintf("%d gün %d saat", days, hours)}
	case hours > 0:
		return Countdown{Humanized: fmt.Sprintf("%d saat %d dk", hours, minutes)}
	default:
		return Countdown{Humanized: fmt.Sprintf("%d dk", minutes)}
	}
}

// Countdown evaluates the assignment deadline against the reference instant.
func (a Assignment) Countdown(reference time.Time) Countdown {
	return TimeRemaining(a.DueDate, reference)
}
