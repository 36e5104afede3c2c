package utils

import (
	"fmt"
	"time"
)

// DateLayout is the expiration date format accepted in requests
const DateLayout = "2006-01-02"

// CalculateNextOptionsExpiration returns the next third Friday for options expiration
// This implements the standard options expiration business logic:
// - Third Friday of current month if we haven't reached the expiration week yet
// - Third Friday of next month if we're in or past the expiration week
func CalculateNextOptionsExpiration(today time.Time) string {
	thirdFriday := thirdFridayOf(today.Year(), today.Month(), today.Location())

	// If current day is in the week of 3rd Friday or past it, use next month's 3rd Friday
	weekStart := thirdFriday.AddDate(0, 0, -7)

	if today.After(weekStart) || today.Equal(weekStart) {
		next := time.Date(today.Year(), today.Month()+1, 1, 0, 0, 0, 0, today.Location())
		return thirdFridayOf(next.Year(), next.Month(), today.Location()).Format(DateLayout)
	}

	return thirdFriday.Format(DateLayout)
}

func thirdFridayOf(year int, month time.Month, loc *time.Location) time.Time {
	firstFriday := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	for firstFriday.Weekday() != time.Friday {
		firstFriday = firstFriday.AddDate(0, 0, 1)
	}
	return firstFriday.AddDate(0, 0, 14)
}

// DaysUntil returns the calendar days from now until the close of the
// expiration date (16:00 in now's location), as a fraction
func DaysUntil(expiration string, now time.Time) (float64, error) {
	day, err := time.ParseInLocation(DateLayout, expiration, now.Location())
	if err != nil {
		return 0, fmt.Errorf("invalid expiration date format: %w", err)
	}

	closeTime := day.Add(16 * time.Hour)
	days := closeTime.Sub(now).Hours() / 24
	if days <= 0 {
		return 0, fmt.Errorf("expiration %s is not in the future", expiration)
	}
	return days, nil
}
