package usage

import "time"

// StartOfDay returns midnight UTC of the day containing now.
func StartOfDay(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// StartOfMonth returns midnight UTC of the first day of the month containing now.
func StartOfMonth(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}
