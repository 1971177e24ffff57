package recurrence

import "time"

// NextDate computes the occurrence following the anchor date for the
// given frequency and interval. A day-of-month anchor is clamped to
// the last valid day of the resulting month (Jan 31 + 1 month gives
// Feb 28 or 29); a weekday anchor shifts weekly occurrences forward to
// that weekday. The result is always after the anchor.
func NextDate(anchor time.Time, freq Frequency, interval int, dayOfMonth *int, weekday *time.Weekday) (time.Time, error) {
	if interval < 1 {
		interval = 1
	}
	switch freq {
	case FrequencyDaily:
		return anchor.AddDate(0, 0, interval), nil
	case FrequencyWeekly:
		next := anchor.AddDate(0, 0, 7*interval)
		if weekday != nil {
			shift := (int(*weekday) - int(next.Weekday()) + 7) % 7
			next = next.AddDate(0, 0, shift)
		}
		return next, nil
	case FrequencyMonthly:
		return addMonthsClamped(anchor, interval, dayOfMonth), nil
	case FrequencyQuarterly:
		return addMonthsClamped(anchor, 3*interval, dayOfMonth), nil
	case FrequencyYearly:
		return addMonthsClamped(anchor, 12*interval, dayOfMonth), nil
	default:
		return time.Time{}, ErrUnsupportedFrequency
	}
}

// addMonthsClamped advances by whole months keeping the anchor day
// (or the explicit day-of-month), clamped to the target month length.
func addMonthsClamped(t time.Time, months int, dayOfMonth *int) time.Time {
	day := t.Day()
	if dayOfMonth != nil {
		day = *dayOfMonth
	}
	year, month, _ := t.Date()
	first := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
