package fiscal

import (
	"fmt"
	"time"
)

// GeneratePeriods computes the contiguous periods subdividing the
// [start, end] range for the requested kind. Each period is clipped to
// the year end, numbered sequentially, and starts Open. GenerateNone
// yields no periods.
func GeneratePeriods(start, end time.Time, kind GenerateKind) []Period {
	switch kind {
	case GenerateMonth:
		return monthlyPeriods(start, end)
	case GenerateQuarter:
		return quarterlyPeriods(start, end)
	default:
		return nil
	}
}

func monthlyPeriods(start, end time.Time) []Period {
	var periods []Period
	cursor := start
	number := 1
	for !cursor.After(end) {
		nextMonth := time.Date(cursor.Year(), cursor.Month()+1, 1, 0, 0, 0, 0, cursor.Location())
		periodEnd := nextMonth.AddDate(0, 0, -1)
		if periodEnd.After(end) {
			periodEnd = end
		}
		periods = append(periods, Period{
			Name:      fmt.Sprintf("%s %d", cursor.Month(), cursor.Year()),
			Type:      PeriodTypeMonth,
			Number:    number,
			StartDate: cursor,
			EndDate:   periodEnd,
			Status:    PeriodStatusOpen,
		})
		cursor = nextMonth
		number++
	}
	return periods
}

func quarterlyPeriods(start, end time.Time) []Period {
	var periods []Period
	cursor := start
	number := 1
	for !cursor.After(end) {
		next := time.Date(cursor.Year(), cursor.Month()+3, 1, 0, 0, 0, 0, cursor.Location())
		periodEnd := next.AddDate(0, 0, -1)
		if periodEnd.After(end) {
			periodEnd = end
		}
		periods = append(periods, Period{
			Name:      fmt.Sprintf("Q%d %d", number, cursor.Year()),
			Type:      PeriodTypeQuarter,
			Number:    number,
			StartDate: cursor,
			EndDate:   periodEnd,
			Status:    PeriodStatusOpen,
		})
		cursor = next
		number++
	}
	return periods
}
