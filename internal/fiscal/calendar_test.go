package fiscal

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGeneratePeriodsMonthlyCalendarYear(t *testing.T) {
	periods := GeneratePeriods(date(2024, time.January, 1), date(2024, time.December, 31), GenerateMonth)
	if len(periods) != 12 {
		t.Fatalf("expected 12 periods, got %d", len(periods))
	}
	first := periods[0]
	if first.Name != "January 2024" || first.Number != 1 {
		t.Fatalf("unexpected first period %q number %d", first.Name, first.Number)
	}
	if !first.StartDate.Equal(date(2024, time.January, 1)) || !first.EndDate.Equal(date(2024, time.January, 31)) {
		t.Fatalf("unexpected first period range %v - %v", first.StartDate, first.EndDate)
	}
	feb := periods[1]
	if !feb.EndDate.Equal(date(2024, time.February, 29)) {
		t.Fatalf("expected leap February to end on the 29th, got %v", feb.EndDate)
	}
	last := periods[11]
	if last.Name != "December 2024" || !last.EndDate.Equal(date(2024, time.December, 31)) {
		t.Fatalf("unexpected last period %q ending %v", last.Name, last.EndDate)
	}
	for i, p := range periods {
		if p.Status != PeriodStatusOpen {
			t.Fatalf("period %d not open: %s", i, p.Status)
		}
		if i > 0 && !p.StartDate.Equal(periods[i-1].EndDate.AddDate(0, 0, 1)) {
			t.Fatalf("gap between period %d and %d", i-1, i)
		}
	}
}

func TestGeneratePeriodsMonthlyFiscalYearSpansCalendarYears(t *testing.T) {
	periods := GeneratePeriods(date(2024, time.April, 1), date(2025, time.March, 31), GenerateMonth)
	if len(periods) != 12 {
		t.Fatalf("expected 12 periods, got %d", len(periods))
	}
	if periods[0].Name != "April 2024" {
		t.Fatalf("unexpected first period %q", periods[0].Name)
	}
	if periods[11].Name != "March 2025" || !periods[11].EndDate.Equal(date(2025, time.March, 31)) {
		t.Fatalf("unexpected last period %q ending %v", periods[11].Name, periods[11].EndDate)
	}
}

func TestGeneratePeriodsQuarterly(t *testing.T) {
	periods := GeneratePeriods(date(2024, time.January, 1), date(2024, time.December, 31), GenerateQuarter)
	if len(periods) != 4 {
		t.Fatalf("expected 4 quarters, got %d", len(periods))
	}
	if periods[0].Name != "Q1 2024" || !periods[0].EndDate.Equal(date(2024, time.March, 31)) {
		t.Fatalf("unexpected Q1 %q ending %v", periods[0].Name, periods[0].EndDate)
	}
	if periods[3].Name != "Q4 2024" || !periods[3].StartDate.Equal(date(2024, time.October, 1)) {
		t.Fatalf("unexpected Q4 %q starting %v", periods[3].Name, periods[3].StartDate)
	}
}

func TestGeneratePeriodsClipsShortYear(t *testing.T) {
	periods := GeneratePeriods(date(2024, time.January, 1), date(2024, time.November, 15), GenerateMonth)
	if len(periods) != 11 {
		t.Fatalf("expected 11 periods, got %d", len(periods))
	}
	last := periods[len(periods)-1]
	if !last.EndDate.Equal(date(2024, time.November, 15)) {
		t.Fatalf("expected last period clipped to year end, got %v", last.EndDate)
	}
}

func TestGeneratePeriodsNone(t *testing.T) {
	if periods := GeneratePeriods(date(2024, time.January, 1), date(2024, time.December, 31), GenerateNone); periods != nil {
		t.Fatalf("expected no periods, got %d", len(periods))
	}
}

func TestPeriodContains(t *testing.T) {
	p := Period{StartDate: date(2024, time.March, 1), EndDate: date(2024, time.March, 31)}
	if !p.Contains(date(2024, time.March, 1)) || !p.Contains(date(2024, time.March, 31)) {
		t.Fatal("expected boundaries to be inclusive")
	}
	if p.Contains(date(2024, time.February, 29)) || p.Contains(date(2024, time.April, 1)) {
		t.Fatal("expected dates outside the range to be rejected")
	}
}
