package kernel

import "time"

// TenantZone is the single fixed civil timezone the kernel resolves all
// dates in. The reference deployment runs UTC-5 year-round; there is no
// DST handling here by design.
func TenantZone(offsetMinutes int) *time.Location {
	return time.FixedZone("tenant", offsetMinutes*60)
}

// FiscalYear returns the fiscal year containing civil date d, given a
// fiscalYearStartMonth in 1..12.
func FiscalYear(d time.Time, startMonth int) int {
	if startMonth == 1 {
		return d.Year()
	}
	if int(d.Month()) >= startMonth {
		return d.Year() + 1
	}
	return d.Year()
}

// FiscalMonth returns the 0-based fiscal month index for civil date d;
// fiscal month 0 corresponds to startMonth.
func FiscalMonth(d time.Time, startMonth int) int {
	return (int(d.Month()) - startMonth + 12) % 12
}

// FiscalQuarter groups fiscal months {0,1,2},{3,4,5},{6,7,8},{9,10,11}
// into quarters 1..4, returning the fiscal year and quarter for date d.
func FiscalQuarter(d time.Time, startMonth int) (year, quarter int) {
	fy := FiscalYear(d, startMonth)
	fm := FiscalMonth(d, startMonth)
	return fy, fm/3 + 1
}

// FiscalYearBounds returns the first instant of the fiscal year and the
// last instant of its last day, in loc.
func FiscalYearBounds(fiscalYear int, startMonth int, loc *time.Location) (start, end time.Time) {
	var calendarStartYear int
	if startMonth == 1 {
		calendarStartYear = fiscalYear
	} else {
		calendarStartYear = fiscalYear - 1
	}
	start = time.Date(calendarStartYear, time.Month(startMonth), 1, 0, 0, 0, 0, loc)
	end = start.AddDate(1, 0, 0).Add(-time.Nanosecond)
	return start, end
}

// FiscalQuarterStartMonth returns the calendar month (1..12) in which
// fiscal quarter q (1..4) of fiscalYear begins, given startMonth.
func FiscalQuarterStartMonth(fiscalYear, quarter, startMonth int) (calendarYear int, calendarMonth int) {
	var calendarStartYear int
	if startMonth == 1 {
		calendarStartYear = fiscalYear
	} else {
		calendarStartYear = fiscalYear - 1
	}
	start := time.Date(calendarStartYear, time.Month(startMonth), 1, 0, 0, 0, 0, time.UTC)
	start = start.AddDate(0, (quarter-1)*3, 0)
	return start.Year(), int(start.Month())
}

// FiscalMonthStartDate returns the first civil day, in loc, of fiscal
// month index fm (0-based) of fiscalYear.
func FiscalMonthStartDate(fiscalYear, fm, startMonth int, loc *time.Location) time.Time {
	var calendarStartYear int
	if startMonth == 1 {
		calendarStartYear = fiscalYear
	} else {
		calendarStartYear = fiscalYear - 1
	}
	start := time.Date(calendarStartYear, time.Month(startMonth), 1, 0, 0, 0, 0, loc)
	return start.AddDate(0, fm, 0)
}

// CivilDate parses a "YYYY-MM-DD" string as midnight in loc.
func CivilDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, loc)
}

// PercentOfYearElapsed returns clamp((now - start) / (end - start), 0, 1).
func PercentOfYearElapsed(now, start, end time.Time) float64 {
	total := end.Sub(start)
	if total <= 0 {
		return 0
	}
	elapsed := now.Sub(start)
	pct := float64(elapsed) / float64(total)
	if pct < 0 {
		return 0
	}
	if pct > 1 {
		return 1
	}
	return pct
}

// MonthsBetweenClamped returns the whole calendar-month difference
// between from and to, clamped to >= 0.
func MonthsBetweenClamped(from, to time.Time) int {
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}
