package kernel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFiscalYear_StartMonthOne_IsCalendarYear(t *testing.T) {
	d := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 2026, FiscalYear(d, 1))
}

func TestFiscalYear_NonJanuaryStart(t *testing.T) {
	loc := time.UTC
	// AVII fiscalYearStartMonth = 7
	before := time.Date(2026, 6, 30, 0, 0, 0, 0, loc)
	atStart := time.Date(2026, 7, 1, 0, 0, 0, 0, loc)
	assert.Equal(t, 2026, FiscalYear(before, 7))
	assert.Equal(t, 2027, FiscalYear(atStart, 7))
}

func TestFiscalMonth(t *testing.T) {
	loc := time.UTC
	d := time.Date(2026, 7, 1, 0, 0, 0, 0, loc)
	assert.Equal(t, 0, FiscalMonth(d, 7))

	d2 := time.Date(2026, 9, 1, 0, 0, 0, 0, loc)
	assert.Equal(t, 2, FiscalMonth(d2, 7))
}

func TestFiscalQuarter(t *testing.T) {
	d := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	year, quarter := FiscalQuarter(d, 7)
	assert.Equal(t, 2027, year)
	assert.Equal(t, 1, quarter)
}

func TestFiscalYearBounds(t *testing.T) {
	start, end := FiscalYearBounds(2027, 7, time.UTC)
	assert.Equal(t, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2027, 6, 30, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC), end)
}

func TestMonthsBetweenClamped(t *testing.T) {
	from := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 2, MonthsBetweenClamped(from, to))

	assert.Equal(t, 0, MonthsBetweenClamped(to, from))
}
