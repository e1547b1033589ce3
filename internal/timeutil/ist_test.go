package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMonthWindow(t *testing.T) {
	ref := time.Date(2024, time.February, 14, 18, 30, 0, 0, IST)
	start, end := MonthWindow(ref)

	assert.Equal(t, time.Date(2024, time.February, 1, 0, 0, 0, 0, IST), start)
	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, IST).Add(-time.Nanosecond), end)
}

func TestMonthWindowNormalizesAnyDate(t *testing.T) {
	// Every date in a month maps to the same window.
	first, _ := MonthWindow(time.Date(2024, time.March, 1, 0, 0, 0, 0, IST))
	mid, _ := MonthWindow(time.Date(2024, time.March, 15, 12, 0, 0, 0, IST))
	last, _ := MonthWindow(time.Date(2024, time.March, 31, 23, 59, 59, 0, IST))

	assert.Equal(t, first, mid)
	assert.Equal(t, first, last)
}

func TestMonthStartConvertsToIST(t *testing.T) {
	// 2024-01-31 20:00 UTC is already 2024-02-01 01:30 in IST.
	utc := time.Date(2024, time.January, 31, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, time.February, 1, 0, 0, 0, 0, IST), MonthStart(utc))
}

func TestSameMonth(t *testing.T) {
	a := time.Date(2024, time.April, 1, 0, 0, 0, 0, IST)
	b := time.Date(2024, time.April, 30, 23, 0, 0, 0, IST)
	c := time.Date(2024, time.May, 1, 0, 0, 0, 0, IST)

	assert.True(t, SameMonth(a, b))
	assert.False(t, SameMonth(b, c))
}

func TestParseInIST(t *testing.T) {
	got, err := ParseInIST(DateLayout, "2024-06-05")
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.June, 5, 0, 0, 0, 0, IST), got)

	_, err = ParseInIST(DateLayout, "05/06/2024")
	assert.Error(t, err)
}
