package timeutil

import (
	"time"
)

// IST is the Indian Standard Time location (UTC+5:30)
var IST *time.Location

func init() {
	var err error
	IST, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// Fallback: create fixed zone if Asia/Kolkata not available
		IST = time.FixedZone("IST", 5*60*60+30*60) // UTC+5:30
	}
}

// Now returns the current time in IST
func Now() time.Time {
	return time.Now().In(IST)
}

// ToIST converts any time to IST
func ToIST(t time.Time) time.Time {
	return t.In(IST)
}

// ParseInIST parses a time string and returns it in IST
func ParseInIST(layout, value string) (time.Time, error) {
	t, err := time.ParseInLocation(layout, value, IST)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// FormatIST formats a time in IST using the given layout
func FormatIST(t time.Time, layout string) string {
	return t.In(IST).Format(layout)
}

// MonthStart returns the first instant (00:00:00) of the calendar month
// containing t, in IST. Billing periods are always whole IST months.
func MonthStart(t time.Time) time.Time {
	ist := t.In(IST)
	return time.Date(ist.Year(), ist.Month(), 1, 0, 0, 0, 0, IST)
}

// MonthEnd returns the last instant of the calendar month containing t, in IST.
func MonthEnd(t time.Time) time.Time {
	return MonthStart(t).AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// MonthWindow returns the billing period (first instant, last instant) of the
// calendar month containing t. Any date within a month normalizes to the same window.
func MonthWindow(t time.Time) (time.Time, time.Time) {
	start := MonthStart(t)
	return start, start.AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// SameMonth reports whether a and b fall in the same IST calendar month.
func SameMonth(a, b time.Time) bool {
	return MonthStart(a).Equal(MonthStart(b))
}

// Common layouts for IST formatting
const (
	DateLayout     = "2006-01-02"
	TimeLayout     = "15:04:05"
	DateTimeLayout = "2006-01-02 15:04:05"
	DisplayLayout  = "02 Jan 2006, 03:04 PM"
	MonthLayout    = "Jan 2006"
)
