package util

import (
	"time"
)

const layout = "2006-01-02"

// dayKey is the compact form used in output file names, e.g. 20200601.
const dayKey = "20060102"

func NewDate(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(layout, s, time.UTC)
}

func DayKey(t time.Time) string {
	return t.Format(dayKey)
}

func DateLte(t1, t2 time.Time) bool {
	return t1.Before(t2) || t1.Format(layout) == t2.Format(layout)
}
