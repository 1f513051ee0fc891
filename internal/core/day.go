package core

import (
	"errors"
	"time"
)

// Day is a calendar date in the service's yyyy-MM-dd wire format.
// The format orders lexicographically, so comparisons work on the
// string form and parsing is needed only for calendar arithmetic.
type Day string

const dayLayout = "2006-01-02"

var ErrInvalidDay = errors.New("invalid day, expected yyyy-MM-dd")

func DayOf(t time.Time) Day {
	return Day(t.Format(dayLayout))
}

func NewDay(year, month, day int) Day {
	return DayOf(time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC))
}

func (d Day) Validate() error {
	if _, err := time.Parse(dayLayout, string(d)); err != nil {
		return ErrInvalidDay
	}
	return nil
}

func (d Day) IsZero() bool { return d == "" }

func (d Day) Before(o Day) bool { return d < o }

func (d Day) After(o Day) bool { return d > o }

// In reports whether d falls inside the closed interval [from, to].
func (d Day) In(from, to Day) bool { return d >= from && d <= to }

func (d Day) Time() (time.Time, error) {
	t, err := time.Parse(dayLayout, string(d))
	if err != nil {
		return time.Time{}, ErrInvalidDay
	}
	return t, nil
}

// Next returns the following calendar day.
func (d Day) Next() Day {
	t, err := d.Time()
	if err != nil {
		return d
	}
	return DayOf(t.AddDate(0, 0, 1))
}

// MonthStart returns the first day of d's month, the form budget rows
// are keyed on.
func (d Day) MonthStart() Day {
	if len(d) < 7 {
		return d
	}
	return d[:7] + "-01"
}

// MonthStarts lists the first-of-month keys for every calendar month the
// closed interval [from, to] touches, in order.
func MonthStarts(from, to Day) []Day {
	start, err := from.Time()
	if err != nil {
		return nil
	}
	end, err := to.Time()
	if err != nil {
		return nil
	}
	var months []Day
	cur := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !cur.After(end) {
		months = append(months, DayOf(cur))
		cur = cur.AddDate(0, 1, 0)
	}
	return months
}
