package core

import (
	"strings"
	"time"
)

// DateLayout is the canonical textual form of every stored date.
const DateLayout = "2006-01-02"

// MonthLayout is the textual form of a budget month.
const MonthLayout = "2006-01"

// ParseDate parses a canonical YYYY-MM-DD date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, Invalidf("date %q must be YYYY-MM-DD", s)
	}
	return Date{Time: t}, nil
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// AddDays returns the date n days later.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// AddMonthClamped returns the date one month later on anchorDay, clamped to the
// last day of the target month. Overflow into the following month never happens.
func (d Date) AddMonthClamped(anchorDay int) Date {
	y, m, _ := d.Date()
	m++
	if m > time.December {
		m = time.January
		y++
	}
	day := anchorDay
	if last := DaysIn(y, m); day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return NewDate(y, int(m), day)
}

// DaysIn returns the number of days of the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" || s == "" {
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DateRange is an inclusive interval of calendar dates.
type DateRange struct {
	From Date
	To   Date
}

// ParseDateRange parses both bounds and validates ordering.
func ParseDateRange(from, to string) (DateRange, error) {
	f, err := ParseDate(from)
	if err != nil {
		return DateRange{}, err
	}
	t, err := ParseDate(to)
	if err != nil {
		return DateRange{}, err
	}
	r := DateRange{From: f, To: t}
	return r, r.Validate()
}

func (r DateRange) Validate() error {
	if r.From.IsZero() || r.To.IsZero() {
		return ErrInvalidDate
	}
	if r.From.After(r.To.Time) {
		return ErrInvalidRange
	}
	return nil
}

// MonthYear identifies a calendar month for budgets.
type MonthYear struct {
	Year  int
	Month time.Month
}

// ParseMonthYear parses a YYYY-MM month.
func ParseMonthYear(s string) (MonthYear, error) {
	t, err := time.Parse(MonthLayout, strings.TrimSpace(s))
	if err != nil {
		return MonthYear{}, Invalidf("month %q must be YYYY-MM", s)
	}
	return MonthYear{Year: t.Year(), Month: t.Month()}, nil
}

func (m MonthYear) String() string {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).Format(MonthLayout)
}

// Range returns the first and last day of the month.
func (m MonthYear) Range() DateRange {
	return DateRange{
		From: NewDate(m.Year, int(m.Month), 1),
		To:   NewDate(m.Year, int(m.Month), DaysIn(m.Year, m.Month)),
	}
}

func (m MonthYear) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

func (m *MonthYear) UnmarshalJSON(b []byte) error {
	parsed, err := ParseMonthYear(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
