package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Date is a calendar date without time of day. The zero value means the
// date is unknown or was malformed at the source.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const isoLayout = "2006-01-02"

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a day/month/year string such as "10/03/2024".
func ParseDate(s string) (Date, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("date %q: want day/month/year", s)
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Date{}, fmt.Errorf("date %q: %w", s, err)
		}
		nums[i] = n
	}
	d := Date{Year: nums[2], Month: time.Month(nums[1]), Day: nums[0]}
	if !d.Valid() {
		return Date{}, fmt.Errorf("date %q: out of range", s)
	}
	return d, nil
}

// Valid reports whether d names a real calendar day. 31/02 is not one.
func (d Date) Valid() bool {
	if d.Year < 1 || d.Month < time.January || d.Month > time.December || d.Day < 1 {
		return false
	}
	return DateOf(time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)) == d
}

func (d Date) IsZero() bool {
	return d == Date{}
}

// In reports whether d falls in the given month of the given year.
func (d Date) In(month time.Month, year int) bool {
	return !d.IsZero() && d.Month == month && d.Year == year
}

// Before orders dates chronologically.
func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

// String formats d as dd/mm/yyyy, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%02d/%02d/%04d", d.Day, int(d.Month), d.Year)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts dd/mm/yyyy. Malformed values decode to the zero
// date so a bad seed row is skipped by aggregation instead of failing.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		*d = Date{}
		return nil
	}
	*d = parsed
	return nil
}

// Value stores the date as ISO yyyy-mm-dd text. Impossible dates are
// stored as unknown.
func (d Date) Value() (driver.Value, error) {
	if !d.Valid() {
		return "", nil
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day), nil
}

func (d *Date) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	case time.Time:
		*d = DateOf(v)
		return nil
	default:
		return fmt.Errorf("scan date: unsupported type %T", src)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	t, err := time.Parse(isoLayout, s)
	if err != nil {
		return fmt.Errorf("scan date: %w", err)
	}
	*d = DateOf(t)
	return nil
}
