// Package stay holds the calendar-date rules every booking decision shares:
// day normalization, half-open stay intervals and the overlap test.
package stay

import (
	"errors"
	"strings"
	"time"
)

const Layout = "2006-01-02"

var ErrInvalidInterval = errors.New("check-out must be after check-in")

// Day returns midnight UTC of t's calendar date, as seen in t's own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate accepts "2006-01-02" or an RFC3339 timestamp and returns the day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(Layout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return Day(t), nil
}

// Interval is the half-open stay [CheckIn, CheckOut).
type Interval struct {
	CheckIn  time.Time
	CheckOut time.Time
}

func New(checkIn, checkOut time.Time) (Interval, error) {
	iv := Interval{CheckIn: Day(checkIn), CheckOut: Day(checkOut)}
	if !iv.CheckOut.After(iv.CheckIn) {
		return Interval{}, ErrInvalidInterval
	}
	return iv, nil
}

func Parse(checkIn, checkOut string) (Interval, error) {
	in, err := ParseDate(checkIn)
	if err != nil {
		return Interval{}, err
	}
	out, err := ParseDate(checkOut)
	if err != nil {
		return Interval{}, err
	}
	return New(in, out)
}

// Overlaps reports whether the two stays share a night. A stay ending on the
// day another begins does not overlap it.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.CheckIn.Before(other.CheckOut) && iv.CheckOut.After(other.CheckIn)
}

// Nights is the number of nights billed, partial days rounded up.
func (iv Interval) Nights() int {
	d := iv.CheckOut.Sub(iv.CheckIn)
	n := int(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		n++
	}
	return n
}

func (iv Interval) Contains(day time.Time) bool {
	d := Day(day)
	return !d.Before(iv.CheckIn) && d.Before(iv.CheckOut)
}

func (iv Interval) String() string {
	return iv.CheckIn.Format(Layout) + ".." + iv.CheckOut.Format(Layout)
}
