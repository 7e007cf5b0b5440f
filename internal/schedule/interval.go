package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrBadSlotFormat = errors.New("slot must be formatted HH:MM-HH:MM")
	ErrSlotInverted  = errors.New("slot start must precede slot end")
)

// Interval is a concrete time window on a single calendar day, derived either
// from a schedule slot string or from an appointment's stored timestamps.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether inner fits entirely inside i. Boundary equality
// counts as contained.
func (i Interval) Contains(inner Interval) bool {
	return !inner.Start.Before(i.Start) && !inner.End.After(i.End)
}

// Overlaps uses the half-open test: back-to-back intervals do not overlap.
// Spacing between adjacent appointments is enforced separately by the gap rule.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// MinutesApart returns the absolute distance between two instants in minutes.
func MinutesApart(a, b time.Time) float64 {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d.Minutes()
}

// At places a wall-clock time "HH:MM" on the same UTC calendar day as date.
// Slots spanning midnight are not supported.
func At(date time.Time, hhmm string) (time.Time, error) {
	var h, m int
	if _, err := fmt.Sscanf(hhmm, "%2d:%2d", &h, &m); err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", hhmm, ErrBadSlotFormat)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return time.Time{}, fmt.Errorf("time %q out of range: %w", hhmm, ErrBadSlotFormat)
	}
	y, mo, d := date.UTC().Date()
	return time.Date(y, mo, d, h, m, 0, 0, time.UTC), nil
}

// ParseSlot turns a "HH:MM-HH:MM" slot string into an Interval anchored on the
// UTC calendar day of date.
func ParseSlot(slot string, date time.Time) (Interval, error) {
	startStr, endStr, ok := strings.Cut(slot, "-")
	if !ok {
		return Interval{}, fmt.Errorf("slot %q: %w", slot, ErrBadSlotFormat)
	}

	start, err := At(date, startStr)
	if err != nil {
		return Interval{}, err
	}
	end, err := At(date, endStr)
	if err != nil {
		return Interval{}, err
	}
	if !start.Before(end) {
		return Interval{}, fmt.Errorf("slot %q: %w", slot, ErrSlotInverted)
	}

	return Interval{Start: start, End: end}, nil
}
