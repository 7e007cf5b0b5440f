package schedule

import "time"

// WeeklySchedule is a doctor's recurring availability: weekday name mapped to
// slot strings like "09:00-12:00". It is stored as JSONB on the doctors table
// and written by the profile editor; the scheduling core only reads it.
// Slot lists are not required to be sorted or disjoint.
type WeeklySchedule map[string][]string

// SlotsFor returns the configured slots for the weekday of t. A missing day
// means the doctor does not work that day, which callers treat as a normal
// rejection rather than an error.
func (ws WeeklySchedule) SlotsFor(t time.Time) ([]string, bool) {
	slots, ok := ws[t.UTC().Weekday().String()]
	if !ok || len(slots) == 0 {
		return nil, false
	}
	return slots, true
}

// ContainsInterval reports whether any slot on candidate's weekday fully
// contains the candidate interval. Malformed slot strings are skipped, the
// same way the profile layer tolerates them at write time.
func (ws WeeklySchedule) ContainsInterval(candidate Interval) bool {
	slots, ok := ws.SlotsFor(candidate.Start)
	if !ok {
		return false
	}
	for _, s := range slots {
		slot, err := ParseSlot(s, candidate.Start)
		if err != nil {
			continue
		}
		if slot.Contains(candidate) {
			return true
		}
	}
	return false
}
