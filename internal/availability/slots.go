package availability

import "slices"

// DefaultSlots is the clinic's fixed daily consultation schedule.
var DefaultSlots = []string{"09:00", "10:30", "13:00", "15:00", "17:00"}

// AvailableSlots filters the fixed slot list down to labels not present in
// booked, preserving the fixed order. exclude, when non-empty, is always kept
// even if booked, so a reschedule can re-offer the slot its own record
// currently occupies.
func AvailableSlots(slots, booked []string, exclude string) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		if s == exclude || !slices.Contains(booked, s) {
			out = append(out, s)
		}
	}
	return out
}

// IsSlot reports whether label is one of the configured slot labels.
func IsSlot(slots []string, label string) bool {
	return slices.Contains(slots, label)
}
