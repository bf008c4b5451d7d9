package model

// ResolvedTimeSlot is one slot of a resolved day: its interval, whether it can
// still be booked, and why not when it cannot. IsOverridden marks slots the
// expert closed by hand; Booking is attached when a client claimed the slot.
type ResolvedTimeSlot struct {
	Start        DayTime  `json:"start"`
	End          DayTime  `json:"end"`
	Available    bool     `json:"available"`
	IsOverridden bool     `json:"is_overridden"`
	Booking      *Booking `json:"booking,omitempty"`
}

// ResolvedDaySchedule is the computed schedule for one date. Never persisted,
// always recomputed. IsUnavailable true means the expert closed the whole day;
// an empty slot list with IsUnavailable false means no schedule is configured
// for that date, which is a different thing.
type ResolvedDaySchedule struct {
	Date          Date               `json:"date"`
	IsUnavailable bool               `json:"is_unavailable"`
	TimeSlots     []ResolvedTimeSlot `json:"time_slots"`
	Err           error              `json:"-"`
}

// HasOpenSlot reports whether at least one slot is still bookable.
func (d *ResolvedDaySchedule) HasOpenSlot() bool {
	if d.IsUnavailable {
		return false
	}
	for _, slot := range d.TimeSlots {
		if slot.Available {
			return true
		}
	}
	return false
}
