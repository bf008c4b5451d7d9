package model

import (
	"fmt"
	"sort"

	"github.com/goccy/go-json"
)

// TimeSlot is a half-open [Start, End) interval within one day.
type TimeSlot struct {
	Start     DayTime
	End       DayTime
	Available bool
}

// SlotInput is the wire shape of a time slot. Two naming conventions exist for
// historical reasons: start/end and startTime/endTime. Normalize is the only
// place where the two are reconciled; every boundary goes through it.
type SlotInput struct {
	Start     *DayTime `json:"start,omitempty"`
	End       *DayTime `json:"end,omitempty"`
	StartTime *DayTime `json:"startTime,omitempty"`
	EndTime   *DayTime `json:"endTime,omitempty"`
	Available *bool    `json:"available,omitempty"`
}

// Normalize produces the canonical TimeSlot. start/end win over
// startTime/endTime; a missing available flag means available.
func (in SlotInput) Normalize() (TimeSlot, error) {
	start := in.Start
	if start == nil {
		start = in.StartTime
	}
	end := in.End
	if end == nil {
		end = in.EndTime
	}
	if start == nil || end == nil {
		return TimeSlot{}, fmt.Errorf("time slot is missing start or end")
	}

	slot := TimeSlot{Start: *start, End: *end, Available: true}
	if in.Available != nil {
		slot.Available = *in.Available
	}
	if err := slot.Validate(); err != nil {
		return TimeSlot{}, err
	}
	return slot, nil
}

func (s TimeSlot) Validate() error {
	if !s.Start.Valid() || !s.End.Valid() {
		return fmt.Errorf("time slot %s-%s is outside the day", s.Start, s.End)
	}
	if s.Start >= s.End {
		return fmt.Errorf("time slot start %s must be before end %s", s.Start, s.End)
	}
	return nil
}

// Overlaps reports whether two half-open intervals intersect.
func (s TimeSlot) Overlaps(o TimeSlot) bool {
	return s.Start < o.End && o.Start < s.End
}

// SameInterval reports whether two slots cover the same (start, end) range.
func (s TimeSlot) SameInterval(o TimeSlot) bool {
	return s.Start == o.Start && s.End == o.End
}

func (s TimeSlot) String() string {
	return fmt.Sprintf("%s-%s", s.Start, s.End)
}

func (s TimeSlot) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Start     DayTime `json:"start"`
		End       DayTime `json:"end"`
		Available bool    `json:"available"`
	}{s.Start, s.End, s.Available})
}

func (s *TimeSlot) UnmarshalJSON(data []byte) error {
	var in SlotInput
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	slot, err := in.Normalize()
	if err != nil {
		return err
	}
	*s = slot
	return nil
}

// SortSlots orders slots ascending by start time.
func SortSlots(slots []TimeSlot) {
	sort.Slice(slots, func(i, j int) bool {
		return slots[i].Start < slots[j].Start
	})
}

// FindOverlap returns the first overlapping pair, or nil when the slots are
// pairwise disjoint.
func FindOverlap(slots []TimeSlot) *[2]TimeSlot {
	sorted := make([]TimeSlot, len(slots))
	copy(sorted, slots)
	SortSlots(sorted)
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].Overlaps(sorted[i]) {
			return &[2]TimeSlot{sorted[i-1], sorted[i]}
		}
	}
	return nil
}
