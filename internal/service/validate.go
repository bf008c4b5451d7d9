package service

import (
	"github.com/expertdesk/availability/internal/model"
)

// Invariant checks run before any pattern or override write. They return
// ErrValidation-wrapped errors with the specific reason.

func validatePattern(p *model.SchedulePattern, today model.Date) error {
	if p.Name == "" {
		return invalidf("pattern name is required")
	}
	if len(p.DaysOfWeek) == 0 {
		return invalidf("pattern must cover at least one weekday")
	}
	seen := map[int]bool{}
	for _, day := range p.DaysOfWeek {
		if day < 1 || day > 7 {
			return invalidf("weekday %d is outside 1..7", day)
		}
		if seen[day] {
			return invalidf("weekday %d listed twice", day)
		}
		seen[day] = true
	}
	if err := validateSlotList(p.TimeSlots); err != nil {
		return err
	}
	if p.ValidTo.Before(p.ValidFrom) {
		return invalidf("valid_from %s is after valid_to %s", p.ValidFrom, p.ValidTo)
	}
	if p.ValidTo.Before(today) {
		return invalidf("valid_to %s is in the past", p.ValidTo)
	}
	return nil
}

func validateOverride(o *model.ScheduleOverride) error {
	if o.Date.IsZero() {
		return invalidf("override date is required")
	}
	switch o.Type {
	case model.OverrideTypeUnavailable:
		if len(o.TimeSlots) != 0 {
			return invalidf("an unavailable override carries no slots")
		}
		return nil
	case model.OverrideTypeSlots:
		return validateSlotList(o.TimeSlots)
	default:
		return invalidf("unknown override type %q", o.Type)
	}
}

func validateSlotList(slots []model.TimeSlot) error {
	if len(slots) == 0 {
		return invalidf("at least one time slot is required")
	}
	for _, slot := range slots {
		if err := slot.Validate(); err != nil {
			return invalidf("%v", err)
		}
	}
	if pair := model.FindOverlap(slots); pair != nil {
		return invalidf("slots %s and %s overlap", pair[0], pair[1])
	}
	return nil
}

// normalizeSlots funnels wire-shaped slots through the single normalization
// routine at the mutation boundary.
func normalizeSlots(inputs []model.SlotInput) ([]model.TimeSlot, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	slots := make([]model.TimeSlot, len(inputs))
	for i, in := range inputs {
		slot, err := in.Normalize()
		if err != nil {
			return nil, invalidf("%v", err)
		}
		slots[i] = slot
	}
	model.SortSlots(slots)
	return slots, nil
}
