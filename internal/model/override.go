package model

import (
	"time"

	"github.com/google/uuid"
)

type OverrideType string

const (
	// OverrideTypeSlots substitutes the slot list for one date. Slot flags are
	// authoritative: a closed pattern slot and an ad hoc extra slot both live here.
	OverrideTypeSlots OverrideType = "override"
	// OverrideTypeUnavailable closes the whole day regardless of pattern.
	OverrideTypeUnavailable OverrideType = "unavailable"
)

// ScheduleOverride is a date-specific exception to the weekly pattern.
// At most one override exists per (expert, date); the date is immutable
// after creation.
type ScheduleOverride struct {
	ID        int64        `json:"id"`
	UID       uuid.UUID    `json:"uid"`
	ExpertID  int64        `json:"expert_id"`
	Date      Date         `json:"date"`
	Type      OverrideType `json:"type"`
	TimeSlots []TimeSlot   `json:"time_slots,omitempty"` // OverrideTypeSlots only
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (o *ScheduleOverride) ClosesDay() bool {
	return o.Type == OverrideTypeUnavailable
}
