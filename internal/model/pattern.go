package model

import (
	"time"

	"github.com/google/uuid"
)

// SchedulePattern is a recurring weekly availability template. Template slots
// carry no availability flag of their own: a pattern slot is always open until
// an override or a booking says otherwise.
type SchedulePattern struct {
	ID         int64      `json:"id"`
	UID        uuid.UUID  `json:"uid"`
	ExpertID   int64      `json:"expert_id"`
	Name       string     `json:"name"`
	DaysOfWeek []int      `json:"days_of_week"` // ISO weekdays, 1 = Monday .. 7 = Sunday
	TimeSlots  []TimeSlot `json:"time_slots"`
	ValidFrom  Date       `json:"valid_from"`
	ValidTo    Date       `json:"valid_to"`
	IsActive   bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// AppliesTo reports whether the pattern covers the given date: active, the
// date falls inside [ValidFrom, ValidTo] and its weekday is listed.
func (p *SchedulePattern) AppliesTo(date Date) bool {
	if !p.IsActive {
		return false
	}
	if date.Before(p.ValidFrom) || date.After(p.ValidTo) {
		return false
	}
	return p.HasWeekday(date.Weekday())
}

func (p *SchedulePattern) HasWeekday(weekday int) bool {
	for _, d := range p.DaysOfWeek {
		if d == weekday {
			return true
		}
	}
	return false
}
