package model

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCanceled  BookingStatus = "canceled"
	BookingStatusRejected  BookingStatus = "rejected"
)

// Occupying reports whether the status still claims the slot. Canceled and
// rejected bookings release it.
func (s BookingStatus) Occupying() bool {
	return s != BookingStatusCanceled && s != BookingStatusRejected
}

// Booking is a client's claim on one slot on one date. Created by the booking
// flow; the resolver only reads it.
type Booking struct {
	ID        int64         `json:"id"`
	UID       uuid.UUID     `json:"uid"`
	ExpertID  int64         `json:"expert_id"`
	ClientID  int64         `json:"client_id"`
	Date      Date          `json:"date"`
	Start     DayTime       `json:"start"`
	End       DayTime       `json:"end"`
	Status    BookingStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Slot returns the occupied interval in canonical form.
func (b *Booking) Slot() TimeSlot {
	return TimeSlot{Start: b.Start, End: b.End, Available: false}
}
