package repository

import (
	"fmt"

	"github.com/expertdesk/availability/internal/model"
	"github.com/goccy/go-json"
)

// Slot lists live in jsonb columns. Decoding runs through TimeSlot's
// UnmarshalJSON, so rows written by older services under the startTime/endTime
// naming come back normalized.

func encodeSlots(slots []model.TimeSlot) ([]byte, error) {
	if slots == nil {
		slots = []model.TimeSlot{}
	}
	data, err := json.Marshal(slots)
	if err != nil {
		return nil, fmt.Errorf("encode time slots: %w", err)
	}
	return data, nil
}

func decodeSlots(data []byte) ([]model.TimeSlot, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var slots []model.TimeSlot
	if err := json.Unmarshal(data, &slots); err != nil {
		return nil, fmt.Errorf("decode time slots: %w", err)
	}
	return slots, nil
}

func toInt32s(days []int) []int32 {
	out := make([]int32, len(days))
	for i, d := range days {
		out[i] = int32(d)
	}
	return out
}

func toInts(days []int32) []int {
	out := make([]int, len(days))
	for i, d := range days {
		out[i] = int(d)
	}
	return out
}
