package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/expertdesk/availability/internal/model"
	"go.uber.org/zap"
)

const summaryCacheTTL = 5 * time.Minute

// AvailabilityService resolves the authoritative per-day schedule from the
// three stores. It holds no state between queries; concurrent reads need no
// coordination.
type AvailabilityService struct {
	patterns  PatternStore
	overrides OverrideStore
	bookings  BookingStore
	cache     SummaryCache
	logger    *zap.Logger
}

func NewAvailabilityService(
	patterns PatternStore,
	overrides OverrideStore,
	bookings BookingStore,
	cache SummaryCache,
	logger *zap.Logger,
) *AvailabilityService {
	return &AvailabilityService{
		patterns:  patterns,
		overrides: overrides,
		bookings:  bookings,
		cache:     cache,
		logger:    logger,
	}
}

// ResolveDay computes the schedule for one date. Precedence: an
// unavailable-override closes the day outright; a slots-override replaces the
// pattern and its flags are authoritative; otherwise the active pattern's
// slots are all open until a booking claims one. All-or-nothing: any defect
// fails the whole day.
func (s *AvailabilityService) ResolveDay(ctx context.Context, expertID int64, date model.Date) (*model.ResolvedDaySchedule, error) {
	override, err := s.overrides.OverrideFor(ctx, expertID, date)
	if err != nil {
		return nil, fmt.Errorf("load override: %w", err)
	}

	if override != nil && override.ClosesDay() {
		// Absolute: pattern and booking data are not consulted.
		return &model.ResolvedDaySchedule{
			Date:          date,
			IsUnavailable: true,
			TimeSlots:     []model.ResolvedTimeSlot{},
		}, nil
	}

	base, err := s.baseSlots(ctx, expertID, date, override)
	if err != nil {
		return nil, err
	}

	bookings, err := s.bookings.BookingsFor(ctx, expertID, date)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}

	resolved := make([]model.ResolvedTimeSlot, 0, len(base))
	for _, slot := range base {
		booking := matchBooking(bookings, slot)

		if !slot.Available {
			// Closed by the expert's override. A booking on the same interval
			// means upstream data is corrupt: overrides remove slots from
			// bookability before a booking can exist.
			if booking != nil {
				s.logger.Error("slot closed by override but booked",
					zap.Int64("expert_id", expertID),
					zap.String("date", date.String()),
					zap.String("slot", slot.String()),
					zap.Int64("booking_id", booking.ID),
				)
				return nil, fmt.Errorf("%w: slot %s on %s is closed by override but carries booking %d",
					ErrConflictingSlotState, slot, date, booking.ID)
			}
			resolved = append(resolved, model.ResolvedTimeSlot{
				Start:        slot.Start,
				End:          slot.End,
				Available:    false,
				IsOverridden: true,
			})
			continue
		}

		out := model.ResolvedTimeSlot{Start: slot.Start, End: slot.End, Available: true}
		if booking != nil {
			out.Available = false
			out.Booking = booking
		}
		resolved = append(resolved, out)
	}

	sort.Slice(resolved, func(i, j int) bool {
		return resolved[i].Start < resolved[j].Start
	})

	return &model.ResolvedDaySchedule{
		Date:          date,
		IsUnavailable: false,
		TimeSlots:     resolved,
	}, nil
}

// baseSlots picks the slot list the day starts from: the override's list when
// one exists, else the matching pattern's template slots (always open), else
// nothing (an unconfigured day, not a day off).
func (s *AvailabilityService) baseSlots(ctx context.Context, expertID int64, date model.Date, override *model.ScheduleOverride) ([]model.TimeSlot, error) {
	if override != nil {
		return override.TimeSlots, nil
	}

	pattern, err := s.patternFor(ctx, expertID, date)
	if err != nil {
		return nil, err
	}
	if pattern == nil {
		return nil, nil
	}

	slots := make([]model.TimeSlot, len(pattern.TimeSlots))
	for i, slot := range pattern.TimeSlots {
		slots[i] = model.TimeSlot{Start: slot.Start, End: slot.End, Available: true}
	}
	return slots, nil
}

// patternFor selects the single applicable pattern. More than one match is
// already off the product's one-pattern rule; the latest ValidFrom wins, and
// an exact tie is reported instead of silently resolved.
func (s *AvailabilityService) patternFor(ctx context.Context, expertID int64, date model.Date) (*model.SchedulePattern, error) {
	candidates, err := s.patterns.PatternsFor(ctx, expertID, date)
	if err != nil {
		return nil, fmt.Errorf("load patterns: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].ValidFrom.After(candidates[j].ValidFrom)
	})

	if len(candidates) > 1 && candidates[0].ValidFrom.Equal(candidates[1].ValidFrom) {
		s.logger.Error("multiple patterns match one date",
			zap.Int64("expert_id", expertID),
			zap.String("date", date.String()),
			zap.Int64("pattern_id", candidates[0].ID),
			zap.Int64("other_pattern_id", candidates[1].ID),
		)
		return nil, fmt.Errorf("%w: patterns %d and %d both cover %s",
			ErrAmbiguousPattern, candidates[0].ID, candidates[1].ID, date)
	}

	return candidates[0], nil
}

// ResolveRange resolves each date in [from, to] independently. A failing day
// carries its error on the day entry so one bad day does not block the rest.
func (s *AvailabilityService) ResolveRange(ctx context.Context, expertID int64, from, to model.Date) ([]*model.ResolvedDaySchedule, error) {
	if to.Before(from) {
		return nil, invalidf("range end %s precedes start %s", to, from)
	}

	var days []*model.ResolvedDaySchedule
	for date := from; !date.After(to); date = date.AddDays(1) {
		day, err := s.ResolveDay(ctx, expertID, date)
		if err != nil {
			s.logger.Warn("day resolution failed inside range",
				zap.Int64("expert_id", expertID),
				zap.String("date", date.String()),
				zap.Error(err),
			)
			day = &model.ResolvedDaySchedule{Date: date, Err: err}
		}
		days = append(days, day)
	}
	return days, nil
}

// SummarizeAvailableDates reduces a range to the dates with at least one open
// slot, for calendar highlighting. Results are cached per (expert, range) and
// invalidated by the mutation path through the version counter.
func (s *AvailabilityService) SummarizeAvailableDates(ctx context.Context, expertID int64, from, to model.Date) ([]model.Date, error) {
	key, err := s.summaryKey(ctx, expertID, from, to)
	if err == nil && key != "" {
		if dates, ok, cacheErr := s.cache.Get(ctx, key); cacheErr == nil && ok {
			return dates, nil
		} else if cacheErr != nil {
			s.logger.Warn("summary cache read failed", zap.Error(cacheErr))
		}
	}

	days, err := s.ResolveRange(ctx, expertID, from, to)
	if err != nil {
		return nil, err
	}

	dates := make([]model.Date, 0, len(days))
	for _, day := range days {
		if day.Err == nil && day.HasOpenSlot() {
			dates = append(dates, day.Date)
		}
	}

	if key != "" {
		if cacheErr := s.cache.Set(ctx, key, dates, summaryCacheTTL); cacheErr != nil {
			s.logger.Warn("summary cache write failed", zap.Error(cacheErr))
		}
	}
	return dates, nil
}

func (s *AvailabilityService) summaryKey(ctx context.Context, expertID int64, from, to model.Date) (string, error) {
	if s.cache == nil {
		return "", nil
	}
	version, err := s.cache.Version(ctx, expertID)
	if err != nil {
		s.logger.Warn("summary cache version read failed", zap.Error(err))
		return "", err
	}
	return fmt.Sprintf("availability:summary:%d:v%d:%s:%s", expertID, version, from, to), nil
}

// matchBooking finds a non-cancelled booking occupying exactly the slot's
// interval. Bookings on other intervals never touch a slot.
func matchBooking(bookings []*model.Booking, slot model.TimeSlot) *model.Booking {
	for _, b := range bookings {
		if !b.Status.Occupying() {
			continue
		}
		if b.Start == slot.Start && b.End == slot.End {
			return b
		}
	}
	return nil
}
