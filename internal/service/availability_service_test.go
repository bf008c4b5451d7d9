package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/expertdesk/availability/internal/model"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// In-memory stores standing in for the pgx repositories.

type fakeStores struct {
	patterns  []*model.SchedulePattern
	overrides map[string]*model.ScheduleOverride
	bookings  map[string][]*model.Booking

	bookingCalls    int
	failOverrideFor string
}

func newFakeStores() *fakeStores {
	return &fakeStores{
		overrides: make(map[string]*model.ScheduleOverride),
		bookings:  make(map[string][]*model.Booking),
	}
}

func (f *fakeStores) PatternsFor(_ context.Context, expertID int64, date model.Date) ([]*model.SchedulePattern, error) {
	var out []*model.SchedulePattern
	for _, p := range f.patterns {
		if p.ExpertID == expertID && p.AppliesTo(date) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStores) OverrideFor(_ context.Context, expertID int64, date model.Date) (*model.ScheduleOverride, error) {
	if f.failOverrideFor == date.String() {
		return nil, fmt.Errorf("store unreachable")
	}
	o, ok := f.overrides[date.String()]
	if !ok || o.ExpertID != expertID {
		return nil, nil
	}
	return o, nil
}

func (f *fakeStores) BookingsFor(_ context.Context, expertID int64, date model.Date) ([]*model.Booking, error) {
	f.bookingCalls++
	var out []*model.Booking
	for _, b := range f.bookings[date.String()] {
		if b.ExpertID == expertID && b.Status.Occupying() {
			out = append(out, b)
		}
	}
	return out, nil
}

type fakeCache struct {
	entries  map[string][]model.Date
	versions map[int64]int64
	hits     int
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		entries:  make(map[string][]model.Date),
		versions: make(map[int64]int64),
	}
}

func (c *fakeCache) Get(_ context.Context, key string) ([]model.Date, bool, error) {
	dates, ok := c.entries[key]
	if ok {
		c.hits++
	}
	return dates, ok, nil
}

func (c *fakeCache) Set(_ context.Context, key string, dates []model.Date, _ time.Duration) error {
	c.entries[key] = dates
	return nil
}

func (c *fakeCache) Version(_ context.Context, expertID int64) (int64, error) {
	return c.versions[expertID], nil
}

func (c *fakeCache) Bump(_ context.Context, expertID int64) error {
	c.versions[expertID]++
	return nil
}

const testExpertID = int64(7)

func mustDate(t *testing.T, s string) model.Date {
	t.Helper()
	date, err := model.ParseDate(s)
	require.NoError(t, err)
	return date
}

func mustTime(t *testing.T, s string) model.DayTime {
	t.Helper()
	parsed, err := model.ParseDayTime(s)
	require.NoError(t, err)
	return parsed
}

func slot(t *testing.T, start, end string, available bool) model.TimeSlot {
	t.Helper()
	return model.TimeSlot{Start: mustTime(t, start), End: mustTime(t, end), Available: available}
}

// weekdayPattern covers Monday-Friday 09:00-10:00 through 2024.
func weekdayPattern(t *testing.T) *model.SchedulePattern {
	t.Helper()
	return &model.SchedulePattern{
		ID:         1,
		ExpertID:   testExpertID,
		Name:       "Weekday mornings",
		DaysOfWeek: []int{1, 2, 3, 4, 5},
		TimeSlots:  []model.TimeSlot{slot(t, "09:00", "10:00", true)},
		ValidFrom:  mustDate(t, "2024-01-01"),
		ValidTo:    mustDate(t, "2024-12-31"),
		IsActive:   true,
	}
}

func newAvailability(stores *fakeStores, cache SummaryCache) *AvailabilityService {
	return NewAvailabilityService(stores, stores, stores, cache, zap.NewNop())
}

func TestResolveDayFromPattern(t *testing.T) {
	stores := newFakeStores()
	stores.patterns = append(stores.patterns, weekdayPattern(t))
	svc := newAvailability(stores, nil)

	day, err := svc.ResolveDay(context.Background(), testExpertID, mustDate(t, "2024-03-04"))
	require.NoError(t, err)

	assert.False(t, day.IsUnavailable)
	require.Len(t, day.TimeSlots, 1)
	got := day.TimeSlots[0]
	assert.Equal(t, mustTime(t, "09:00"), got.Start)
	assert.Equal(t, mustTime(t, "10:00"), got.End)
	assert.True(t, got.Available)
	assert.False(t, got.IsOverridden)
	assert.Nil(t, got.Booking)
}

func TestResolveDayUnavailableOverrideWins(t *testing.T) {
	stores := newFakeStores()
	stores.patterns = append(stores.patterns, weekdayPattern(t))
	date := mustDate(t, "2024-03-04")
	stores.overrides[date.String()] = &model.ScheduleOverride{
		ID:       10,
		ExpertID: testExpertID,
		Date:     date,
		Type:     model.OverrideTypeUnavailable,
	}
	// A booking on the closed day must not even be read.
	stores.bookings[date.String()] = []*model.Booking{{
		ExpertID: testExpertID,
		Date:     date,
		Start:    mustTime(t, "09:00"),
		End:      mustTime(t, "10:00"),
		Status:   model.BookingStatusConfirmed,
	}}
	svc := newAvailability(stores, nil)

	day, err := svc.ResolveDay(context.Background(), testExpertID, date)
	require.NoError(t, err)

	assert.True(t, day.IsUnavailable)
	assert.Empty(t, day.TimeSlots)
	assert.Zero(t, stores.bookingCalls)
}

func TestResolveDayBookingFlipsSlot(t *testing.T) {
	stores := newFakeStores()
	stores.patterns = append(stores.patterns, weekdayPattern(t))
	date := mustDate(t, "2024-03-04")
	booking := &model.Booking{
		ID:       42,
		ExpertID: testExpertID,
		Date:     date,
		Start:    mustTime(t, "09:00"),
		End:      mustTime(t, "10:00"),
		Status:   model.BookingStatusConfirmed,
	}
	stores.bookings[date.String()] = []*model.Booking{booking}
	svc := newAvailability(stores, nil)

	day, err := svc.ResolveDay(context.Background(), testExpertID, date)
	require.NoError(t, err)

	require.Len(t, day.TimeSlots, 1)
	got := day.TimeSlots[0]
	assert.False(t, got.Available)
	assert.False(t, got.IsOverridden)
	require.NotNil(t, got.Booking)
	assert.Equal(t, int64(42), got.Booking.ID)
}

func TestResolveDayCancelledBookingIgnored(t *testing.T) {
	stores := newFakeStores()
	stores.patterns = append(stores.patterns, weekdayPattern(t))
	date := mustDate(t, "2024-03-04")
	stores.bookings[date.String()] = []*model.Booking{{
		ExpertID: testExpertID,
		Date:     date,
		Start:    mustTime(t, "09:00"),
		End:      mustTime(t, "10:00"),
		Status:   model.BookingStatusCanceled,
	}}
	svc := newAvailability(stores, nil)

	day, err := svc.ResolveDay(context.Background(), testExpertID, date)
	require.NoError(t, err)
	require.Len(t, day.TimeSlots, 1)
	assert.True(t, day.TimeSlots[0].Available)
}

func TestResolveDaySlotsOverride(t *testing.T) {
	stores := newFakeStores()
	stores.patterns = append(stores.patterns, weekdayPattern(t))
	date := mustDate(t, "2024-03-05")
	stores.overrides[date.String()] = &model.ScheduleOverride{
		ID:       11,
		ExpertID: testExpertID,
		Date:     date,
		Type:     model.OverrideTypeSlots,
		TimeSlots: []model.TimeSlot{
			slot(t, "09:00", "10:00", false),
			slot(t, "14:00", "15:00", true), // not in the pattern
		},
	}
	svc := newAvailability(stores, nil)

	day, err := svc.ResolveDay(context.Background(), testExpertID, date)
	require.NoError(t, err)

	assert.False(t, day.IsUnavailable)
	require.Len(t, day.TimeSlots, 2)

	closed := day.TimeSlots[0]
	assert.Equal(t, mustTime(t, "09:00"), closed.Start)
	assert.False(t, closed.Available)
	assert.True(t, closed.IsOverridden)
	assert.Nil(t, closed.Booking)

	extra := day.TimeSlots[1]
	assert.Equal(t, mustTime(t, "14:00"), extra.Start)
	assert.True(t, extra.Available)
	assert.False(t, extra.IsOverridden)
}

func TestResolveDayUnconfigured(t *testing.T) {
	// No pattern, no override: empty slots but NOT flagged unavailable.
	stores := newFakeStores()
	svc := newAvailability(stores, nil)

	day, err := svc.ResolveDay(context.Background(), testExpertID, mustDate(t, "2024-03-04"))
	require.NoError(t, err)

	assert.False(t, day.IsUnavailable)
	assert.Empty(t, day.TimeSlots)
}

func TestResolveDayPatternOutOfScope(t *testing.T) {
	stores := newFakeStores()
	stores.patterns = append(stores.patterns, weekdayPattern(t))
	svc := newAvailability(stores, nil)

	// Saturday is not in the weekday set.
	day, err := svc.ResolveDay(context.Background(), testExpertID, mustDate(t, "2024-03-09"))
	require.NoError(t, err)
	assert.Empty(t, day.TimeSlots)

	// Outside the validity range.
	day, err = svc.ResolveDay(context.Background(), testExpertID, mustDate(t, "2025-03-03"))
	require.NoError(t, err)
	assert.Empty(t, day.TimeSlots)
}

func TestResolveDayConflictingSlotState(t *testing.T) {
	stores := newFakeStores()
	date := mustDate(t, "2024-03-05")
	stores.overrides[date.String()] = &model.ScheduleOverride{
		ExpertID:  testExpertID,
		Date:      date,
		Type:      model.OverrideTypeSlots,
		TimeSlots: []model.TimeSlot{slot(t, "09:00", "10:00", false)},
	}
	stores.bookings[date.String()] = []*model.Booking{{
		ID:       3,
		ExpertID: testExpertID,
		Date:     date,
		Start:    mustTime(t, "09:00"),
		End:      mustTime(t, "10:00"),
		Status:   model.BookingStatusConfirmed,
	}}
	svc := newAvailability(stores, nil)

	_, err := svc.ResolveDay(context.Background(), testExpertID, date)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflictingSlotState)
	assert.True(t, IsDefect(err))
}

func TestResolveDayAmbiguousPattern(t *testing.T) {
	stores := newFakeStores()
	first := weekdayPattern(t)
	second := weekdayPattern(t)
	second.ID = 2
	stores.patterns = append(stores.patterns, first, second)
	svc := newAvailability(stores, nil)

	_, err := svc.ResolveDay(context.Background(), testExpertID, mustDate(t, "2024-03-04"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAmbiguousPattern)
}

func TestResolveDayLatestValidFromWins(t *testing.T) {
	stores := newFakeStores()
	older := weekdayPattern(t)
	newer := weekdayPattern(t)
	newer.ID = 2
	newer.ValidFrom = mustDate(t, "2024-02-01")
	newer.TimeSlots = []model.TimeSlot{slot(t, "11:00", "12:00", true)}
	stores.patterns = append(stores.patterns, older, newer)
	svc := newAvailability(stores, nil)

	day, err := svc.ResolveDay(context.Background(), testExpertID, mustDate(t, "2024-03-04"))
	require.NoError(t, err)
	require.Len(t, day.TimeSlots, 1)
	assert.Equal(t, mustTime(t, "11:00"), day.TimeSlots[0].Start)
}

func TestResolveDayIdempotent(t *testing.T) {
	stores := newFakeStores()
	stores.patterns = append(stores.patterns, weekdayPattern(t))
	date := mustDate(t, "2024-03-04")
	stores.bookings[date.String()] = []*model.Booking{{
		ID:       42,
		ExpertID: testExpertID,
		Date:     date,
		Start:    mustTime(t, "09:00"),
		End:      mustTime(t, "10:00"),
		Status:   model.BookingStatusConfirmed,
	}}
	svc := newAvailability(stores, nil)

	first, err := svc.ResolveDay(context.Background(), testExpertID, date)
	require.NoError(t, err)
	second, err := svc.ResolveDay(context.Background(), testExpertID, date)
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, firstJSON, secondJSON)
}

func TestResolveRange(t *testing.T) {
	stores := newFakeStores()
	stores.patterns = append(stores.patterns, weekdayPattern(t))
	date := mustDate(t, "2024-03-05")
	stores.overrides[date.String()] = &model.ScheduleOverride{
		ExpertID: testExpertID,
		Date:     date,
		Type:     model.OverrideTypeUnavailable,
	}
	svc := newAvailability(stores, nil)

	// Monday through Sunday.
	days, err := svc.ResolveRange(context.Background(), testExpertID, mustDate(t, "2024-03-04"), mustDate(t, "2024-03-10"))
	require.NoError(t, err)
	require.Len(t, days, 7)

	assert.True(t, days[0].HasOpenSlot())         // Monday, pattern
	assert.True(t, days[1].IsUnavailable)         // Tuesday, closed
	assert.False(t, days[5].HasOpenSlot())        // Saturday, unconfigured
	assert.Equal(t, "2024-03-10", days[6].Date.String())
}

func TestResolveRangeRejectsInvertedRange(t *testing.T) {
	svc := newAvailability(newFakeStores(), nil)
	_, err := svc.ResolveRange(context.Background(), testExpertID, mustDate(t, "2024-03-10"), mustDate(t, "2024-03-04"))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestResolveRangePartialFailure(t *testing.T) {
	stores := newFakeStores()
	stores.patterns = append(stores.patterns, weekdayPattern(t))
	stores.failOverrideFor = "2024-03-05"
	svc := newAvailability(stores, nil)

	days, err := svc.ResolveRange(context.Background(), testExpertID, mustDate(t, "2024-03-04"), mustDate(t, "2024-03-06"))
	require.NoError(t, err)
	require.Len(t, days, 3)

	assert.NoError(t, days[0].Err)
	assert.Error(t, days[1].Err)
	assert.NoError(t, days[2].Err)
	assert.True(t, days[2].HasOpenSlot(), "one bad day must not block the rest")
}

func TestSummarizeAvailableDates(t *testing.T) {
	stores := newFakeStores()
	stores.patterns = append(stores.patterns, weekdayPattern(t))
	closed := mustDate(t, "2024-03-05")
	stores.overrides[closed.String()] = &model.ScheduleOverride{
		ExpertID: testExpertID,
		Date:     closed,
		Type:     model.OverrideTypeUnavailable,
	}
	booked := mustDate(t, "2024-03-06")
	stores.bookings[booked.String()] = []*model.Booking{{
		ExpertID: testExpertID,
		Date:     booked,
		Start:    mustTime(t, "09:00"),
		End:      mustTime(t, "10:00"),
		Status:   model.BookingStatusConfirmed,
	}}
	svc := newAvailability(stores, nil)

	from, to := mustDate(t, "2024-03-04"), mustDate(t, "2024-03-10")
	dates, err := svc.SummarizeAvailableDates(context.Background(), testExpertID, from, to)
	require.NoError(t, err)

	var got []string
	for _, d := range dates {
		got = append(got, d.String())
	}
	// Closed Tuesday, fully booked Wednesday and the unconfigured weekend are out.
	assert.Equal(t, []string{"2024-03-04", "2024-03-07", "2024-03-08"}, got)

	// Cross-check the summarizer against per-day resolution.
	for _, d := range dates {
		day, err := svc.ResolveDay(context.Background(), testExpertID, d)
		require.NoError(t, err)
		assert.False(t, day.IsUnavailable)
		assert.True(t, day.HasOpenSlot())
	}
}

func TestSummarizeUsesCacheUntilBumped(t *testing.T) {
	stores := newFakeStores()
	stores.patterns = append(stores.patterns, weekdayPattern(t))
	cache := newFakeCache()
	svc := newAvailability(stores, cache)

	from, to := mustDate(t, "2024-03-04"), mustDate(t, "2024-03-08")
	ctx := context.Background()

	first, err := svc.SummarizeAvailableDates(ctx, testExpertID, from, to)
	require.NoError(t, err)
	assert.Zero(t, cache.hits)
	callsAfterFirst := stores.bookingCalls

	second, err := svc.SummarizeAvailableDates(ctx, testExpertID, from, to)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)
	assert.Equal(t, callsAfterFirst, stores.bookingCalls, "cached call must not resolve")
	assert.Equal(t, first, second)

	// A mutation bumps the version and orphans the cached entry.
	require.NoError(t, cache.Bump(ctx, testExpertID))
	_, err = svc.SummarizeAvailableDates(ctx, testExpertID, from, to)
	require.NoError(t, err)
	assert.Greater(t, stores.bookingCalls, callsAfterFirst)
}
