package service

import (
	"context"
	"time"

	"github.com/expertdesk/availability/internal/model"
)

// The resolver consumes three read-only store views. Implementations live in
// the repository package; tests substitute in-memory fakes.

type PatternStore interface {
	// PatternsFor returns every active pattern whose validity range and
	// weekday set cover the date. Precedence between several matches is the
	// resolver's call, not the store's.
	PatternsFor(ctx context.Context, expertID int64, date model.Date) ([]*model.SchedulePattern, error)
}

type OverrideStore interface {
	// OverrideFor returns the override for the exact date, or nil.
	OverrideFor(ctx context.Context, expertID int64, date model.Date) (*model.ScheduleOverride, error)
}

type BookingStore interface {
	// BookingsFor returns the non-cancelled bookings on the date, ordered by
	// start time.
	BookingsFor(ctx context.Context, expertID int64, date model.Date) ([]*model.Booking, error)
}

// PatternRepository adds the validator-gated write path on top of the read view.
type PatternRepository interface {
	PatternStore
	ListByExpert(ctx context.Context, expertID int64) ([]*model.SchedulePattern, error)
	GetByID(ctx context.Context, expertID, id int64) (*model.SchedulePattern, error)
	Create(ctx context.Context, pattern *model.SchedulePattern) error
	Update(ctx context.Context, pattern *model.SchedulePattern) error
	Delete(ctx context.Context, expertID, id int64) error
}

type OverrideRepository interface {
	OverrideStore
	ListByExpertRange(ctx context.Context, expertID int64, from, to model.Date) ([]*model.ScheduleOverride, error)
	GetByID(ctx context.Context, expertID, id int64) (*model.ScheduleOverride, error)
	Create(ctx context.Context, override *model.ScheduleOverride) error
	Update(ctx context.Context, override *model.ScheduleOverride) error
	Delete(ctx context.Context, expertID, id int64) error
}

type BookingRepository interface {
	BookingStore
	// CompletePast flips confirmed bookings on dates before the cutoff to
	// completed. Used by the background janitor.
	CompletePast(ctx context.Context, before model.Date) (int64, error)
}

// SummaryCache caches summarizer output per (expert, range). The per-expert
// version counter makes invalidation a single bump instead of a key scan:
// mutated data changes the version and orphans every key built with the old one.
type SummaryCache interface {
	Get(ctx context.Context, key string) ([]model.Date, bool, error)
	Set(ctx context.Context, key string, dates []model.Date, ttl time.Duration) error
	Version(ctx context.Context, expertID int64) (int64, error)
	Bump(ctx context.Context, expertID int64) error
}
