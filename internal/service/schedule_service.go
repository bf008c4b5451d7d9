package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/expertdesk/availability/internal/model"
	"github.com/expertdesk/availability/internal/repository/base"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PatternPolicy gates pattern creation. The product rule (one pattern per
// expert, edit-only afterwards) is a policy of the calling system, not of the
// resolution algorithm, so it is pluggable.
type PatternPolicy func(existing []*model.SchedulePattern) error

// SinglePatternPolicy rejects creation once any pattern exists.
func SinglePatternPolicy(existing []*model.SchedulePattern) error {
	if len(existing) > 0 {
		return conflictf("a schedule pattern already exists; edit it instead")
	}
	return nil
}

type PatternInput struct {
	Name       string
	DaysOfWeek []int
	TimeSlots  []model.SlotInput
	ValidFrom  model.Date
	ValidTo    model.Date
	IsActive   *bool
}

type OverrideInput struct {
	Date      model.Date
	Type      model.OverrideType
	TimeSlots []model.SlotInput
}

// ScheduleService owns the validator-gated mutation path for patterns and
// overrides. Mutations are serialized per expert: the keyed lock keeps one
// mutation in flight, and the storage unique constraints are the race-safe
// backstop when several processes share the database.
type ScheduleService struct {
	patterns  PatternRepository
	overrides OverrideRepository
	bookings  BookingRepository
	cache     SummaryCache
	policy    PatternPolicy
	logger    *zap.Logger

	mu          sync.Mutex
	expertLocks map[int64]*sync.Mutex
}

func NewScheduleService(
	patterns PatternRepository,
	overrides OverrideRepository,
	bookings BookingRepository,
	cache SummaryCache,
	policy PatternPolicy,
	logger *zap.Logger,
) *ScheduleService {
	if policy == nil {
		policy = SinglePatternPolicy
	}
	return &ScheduleService{
		patterns:    patterns,
		overrides:   overrides,
		bookings:    bookings,
		cache:       cache,
		policy:      policy,
		logger:      logger,
		expertLocks: make(map[int64]*sync.Mutex),
	}
}

func (s *ScheduleService) lockExpert(expertID int64) func() {
	s.mu.Lock()
	lock, ok := s.expertLocks[expertID]
	if !ok {
		lock = &sync.Mutex{}
		s.expertLocks[expertID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

func (s *ScheduleService) ListPatterns(ctx context.Context, expertID int64) ([]*model.SchedulePattern, error) {
	return s.patterns.ListByExpert(ctx, expertID)
}

func (s *ScheduleService) CreatePattern(ctx context.Context, expertID int64, input PatternInput) (*model.SchedulePattern, error) {
	defer s.lockExpert(expertID)()

	existing, err := s.patterns.ListByExpert(ctx, expertID)
	if err != nil {
		return nil, fmt.Errorf("list patterns: %w", err)
	}
	if err := s.policy(existing); err != nil {
		return nil, err
	}

	pattern, err := s.buildPattern(expertID, input)
	if err != nil {
		return nil, err
	}
	pattern.UID = uuid.New()

	if err := s.patterns.Create(ctx, pattern); err != nil {
		return nil, fmt.Errorf("create pattern: %w", err)
	}
	s.invalidate(ctx, expertID)

	s.logger.Info("Pattern created",
		zap.Int64("expert_id", expertID),
		zap.Int64("pattern_id", pattern.ID),
		zap.String("name", pattern.Name),
	)
	return pattern, nil
}

func (s *ScheduleService) UpdatePattern(ctx context.Context, expertID, id int64, input PatternInput) (*model.SchedulePattern, error) {
	defer s.lockExpert(expertID)()

	current, err := s.patterns.GetByID(ctx, expertID, id)
	if err != nil {
		return nil, fmt.Errorf("get pattern: %w", err)
	}
	if current == nil {
		return nil, fmt.Errorf("%w: pattern %d", ErrNotFound, id)
	}

	pattern, err := s.buildPattern(expertID, input)
	if err != nil {
		return nil, err
	}
	pattern.ID = current.ID
	pattern.UID = current.UID
	pattern.CreatedAt = current.CreatedAt

	if err := s.patterns.Update(ctx, pattern); err != nil {
		return nil, fmt.Errorf("update pattern: %w", err)
	}
	s.invalidate(ctx, expertID)

	s.logger.Info("Pattern updated",
		zap.Int64("expert_id", expertID),
		zap.Int64("pattern_id", pattern.ID),
	)
	return pattern, nil
}

func (s *ScheduleService) DeletePattern(ctx context.Context, expertID, id int64) error {
	defer s.lockExpert(expertID)()

	if err := s.patterns.Delete(ctx, expertID, id); err != nil {
		if base.IsNotFound(err) {
			return fmt.Errorf("%w: pattern %d", ErrNotFound, id)
		}
		return fmt.Errorf("delete pattern: %w", err)
	}
	s.invalidate(ctx, expertID)
	return nil
}

func (s *ScheduleService) buildPattern(expertID int64, input PatternInput) (*model.SchedulePattern, error) {
	slots, err := normalizeSlots(input.TimeSlots)
	if err != nil {
		return nil, err
	}

	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}

	pattern := &model.SchedulePattern{
		ExpertID:   expertID,
		Name:       input.Name,
		DaysOfWeek: input.DaysOfWeek,
		TimeSlots:  slots,
		ValidFrom:  input.ValidFrom,
		ValidTo:    input.ValidTo,
		IsActive:   active,
	}
	if err := validatePattern(pattern, model.DateOf(time.Now())); err != nil {
		return nil, err
	}
	return pattern, nil
}

func (s *ScheduleService) ListOverrides(ctx context.Context, expertID int64, from, to model.Date) ([]*model.ScheduleOverride, error) {
	if to.Before(from) {
		return nil, invalidf("range end %s precedes start %s", to, from)
	}
	return s.overrides.ListByExpertRange(ctx, expertID, from, to)
}

func (s *ScheduleService) CreateOverride(ctx context.Context, expertID int64, input OverrideInput) (*model.ScheduleOverride, error) {
	defer s.lockExpert(expertID)()

	override, err := s.buildOverride(expertID, input)
	if err != nil {
		return nil, err
	}

	existing, err := s.overrides.OverrideFor(ctx, expertID, override.Date)
	if err != nil {
		return nil, fmt.Errorf("check override date: %w", err)
	}
	if existing != nil {
		return nil, conflictf("an override for %s already exists", override.Date)
	}

	override.UID = uuid.New()
	if err := s.overrides.Create(ctx, override); err != nil {
		// The unique constraint catches the race the pre-check cannot.
		if base.IsUniqueViolation(err) {
			return nil, conflictf("an override for %s already exists", override.Date)
		}
		return nil, fmt.Errorf("create override: %w", err)
	}
	s.invalidate(ctx, expertID)

	s.logger.Info("Override created",
		zap.Int64("expert_id", expertID),
		zap.Int64("override_id", override.ID),
		zap.String("date", override.Date.String()),
		zap.String("type", string(override.Type)),
	)
	return override, nil
}

func (s *ScheduleService) UpdateOverride(ctx context.Context, expertID, id int64, input OverrideInput) (*model.ScheduleOverride, error) {
	defer s.lockExpert(expertID)()

	current, err := s.overrides.GetByID(ctx, expertID, id)
	if err != nil {
		return nil, fmt.Errorf("get override: %w", err)
	}
	if current == nil {
		return nil, fmt.Errorf("%w: override %d", ErrNotFound, id)
	}

	// The date is immutable after creation; a different date needs a new record.
	if !input.Date.IsZero() && !input.Date.Equal(current.Date) {
		return nil, invalidf("override date cannot change; delete and create a new override")
	}

	input.Date = current.Date
	override, err := s.buildOverride(expertID, input)
	if err != nil {
		return nil, err
	}
	override.ID = current.ID
	override.UID = current.UID
	override.CreatedAt = current.CreatedAt

	if err := s.overrides.Update(ctx, override); err != nil {
		return nil, fmt.Errorf("update override: %w", err)
	}
	s.invalidate(ctx, expertID)

	s.logger.Info("Override updated",
		zap.Int64("expert_id", expertID),
		zap.Int64("override_id", override.ID),
	)
	return override, nil
}

func (s *ScheduleService) DeleteOverride(ctx context.Context, expertID, id int64) error {
	defer s.lockExpert(expertID)()

	if err := s.overrides.Delete(ctx, expertID, id); err != nil {
		if base.IsNotFound(err) {
			return fmt.Errorf("%w: override %d", ErrNotFound, id)
		}
		return fmt.Errorf("delete override: %w", err)
	}
	s.invalidate(ctx, expertID)
	return nil
}

func (s *ScheduleService) buildOverride(expertID int64, input OverrideInput) (*model.ScheduleOverride, error) {
	slots, err := normalizeSlots(input.TimeSlots)
	if err != nil {
		return nil, err
	}
	override := &model.ScheduleOverride{
		ExpertID:  expertID,
		Date:      input.Date,
		Type:      input.Type,
		TimeSlots: slots,
	}
	if err := validateOverride(override); err != nil {
		return nil, err
	}
	return override, nil
}

// CompletePastBookings flips confirmed bookings on past dates to completed.
// Completed bookings still occupy their slots, so no cache invalidation.
func (s *ScheduleService) CompletePastBookings(ctx context.Context) (int64, error) {
	count, err := s.bookings.CompletePast(ctx, model.DateOf(time.Now()))
	if err != nil {
		return 0, fmt.Errorf("complete past bookings: %w", err)
	}
	return count, nil
}

func (s *ScheduleService) invalidate(ctx context.Context, expertID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx, expertID); err != nil {
		s.logger.Warn("summary cache invalidation failed",
			zap.Int64("expert_id", expertID),
			zap.Error(err),
		)
	}
}

// IsDefect reports whether the error is an internal data-consistency defect
// rather than a caller mistake.
func IsDefect(err error) bool {
	return errors.Is(err, ErrAmbiguousPattern) || errors.Is(err, ErrConflictingSlotState)
}
