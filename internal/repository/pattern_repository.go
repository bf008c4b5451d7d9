package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/expertdesk/availability/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PatternRepository struct {
	pool *pgxpool.Pool
}

func NewPatternRepository(pool *pgxpool.Pool) *PatternRepository {
	return &PatternRepository{pool: pool}
}

const patternColumns = `id, uid, expert_id, name, days_of_week, time_slots, valid_from, valid_to, is_active, created_at, updated_at`

// PatternsFor returns the active patterns covering the date's weekday and
// validity range. Several rows here mean the one-pattern rule was bypassed;
// the resolver decides what to do with that.
func (r *PatternRepository) PatternsFor(ctx context.Context, expertID int64, date model.Date) ([]*model.SchedulePattern, error) {
	query := `
		SELECT ` + patternColumns + `
		FROM schedule_patterns
		WHERE expert_id = $1
		  AND is_active
		  AND valid_from <= $2
		  AND valid_to >= $2
		  AND $3 = ANY(days_of_week)
		ORDER BY valid_from DESC
	`

	rows, err := r.pool.Query(ctx, query, expertID, date.Time(), int32(date.Weekday()))
	if err != nil {
		return nil, fmt.Errorf("get patterns for date: %w", err)
	}
	defer rows.Close()

	return scanPatterns(rows)
}

// ListByExpert returns all patterns of the expert, newest validity first.
func (r *PatternRepository) ListByExpert(ctx context.Context, expertID int64) ([]*model.SchedulePattern, error) {
	query := `
		SELECT ` + patternColumns + `
		FROM schedule_patterns
		WHERE expert_id = $1
		ORDER BY valid_from DESC, id
	`

	rows, err := r.pool.Query(ctx, query, expertID)
	if err != nil {
		return nil, fmt.Errorf("list patterns: %w", err)
	}
	defer rows.Close()

	return scanPatterns(rows)
}

func (r *PatternRepository) GetByID(ctx context.Context, expertID, id int64) (*model.SchedulePattern, error) {
	query := `
		SELECT ` + patternColumns + `
		FROM schedule_patterns
		WHERE expert_id = $1 AND id = $2
	`

	pattern, err := scanPattern(r.pool.QueryRow(ctx, query, expertID, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pattern by id: %w", err)
	}
	return pattern, nil
}

func (r *PatternRepository) Create(ctx context.Context, pattern *model.SchedulePattern) error {
	slots, err := encodeSlots(pattern.TimeSlots)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO schedule_patterns (uid, expert_id, name, days_of_week, time_slots, valid_from, valid_to, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err = r.pool.QueryRow(
		ctx, query,
		pattern.UID,
		pattern.ExpertID,
		pattern.Name,
		toInt32s(pattern.DaysOfWeek),
		slots,
		pattern.ValidFrom.Time(),
		pattern.ValidTo.Time(),
		pattern.IsActive,
	).Scan(&pattern.ID, &pattern.CreatedAt, &pattern.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create pattern: %w", err)
	}
	return nil
}

func (r *PatternRepository) Update(ctx context.Context, pattern *model.SchedulePattern) error {
	slots, err := encodeSlots(pattern.TimeSlots)
	if err != nil {
		return err
	}

	query := `
		UPDATE schedule_patterns
		SET name = $1, days_of_week = $2, time_slots = $3, valid_from = $4, valid_to = $5, is_active = $6, updated_at = now()
		WHERE expert_id = $7 AND id = $8
		RETURNING updated_at
	`

	err = r.pool.QueryRow(
		ctx, query,
		pattern.Name,
		toInt32s(pattern.DaysOfWeek),
		slots,
		pattern.ValidFrom.Time(),
		pattern.ValidTo.Time(),
		pattern.IsActive,
		pattern.ExpertID,
		pattern.ID,
	).Scan(&pattern.UpdatedAt)

	if err == pgx.ErrNoRows {
		return fmt.Errorf("update pattern: %w", pgx.ErrNoRows)
	}
	if err != nil {
		return fmt.Errorf("update pattern: %w", err)
	}
	return nil
}

func (r *PatternRepository) Delete(ctx context.Context, expertID, id int64) error {
	query := `DELETE FROM schedule_patterns WHERE expert_id = $1 AND id = $2`

	tag, err := r.pool.Exec(ctx, query, expertID, id)
	if err != nil {
		return fmt.Errorf("delete pattern: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete pattern: %w", pgx.ErrNoRows)
	}
	return nil
}

func scanPatterns(rows pgx.Rows) ([]*model.SchedulePattern, error) {
	var patterns []*model.SchedulePattern
	for rows.Next() {
		pattern, err := scanPattern(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pattern: %w", err)
		}
		patterns = append(patterns, pattern)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patterns: %w", err)
	}
	return patterns, nil
}

func scanPattern(row pgx.Row) (*model.SchedulePattern, error) {
	var (
		pattern   model.SchedulePattern
		days      []int32
		slots     []byte
		validFrom time.Time
		validTo   time.Time
	)
	err := row.Scan(
		&pattern.ID,
		&pattern.UID,
		&pattern.ExpertID,
		&pattern.Name,
		&days,
		&slots,
		&validFrom,
		&validTo,
		&pattern.IsActive,
		&pattern.CreatedAt,
		&pattern.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	pattern.DaysOfWeek = toInts(days)
	pattern.ValidFrom = model.DateOf(validFrom)
	pattern.ValidTo = model.DateOf(validTo)
	pattern.TimeSlots, err = decodeSlots(slots)
	if err != nil {
		return nil, err
	}
	return &pattern, nil
}
