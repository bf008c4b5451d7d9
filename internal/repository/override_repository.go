package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/expertdesk/availability/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OverrideRepository struct {
	pool *pgxpool.Pool
}

func NewOverrideRepository(pool *pgxpool.Pool) *OverrideRepository {
	return &OverrideRepository{pool: pool}
}

const overrideColumns = `id, uid, expert_id, date, type, time_slots, created_at, updated_at`

// OverrideFor does the exact-date lookup. The unique (expert_id, date)
// constraint guarantees at most one row.
func (r *OverrideRepository) OverrideFor(ctx context.Context, expertID int64, date model.Date) (*model.ScheduleOverride, error) {
	query := `
		SELECT ` + overrideColumns + `
		FROM schedule_overrides
		WHERE expert_id = $1 AND date = $2
	`

	override, err := scanOverride(r.pool.QueryRow(ctx, query, expertID, date.Time()))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get override for date: %w", err)
	}
	return override, nil
}

func (r *OverrideRepository) ListByExpertRange(ctx context.Context, expertID int64, from, to model.Date) ([]*model.ScheduleOverride, error) {
	query := `
		SELECT ` + overrideColumns + `
		FROM schedule_overrides
		WHERE expert_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date
	`

	rows, err := r.pool.Query(ctx, query, expertID, from.Time(), to.Time())
	if err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}
	defer rows.Close()

	var overrides []*model.ScheduleOverride
	for rows.Next() {
		override, err := scanOverride(rows)
		if err != nil {
			return nil, fmt.Errorf("scan override: %w", err)
		}
		overrides = append(overrides, override)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate overrides: %w", err)
	}
	return overrides, nil
}

func (r *OverrideRepository) GetByID(ctx context.Context, expertID, id int64) (*model.ScheduleOverride, error) {
	query := `
		SELECT ` + overrideColumns + `
		FROM schedule_overrides
		WHERE expert_id = $1 AND id = $2
	`

	override, err := scanOverride(r.pool.QueryRow(ctx, query, expertID, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get override by id: %w", err)
	}
	return override, nil
}

func (r *OverrideRepository) Create(ctx context.Context, override *model.ScheduleOverride) error {
	slots, err := encodeSlots(override.TimeSlots)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO schedule_overrides (uid, expert_id, date, type, time_slots)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err = r.pool.QueryRow(
		ctx, query,
		override.UID,
		override.ExpertID,
		override.Date.Time(),
		string(override.Type),
		slots,
	).Scan(&override.ID, &override.CreatedAt, &override.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create override: %w", err)
	}
	return nil
}

// Update never touches the date column; the record's date is immutable.
func (r *OverrideRepository) Update(ctx context.Context, override *model.ScheduleOverride) error {
	slots, err := encodeSlots(override.TimeSlots)
	if err != nil {
		return err
	}

	query := `
		UPDATE schedule_overrides
		SET type = $1, time_slots = $2, updated_at = now()
		WHERE expert_id = $3 AND id = $4
		RETURNING updated_at
	`

	err = r.pool.QueryRow(
		ctx, query,
		string(override.Type),
		slots,
		override.ExpertID,
		override.ID,
	).Scan(&override.UpdatedAt)

	if err == pgx.ErrNoRows {
		return fmt.Errorf("update override: %w", pgx.ErrNoRows)
	}
	if err != nil {
		return fmt.Errorf("update override: %w", err)
	}
	return nil
}

func (r *OverrideRepository) Delete(ctx context.Context, expertID, id int64) error {
	query := `DELETE FROM schedule_overrides WHERE expert_id = $1 AND id = $2`

	tag, err := r.pool.Exec(ctx, query, expertID, id)
	if err != nil {
		return fmt.Errorf("delete override: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete override: %w", pgx.ErrNoRows)
	}
	return nil
}

func scanOverride(row pgx.Row) (*model.ScheduleOverride, error) {
	var (
		override model.ScheduleOverride
		date     time.Time
		typ      string
		slots    []byte
	)
	err := row.Scan(
		&override.ID,
		&override.UID,
		&override.ExpertID,
		&date,
		&typ,
		&slots,
		&override.CreatedAt,
		&override.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	override.Date = model.DateOf(date)
	override.Type = model.OverrideType(typ)
	override.TimeSlots, err = decodeSlots(slots)
	if err != nil {
		return nil, err
	}
	return &override, nil
}
