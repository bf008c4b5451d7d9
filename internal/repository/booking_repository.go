package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/expertdesk/availability/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BookingRepository is a read-mostly view: bookings are written by the booking
// flow, this service only consumes them (plus the janitor's completion sweep).
type BookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

// BookingsFor returns the non-cancelled bookings on the date, ordered by start.
func (r *BookingRepository) BookingsFor(ctx context.Context, expertID int64, date model.Date) ([]*model.Booking, error) {
	query := `
		SELECT id, uid, expert_id, client_id, date, start_minute, end_minute, status, created_at, updated_at
		FROM bookings
		WHERE expert_id = $1
		  AND date = $2
		  AND status NOT IN ('canceled', 'rejected')
		ORDER BY start_minute
	`

	rows, err := r.pool.Query(ctx, query, expertID, date.Time())
	if err != nil {
		return nil, fmt.Errorf("get bookings for date: %w", err)
	}
	defer rows.Close()

	var bookings []*model.Booking
	for rows.Next() {
		var (
			booking     model.Booking
			bookingDate time.Time
			start, end  int32
		)
		err := rows.Scan(
			&booking.ID,
			&booking.UID,
			&booking.ExpertID,
			&booking.ClientID,
			&bookingDate,
			&start,
			&end,
			&booking.Status,
			&booking.CreatedAt,
			&booking.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		booking.Date = model.DateOf(bookingDate)
		booking.Start = model.DayTime(start)
		booking.End = model.DayTime(end)
		bookings = append(bookings, &booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}
	return bookings, nil
}

// CompletePast marks confirmed bookings on dates before the cutoff completed.
func (r *BookingRepository) CompletePast(ctx context.Context, before model.Date) (int64, error) {
	query := `
		UPDATE bookings
		SET status = 'completed', updated_at = now()
		WHERE status = 'confirmed' AND date < $1
	`

	tag, err := r.pool.Exec(ctx, query, before.Time())
	if err != nil {
		return 0, fmt.Errorf("complete past bookings: %w", err)
	}
	return tag.RowsAffected(), nil
}
