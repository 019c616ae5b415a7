package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/consultation-booking/internal/db"
)

const slotColumns = `id, doctor_id, day_of_week, start_time, end_time, timezone, is_recurring, valid_from, valid_until, created_at`

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanSlot(row pgx.Row) (*Slot, error) {
	var s Slot
	err := row.Scan(
		&s.ID,
		&s.DoctorID,
		&s.DayOfWeek,
		&s.StartTime,
		&s.EndTime,
		&s.Timezone,
		&s.IsRecurring,
		&s.ValidFrom,
		&s.ValidUntil,
		&s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func collectSlots(rows pgx.Rows) ([]Slot, error) {
	defer rows.Close()

	result := make([]Slot, 0)
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		result = append(result, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgRepository) Create(ctx context.Context, s *Slot) error {
	return db.WithTx(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO availability_slots (id, doctor_id, day_of_week, start_time, end_time, timezone, is_recurring, valid_from, valid_until)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING created_at
		`, s.ID, s.DoctorID, s.DayOfWeek, s.StartTime, s.EndTime, s.Timezone, s.IsRecurring, s.ValidFrom, s.ValidUntil)

		if err := row.Scan(&s.CreatedAt); err != nil {
			return fmt.Errorf("insert slot: %w", err)
		}
		return nil
	})
}

func (r *PgRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Slot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+slotColumns+`
		FROM availability_slots
		WHERE doctor_id = $1
		ORDER BY day_of_week, start_time
	`, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return collectSlots(rows)
}

func (r *PgRepository) ListRecurring(ctx context.Context, doctorID uuid.UUID, dayOfWeek int, date time.Time) ([]Slot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+slotColumns+`
		FROM availability_slots
		WHERE doctor_id = $1
		  AND day_of_week = $2
		  AND is_recurring = true
		  AND (valid_from IS NULL OR valid_from <= $3::date)
		  AND (valid_until IS NULL OR valid_until >= $3::date)
		ORDER BY start_time
	`, doctorID, dayOfWeek, date.Format(DateLayout))
	if err != nil {
		return nil, fmt.Errorf("list available slots: %w", err)
	}
	return collectSlots(rows)
}

func (r *PgRepository) Delete(ctx context.Context, slotID, doctorID uuid.UUID) error {
	return db.WithTx(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM availability_slots WHERE id = $1 AND doctor_id = $2`, slotID, doctorID)
		if err != nil {
			return fmt.Errorf("delete slot: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrSlotNotFound
		}
		return nil
	})
}
