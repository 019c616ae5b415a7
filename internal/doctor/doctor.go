// Package doctor reads the doctor records owned by the registration service.
package doctor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hackgods/consultation-booking/internal/apperr"
)

var ErrDoctorNotFound = apperr.New(apperr.ErrNotFound, "doctor not found")

type Doctor struct {
	ID              uuid.UUID
	OwnerUserID     uuid.UUID
	Specialization  string
	ConsultationFee float64
	IsAvailable     bool
	Rating          float64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Columns is the select list Scan expects, usable with any table alias-free query.
const Columns = `id, user_id, specialization, consultation_fee, is_available, rating, created_at, updated_at`

func Scan(row pgx.Row) (*Doctor, error) {
	var d Doctor

	err := row.Scan(
		&d.ID,
		&d.OwnerUserID,
		&d.Specialization,
		&d.ConsultationFee,
		&d.IsAvailable,
		&d.Rating,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	return &d, nil
}

// Querier is the subset of pgxpool.Pool and pgx.Tx the lookups need.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Get loads a doctor. With forShare the row is locked against concurrent
// updates until the surrounding transaction ends.
func Get(ctx context.Context, q Querier, id uuid.UUID, forShare bool) (*Doctor, error) {
	sql := `SELECT ` + Columns + ` FROM doctors WHERE id = $1`
	if forShare {
		sql += ` FOR SHARE`
	}
	d, err := Scan(q.QueryRow(ctx, sql, id))
	if err != nil && !errors.Is(err, ErrDoctorNotFound) {
		return nil, fmt.Errorf("load doctor: %w", err)
	}
	return d, err
}

type PgRepository struct {
	pool Querier
}

func NewPgRepository(pool Querier) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return Get(ctx, r.pool, id, false)
}
