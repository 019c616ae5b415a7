package consultation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/consultation-booking/internal/db"
	"github.com/hackgods/consultation-booking/internal/doctor"
)

// activeSlotIndex backs the one-active-booking-per-instant invariant.
const activeSlotIndex = "consultations_active_slot_uq"

const consultationColumns = `c.id, c.patient_id, c.doctor_id, d.user_id, c.scheduled_at, c.status,
	c.consultation_type, c.symptoms, c.diagnosis, c.notes, c.started_at, c.ended_at, c.created_at, c.updated_at`

const consultationFrom = ` FROM consultations c JOIN doctors d ON d.id = c.doctor_id`

var dialect = goqu.Dialect("postgres")

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func consultationDest(c *Consultation) []any {
	return []any{
		&c.ID,
		&c.PatientID,
		&c.DoctorID,
		&c.DoctorUserID,
		&c.ScheduledAt,
		&c.Status,
		&c.Type,
		&c.Symptoms,
		&c.Diagnosis,
		&c.Notes,
		&c.StartedAt,
		&c.EndedAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	}
}

func scanConsultation(row pgx.Row) (*Consultation, error) {
	var c Consultation
	if err := row.Scan(consultationDest(&c)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConsultationNotFound
		}
		return nil, err
	}
	return &c, nil
}

func scanDetail(row pgx.Row) (*Detail, error) {
	var (
		d          Detail
		payID      *uuid.UUID
		payConsult *uuid.UUID
		payPatient *uuid.UUID
		payDoctor  *uuid.UUID
		payAmount  *float64
		payStatus  *PaymentStatus
		payCreated *time.Time
		payUpdated *time.Time
	)

	dest := append(consultationDest(&d.Consultation), &d.Specialization,
		&payID, &payConsult, &payPatient, &payDoctor, &payAmount, &payStatus, &payCreated, &payUpdated)

	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConsultationNotFound
		}
		return nil, err
	}

	if payID != nil {
		d.Payment = &Payment{
			ID:             *payID,
			ConsultationID: *payConsult,
			PatientID:      *payPatient,
			DoctorID:       *payDoctor,
			Amount:         *payAmount,
			Status:         *payStatus,
			CreatedAt:      *payCreated,
			UpdatedAt:      *payUpdated,
		}
	}

	return &d, nil
}

// Interface methods

func (r *PgRepository) GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+consultationColumns+`, d.specialization,
		       p.id, p.consultation_id, p.patient_id, p.doctor_id, p.amount, p.status, p.created_at, p.updated_at
		`+consultationFrom+`
		LEFT JOIN payments p ON p.consultation_id = c.id
		WHERE c.id = $1
	`, id)

	d, err := scanDetail(row)
	if err != nil && !errors.Is(err, ErrConsultationNotFound) {
		return nil, fmt.Errorf("get consultation detail: %w", err)
	}
	return d, err
}

func (r *PgRepository) List(ctx context.Context, scope Scope, f ListFilter) ([]Consultation, error) {
	query, args, err := listQuery(scope, f)
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list consultations: %w", err)
	}
	defer rows.Close()

	result := make([]Consultation, 0)
	for rows.Next() {
		c, err := scanConsultation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan consultation: %w", err)
		}
		result = append(result, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func listQuery(scope Scope, f ListFilter) (string, []any, error) {
	ds := dialect.
		From(goqu.T("consultations").As("c")).
		Join(goqu.T("doctors").As("d"), goqu.On(goqu.I("d.id").Eq(goqu.I("c.doctor_id")))).
		Select(goqu.L(consultationColumns)).
		Order(goqu.I("c.scheduled_at").Desc()).
		Limit(uint(f.Limit)).
		Offset(uint(f.Offset)).
		Prepared(true)

	if scope.PatientID != nil {
		ds = ds.Where(goqu.I("c.patient_id").Eq(scope.PatientID.String()))
	}
	if scope.DoctorUserID != nil {
		ds = ds.Where(goqu.I("d.user_id").Eq(scope.DoctorUserID.String()))
	}
	if f.Status != nil {
		ds = ds.Where(goqu.I("c.status").Eq(string(*f.Status)))
	}

	return ds.ToSQL()
}

func (r *PgRepository) InTx(ctx context.Context, fn func(tx Tx) error) error {
	err := db.WithTx(ctx, r.pool, db.Serializable, func(tx pgx.Tx) error {
		return fn(&pgTx{tx: tx})
	})

	switch {
	case err == nil:
		return nil
	case db.IsUniqueViolation(err, activeSlotIndex):
		return ErrSlotAlreadyBooked
	case db.PgErrorCode(err) == db.CodeSerializationFailure:
		return ErrConcurrentUpdate
	}
	return err
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) LockDoctor(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	return doctor.Get(ctx, t.tx, id, true)
}

func (t *pgTx) FindActive(ctx context.Context, doctorID uuid.UUID, scheduledAt time.Time) (*Consultation, error) {
	row := t.tx.QueryRow(ctx, `
		SELECT `+consultationColumns+consultationFrom+`
		WHERE c.doctor_id = $1
		  AND c.scheduled_at = $2
		  AND c.status IN ('scheduled', 'confirmed', 'in_progress')
		LIMIT 1
	`, doctorID, scheduledAt)
	return scanConsultation(row)
}

func (t *pgTx) InsertConsultation(ctx context.Context, c *Consultation) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO consultations (id, patient_id, doctor_id, scheduled_at, status, consultation_type, symptoms, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, c.ID, c.PatientID, c.DoctorID, c.ScheduledAt, c.Status, c.Type, c.Symptoms, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert consultation: %w", err)
	}
	return nil
}

func (t *pgTx) InsertPayment(ctx context.Context, p *Payment) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO payments (id, consultation_id, patient_id, doctor_id, amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, p.ID, p.ConsultationID, p.PatientID, p.DoctorID, p.Amount, p.Status, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (t *pgTx) LockConsultation(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	row := t.tx.QueryRow(ctx, `
		SELECT `+consultationColumns+consultationFrom+`
		WHERE c.id = $1
		FOR UPDATE OF c
	`, id)
	return scanConsultation(row)
}

func (t *pgTx) ApplyChanges(ctx context.Context, id uuid.UUID, ch Changes) error {
	if ch.Empty() {
		return nil
	}

	query, args, err := updateQuery(id, ch)
	if err != nil {
		return fmt.Errorf("build update query: %w", err)
	}

	tag, err := t.tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update consultation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConsultationNotFound
	}
	return nil
}

func updateQuery(id uuid.UUID, ch Changes) (string, []any, error) {
	rec := goqu.Record{"updated_at": goqu.L("now()")}
	if ch.Status != nil {
		rec["status"] = string(*ch.Status)
	}
	if ch.StartedAt != nil {
		rec["started_at"] = *ch.StartedAt
	}
	if ch.EndedAt != nil {
		rec["ended_at"] = *ch.EndedAt
	}
	if ch.Symptoms != nil {
		rec["symptoms"] = *ch.Symptoms
	}
	if ch.Diagnosis != nil {
		rec["diagnosis"] = *ch.Diagnosis
	}
	if ch.Notes != nil {
		rec["notes"] = *ch.Notes
	}

	return dialect.
		Update("consultations").
		Set(rec).
		Where(goqu.C("id").Eq(id.String())).
		Prepared(true).
		ToSQL()
}

func (t *pgTx) SetPaymentStatus(ctx context.Context, consultationID uuid.UUID, status PaymentStatus) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE payments
		SET status = $2,
		    updated_at = now()
		WHERE consultation_id = $1
	`, consultationID, status)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no payment for consultation %s", consultationID)
	}
	return nil
}
