package consultation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/consultation-booking/internal/apperr"
	"github.com/hackgods/consultation-booking/internal/doctor"
)

var (
	ErrConsultationNotFound = apperr.New(apperr.ErrNotFound, "consultation not found")
	ErrConcurrentUpdate     = apperr.New(apperr.ErrConflict, "consultation was modified concurrently, please retry")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error)
	List(ctx context.Context, scope Scope, f ListFilter) ([]Consultation, error)

	// InTx runs fn in one serializable transaction. A nil return commits.
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the transactional view used by booking and lifecycle mutations.
type Tx interface {
	LockDoctor(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error)

	// FindActive returns ErrConsultationNotFound when the instant is free.
	FindActive(ctx context.Context, doctorID uuid.UUID, scheduledAt time.Time) (*Consultation, error)
	InsertConsultation(ctx context.Context, c *Consultation) error
	InsertPayment(ctx context.Context, p *Payment) error

	// LockConsultation reads the row and holds it until the transaction ends.
	LockConsultation(ctx context.Context, id uuid.UUID) (*Consultation, error)
	ApplyChanges(ctx context.Context, id uuid.UUID, ch Changes) error
	SetPaymentStatus(ctx context.Context, consultationID uuid.UUID, status PaymentStatus) error
}
