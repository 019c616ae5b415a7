package availability

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/consultation-booking/internal/apperr"
)

var ErrSlotNotFound = apperr.New(apperr.ErrNotFound, "slot not found")

type Repository interface {
	Create(ctx context.Context, s *Slot) error
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Slot, error)
	// ListRecurring returns the recurring slots on dayOfWeek whose validity
	// window, when set, contains date.
	ListRecurring(ctx context.Context, doctorID uuid.UUID, dayOfWeek int, date time.Time) ([]Slot, error)
	// Delete removes slotID only if it belongs to doctorID.
	Delete(ctx context.Context, slotID, doctorID uuid.UUID) error
}
