package availability

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hackgods/consultation-booking/internal/apperr"
	"github.com/hackgods/consultation-booking/internal/audit"
	"github.com/hackgods/consultation-booking/internal/auth"
)

var ErrNotOwner = apperr.New(apperr.ErrForbidden, "only the owning doctor can manage these slots")

// OwnerResolver maps a doctor to the user account that owns it.
type OwnerResolver interface {
	OwnerOf(ctx context.Context, doctorID uuid.UUID) (uuid.UUID, error)
}

type Service struct {
	repo   Repository
	owners OwnerResolver
	audit  audit.Sink
	logger logrus.FieldLogger
}

func NewService(repo Repository, owners OwnerResolver, sink audit.Sink, logger logrus.FieldLogger) *Service {
	return &Service{
		repo:   repo,
		owners: owners,
		audit:  sink,
		logger: logger.WithField("component", "availability"),
	}
}

func (s *Service) authorize(ctx context.Context, doctorID uuid.UUID, p auth.Principal) error {
	owner, err := s.owners.OwnerOf(ctx, doctorID)
	if err != nil {
		return err
	}
	if owner != p.ID {
		return ErrNotOwner
	}
	return nil
}

// CreateSlot adds a weekly window to a doctor the caller owns.
func (s *Service) CreateSlot(ctx context.Context, doctorID uuid.UUID, p auth.Principal, spec SlotSpec) (*Slot, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, doctorID, p); err != nil {
		return nil, err
	}

	slot := &Slot{
		ID:          uuid.New(),
		DoctorID:    doctorID,
		DayOfWeek:   spec.DayOfWeek,
		StartTime:   spec.StartTime,
		EndTime:     spec.EndTime,
		Timezone:    spec.Timezone,
		IsRecurring: true,
	}
	if slot.Timezone == "" {
		slot.Timezone = DefaultTimezone
	}
	if spec.IsRecurring != nil {
		slot.IsRecurring = *spec.IsRecurring
	}
	if spec.ValidFrom != nil {
		from := dateOnly(*spec.ValidFrom)
		slot.ValidFrom = &from
	}
	if spec.ValidUntil != nil {
		until := dateOnly(*spec.ValidUntil)
		slot.ValidUntil = &until
	}

	if err := s.repo.Create(ctx, slot); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Event{
		UserID:       audit.Ptr(p.ID),
		Action:       audit.ActionSlotCreated,
		ResourceType: audit.ResourceSlot,
		ResourceID:   audit.Ptr(slot.ID),
		Details: map[string]any{
			"doctor_id":   doctorID.String(),
			"day_of_week": slot.DayOfWeek,
			"start_time":  slot.StartTime,
			"end_time":    slot.EndTime,
		},
	})
	s.logger.WithField("slot_id", slot.ID).Info("availability slot created")

	return slot, nil
}

// ListSlots returns every slot of a doctor ordered by weekday, then start time.
func (s *Service) ListSlots(ctx context.Context, doctorID uuid.UUID) ([]Slot, error) {
	return s.repo.ListByDoctor(ctx, doctorID)
}

// ListAvailable returns the recurring slots that apply on date. Booked
// consultations are not subtracted.
func (s *Service) ListAvailable(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]Slot, error) {
	day := dateOnly(date)
	return s.repo.ListRecurring(ctx, doctorID, int(day.Weekday()), day)
}

func (s *Service) DeleteSlot(ctx context.Context, slotID, doctorID uuid.UUID, p auth.Principal) error {
	if err := s.authorize(ctx, doctorID, p); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, slotID, doctorID); err != nil {
		return err
	}

	s.audit.Record(ctx, audit.Event{
		UserID:       audit.Ptr(p.ID),
		Action:       audit.ActionSlotDeleted,
		ResourceType: audit.ResourceSlot,
		ResourceID:   audit.Ptr(slotID),
		Details:      map[string]any{"doctor_id": doctorID.String()},
	})
	s.logger.WithField("slot_id", slotID).Info("availability slot deleted")

	return nil
}
