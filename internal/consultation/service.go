package consultation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hackgods/consultation-booking/internal/apperr"
	"github.com/hackgods/consultation-booking/internal/audit"
	"github.com/hackgods/consultation-booking/internal/auth"
	"github.com/hackgods/consultation-booking/internal/config"
	redisclient "github.com/hackgods/consultation-booking/internal/redis"
)

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

var (
	ErrSlotAlreadyBooked       = apperr.New(apperr.ErrConflict, "time slot is already booked")
	ErrSlotBeingBooked         = apperr.New(apperr.ErrConflict, "time slot is currently being booked, please retry")
	ErrDoctorUnavailable       = apperr.New(apperr.ErrValidation, "doctor is not available for consultations")
	ErrCannotCancel            = apperr.New(apperr.ErrValidation, "cannot cancel consultation in current status")
	ErrInvalidStatusTransition = apperr.New(apperr.ErrConflict, "invalid status transition")
	ErrUnknownStatus           = apperr.New(apperr.ErrValidation, "unknown consultation status")
	ErrAccessDenied            = apperr.New(apperr.ErrForbidden, "not allowed to access this consultation")
	ErrPatientRoleRequired     = apperr.New(apperr.ErrForbidden, "only patients can book consultations")
)

type Service struct {
	repo    Repository
	locker  redisclient.Locker
	audit   audit.Sink
	logger  logrus.FieldLogger
	enforce bool
	now     func() time.Time
}

func NewService(repo Repository, locker redisclient.Locker, sink audit.Sink, logger logrus.FieldLogger, cfg config.Config) *Service {
	return &Service{
		repo:    repo,
		locker:  locker,
		audit:   sink,
		logger:  logger.WithField("component", "consultation"),
		enforce: cfg.EnforceStatusTransitions,
		now:     time.Now,
	}
}

// Book reserves a doctor's instant for the calling patient and creates the
// pending payment alongside it. The Redis lock keeps replicas from racing; the
// serializable transaction and the partial unique index keep the invariant
// even if the lock expires mid-flight.
func (s *Service) Book(ctx context.Context, p auth.Principal, req BookRequest) (*Detail, error) {
	if p.Role != auth.RolePatient {
		return nil, ErrPatientRoleRequired
	}
	if req.Type == "" {
		req.Type = TypeVideo
	}
	if err := validateBooking(req); err != nil {
		return nil, err
	}

	at := NormalizeInstant(req.ScheduledAt)
	var booked *Detail

	err := s.locker.WithBookingLock(ctx, req.DoctorID, at, func(lockCtx context.Context) error {
		return s.repo.InTx(lockCtx, func(tx Tx) error {
			doc, err := tx.LockDoctor(lockCtx, req.DoctorID)
			if err != nil {
				return err
			}
			if !doc.IsAvailable {
				return ErrDoctorUnavailable
			}

			existing, err := tx.FindActive(lockCtx, doc.ID, at)
			if err != nil && !errors.Is(err, ErrConsultationNotFound) {
				return fmt.Errorf("check active booking: %w", err)
			}
			if existing != nil {
				return ErrSlotAlreadyBooked
			}

			now := s.now().UTC()
			c := Consultation{
				ID:           uuid.New(),
				PatientID:    p.ID,
				DoctorID:     doc.ID,
				DoctorUserID: doc.OwnerUserID,
				ScheduledAt:  at,
				Status:       StatusScheduled,
				Type:         req.Type,
				Symptoms:     req.Symptoms,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := tx.InsertConsultation(lockCtx, &c); err != nil {
				return err
			}

			pay := Payment{
				ID:             uuid.New(),
				ConsultationID: c.ID,
				PatientID:      p.ID,
				DoctorID:       doc.ID,
				Amount:         doc.ConsultationFee,
				Status:         PaymentPending,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := tx.InsertPayment(lockCtx, &pay); err != nil {
				return err
			}

			booked = &Detail{Consultation: c, Specialization: doc.Specialization, Payment: &pay}
			return nil
		})
	})
	if err != nil {
		switch {
		case errors.Is(err, redisclient.ErrLockNotAcquired), errors.Is(err, ErrConcurrentUpdate):
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	s.audit.Record(ctx, audit.Event{
		UserID:       audit.Ptr(p.ID),
		Action:       audit.ActionConsultationBooked,
		ResourceType: audit.ResourceConsultation,
		ResourceID:   audit.Ptr(booked.ID),
		Details: map[string]any{
			"doctor_id":    req.DoctorID.String(),
			"scheduled_at": at.Format(time.RFC3339Nano),
		},
	})
	s.logger.WithFields(logrus.Fields{
		"consultation_id": booked.ID,
		"doctor_id":       booked.DoctorID,
	}).Info("consultation booked")

	return booked, nil
}

func validateBooking(req BookRequest) error {
	if req.DoctorID == uuid.Nil {
		return apperr.Validation("doctorId is required")
	}
	if req.ScheduledAt.IsZero() {
		return apperr.Validation("scheduledAt is required")
	}
	if !req.Type.Valid() {
		return apperr.Validation("consultationType must be one of video, audio, chat, in_person")
	}
	return nil
}

func canAccess(c *Consultation, p auth.Principal) bool {
	return p.IsAdmin() || c.PatientID == p.ID || c.DoctorUserID == p.ID
}

// Get returns a consultation with its payment, visible to its participants and admins.
func (s *Service) Get(ctx context.Context, id uuid.UUID, p auth.Principal) (*Detail, error) {
	d, err := s.repo.GetDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canAccess(&d.Consultation, p) {
		return nil, ErrAccessDenied
	}
	return d, nil
}

// List returns the caller's consultations, newest first. Admins see everything.
func (s *Service) List(ctx context.Context, p auth.Principal, f ListFilter) ([]Consultation, error) {
	var scope Scope
	switch p.Role {
	case auth.RolePatient:
		scope.PatientID = &p.ID
	case auth.RoleDoctor:
		scope.DoctorUserID = &p.ID
	case auth.RoleAdmin:
	default:
		return nil, ErrAccessDenied
	}

	if f.Status != nil && !f.Status.Valid() {
		return nil, ErrUnknownStatus
	}
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	return s.repo.List(ctx, scope, f)
}

// Update applies the fields present in patch and returns the refreshed consultation.
func (s *Service) Update(ctx context.Context, id uuid.UUID, p auth.Principal, patch Patch) (*Detail, error) {
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, ErrUnknownStatus
	}

	err := s.repo.InTx(ctx, func(tx Tx) error {
		c, err := tx.LockConsultation(ctx, id)
		if err != nil {
			return err
		}
		if !canAccess(c, p) {
			return ErrAccessDenied
		}

		ch, err := s.plan(c, patch)
		if err != nil {
			return err
		}
		return s.apply(ctx, tx, id, ch)
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Event{
		UserID:       audit.Ptr(p.ID),
		Action:       audit.ActionConsultationUpdated,
		ResourceType: audit.ResourceConsultation,
		ResourceID:   audit.Ptr(id),
		Details:      patchDetails(patch),
	})

	return s.Get(ctx, id, p)
}

// Cancel moves a consultation to cancelled and refunds its payment.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, p auth.Principal) (*Detail, error) {
	var previous Status

	err := s.repo.InTx(ctx, func(tx Tx) error {
		c, err := tx.LockConsultation(ctx, id)
		if err != nil {
			return err
		}
		if !canAccess(c, p) {
			return ErrAccessDenied
		}

		if c.Status == StatusCompleted || c.Status == StatusCancelled {
			return ErrCannotCancel
		}
		if s.enforce && !CanTransition(c.Status, StatusCancelled) {
			return ErrCannotCancel
		}

		previous = c.Status
		cancelled := StatusCancelled
		return s.apply(ctx, tx, id, Changes{Status: &cancelled})
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Event{
		UserID:       audit.Ptr(p.ID),
		Action:       audit.ActionConsultationCancelled,
		ResourceType: audit.ResourceConsultation,
		ResourceID:   audit.Ptr(id),
		Details:      map[string]any{"previous_status": string(previous)},
	})
	s.logger.WithField("consultation_id", id).Info("consultation cancelled")

	return s.Get(ctx, id, p)
}

// plan turns a patch into row changes, checking the status transition and
// stamping lifecycle timestamps.
func (s *Service) plan(c *Consultation, patch Patch) (Changes, error) {
	ch := Changes{
		Symptoms:  patch.Symptoms,
		Diagnosis: patch.Diagnosis,
		Notes:     patch.Notes,
	}

	if patch.Status == nil || *patch.Status == c.Status {
		return ch, nil
	}

	to := *patch.Status
	if s.enforce && !CanTransition(c.Status, to) {
		return Changes{}, fmt.Errorf("%w: %s to %s", ErrInvalidStatusTransition, c.Status, to)
	}

	now := s.now().UTC()
	ch.Status = &to
	switch to {
	case StatusInProgress:
		ch.StartedAt = &now
	case StatusCompleted:
		ch.EndedAt = &now
	}

	return ch, nil
}

// apply writes ch and runs the side effects of the status it enters.
func (s *Service) apply(ctx context.Context, tx Tx, id uuid.UUID, ch Changes) error {
	if err := tx.ApplyChanges(ctx, id, ch); err != nil {
		return err
	}
	if ch.Status != nil && *ch.Status == StatusCancelled {
		if err := tx.SetPaymentStatus(ctx, id, PaymentRefunded); err != nil {
			return err
		}
	}
	return nil
}

// patchDetails names the touched fields. Clinical text stays out of the audit trail.
func patchDetails(patch Patch) map[string]any {
	details := make(map[string]any)
	if patch.Status != nil {
		details["status"] = string(*patch.Status)
	}

	var fields []string
	if patch.Symptoms != nil {
		fields = append(fields, "symptoms")
	}
	if patch.Diagnosis != nil {
		fields = append(fields, "diagnosis")
	}
	if patch.Notes != nil {
		fields = append(fields, "notes")
	}
	if len(fields) > 0 {
		details["fields"] = fields
	}
	return details
}
