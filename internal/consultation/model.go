package consultation

import (
	"time"

	"github.com/google/uuid"
)

type ConsultationType string

const (
	TypeVideo    ConsultationType = "video"
	TypeAudio    ConsultationType = "audio"
	TypeChat     ConsultationType = "chat"
	TypeInPerson ConsultationType = "in_person"
)

func (t ConsultationType) Valid() bool {
	switch t {
	case TypeVideo, TypeAudio, TypeChat, TypeInPerson:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentRefunded  PaymentStatus = "refunded"
)

type Consultation struct {
	ID           uuid.UUID
	PatientID    uuid.UUID
	DoctorID     uuid.UUID
	DoctorUserID uuid.UUID // owner of DoctorID, read from doctors
	ScheduledAt  time.Time
	Status       Status
	Type         ConsultationType
	Symptoms     *string
	Diagnosis    *string
	Notes        *string
	StartedAt    *time.Time
	EndedAt      *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Payment is a settlement placeholder; only its status is tracked.
type Payment struct {
	ID             uuid.UUID
	ConsultationID uuid.UUID
	PatientID      uuid.UUID
	DoctorID       uuid.UUID
	Amount         float64
	Status         PaymentStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Detail struct {
	Consultation
	Specialization string
	Payment        *Payment
}

type BookRequest struct {
	DoctorID    uuid.UUID
	ScheduledAt time.Time
	Type        ConsultationType // defaults to video
	Symptoms    *string
}

// Patch carries the fields of a partial update; nil means untouched.
type Patch struct {
	Status    *Status
	Symptoms  *string
	Diagnosis *string
	Notes     *string
}

type ListFilter struct {
	Status *Status
	Limit  int
	Offset int
}

// Scope restricts a listing to one participant. The zero value is unscoped.
type Scope struct {
	PatientID    *uuid.UUID
	DoctorUserID *uuid.UUID
}

// Changes is what a lifecycle operation writes to a consultation row.
type Changes struct {
	Status    *Status
	StartedAt *time.Time
	EndedAt   *time.Time
	Symptoms  *string
	Diagnosis *string
	Notes     *string
}

func (c Changes) Empty() bool {
	return c.Status == nil && c.StartedAt == nil && c.EndedAt == nil &&
		c.Symptoms == nil && c.Diagnosis == nil && c.Notes == nil
}

// NormalizeInstant brings a booking time to the form the uniqueness check
// compares: UTC at microsecond precision.
func NormalizeInstant(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
