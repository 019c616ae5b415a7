package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/consultation-booking/internal/audit"
	"github.com/hackgods/consultation-booking/internal/availability"
	"github.com/hackgods/consultation-booking/internal/consultation"
)

type BookConsultationRequest struct {
	DoctorID         string    `json:"doctorId"`
	ScheduledAt      time.Time `json:"scheduledAt"`
	ConsultationType string    `json:"consultationType"`
	Symptoms         *string   `json:"symptoms"`
}

type UpdateConsultationRequest struct {
	Status    *string `json:"status"`
	Symptoms  *string `json:"symptoms"`
	Diagnosis *string `json:"diagnosis"`
	Notes     *string `json:"notes"`
}

type PaymentResponse struct {
	ID     uuid.UUID `json:"id"`
	Amount float64   `json:"amount"`
	Status string    `json:"status"`
}

type ConsultationResponse struct {
	ID               uuid.UUID        `json:"id"`
	PatientID        uuid.UUID        `json:"patientId"`
	DoctorID         uuid.UUID        `json:"doctorId"`
	ScheduledAt      time.Time        `json:"scheduledAt"`
	Status           string           `json:"status"`
	ConsultationType string           `json:"consultationType"`
	Symptoms         *string          `json:"symptoms,omitempty"`
	Diagnosis        *string          `json:"diagnosis,omitempty"`
	Notes            *string          `json:"notes,omitempty"`
	StartedAt        *time.Time       `json:"startedAt,omitempty"`
	EndedAt          *time.Time       `json:"endedAt,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
	Specialization   string           `json:"specialization,omitempty"`
	Payment          *PaymentResponse `json:"payment,omitempty"`
}

func newConsultationResponse(c consultation.Consultation) ConsultationResponse {
	return ConsultationResponse{
		ID:               c.ID,
		PatientID:        c.PatientID,
		DoctorID:         c.DoctorID,
		ScheduledAt:      c.ScheduledAt,
		Status:           string(c.Status),
		ConsultationType: string(c.Type),
		Symptoms:         c.Symptoms,
		Diagnosis:        c.Diagnosis,
		Notes:            c.Notes,
		StartedAt:        c.StartedAt,
		EndedAt:          c.EndedAt,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

func newDetailResponse(d *consultation.Detail) ConsultationResponse {
	resp := newConsultationResponse(d.Consultation)
	resp.Specialization = d.Specialization
	if d.Payment != nil {
		resp.Payment = &PaymentResponse{
			ID:     d.Payment.ID,
			Amount: d.Payment.Amount,
			Status: string(d.Payment.Status),
		}
	}
	return resp
}

type CreateSlotRequest struct {
	DayOfWeek   *int    `json:"dayOfWeek"`
	StartTime   string  `json:"startTime"`
	EndTime     string  `json:"endTime"`
	Timezone    string  `json:"timezone"`
	IsRecurring *bool   `json:"isRecurring"`
	ValidFrom   *string `json:"validFrom"`
	ValidUntil  *string `json:"validUntil"`
}

type SlotResponse struct {
	ID          uuid.UUID `json:"id"`
	DoctorID    uuid.UUID `json:"doctorId"`
	DayOfWeek   int       `json:"dayOfWeek"`
	StartTime   string    `json:"startTime"`
	EndTime     string    `json:"endTime"`
	Timezone    string    `json:"timezone"`
	IsRecurring bool      `json:"isRecurring"`
	ValidFrom   string    `json:"validFrom,omitempty"`
	ValidUntil  string    `json:"validUntil,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func newSlotResponse(s availability.Slot) SlotResponse {
	resp := SlotResponse{
		ID:          s.ID,
		DoctorID:    s.DoctorID,
		DayOfWeek:   s.DayOfWeek,
		StartTime:   s.StartTime,
		EndTime:     s.EndTime,
		Timezone:    s.Timezone,
		IsRecurring: s.IsRecurring,
		CreatedAt:   s.CreatedAt,
	}
	if s.ValidFrom != nil {
		resp.ValidFrom = s.ValidFrom.Format(availability.DateLayout)
	}
	if s.ValidUntil != nil {
		resp.ValidUntil = s.ValidUntil.Format(availability.DateLayout)
	}
	return resp
}

type AuditLogResponse struct {
	ID           uuid.UUID      `json:"id"`
	UserID       *uuid.UUID     `json:"userId,omitempty"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resourceType"`
	ResourceID   *uuid.UUID     `json:"resourceId,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
	IPAddress    string         `json:"ipAddress,omitempty"`
	UserAgent    string         `json:"userAgent,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
}

func newAuditLogResponse(ev audit.Event) AuditLogResponse {
	return AuditLogResponse{
		ID:           ev.ID,
		UserID:       ev.UserID,
		Action:       ev.Action,
		ResourceType: ev.ResourceType,
		ResourceID:   ev.ResourceID,
		Details:      ev.Details,
		IPAddress:    ev.IPAddress,
		UserAgent:    ev.UserAgent,
		CreatedAt:    ev.CreatedAt,
	}
}

type ListResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
