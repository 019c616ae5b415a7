// Package audit records who did what to which resource. Recording is
// fire-and-forget: callers never see audit failures and are never blocked
// by the backends.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	ActionConsultationBooked    = "consultation_booked"
	ActionConsultationUpdated   = "consultation_updated"
	ActionConsultationCancelled = "consultation_cancelled"
	ActionSlotCreated           = "slot_created"
	ActionSlotDeleted           = "slot_deleted"
	ActionUnauthorizedAccess    = "unauthorized_access"

	ResourceConsultation = "consultation"
	ResourceSlot         = "availability_slot"
	ResourceAPI          = "api"
)

type Event struct {
	ID           uuid.UUID      `json:"id"`
	UserID       *uuid.UUID     `json:"user_id,omitempty"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   *uuid.UUID     `json:"resource_id,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
	IPAddress    string         `json:"ip_address,omitempty"`
	UserAgent    string         `json:"user_agent,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Sink accepts events. Implementations must not block and must not fail the caller.
type Sink interface {
	Record(ctx context.Context, ev Event)
}

// Writer persists a single event to one backend.
type Writer interface {
	Write(ctx context.Context, ev Event) error
}

// Nop discards events.
type Nop struct{}

func (Nop) Record(context.Context, Event) {}

// RequestMeta is the client information attached to events recorded while
// serving a request.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

type metaKey struct{}

func WithRequestMeta(ctx context.Context, m RequestMeta) context.Context {
	return context.WithValue(ctx, metaKey{}, m)
}

func RequestMetaFrom(ctx context.Context) RequestMeta {
	m, _ := ctx.Value(metaKey{}).(RequestMeta)
	return m
}

// Ptr is a convenience for the optional id fields.
func Ptr(id uuid.UUID) *uuid.UUID {
	return &id
}
