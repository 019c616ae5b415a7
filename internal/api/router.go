package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/sirupsen/logrus"

	"github.com/hackgods/consultation-booking/internal/audit"
	"github.com/hackgods/consultation-booking/internal/auth"
	"github.com/hackgods/consultation-booking/internal/availability"
	"github.com/hackgods/consultation-booking/internal/consultation"
)

type ConsultationService interface {
	Book(ctx context.Context, p auth.Principal, req consultation.BookRequest) (*consultation.Detail, error)
	Get(ctx context.Context, id uuid.UUID, p auth.Principal) (*consultation.Detail, error)
	List(ctx context.Context, p auth.Principal, f consultation.ListFilter) ([]consultation.Consultation, error)
	Update(ctx context.Context, id uuid.UUID, p auth.Principal, patch consultation.Patch) (*consultation.Detail, error)
	Cancel(ctx context.Context, id uuid.UUID, p auth.Principal) (*consultation.Detail, error)
}

type AvailabilityService interface {
	CreateSlot(ctx context.Context, doctorID uuid.UUID, p auth.Principal, spec availability.SlotSpec) (*availability.Slot, error)
	ListSlots(ctx context.Context, doctorID uuid.UUID) ([]availability.Slot, error)
	ListAvailable(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]availability.Slot, error)
	DeleteSlot(ctx context.Context, slotID, doctorID uuid.UUID, p auth.Principal) error
}

type AuditLog interface {
	List(ctx context.Context, f audit.Filter) ([]audit.Event, error)
}

type RouterConfig struct {
	Consultations ConsultationService
	Availability  AvailabilityService
	AuditLog      AuditLog
	Audit         audit.Sink
	Verifier      *auth.Verifier
	Health        *HealthHandler
	Logger        logrus.FieldLogger
	CORSOrigins   []string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	logger := cfg.Logger

	r.Use(RequestIDMiddleware)
	r.Use(middleware.RealIP)
	r.Use(RequestMetaMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health/live", cfg.Health.Liveness)
	r.Get("/health/ready", cfg.Health.Readiness)

	r.Get("/doctors/{doctorID}/slots", listSlotsHandler(cfg.Availability, logger))
	r.Get("/doctors/{doctorID}/slots/available", listAvailableSlotsHandler(cfg.Availability, logger))

	r.Group(func(r chi.Router) {
		r.Use(Authenticate(cfg.Verifier))

		doctorOnly := RequireRole(cfg.Audit, auth.RoleDoctor)
		r.With(doctorOnly).Post("/doctors/{doctorID}/slots", createSlotHandler(cfg.Availability, logger))
		r.With(doctorOnly).Delete("/doctors/{doctorID}/slots/{slotID}", deleteSlotHandler(cfg.Availability, logger))

		r.With(RequireRole(cfg.Audit, auth.RolePatient)).Post("/consultations", bookConsultationHandler(cfg.Consultations, logger))
		r.Get("/consultations", listConsultationsHandler(cfg.Consultations, logger))
		r.Get("/consultations/{id}", getConsultationHandler(cfg.Consultations, logger))
		r.Put("/consultations/{id}", updateConsultationHandler(cfg.Consultations, logger))
		r.Post("/consultations/{id}/cancel", cancelConsultationHandler(cfg.Consultations, logger))

		r.With(RequireRole(cfg.Audit, auth.RoleAdmin)).Get("/audit-logs", listAuditLogsHandler(cfg.AuditLog, logger))
	})

	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.CORSOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type", "X-Request-ID"}),
		handlers.ExposedHeaders([]string{"X-Request-ID"}),
	)
	return cors(r)
}
