package api

import (
	"errors"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"

	"github.com/hackgods/consultation-booking/internal/apperr"
	"github.com/hackgods/consultation-booking/internal/availability"
	"github.com/hackgods/consultation-booking/internal/consultation"
	"github.com/hackgods/consultation-booking/internal/doctor"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

type errorMapping struct {
	target error
	status int
	code   string
}

// domainErrors are checked in order before falling back to the error kind.
var domainErrors = []errorMapping{
	{consultation.ErrSlotAlreadyBooked, http.StatusConflict, "slot_already_booked"},
	{consultation.ErrSlotBeingBooked, http.StatusConflict, "slot_being_booked"},
	{consultation.ErrDoctorUnavailable, http.StatusBadRequest, "doctor_unavailable"},
	{consultation.ErrCannotCancel, http.StatusBadRequest, "cannot_cancel"},
	{consultation.ErrInvalidStatusTransition, http.StatusConflict, "invalid_status_transition"},
	{consultation.ErrConsultationNotFound, http.StatusNotFound, "consultation_not_found"},
	{doctor.ErrDoctorNotFound, http.StatusNotFound, "doctor_not_found"},
	{availability.ErrSlotNotFound, http.StatusNotFound, "slot_not_found"},
}

var kindErrors = []errorMapping{
	{apperr.ErrValidation, http.StatusBadRequest, "validation_error"},
	{apperr.ErrUnauthenticated, http.StatusUnauthorized, "unauthorized"},
	{apperr.ErrForbidden, http.StatusForbidden, "forbidden"},
	{apperr.ErrNotFound, http.StatusNotFound, "not_found"},
	{apperr.ErrConflict, http.StatusConflict, "conflict"},
}

// writeServiceError maps a service error to its response. Errors without a
// kind are logged and reported as a bare 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger logrus.FieldLogger, err error) {
	for _, m := range domainErrors {
		if errors.Is(err, m.target) {
			writeError(w, m.status, m.code, err.Error())
			return
		}
	}
	for _, m := range kindErrors {
		if errors.Is(err, m.target) {
			writeError(w, m.status, m.code, err.Error())
			return
		}
	}

	logger.WithFields(logrus.Fields{
		"request_id": GetRequestID(r.Context()),
		"method":     r.Method,
		"path":       r.URL.Path,
	}).WithError(err).Error("request failed")
	writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}
