package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hackgods/consultation-booking/internal/consultation"
)

func bookConsultationHandler(svc ConsultationService, logger logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookConsultationRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		doctorID, err := uuid.Parse(req.DoctorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctorId must be a valid UUID")
			return
		}

		d, err := svc.Book(r.Context(), principal(r), consultation.BookRequest{
			DoctorID:    doctorID,
			ScheduledAt: req.ScheduledAt,
			Type:        consultation.ConsultationType(req.ConsultationType),
			Symptoms:    req.Symptoms,
		})
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}

		writeJSON(w, http.StatusCreated, newDetailResponse(d))
	}
}

func listConsultationsHandler(svc ConsultationService, logger logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		var f consultation.ListFilter
		if v := q.Get("status"); v != "" {
			status := consultation.Status(v)
			f.Status = &status
		}

		var err error
		if f.Limit, err = intParam(q.Get("limit")); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		if f.Offset, err = intParam(q.Get("offset")); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_offset", "offset must be an integer")
			return
		}

		items, err := svc.List(r.Context(), principal(r), f)
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}

		resp := ListResponse[ConsultationResponse]{Items: make([]ConsultationResponse, 0, len(items)), Count: len(items)}
		for _, c := range items {
			resp.Items = append(resp.Items, newConsultationResponse(c))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getConsultationHandler(svc ConsultationService, logger logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := consultationID(w, r)
		if !ok {
			return
		}

		d, err := svc.Get(r.Context(), id, principal(r))
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, newDetailResponse(d))
	}
}

func updateConsultationHandler(svc ConsultationService, logger logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := consultationID(w, r)
		if !ok {
			return
		}

		var req UpdateConsultationRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		patch := consultation.Patch{
			Symptoms:  req.Symptoms,
			Diagnosis: req.Diagnosis,
			Notes:     req.Notes,
		}
		if req.Status != nil {
			status := consultation.Status(*req.Status)
			patch.Status = &status
		}

		d, err := svc.Update(r.Context(), id, principal(r), patch)
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, newDetailResponse(d))
	}
}

func cancelConsultationHandler(svc ConsultationService, logger logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := consultationID(w, r)
		if !ok {
			return
		}

		d, err := svc.Cancel(r.Context(), id, principal(r))
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, newDetailResponse(d))
	}
}

func consultationID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_consultation_id", "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

// intParam parses an optional integer query parameter; empty means zero.
func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
