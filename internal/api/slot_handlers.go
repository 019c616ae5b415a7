package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hackgods/consultation-booking/internal/availability"
)

func createSlotHandler(svc AvailabilityService, logger logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, ok := doctorIDParam(w, r)
		if !ok {
			return
		}

		var req CreateSlotRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.DayOfWeek == nil {
			writeError(w, http.StatusBadRequest, "validation_error", "dayOfWeek is required")
			return
		}

		spec := availability.SlotSpec{
			DayOfWeek:   *req.DayOfWeek,
			StartTime:   req.StartTime,
			EndTime:     req.EndTime,
			Timezone:    req.Timezone,
			IsRecurring: req.IsRecurring,
		}
		var err error
		if spec.ValidFrom, err = optionalDate(req.ValidFrom); err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", "validFrom must be a date")
			return
		}
		if spec.ValidUntil, err = optionalDate(req.ValidUntil); err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", "validUntil must be a date")
			return
		}

		slot, err := svc.CreateSlot(r.Context(), doctorID, principal(r), spec)
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}

		writeJSON(w, http.StatusCreated, newSlotResponse(*slot))
	}
}

func listSlotsHandler(svc AvailabilityService, logger logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, ok := doctorIDParam(w, r)
		if !ok {
			return
		}

		slots, err := svc.ListSlots(r.Context(), doctorID)
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}

		writeSlots(w, slots)
	}
}

func listAvailableSlotsHandler(svc AvailabilityService, logger logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, ok := doctorIDParam(w, r)
		if !ok {
			return
		}

		raw := r.URL.Query().Get("date")
		if raw == "" {
			writeError(w, http.StatusBadRequest, "validation_error", "date query parameter is required")
			return
		}
		date, err := availability.ParseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}

		slots, err := svc.ListAvailable(r.Context(), doctorID, date)
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}

		writeSlots(w, slots)
	}
}

func deleteSlotHandler(svc AvailabilityService, logger logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, ok := doctorIDParam(w, r)
		if !ok {
			return
		}
		slotID, err := uuid.Parse(chi.URLParam(r, "slotID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_slot_id", "slotID must be a valid UUID")
			return
		}

		if err := svc.DeleteSlot(r.Context(), slotID, doctorID, principal(r)); err != nil {
			writeServiceError(w, r, logger, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func writeSlots(w http.ResponseWriter, slots []availability.Slot) {
	resp := ListResponse[SlotResponse]{Items: make([]SlotResponse, 0, len(slots)), Count: len(slots)}
	for _, s := range slots {
		resp.Items = append(resp.Items, newSlotResponse(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

func doctorIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "doctorID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctorID must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

// optionalDate accepts YYYY-MM-DD or a full RFC 3339 timestamp.
func optionalDate(v *string) (*time.Time, error) {
	if v == nil || *v == "" {
		return nil, nil
	}
	if d, err := availability.ParseDate(*v); err == nil {
		return &d, nil
	}
	t, err := time.Parse(time.RFC3339, *v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
