package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hackgods/consultation-booking/internal/audit"
)

func listAuditLogsHandler(log AuditLog, logger logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		f := audit.Filter{
			Action:       q.Get("action"),
			ResourceType: q.Get("resourceType"),
		}
		if v := q.Get("userId"); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_user_id", "userId must be a valid UUID")
				return
			}
			f.UserID = &id
		}
		for name, dst := range map[string]**time.Time{"from": &f.From, "to": &f.To} {
			v := q.Get(name)
			if v == "" {
				continue
			}
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "validation_error", name+" must be an RFC 3339 timestamp")
				return
			}
			*dst = &t
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

		events, err := log.List(r.Context(), f)
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}

		resp := ListResponse[AuditLogResponse]{Items: make([]AuditLogResponse, 0, len(events)), Count: len(events)}
		for _, ev := range events {
			resp.Items = append(resp.Items, newAuditLogResponse(ev))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
