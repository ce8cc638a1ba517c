package timesheet

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/MrJamesThe3rd/timecard/internal/timesheet"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeError maps domain failures to status codes. Anything unrecognised is
// logged and reported as an internal error without detail.
func writeError(w http.ResponseWriter, err error) {
	status, code := http.StatusInternalServerError, "internal"

	switch {
	case errors.Is(err, timesheet.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, timesheet.ErrLocked):
		status, code = http.StatusLocked, "locked"
	case errors.Is(err, timesheet.ErrInvalidTransition):
		status, code = http.StatusConflict, "invalid_transition"
	case errors.Is(err, timesheet.ErrInvalidPeriod):
		status, code = http.StatusBadRequest, "invalid_period"
	case errors.Is(err, timesheet.ErrInvalidInput):
		status, code = http.StatusBadRequest, "bad_request"
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)

		msg = "internal error"
	}

	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
