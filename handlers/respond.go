package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"budgettracker/apperr"
	"budgettracker/telemetry"
)

type envelope struct {
	OK      bool   `json:"ok"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{OK: true, Data: data})
}

// respondError renders err as {"ok":false,"code":...}. Errors outside the
// taxonomy are reported and surface as SERVER_ERROR.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperr.From(err)
	if appErr.Kind == apperr.KindInternal {
		telemetry.Capture(r.Context(), err, "Request failed")
	}
	writeJSON(w, appErr.Status(), envelope{OK: false, Code: appErr.Code})
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return apperr.Validation(apperr.CodeInvalidBody)
	}
	return nil
}
