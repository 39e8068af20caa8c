package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/xavierca1/leadflow/internal/infra/http/middleware"
	"github.com/xavierca1/leadflow/internal/usecase"
)

type ErrorResponse struct {
	Success bool                      `json:"success"`
	Code    string                    `json:"code,omitempty"`
	Message string                    `json:"message"`
	Errors  []usecase.ValidationError `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Success: false, Message: msg})
}

// writeError maps usecase errors to status codes: validation 422,
// precondition 409, missing session 404, foreign session 403, CRM failure
// 502.
func writeError(w http.ResponseWriter, err error) {
	var verrs usecase.ValidationErrors
	var de *usecase.DomainError
	var te *usecase.TechnicalError

	switch {
	case errors.As(err, &verrs):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Code:    "validation_failed",
			Message: "Please fix the highlighted fields",
			Errors:  verrs,
		})
	case errors.As(err, &de):
		status := http.StatusConflict
		switch de.Code {
		case usecase.CodeSessionNotFound:
			status = http.StatusNotFound
		case usecase.CodeSessionForbidden:
			status = http.StatusForbidden
		}
		writeJSON(w, status, ErrorResponse{Code: de.Code, Message: de.Message})
	case errors.As(err, &te):
		middleware.RecordIntegrationError("crm")
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Code: te.Code, Message: te.Message})
	default:
		writeMessage(w, http.StatusInternalServerError, "Internal error")
	}
}

func leadIDParam(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "leadId"))
	return id, err == nil && id > 0
}

func credential(r *http.Request) string {
	return strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
}

// actorID reads the acting user from X-User-Id.
func actorID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.Header.Get("X-User-Id"))
	return id, err == nil && id > 0
}

// callerOf identifies the request for the session registry. A missing actor
// is kept as zero and never matches a session owner.
func callerOf(r *http.Request) usecase.Caller {
	id, _ := actorID(r)
	return usecase.Caller{Credential: credential(r), ActorID: id}
}

// rawNumber accepts a JSON number or string and keeps its text, so "100.50"
// and 100.50 validate the same way.
type rawNumber string

func (n *rawNumber) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*n = rawNumber(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*n = rawNumber(num.String())
	return nil
}
