package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"aline.org/internal/audit"
	"aline.org/internal/auth"
	"aline.org/internal/booking"
	"aline.org/internal/obs"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := audit.RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// forbidden rejects a request that failed a policy check, distinct from
// "unauthenticated" and "not found".
func forbidden(w http.ResponseWriter, r *http.Request) {
	obs.CountAuthFailure("forbidden")
	writeError(w, r, http.StatusForbidden, "forbidden")
}

// handleDomainError maps service errors onto the error taxonomy: policy
// denials are 403, unknown targets are 404, everything unexpected is an
// opaque 500.
func handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrForbidden):
		forbidden(w, r)
	case errors.Is(err, auth.ErrNotFound),
		errors.Is(err, booking.ErrNotFound),
		errors.Is(err, booking.ErrSeminarNotFound):
		writeError(w, r, http.StatusNotFound, "resource not found")
	case errors.Is(err, booking.ErrNotBookable):
		writeError(w, r, http.StatusBadRequest, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
