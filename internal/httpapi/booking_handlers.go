package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"aline.org/internal/audit"
	"aline.org/internal/auth"
)

type bookingRequest struct {
	SeminarID int64  `json:"seminar_id"`
	Username  string `json:"username"`
}

func (a *API) handleBookings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		unauthenticated(w, r)
		return
	}
	var req bookingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.SeminarID <= 0 {
		writeError(w, r, http.StatusBadRequest, "seminar_id is required")
		return
	}

	b, err := a.bookings.Book(r.Context(), principal, req.SeminarID, strings.TrimSpace(req.Username))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "booking.created", map[string]any{
		"booking_id": b.ID,
		"seminar_id": b.SeminarID,
		"username":   b.Username,
	})
	writeJSON(w, http.StatusCreated, b)
}

// handleBookingScoped routes /bookings/{id}, /bookings/{id}/grant,
// /bookings/{id}/deny and /bookings/seminar/{id}.
func (a *API) handleBookingScoped(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		unauthenticated(w, r)
		return
	}

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/bookings/"), "/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	parts := strings.Split(path, "/")

	if parts[0] == "seminar" {
		if len(parts) != 2 {
			writeError(w, r, http.StatusNotFound, "resource not found")
			return
		}
		seminarID, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			writeError(w, r, http.StatusNotFound, "resource not found")
			return
		}
		a.listSeminarBookings(w, r, principal, seminarID)
		return
	}

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch {
	case len(parts) == 1:
		switch r.Method {
		case http.MethodGet:
			a.getBooking(w, r, id)
		case http.MethodDelete:
			a.deleteBooking(w, r, principal, id)
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodDelete)
		}
	case len(parts) == 2 && parts[1] == "grant":
		a.changeBookingStatus(w, r, principal, id, true)
	case len(parts) == 2 && parts[1] == "deny":
		a.changeBookingStatus(w, r, principal, id, false)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) getBooking(w http.ResponseWriter, r *http.Request, id int64) {
	b, err := a.bookings.Get(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (a *API) changeBookingStatus(w http.ResponseWriter, r *http.Request, principal auth.Principal, id int64, grant bool) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var (
		b     any
		err   error
		event string
	)
	if grant {
		b, err = a.bookings.Grant(r.Context(), principal, id)
		event = "booking.granted"
	} else {
		b, err = a.bookings.Deny(r.Context(), principal, id)
		event = "booking.denied"
	}
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), event, map[string]any{"booking_id": id})
	writeJSON(w, http.StatusOK, b)
}

func (a *API) deleteBooking(w http.ResponseWriter, r *http.Request, principal auth.Principal, id int64) {
	if err := a.bookings.Delete(r.Context(), principal, id); err != nil {
		handleDomainError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "booking.deleted", map[string]any{"booking_id": id})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listSeminarBookings(w http.ResponseWriter, r *http.Request, principal auth.Principal, seminarID int64) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	list, err := a.bookings.ListForSeminar(r.Context(), principal, seminarID)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
