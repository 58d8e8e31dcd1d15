package httpapi

import (
	"net/http"
	"strings"
	"time"

	"aline.org/internal/audit"
	"aline.org/internal/auth"
	"aline.org/internal/booking"
)

// userResponse is the outward projection of a user. The password hash
// never leaves the server.
type userResponse struct {
	ID       int64             `json:"id"`
	Username string            `json:"username"`
	Division string            `json:"division"`
	Roles    []string          `json:"roles"`
	Bookings []booking.Booking `json:"bookings,omitempty"`
}

func toUserResponse(p auth.Principal, bookings []booking.Booking) userResponse {
	return userResponse{
		ID:       p.ID,
		Username: p.Username,
		Division: p.Division,
		Roles:    p.Roles.Tags(),
		Bookings: bookings,
	}
}

func (a *API) handleUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		unauthenticated(w, r)
		return
	}

	// An empty name means the caller's own record, never a wildcard.
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		name = principal.Username
	}
	target, err := a.dir.Lookup(r.Context(), name)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if !auth.CanAccessUserData(&principal, &target) {
		forbidden(w, r)
		return
	}

	bookings, err := a.bookings.ListForUser(r.Context(), principal, name)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(target, bookings))
}

func (a *API) handleAllUsernames(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		unauthenticated(w, r)
		return
	}
	if !auth.IsFrontOffice(&principal) {
		forbidden(w, r)
		return
	}
	names, err := a.dir.ListUsernames(r.Context())
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

// handleForceLogout stamps the named account's last_logout, revoking all
// of its outstanding tokens. The gate re-resolves the caller so a TOP_DOG
// role revoked mid-session is honored immediately.
func (a *API) handleForceLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		unauthenticated(w, r)
		return
	}
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		writeError(w, r, http.StatusBadRequest, "name is required")
		return
	}
	if !a.engine.IsTopDog(r.Context(), principal.Username) {
		forbidden(w, r)
		return
	}
	if err := a.dir.TouchLogout(r.Context(), name, time.Now().UTC()); err != nil {
		handleDomainError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.force_logout", map[string]any{"username": name})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleDivisionUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		unauthenticated(w, r)
		return
	}

	division := strings.TrimSpace(r.URL.Query().Get("division"))
	if !auth.CanGetDivisionUsers(&principal, division) {
		forbidden(w, r)
		return
	}
	// The policy treats an empty division as "the caller's own"; resolve
	// it here before querying so the grant is never a wildcard.
	if division == "" {
		division = principal.Division
	}

	members, err := a.dir.ListByDivision(r.Context(), division)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	out := make([]userResponse, 0, len(members))
	for _, m := range members {
		out = append(out, toUserResponse(m, nil))
	}
	writeJSON(w, http.StatusOK, out)
}
