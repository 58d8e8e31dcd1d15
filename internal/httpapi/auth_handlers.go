package httpapi

import (
	"net/http"
	"strings"
	"time"

	"aline.org/internal/audit"
	"aline.org/internal/auth"
	"aline.org/internal/obs"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type passwordChangeRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		unauthenticated(w, r)
		return
	}
	principal, err := a.dir.Lookup(r.Context(), username)
	if err != nil {
		// Unknown user and wrong password answer identically.
		unauthenticated(w, r)
		return
	}
	if err := auth.VerifyPassword(principal.PasswordHash, req.Password); err != nil {
		unauthenticated(w, r)
		return
	}

	token, expiresAt, err := a.tokens.Issue(principal)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "token issuance failed")
		return
	}
	obs.CountTokenIssued("login")
	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"username":   username,
		"expires_at": expiresAt.Format(time.RFC3339),
	})
	writeJSON(w, http.StatusOK, tokenResponse{Token: token, ExpiresAt: expiresAt})
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	principal, ok := auth.PrincipalFromContext(r.Context())
	token, tok := auth.TokenFromContext(r.Context())
	if !ok || !tok {
		unauthenticated(w, r)
		return
	}

	// The reset boundary is the live value fetched for this request, not
	// a client-supplied one.
	refreshed, expiresAt, err := a.tokens.Refresh(token, principal.LastPasswordReset)
	if err != nil {
		unauthenticated(w, r)
		return
	}
	obs.CountTokenIssued("refresh")
	_ = audit.LogEvent(r.Context(), "auth.refresh", map[string]any{
		"expires_at": expiresAt.Format(time.RFC3339),
	})
	writeJSON(w, http.StatusOK, tokenResponse{Token: refreshed, ExpiresAt: expiresAt})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		unauthenticated(w, r)
		return
	}
	// Stamping last_logout invalidates every token issued before now.
	if err := a.dir.TouchLogout(r.Context(), principal.Username, time.Now().UTC()); err != nil {
		handleDomainError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.logout", nil)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handlePasswordChange(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		unauthenticated(w, r)
		return
	}
	var req passwordChangeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := auth.VerifyPassword(principal.PasswordHash, req.OldPassword); err != nil {
		unauthenticated(w, r)
		return
	}
	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid password")
		return
	}
	// The reset timestamp retroactively invalidates all earlier tokens,
	// including the one authenticating this request.
	if err := a.dir.TouchPasswordReset(r.Context(), principal.Username, hash, time.Now().UTC()); err != nil {
		handleDomainError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.password_change", nil)
	w.WriteHeader(http.StatusNoContent)
}
