package httpapi

import (
	"net/http"
	"strings"

	"aline.org/internal/auth"
	"aline.org/internal/obs"
)

var publicPaths = []string{
	"/auth/login",
	"/metrics",
	"/healthz",
	"/readyz",
}

// withAuth authenticates every non-public request: it extracts the token
// from the configured header, resolves the subject to a live principal
// and runs the full validation predicate (signature, subject, expiry,
// staleness). All failures collapse into one 401 so the response never
// leaks which check failed.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token := a.extractToken(r)
		if token == "" {
			unauthenticated(w, r)
			return
		}

		claims, err := a.tokens.Parse(token)
		if err != nil {
			unauthenticated(w, r)
			return
		}
		principal, err := a.dir.Lookup(r.Context(), claims.Subject)
		if err != nil {
			// Unknown subject is indistinguishable from a bad token.
			unauthenticated(w, r)
			return
		}
		if !a.tokens.Validate(token, principal) {
			unauthenticated(w, r)
			return
		}

		ctx := auth.ContextWithPrincipal(r.Context(), principal)
		ctx = auth.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *API) extractToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get(a.tokenHeader))
	if raw == "" {
		return ""
	}
	// When the token travels in the Authorization header it uses the
	// Bearer scheme; a dedicated header carries the bare token.
	if strings.EqualFold(a.tokenHeader, "Authorization") {
		const bearer = "Bearer "
		if !strings.HasPrefix(raw, bearer) {
			return ""
		}
		return strings.TrimSpace(raw[len(bearer):])
	}
	return raw
}

func unauthenticated(w http.ResponseWriter, r *http.Request) {
	obs.CountAuthFailure("unauthenticated")
	w.Header().Set("WWW-Authenticate", "Token")
	writeError(w, r, http.StatusUnauthorized, "unauthenticated")
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
