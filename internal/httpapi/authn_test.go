package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"aline.org/internal/auth"
	"aline.org/internal/booking"
)

func TestAuthMiddlewareRejections(t *testing.T) {
	_, h, _ := newTestAPI(t)
	token := login(t, h, "alice")

	tests := []struct {
		name  string
		token string
	}{
		{"missing token", ""},
		{"garbage token", "not-a-jwt"},
		{"tampered token", token + "A"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSON(t, h, http.MethodGet, "/users", tt.token, nil)
			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rr.Code)
			}
			if got := rr.Header().Get("WWW-Authenticate"); got != "Token" {
				t.Fatalf("expected WWW-Authenticate: Token, got %q", got)
			}
		})
	}
}

func TestAuthMiddlewareUnknownSubject(t *testing.T) {
	_, h, dir := newTestAPI(t)
	token := login(t, h, "alice")

	// An account removed after issuance answers like a bad token.
	dir.mu.Lock()
	delete(dir.users, "alice")
	dir.mu.Unlock()

	if rr := doJSON(t, h, http.MethodGet, "/users", token, nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for deleted account, got %d", rr.Code)
	}
}

func TestAuthMiddlewareExpiredToken(t *testing.T) {
	api, h, _ := newTestAPI(t)

	// Issue directly with a short-TTL service sharing the same secret.
	shortLived, err := auth.NewTokenService("test-secret",
		auth.WithTTL(time.Second),
		auth.WithIssuer("aline"),
		auth.WithClock(func() time.Time { return time.Now().Add(-time.Hour) }))
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	p, err := api.dir.Lookup(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	token, _, err := shortLived.Issue(p)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if rr := doJSON(t, h, http.MethodGet, "/users", token, nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %d", rr.Code)
	}
}

func TestPublicPathsSkipAuth(t *testing.T) {
	_, h, _ := newTestAPI(t)

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		if rr := doJSON(t, h, http.MethodGet, path, "", nil); rr.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 without token, got %d", path, rr.Code)
		}
	}
}

func TestBearerTokenExtraction(t *testing.T) {
	hash, err := auth.HashPassword("pw")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	dir := &memDirectory{users: map[string]auth.Principal{
		"alice": {ID: 1, Username: "alice", PasswordHash: hash, Division: "sales", Roles: auth.NewRoleSet(auth.RoleUser)},
	}}
	tokens, err := auth.NewTokenService("test-secret", auth.WithIssuer("aline"))
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	bookings, err := booking.NewService(booking.NewInMemory(), dir)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	api := New(Options{
		Tokens:      tokens,
		Directory:   dir,
		Engine:      auth.NewEngine(dir),
		Bookings:    bookings,
		TokenHeader: "Authorization",
	})
	h := api.Handler()

	p, _ := dir.Lookup(context.Background(), "alice")
	token, _, err := tokens.Issue(p)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	send := func(authorization string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/users", nil)
		req.Header.Set("Authorization", authorization)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	// Bare token in the Authorization header is rejected.
	if rr := send(token); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without Bearer scheme, got %d", rr.Code)
	}
	if rr := send("Bearer " + token); rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with Bearer scheme, got %d: %s", rr.Code, rr.Body.String())
	}
}
