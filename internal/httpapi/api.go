package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"aline.org/internal/auth"
	"aline.org/internal/booking"
	"aline.org/internal/obs"
)

// ReadyProbe reports whether the service dependencies are reachable.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Options wires the API's collaborators.
type Options struct {
	Tokens      *auth.TokenService
	Directory   auth.Directory
	Engine      *auth.Engine
	Bookings    *booking.Service
	ReadyProbe  ReadyProbe
	TokenHeader string
	RatePerSec  int
	RateBurst   int
	Version     string
}

// API is the HTTP layer. It authenticates each request once, resolves the
// principal and passes it explicitly to the domain services.
type API struct {
	mux         *http.ServeMux
	tokens      *auth.TokenService
	dir         auth.Directory
	engine      *auth.Engine
	bookings    *booking.Service
	readyProbe  ReadyProbe
	tokenHeader string
	ratePerSec  int
	rateBurst   int
	version     string
}

func New(opts Options) *API {
	a := &API{
		mux:         http.NewServeMux(),
		tokens:      opts.Tokens,
		dir:         opts.Directory,
		engine:      opts.Engine,
		bookings:    opts.Bookings,
		readyProbe:  opts.ReadyProbe,
		tokenHeader: opts.TokenHeader,
		ratePerSec:  opts.RatePerSec,
		rateBurst:   opts.RateBurst,
		version:     opts.Version,
	}
	if a.tokenHeader == "" {
		a.tokenHeader = "X-Auth-Token"
	}

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/auth/login", a.handleLogin)
	a.mux.HandleFunc("/auth/refresh", a.handleRefresh)
	a.mux.HandleFunc("/auth/logout", a.handleLogout)
	a.mux.HandleFunc("/auth/password", a.handlePasswordChange)

	a.mux.HandleFunc("/users", a.handleUser)
	a.mux.HandleFunc("/users/all", a.handleAllUsernames)
	a.mux.HandleFunc("/users/division", a.handleDivisionUsers)
	a.mux.HandleFunc("/users/logout", a.handleForceLogout)

	a.mux.HandleFunc("/bookings", a.handleBookings)
	a.mux.HandleFunc("/bookings/", a.handleBookingScoped)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wrapped http.Handler for the server.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withAuth(h)
	h = MaxBodyBytes(h, 1<<20)
	if a.ratePerSec > 0 {
		h = RateLimit(h, a.rateBurst, a.ratePerSec)
	}
	h = LoggingJSON(h)
	h = SecurityHeaders(h)
	h = CORS(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "aline-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := a.readyProbe.Check(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}
