package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"aline.org/internal/auth"
	"aline.org/internal/booking"
	"aline.org/internal/config"
	"aline.org/internal/httpapi"
	"aline.org/internal/obs"
)

var version = "0.3.1"

func main() {
	obs.Init()
	obs.InitBuildInfo(version)

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if cfg.PGDSN == "" {
		log.Fatal("ALINE_PG_DSN is required: the user directory and bookings live in Postgres")
	}
	db, err := sql.Open("pgx", cfg.PGDSN)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	tokens, err := auth.NewTokenService(cfg.TokenSecret,
		auth.WithTTL(cfg.TokenTTL),
		auth.WithIssuer(cfg.TokenIssuer),
	)
	if err != nil {
		log.Fatalf("token service: %v", err)
	}

	dir := auth.NewPGDirectory(db)
	store := booking.NewPGStore(db)
	bookings, err := booking.NewService(store, dir, booking.WithSeminarGate(store))
	if err != nil {
		log.Fatalf("booking service: %v", err)
	}

	api := httpapi.New(httpapi.Options{
		Tokens:      tokens,
		Directory:   dir,
		Engine:      auth.NewEngine(dir),
		Bookings:    bookings,
		ReadyProbe:  httpapi.ReadyProbe{DB: db},
		TokenHeader: cfg.TokenHeader,
		RatePerSec:  cfg.RatePerSec,
		RateBurst:   cfg.RateBurst,
		Version:     version,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting aline-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	_ = db.Close()
	log.Println("Stopped")
}
