// Package config loads the service configuration from the environment.
// Only values live here; anything unset falls back to a sane default,
// except the token secret, which is mandatory.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAddr        = ":8080"
	defaultTokenHeader = "X-Auth-Token"
	defaultTokenTTL    = time.Hour
	defaultRatePerSec  = 20
	defaultRateBurst   = 40
)

// Config holds the aline-api runtime configuration.
type Config struct {
	Addr        string
	PGDSN       string
	TokenSecret string
	TokenTTL    time.Duration
	TokenHeader string
	TokenIssuer string
	RatePerSec  int
	RateBurst   int
}

// FromEnv reads configuration from ALINE_* environment variables. A
// missing token secret is fatal: tokens signed with an empty secret would
// be forgeable.
func FromEnv() (Config, error) {
	cfg := Config{
		Addr:        envOr("ALINE_ADDR", defaultAddr),
		PGDSN:       strings.TrimSpace(os.Getenv("ALINE_PG_DSN")),
		TokenSecret: strings.TrimSpace(os.Getenv("ALINE_TOKEN_SECRET")),
		TokenHeader: envOr("ALINE_TOKEN_HEADER", defaultTokenHeader),
		TokenIssuer: envOr("ALINE_TOKEN_ISSUER", "aline"),
		TokenTTL:    defaultTokenTTL,
		RatePerSec:  defaultRatePerSec,
		RateBurst:   defaultRateBurst,
	}
	if cfg.TokenSecret == "" {
		return Config{}, errors.New("config: ALINE_TOKEN_SECRET is required")
	}
	if raw := strings.TrimSpace(os.Getenv("ALINE_TOKEN_TTL_SECONDS")); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			return Config{}, fmt.Errorf("config: invalid ALINE_TOKEN_TTL_SECONDS %q", raw)
		}
		cfg.TokenTTL = time.Duration(secs) * time.Second
	}
	if raw := strings.TrimSpace(os.Getenv("ALINE_RATE_PER_SECOND")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("config: invalid ALINE_RATE_PER_SECOND %q", raw)
		}
		cfg.RatePerSec = n
	}
	if raw := strings.TrimSpace(os.Getenv("ALINE_RATE_BURST")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("config: invalid ALINE_RATE_BURST %q", raw)
		}
		cfg.RateBurst = n
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
