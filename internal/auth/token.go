package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const defaultTokenTTL = time.Hour

// Claims are the verified contents of a session token.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenService issues, parses, validates and refreshes the stateless
// signed session tokens that prove a user's identity. The signing secret
// and TTL are immutable process-wide configuration; the service holds no
// per-session state, so concurrent calls need no locking.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// TokenOption configures TokenService behavior.
type TokenOption func(*TokenService)

// WithTTL configures token lifetime.
func WithTTL(ttl time.Duration) TokenOption {
	return func(s *TokenService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithIssuer sets the issuer claim stamped into and required from tokens.
func WithIssuer(issuer string) TokenOption {
	return func(s *TokenService) {
		s.issuer = strings.TrimSpace(issuer)
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) TokenOption {
	return func(s *TokenService) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewTokenService constructs a TokenService. A missing secret is a
// configuration error and must abort startup.
func NewTokenService(secret string, opts ...TokenOption) (*TokenService, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("auth: token secret is not configured")
	}
	svc := &TokenService{
		secret: []byte(secret),
		ttl:    defaultTokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// TTL returns the configured token lifetime.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue signs a fresh token for the principal. No side effects beyond
// token construction.
func (s *TokenService) Issue(p Principal) (string, time.Time, error) {
	return s.issue(p.Username)
}

func (s *TokenService) issue(subject string) (string, time.Time, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", time.Time{}, errors.New("auth: token subject is required")
	}
	now := s.now().UTC()
	exp := now.Add(s.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Parse verifies the signature and decodes the claims. It fails only for
// tampered or corrupt input; expiry and staleness are checked separately
// so that refresh can distinguish the cases.
func (s *TokenService) Parse(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, ErrMalformedToken
	}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	parsed, err := parser.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS512 {
			return nil, ErrMalformedToken
		}
		return s.secret, nil
	})
	if err != nil {
		return Claims{}, ErrMalformedToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, ErrMalformedToken
	}
	if strings.TrimSpace(claims.Subject) == "" || claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return Claims{}, ErrMalformedToken
	}
	if s.issuer != "" && claims.Issuer != s.issuer {
		return Claims{}, ErrMalformedToken
	}
	return *claims, nil
}

// IsExpired reports whether the token's lifetime has passed.
func (s *TokenService) IsExpired(claims Claims) bool {
	return !s.now().Before(claims.ExpiresAt.Time)
}

// IsStale reports whether a token issued at the given instant predates an
// account-level security event. This check substitutes for a server-side
// revocation list: a password reset or explicit logout retroactively
// invalidates every earlier token.
func (s *TokenService) IsStale(issuedAt time.Time, p Principal) bool {
	if p.LastPasswordReset != nil && issuedAt.Before(*p.LastPasswordReset) {
		return true
	}
	if p.LastLogout != nil && issuedAt.Before(*p.LastLogout) {
		return true
	}
	return false
}

// Validate is the authentication predicate: the token parses, belongs to
// the principal, is not expired and not stale. It never returns an error;
// any failure maps onto "reject the request".
func (s *TokenService) Validate(token string, p Principal) bool {
	claims, err := s.Parse(token)
	if err != nil {
		return false
	}
	if claims.Subject != p.Username {
		return false
	}
	if s.IsExpired(claims) {
		return false
	}
	return !s.IsStale(claims.IssuedAt.Time, p)
}

// Refresh re-issues a token with a fresh lifetime for the same subject.
// The caller supplies the account's current password-reset instant so a
// token nearing expiry cannot be refreshed past a reset boundary. Failures
// are distinct: malformed input means re-authenticate, expired or stale
// means the session is over.
func (s *TokenService) Refresh(token string, lastPasswordReset *time.Time) (string, time.Time, error) {
	claims, err := s.Parse(token)
	if err != nil {
		return "", time.Time{}, err
	}
	if s.IsExpired(claims) {
		return "", time.Time{}, ErrExpiredToken
	}
	if lastPasswordReset != nil && claims.IssuedAt.Time.Before(*lastPasswordReset) {
		return "", time.Time{}, ErrStaleToken
	}
	return s.issue(claims.Subject)
}
