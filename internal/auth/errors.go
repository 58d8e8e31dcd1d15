package auth

import "errors"

var (
	ErrNotFound       = errors.New("auth: user not found")
	ErrForbidden      = errors.New("auth: forbidden")
	ErrBadCredentials = errors.New("auth: bad credentials")

	// Token failures. Callers at the request boundary collapse all of
	// them into a single "unauthenticated" response; the distinction
	// exists so refresh can tell "re-authenticate" from "retry".
	ErrMalformedToken = errors.New("auth: malformed token")
	ErrExpiredToken   = errors.New("auth: expired token")
	ErrStaleToken     = errors.New("auth: stale token")
)
