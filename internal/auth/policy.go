package auth

import "context"

// Policy predicates. Every decision that gates a sensitive operation goes
// through one of these functions; they are pure, nil-safe and deny by
// default, so they can be unit-tested as plain functions of two in-memory
// values. They know nothing about HTTP, tokens or persistence.
//
// An empty username or division argument means "the caller's own", never
// "everyone": callers resolve the empty value to their own identity before
// invoking the downstream operation.

// CanAccessUserData reports whether the principal may read the target
// user's data: own data, division head of the target's division, or front
// office.
func CanAccessUserData(p, target *Principal) bool {
	return p != nil && target != nil &&
		(IsDivisionHeadForUser(p, target) || IsSelf(p, target) || IsFrontOffice(p))
}

// CanBookForUser reports whether the principal may create a booking for
// the named user. An empty username is a booking for the caller itself.
func CanBookForUser(p *Principal, username string) bool {
	if p == nil {
		return false
	}
	return username == "" || p.Username == username || IsFrontOffice(p)
}

// CanChangeBookingStatus reports whether the principal may grant or deny a
// booking owned by the given user: division head of the owner's division,
// or front office.
func CanChangeBookingStatus(p, bookingOwner *Principal) bool {
	return p != nil && bookingOwner != nil &&
		(IsDivisionHeadForUser(p, bookingOwner) || IsFrontOffice(p))
}

// CanDeleteBooking reports whether the principal may delete a booking
// owned by the given user: the owner itself, or front office.
func CanDeleteBooking(p, bookingOwner *Principal) bool {
	return p != nil && bookingOwner != nil &&
		(IsSelf(p, bookingOwner) || IsFrontOffice(p))
}

// CanGetDivisionUsers reports whether the principal may list the members
// of the requested division. Division heads may list their own division
// (an empty division resolves to their own); front office may list any.
func CanGetDivisionUsers(p *Principal, division string) bool {
	if p == nil {
		return false
	}
	return IsFrontOffice(p) ||
		(IsDivisionHead(p) && (division == "" || p.Division == division))
}

// IsDivisionHeadForUser reports whether the principal heads the division
// the target user belongs to.
func IsDivisionHeadForUser(p, target *Principal) bool {
	return p != nil && target != nil &&
		p.Roles.Has(RoleDivisionHead) && p.Division == target.Division
}

// IsSelf reports whether the target user record belongs to the principal.
func IsSelf(p, target *Principal) bool {
	return p != nil && target != nil && p.Username == target.Username
}

// IsFrontOffice reports front-office authority.
func IsFrontOffice(p *Principal) bool {
	return p != nil && p.Roles.Has(RoleFrontOffice)
}

// IsDivisionHead reports division-head authority.
func IsDivisionHead(p *Principal) bool {
	return p != nil && p.Roles.Has(RoleDivisionHead)
}

// Engine evaluates the one decision that needs to resolve a principal
// other than the caller.
type Engine struct {
	dir Directory
}

// NewEngine constructs a policy engine backed by the given directory.
func NewEngine(dir Directory) *Engine {
	return &Engine{dir: dir}
}

// IsTopDog reports whether the named account carries the TOP_DOG role.
// A failed lookup denies.
func (e *Engine) IsTopDog(ctx context.Context, username string) bool {
	if e == nil || e.dir == nil || username == "" {
		return false
	}
	p, err := e.dir.Lookup(ctx, username)
	if err != nil {
		return false
	}
	return p.Roles.Has(RoleTopDog)
}
