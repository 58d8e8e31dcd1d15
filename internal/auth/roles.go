package auth

import "strings"

// Role is a closed authority tag. Comparisons are exact and case-sensitive;
// free-form role strings from external input must go through ParseRole.
type Role string

const (
	RoleUser         Role = "USER"
	RoleDivisionHead Role = "DIVISION_HEAD"
	RoleFrontOffice  Role = "FRONT_OFFICE"
	RoleTopDog       Role = "TOP_DOG"
)

// rolePrecedence orders roles by authority, highest first. Used only for
// display/sorting; access decisions always test explicit role membership.
var rolePrecedence = map[Role]int{
	RoleTopDog:       4,
	RoleFrontOffice:  3,
	RoleDivisionHead: 2,
	RoleUser:         1,
}

// ParseRole maps a stored authority tag onto the closed Role set.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.TrimSpace(s)) {
	case RoleUser:
		return RoleUser, true
	case RoleDivisionHead:
		return RoleDivisionHead, true
	case RoleFrontOffice:
		return RoleFrontOffice, true
	case RoleTopDog:
		return RoleTopDog, true
	}
	return "", false
}

// Precedence returns the authority rank of the role, higher is stronger.
// Unknown roles rank below USER.
func (r Role) Precedence() int {
	return rolePrecedence[r]
}

// RoleSet is a set of role tags. The zero value is a valid empty set,
// meaning "no elevated authority".
type RoleSet map[Role]struct{}

// NewRoleSet builds a set from the given roles.
func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

// ParseRoleSet converts stored authority tags into a RoleSet, skipping
// anything outside the closed enumeration.
func ParseRoleSet(tags []string) RoleSet {
	set := make(RoleSet, len(tags))
	for _, tag := range tags {
		if role, ok := ParseRole(tag); ok {
			set[role] = struct{}{}
		}
	}
	return set
}

// Has reports set membership.
func (s RoleSet) Has(role Role) bool {
	_, ok := s[role]
	return ok
}

// Tags returns the roles as string tags ordered by precedence, highest first.
func (s RoleSet) Tags() []string {
	out := make([]string, 0, len(s))
	for _, r := range []Role{RoleTopDog, RoleFrontOffice, RoleDivisionHead, RoleUser} {
		if s.Has(r) {
			out = append(out, string(r))
		}
	}
	return out
}
