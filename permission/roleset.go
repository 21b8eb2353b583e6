package permission

import (
	"errors"
	"strings"
)

// RoleSet is an immutable set of allowed roles.
type RoleSet struct {
	mask  Mask64
	roles []Role
}

// NewRoleSet builds a set from roles. Duplicates are ignored; unknown roles
// and an empty list are rejected.
func NewRoleSet(roles ...Role) (RoleSet, error) {
	if len(roles) == 0 {
		return RoleSet{}, errors.New("role set must not be empty")
	}

	var set RoleSet
	for _, r := range roles {
		bit, ok := roleBits[r]
		if !ok {
			return RoleSet{}, errors.New("unknown role: " + string(r))
		}
		if set.mask.Has(bit) {
			continue
		}
		set.mask.Set(bit)
		set.roles = append(set.roles, r)
	}
	return set, nil
}

// Allows reports whether r is a member of the set. Unknown roles never match.
func (s RoleSet) Allows(r Role) bool {
	bit, ok := roleBits[r]
	if !ok {
		return false
	}
	return s.mask.Has(bit)
}

// Roles returns the members in insertion order.
func (s RoleSet) Roles() []Role {
	out := make([]Role, len(s.roles))
	copy(out, s.roles)
	return out
}

// Empty reports whether the set has no members.
func (s RoleSet) Empty() bool {
	return s.mask == 0
}

func (s RoleSet) String() string {
	names := make([]string, len(s.roles))
	for i, r := range s.roles {
		names[i] = string(r)
	}
	return "{" + strings.Join(names, ",") + "}"
}
