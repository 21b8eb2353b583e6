package permission

import (
	"fmt"
	"strings"
)

// Role is an account role.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// roleBits assigns each known role a stable bit.
var roleBits = map[Role]int{
	RoleUser:  0,
	RoleAdmin: 1,
}

// ParseRole normalizes s and rejects unknown roles.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := roleBits[r]
	return ok
}

func (r Role) String() string {
	return string(r)
}

// Roles returns every known role in bit order.
func Roles() []Role {
	return []Role{RoleUser, RoleAdmin}
}
