// Package auth implements bearer-token issuance and the authorization gate
// applied in front of protected routes.
package auth

import "time"

// Role is the server-side privilege level of an account. The stored role is
// authoritative; token claims never are.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAgent    Role = "agent"
	RoleAdmin    Role = "admin"
)

// Valid reports whether the role is one of the known levels.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleAgent, RoleAdmin:
		return true
	}
	return false
}

// User is the account view the auth module needs: identity, credentials
// and the authoritative role.
type User struct {
	ID           int64
	Email        string
	Name         string
	Role         Role
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal is the resolved per-request identity: the authenticated email
// plus the role currently stored for it.
type Principal struct {
	Email string
	Role  Role
}
