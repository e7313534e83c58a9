// Package users manages accounts: registration, profiles, the agent
// directory and admin role changes. The stored role here is what every
// authorization decision is derived from.
package users

import (
	"time"

	"github.com/aegis-life/aegis-api/internal/auth"
)

// User represents an account.
type User struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Role        auth.Role `json:"role"`
	PhotoURL    string    `json:"photoURL,omitempty"`
	Experience  string    `json:"experience,omitempty"`
	Specialties []string  `json:"specialties,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
