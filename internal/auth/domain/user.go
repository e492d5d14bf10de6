package domain

import "time"

// Role is a coarse permission tier attached to a user. Access tokens carry
// the role set as claims, but guards always re-read roles from the
// repository so a role change takes effect before the token expires.
type Role string

const (
	RoleUser  Role = "USER"
	RoleStaff Role = "STAFF"
	RoleAdmin Role = "ADMIN"
)

type User struct {
	ID               string
	Email            string
	PasswordHash     string
	Roles            []Role
	RefreshTokenHash string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasAnyRole reports whether the user holds at least one of the given roles.
// An empty required set means no restriction.
func (u *User) HasAnyRole(required ...Role) bool {
	if len(required) == 0 {
		return true
	}
	for _, need := range required {
		for _, have := range u.Roles {
			if need == have {
				return true
			}
		}
	}
	return false
}

// TokenPair is the result of every login, refresh and OAuth callback.
// It is never mutated; a new pair replaces the old one wholesale.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}
