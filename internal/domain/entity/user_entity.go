package entity

import (
	"encoding/json"
	"time"
)

// UserProfile is the application-level user record kept in the users table.
// ID always equals the id of the identity it was created for. Nil pointer
// fields are NULL columns.
type UserProfile struct {
	ID          string
	Username    *string
	Email       *string
	Balance     *float64
	Role        *string
	Permissions []string
	CreatedAt   time.Time
}

// NewProfile builds the row inserted at signup.
func NewProfile(identityID, username, email string, now time.Time) *UserProfile {
	balance := 0.0
	role := DefaultRole
	return &UserProfile{
		ID:        identityID,
		Username:  &username,
		Email:     &email,
		Balance:   &balance,
		Role:      &role,
		CreatedAt: now.UTC(),
	}
}

func (u *UserProfile) GetUsername() string { return deref(u.Username) }

func (u *UserProfile) GetEmail() string { return deref(u.Email) }

func (u *UserProfile) GetRole() string { return deref(u.Role) }

func (u *UserProfile) GetBalance() float64 {
	if u.Balance == nil {
		return 0
	}
	return *u.Balance
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Credentials are request scoped and never persisted by this service.
type Credentials struct {
	Email    string
	Password string
}

// Identity is the identity provider's account record, reduced to what this
// service reads from it.
type Identity struct {
	ID       string
	Email    string
	Metadata map[string]any
}

// AuthResult pairs an identity with the opaque session bundle issued for it.
// Session is nil when the provider issued no session (e.g. signup pending
// email confirmation).
type AuthResult struct {
	Identity Identity
	Session  json.RawMessage
}

// OrphanedIdentity records an identity whose profile row could not be created.
type OrphanedIdentity struct {
	IdentityID string    `json:"identity_id"`
	Email      string    `json:"email"`
	Username   string    `json:"username"`
	Reason     string    `json:"reason"`
	CreatedAt  time.Time `json:"created_at"`
}
