// internal/domain/user.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is a marketplace participant. The ID is the stable subject issued by
// the identity provider.
type User struct {
	ID          string          `db:"id" json:"id"`
	Email       string          `db:"email" json:"email"`
	DisplayName string          `db:"display_name" json:"display_name"`
	Username    *string         `db:"username" json:"username"` // nil until claimed
	Balance     decimal.Decimal `db:"balance" json:"balance"`   // NUMERIC(20, 4), never negative
	TimesBanned int             `db:"times_banned" json:"times_banned"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// NewUser creates a freshly provisioned user with a zero balance and no username.
func NewUser(id, email, displayName string) *User {
	now := time.Now().UTC()
	return &User{
		ID:          id,
		Email:       email,
		DisplayName: displayName,
		Balance:     decimal.Zero,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// HasUsername reports whether the user has claimed a handle.
func (u *User) HasUsername() bool {
	return u.Username != nil && *u.Username != ""
}
