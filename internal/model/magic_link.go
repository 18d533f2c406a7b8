package model

import "time"

// MagicLink is a single-use passwordless login token. It's deleted the
// moment it's redeemed and is never valid past ExpiresAt.
type MagicLink struct {
	Token     string    `gorm:"primaryKey" json:"token"`
	Email     string    `gorm:"index;not null" json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
}

// Expired reports whether the link can no longer be redeemed at t
func (m *MagicLink) Expired(t time.Time) bool {
	return t.After(m.ExpiresAt)
}
