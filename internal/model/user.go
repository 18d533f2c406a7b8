// Package model defines database models
package model

import "time"

type User struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"` // Always stored lowercased
	Username     string    `gorm:"not null" json:"username"`
	FullName     *string   `json:"full_name"`
	PasswordHash string    `json:"-"` // Empty for users that only ever used magic links
	IsActive     bool      `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserProfile holds the fields a user can change on their own profile. Nil
// fields are left untouched.
type UserProfile struct {
	Username *string `json:"username"`
	FullName *string `json:"full_name"`
}
