package model

import "time"

type Startup struct {
	ID          uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string     `gorm:"not null" json:"name"`
	Description string     `gorm:"not null" json:"description"`
	Industry    *string    `gorm:"index" json:"industry"`
	Stage       *string    `gorm:"index" json:"stage"` // e.g. "Idea", "MVP", "Growth"
	Website     *string    `json:"website"`
	LogoURL     *string    `json:"logo_url"`
	OwnerID     string     `gorm:"index;not null" json:"owner_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `gorm:"autoUpdateTime:false" json:"updated_at"`
}

// StartupFilter narrows down a startup listing. Empty fields match everything.
type StartupFilter struct {
	Industry string
	Stage    string
}

// StartupUpdate holds the fields of a partial update. Nil fields are left untouched.
type StartupUpdate struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Industry    *string `json:"industry"`
	Stage       *string `json:"stage"`
	Website     *string `json:"website"`
	LogoURL     *string `json:"logo_url"`
}

// Apply copies every set field of u onto s
func (u *StartupUpdate) Apply(s *Startup) {
	if u.Name != nil {
		s.Name = *u.Name
	}
	if u.Description != nil {
		s.Description = *u.Description
	}
	if u.Industry != nil {
		s.Industry = u.Industry
	}
	if u.Stage != nil {
		s.Stage = u.Stage
	}
	if u.Website != nil {
		s.Website = u.Website
	}
	if u.LogoURL != nil {
		s.LogoURL = u.LogoURL
	}
}
