package model

import "time"

type Resource struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `gorm:"not null" json:"description"`
	Category    string    `gorm:"index;not null" json:"category"` // e.g. "Funding", "Learning", "Tools"
	URL         *string   `json:"url"`
	Content     *string   `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
	Views       int64     `gorm:"default:0" json:"views"`
}
