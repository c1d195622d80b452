package models

import "time"

// SummaryPost is an append-only, unauthenticated record of a shared article
// summary. It has no relation to Post or User.
type SummaryPost struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Content      string    `gorm:"type:text;not null" json:"content"`
	Name         string    `gorm:"not null;default:Anonymous" json:"name"`
	SourceURL    string    `json:"source_url,omitempty"`
	OriginalText string    `gorm:"type:text" json:"original_text,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
