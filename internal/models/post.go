package models

import (
	"time"

	"gorm.io/gorm"
)

// Post is a shared, generated-image artifact.
//
// UserID is nullable: anonymous posts are allowed. ParentID is a plain indexed
// column with no foreign key constraint; deleting a parent leaves children with
// a dangling reference, and lineage queries tolerate that rather than treating
// it as corruption.
type Post struct {
	ID       uint     `gorm:"primaryKey" json:"id"`
	Name     string   `gorm:"not null" json:"name"`
	Prompt   string   `gorm:"type:text;not null" json:"prompt"`
	Model    string   `gorm:"not null;index" json:"model"`
	PhotoURL string   `gorm:"not null" json:"photo"`
	Likes    int      `gorm:"default:0" json:"likes"`
	UserID   *uint    `gorm:"index" json:"user_id,omitempty"`
	ParentID *uint    `gorm:"index" json:"parent_id,omitempty"`
	Colors   []string `gorm:"type:jsonb;serializer:json" json:"colors"`

	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Lineage is the one-hop family of a post: its parent (nil when absent or
// dangling), the post itself, and every post that names it as parent.
type Lineage struct {
	Parent   *Post  `json:"parent"`
	Current  *Post  `json:"current"`
	Children []Post `json:"children"`
}
