package models

import "time"

// Collection is a named, user-owned bag of post references. PostIDs is an
// ordered jsonb list rather than a join table: membership is by reference
// only, duplicates are rejected on add, and ids left dangling by a post
// deletion are kept (resolution simply skips them).
type Collection struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	Name       string `gorm:"not null" json:"name"`
	UserID     uint   `gorm:"not null;index" json:"user_id"`
	PostIDs    []uint `gorm:"type:jsonb;serializer:json" json:"post_ids"`
	IsPrivate  bool   `gorm:"default:true" json:"is_private"`
	CoverPhoto string `json:"cover_photo"`

	// Posts holds the resolved member records on read paths; it is never
	// persisted.
	Posts []Post `gorm:"-" json:"posts,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Contains reports whether postID is already a member.
func (c *Collection) Contains(postID uint) bool {
	for _, id := range c.PostIDs {
		if id == postID {
			return true
		}
	}
	return false
}
