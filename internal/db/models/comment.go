package models

import (
	"time"
)

// MaxCommentLength is the upper bound on comment content.
const MaxCommentLength = 1000

// Comment is a visitor comment on a post. Comments are auto-approved on
// creation; the flag exists for forward compatibility only.
type Comment struct {
	ID     uint64 `gorm:"primaryKey" json:"id"`
	PostID uint64 `gorm:"index;not null" json:"post_id"`
	// Name is the visitor supplied display name.
	Name       string    `gorm:"size:100;not null" json:"name"`
	Content    string    `gorm:"size:1000;not null" json:"content"`
	IsApproved bool      `gorm:"not null;default:true" json:"is_approved"`
	CreatedAt  time.Time `json:"created_at"`
}

// CommentWithPost is a comment joined with its post title, for the admin
// moderation listing.
type CommentWithPost struct {
	Comment
	PostTitle string `json:"post_title"`
}
