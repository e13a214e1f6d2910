// Package comment provides CRUD operations for visitor comments.
package comment

import (
	"errors"

	"gorm.io/gorm"

	"github.com/podzol/podzol/internal/db/models"
)

var (
	// ErrCommentNotFound is returned when a comment does not exist.
	ErrCommentNotFound = errors.New("comment not found")
	// ErrNameRequired is returned when the visitor name is missing.
	ErrNameRequired = errors.New("name is required")
	// ErrContentRequired is returned when the comment text is missing.
	ErrContentRequired = errors.New("comment content is required")
	// ErrContentTooLong is returned when the comment exceeds the length limit.
	ErrContentTooLong = errors.New("comment too long")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// ListApproved retrieves the approved comments of a post, oldest first.
func ListApproved(db *gorm.DB, postID uint64) ([]models.Comment, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var comments []models.Comment
	result := db.Where("post_id = ? AND is_approved = ?", postID, true).
		Order("created_at ASC, id ASC").
		Find(&comments)
	if result.Error != nil {
		return nil, result.Error
	}

	return comments, nil
}

// Create inserts a new comment. Comments are auto-approved; the flag exists
// in the schema for forward compatibility only.
func Create(db *gorm.DB, postID uint64, name, content string) (*models.Comment, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if name == "" {
		return nil, ErrNameRequired
	}
	if content == "" {
		return nil, ErrContentRequired
	}
	if len([]rune(content)) > models.MaxCommentLength {
		return nil, ErrContentTooLong
	}

	c := &models.Comment{
		PostID:     postID,
		Name:       name,
		Content:    content,
		IsApproved: true,
	}

	if err := db.Create(c).Error; err != nil {
		return nil, err
	}

	return c, nil
}

// ListAll retrieves every comment across posts joined with the post title,
// newest first. Admin only.
func ListAll(db *gorm.DB) ([]models.CommentWithPost, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var comments []models.CommentWithPost
	result := db.Table("comments").
		Select("comments.*, posts.title AS post_title").
		Joins("LEFT JOIN posts ON comments.post_id = posts.id").
		Order("comments.created_at DESC, comments.id DESC").
		Scan(&comments)
	if result.Error != nil {
		return nil, result.Error
	}

	return comments, nil
}

// Delete removes a comment.
func Delete(db *gorm.DB, id uint64) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Delete(&models.Comment{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCommentNotFound
	}

	return nil
}
