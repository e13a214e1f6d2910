// Package post provides CRUD operations for posts.
package post

import (
	"errors"

	"gorm.io/gorm"

	"github.com/podzol/podzol/internal/db/models"
)

var (
	// ErrPostNotFound is returned when a post does not exist.
	ErrPostNotFound = errors.New("post not found")
	// ErrInvalidType is returned when creating a post with an unknown type.
	ErrInvalidType = errors.New("invalid post type")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// List retrieves published posts, newest first, optionally filtered by type.
// Link posts are hidden unless includeLinks is set (admin listings pass true).
func List(db *gorm.DB, typeFilter string, includeLinks bool) ([]models.Post, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	query := db.Where("is_published = ?", true)

	if typeFilter != "" {
		query = query.Where("type = ?", typeFilter)
	} else if !includeLinks {
		query = query.Where("type != ?", models.PostTypeLink)
	}

	var posts []models.Post
	result := query.Order("created_at DESC").Find(&posts)
	if result.Error != nil {
		return nil, result.Error
	}

	return posts, nil
}

// Get retrieves a single published post.
func Get(db *gorm.DB, id uint64) (*models.Post, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var p models.Post
	result := db.Where("id = ? AND is_published = ?", id, true).First(&p)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, result.Error
	}

	return &p, nil
}

// Create inserts a new published post.
func Create(db *gorm.DB, p *models.Post) error {
	if db == nil {
		return ErrDBNil
	}
	if !models.ValidPostType(p.Type) {
		return ErrInvalidType
	}

	if p.Images == nil {
		p.Images = models.ImageList{}
	}

	p.IsPublished = true

	return db.Create(p).Error
}

// Update rewrites the editable fields of an existing post.
func Update(db *gorm.DB, id uint64, title, content, linkURL, linkTitle, linkDescription string) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Model(&models.Post{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"title":            title,
			"content":          content,
			"link_url":         linkURL,
			"link_title":       linkTitle,
			"link_description": linkDescription,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPostNotFound
	}

	return nil
}

// Delete removes a post and returns the stored image paths so the caller can
// delete the files best-effort.
func Delete(db *gorm.DB, id uint64) ([]string, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var p models.Post
	result := db.First(&p, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, result.Error
	}

	if err := db.Delete(&models.Post{}, id).Error; err != nil {
		return nil, err
	}

	return p.Images, nil
}
