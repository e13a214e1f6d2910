// Package models contains database model definitions.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Post types.
const (
	PostTypeStatus   = "status"
	PostTypeLongform = "longform"
	PostTypeImage    = "image"
	PostTypeLink     = "link"
)

// ValidPostType reports whether t is one of the known post types.
func ValidPostType(t string) bool {
	switch t {
	case PostTypeStatus, PostTypeLongform, PostTypeImage, PostTypeLink:
		return true
	}

	return false
}

// ImageList is an ordered sequence of stored image paths, persisted as a JSON
// array in a text column. A NULL or empty column reads as an empty list.
type ImageList []string

// Value implements driver.Valuer.
func (l ImageList) Value() (driver.Value, error) {
	if l == nil {
		l = ImageList{}
	}

	out, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}

	return string(out), nil
}

// Scan implements sql.Scanner.
func (l *ImageList) Scan(value interface{}) error {
	if value == nil {
		*l = ImageList{}
		return nil
	}

	var raw []byte

	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported image list column type %T", value)
	}

	if len(raw) == 0 {
		*l = ImageList{}
		return nil
	}

	return json.Unmarshal(raw, l)
}

// Post represents a published entry, owned exclusively by the admin.
type Post struct {
	ID uint64 `gorm:"primaryKey" json:"id"`
	// Type is one of status, longform, image or link.
	Type    string `gorm:"size:20;not null" json:"type"`
	Title   string `gorm:"size:255" json:"title"`
	Content string `json:"content"`
	// Images holds the stored paths of uploaded images, in upload order.
	Images ImageList `gorm:"type:text" json:"images"`
	// Link fields are only meaningful for link posts.
	LinkURL         string `gorm:"column:link_url;size:2048" json:"link_url"`
	LinkTitle       string `gorm:"column:link_title;size:255" json:"link_title"`
	LinkDescription string `gorm:"column:link_description" json:"link_description"`
	// IsPublished is always true; there is no draft workflow.
	IsPublished bool      `gorm:"not null;default:true" json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
