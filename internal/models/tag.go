package models

import "time"

// DefaultTagColor is used when a tag is created without a color.
const DefaultTagColor = "#3b82f6"

// Tag labels posts; the association lives in post_tags.
type Tag struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;uniqueIndex;not null" json:"name" yaml:"name"`
	Slug        string    `gorm:"size:120;uniqueIndex;not null" json:"slug" yaml:"slug"`
	Description string    `gorm:"type:text" json:"description" yaml:"description"`
	Color       string    `gorm:"size:7;not null;default:'#3b82f6'" json:"color" yaml:"color"`
	IsFeatured  bool      `gorm:"not null;default:false" json:"is_featured" yaml:"featured"`
	Posts       []Post    `gorm:"many2many:post_tags" json:"-" yaml:"-"`
	PostCount   int64     `gorm:"->;-:migration" json:"post_count" yaml:"-"`
	CreatedAt   time.Time `json:"created_at" yaml:"-"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"-"`
}
