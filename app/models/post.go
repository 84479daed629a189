package models

import (
	"time"

	"gorm.io/gorm"
)

// Post is an authored piece of content. DeletedAt doubles as the
// Active|Deleted lifecycle tag; all read paths exclude deleted rows.
type Post struct {
	ID        string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	AuthorID  string         `gorm:"type:varchar(36);index:idx_posts_author" json:"author_id"`
	Author    User           `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Body      string         `gorm:"type:text" json:"body"`
	Images    []PostImage    `gorm:"foreignKey:PostID" json:"images,omitempty"`
	ViewCount int64          `gorm:"default:0" json:"view_count"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index:idx_posts_created" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// PostImage is one media descriptor of a post, ordered by Position.
type PostImage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    string    `gorm:"type:varchar(36);index" json:"post_id"`
	Position  int       `gorm:"not null;default:0" json:"position"`
	URL       string    `gorm:"type:varchar(500);not null" json:"url" validate:"required,max=500"`
	Width     int       `json:"width,omitempty"`
	Height    int       `json:"height,omitempty"`
	AltText   string    `gorm:"type:varchar(500)" json:"alt_text,omitempty" validate:"max=500"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
