package models

import (
	"time"

	"gorm.io/gorm"
)

type Comment struct {
	ID        string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	PostID    string         `gorm:"type:varchar(36);index" json:"post_id"`
	UserID    string         `gorm:"type:varchar(36);index" json:"user_id"`
	User      User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Body      string         `gorm:"type:text" json:"body" validate:"required,min=1,max=2000"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
