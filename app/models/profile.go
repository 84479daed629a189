package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	PlanFree         = "free"
	PlanGoldenCarrot = "golden_carrot"
)

// Profile stores per-user presentation data plus the cached premium
// projection maintained by the billing reconciler.
type Profile struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      string         `gorm:"uniqueIndex;type:varchar(36)" json:"user_id"`
	DisplayName string         `gorm:"type:varchar(100)" json:"display_name" validate:"max=100"`
	Bio         string         `gorm:"type:text" json:"bio" validate:"max=1000"`
	AvatarURL   string         `gorm:"type:varchar(255)" json:"avatar_url" validate:"max=255"`
	CoverURL    string         `gorm:"type:varchar(255)" json:"cover_url" validate:"max=255"`
	AccentColor string         `gorm:"type:varchar(16)" json:"accent_color" validate:"max=16"`
	Plan        string         `gorm:"type:varchar(50);default:'free'" json:"plan"`
	IsPremium   bool           `gorm:"default:false;index" json:"is_premium"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// GetOrCreateProfile returns the existing profile or creates a default one.
func GetOrCreateProfile(db *gorm.DB, userID string) (*Profile, error) {
	var p Profile
	if err := db.Where("user_id = ?", userID).First(&p).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			p = Profile{UserID: userID, Plan: PlanFree}
			if err := db.Create(&p).Error; err != nil {
				return nil, err
			}
			return &p, nil
		}
		return nil, err
	}
	return &p, nil
}
