package repository

import (
	"github.com/rabbithole-social/rabbithole/app/models"
	"gorm.io/gorm"
)

// userRepository implements the UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user in the database
func (r *userRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(id string) (*models.User, error) {
	var user models.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail retrieves a user by their email address
func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByUsername retrieves a user by their username
func (r *userRepository) GetByUsername(username string) (*models.User, error) {
	var user models.User
	err := r.db.Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update updates an existing user in the database
func (r *userRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// GetProfile returns existing profile data or creates defaults
func (r *userRepository) GetProfile(userID string) (*models.Profile, error) {
	return models.GetOrCreateProfile(r.db, userID)
}

// SaveProfile persists profile changes
func (r *userRepository) SaveProfile(profile *models.Profile) error {
	return r.db.Save(profile).Error
}

// GetProfileSummaries loads users and their profiles for the given ids and
// returns summaries keyed by user id. Ids without a matching user are absent
// from the result, not an error.
func (r *userRepository) GetProfileSummaries(userIDs []string) (map[string]ProfileSummary, error) {
	result := make(map[string]ProfileSummary, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	var users []models.User
	if err := r.db.Where("id IN ?", userIDs).Find(&users).Error; err != nil {
		return nil, err
	}

	var profiles []models.Profile
	if err := r.db.Where("user_id IN ?", userIDs).Find(&profiles).Error; err != nil {
		return nil, err
	}
	profileByUser := make(map[string]models.Profile, len(profiles))
	for _, p := range profiles {
		profileByUser[p.UserID] = p
	}

	for _, u := range users {
		summary := ProfileSummary{
			UserID:   u.ID,
			Username: u.Username,
		}
		if p, ok := profileByUser[u.ID]; ok {
			summary.DisplayName = p.DisplayName
			summary.Bio = p.Bio
			summary.AvatarURL = p.AvatarURL
			summary.CoverURL = p.CoverURL
			summary.AccentColor = p.AccentColor
			summary.IsPremium = p.IsPremium
		}
		result[u.ID] = summary
	}
	return result, nil
}
