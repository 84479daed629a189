package repository

import (
	"github.com/rabbithole-social/rabbithole/app/models"
	"github.com/rabbithole-social/rabbithole/internal/pkg/cursor"
	"gorm.io/gorm"
)

// commentRepository implements the CommentRepository interface
type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new comment repository instance
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create creates a new comment in the database
func (r *commentRepository) Create(comment *models.Comment) error {
	return r.db.Create(comment).Error
}

// GetByID retrieves a comment by its ID, excluding deleted comments
func (r *commentRepository) GetByID(id string) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.Where("id = ?", id).First(&comment).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// Delete soft deletes a comment by its ID
func (r *commentRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&models.Comment{}).Error
}

// ListPageByPost returns one keyset page over a post's comments
func (r *commentRepository) ListPageByPost(postID string, cur *cursor.Cursor, limit int) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.Scopes(keysetScope(cur)).
		Where("post_id = ?", postID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&comments).Error
	return comments, err
}

// CountByPost returns the number of live comments on a post
func (r *commentRepository) CountByPost(postID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Comment{}).Where("post_id = ?", postID).Count(&count).Error
	return count, err
}
