package repository

import (
	"github.com/rabbithole-social/rabbithole/app/models"
	"github.com/rabbithole-social/rabbithole/internal/pkg/cursor"
	"gorm.io/gorm"
)

// postRepository implements the PostRepository interface
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository instance
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// Create creates a new post in the database
func (r *postRepository) Create(post *models.Post) error {
	return r.db.Create(post).Error
}

// GetByID retrieves a post with its images, excluding deleted posts
func (r *postRepository) GetByID(id string) (*models.Post, error) {
	var post models.Post
	err := r.db.Preload("Images", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Where("id = ?", id).First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// Update persists an edited post. The image set is replaced wholesale:
// stale PostImage rows are removed first, otherwise Save only upserts the
// incoming slice and removed images would survive the edit.
func (r *postRepository) Update(post *models.Post) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.PostImage{}).Error; err != nil {
			return err
		}
		for i := range post.Images {
			post.Images[i].ID = 0
			post.Images[i].PostID = post.ID
		}
		return tx.Save(post).Error
	})
}

// Delete soft deletes a post by its ID
func (r *postRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&models.Post{}).Error
}

// keysetScope constrains a query to rows strictly before the cursor position
// in (created_at DESC, id DESC) order. The compound predicate tie-breaks on
// id so rows sharing a timestamp at a page boundary are neither skipped nor
// duplicated.
func keysetScope(cur *cursor.Cursor) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if cur == nil {
			return db
		}
		return db.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			cur.SortKey, cur.SortKey, cur.TieBreakID,
		)
	}
}

// ListPage returns one keyset page over all posts
func (r *postRepository) ListPage(cur *cursor.Cursor, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.Scopes(keysetScope(cur)).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

// ListPageByAuthor returns one keyset page over a single author's posts
func (r *postRepository) ListPageByAuthor(authorID string, cur *cursor.Cursor, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.Scopes(keysetScope(cur)).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("author_id = ?", authorID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

// CountByAuthor returns the number of live posts by an author
func (r *postRepository) CountByAuthor(authorID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Post{}).Where("author_id = ?", authorID).Count(&count).Error
	return count, err
}
