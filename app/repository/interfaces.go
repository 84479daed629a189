package repository

import (
	"github.com/rabbithole-social/rabbithole/app/models"
	"github.com/rabbithole-social/rabbithole/internal/pkg/cursor"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	Update(user *models.User) error
	GetProfile(userID string) (*models.Profile, error)
	SaveProfile(profile *models.Profile) error
	GetProfileSummaries(userIDs []string) (map[string]ProfileSummary, error)
}

// PostRepository defines the interface for post-related database operations.
// List methods implement keyset pagination ordered (created_at DESC, id DESC)
// and always exclude soft-deleted rows.
type PostRepository interface {
	Create(post *models.Post) error
	GetByID(id string) (*models.Post, error)
	Update(post *models.Post) error
	Delete(id string) error
	ListPage(cur *cursor.Cursor, limit int) ([]models.Post, error)
	ListPageByAuthor(authorID string, cur *cursor.Cursor, limit int) ([]models.Post, error)
	CountByAuthor(authorID string) (int64, error)
}

// CommentRepository defines the interface for comment operations
type CommentRepository interface {
	Create(comment *models.Comment) error
	GetByID(id string) (*models.Comment, error)
	Delete(id string) error
	ListPageByPost(postID string, cur *cursor.Cursor, limit int) ([]models.Comment, error)
	CountByPost(postID string) (int64, error)
}

// EdgeRepository defines the interface for relation-edge operations. Upsert
// relies on the unique (actor_id, target_id, kind) index, so concurrent
// identical upserts converge to a single row.
type EdgeRepository interface {
	Upsert(edge *models.Edge) error
	Delete(actorID, targetID, kind string) error
	Exists(actorID, targetID, kind string) (bool, error)
	CountByTarget(targetID, kind string) (int64, error)
	CountByActor(actorID, kind string) (int64, error)
	ListPageByTarget(targetID, kind string, cur *cursor.Cursor, limit int) ([]models.Edge, error)
	ListPageByActor(actorID, kind string, cur *cursor.Cursor, limit int) ([]models.Edge, error)
}

// ProfileSummary is the hydrated counterpart shape returned for follow lists.
type ProfileSummary struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio"`
	AvatarURL   string `json:"avatar_url"`
	CoverURL    string `json:"cover_url"`
	AccentColor string `json:"accent_color"`
	IsPremium   bool   `json:"is_premium"`
}

// Repositories struct holds all repository instances
type Repositories struct {
	User    UserRepository
	Post    PostRepository
	Comment CommentRepository
	Edge    EdgeRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:    NewUserRepository(db),
		Post:    NewPostRepository(db),
		Comment: NewCommentRepository(db),
		Edge:    NewEdgeRepository(db),
	}
}
