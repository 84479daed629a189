package repository

import (
	"sync"

	"gorm.io/gorm"
)

// Factory hands out lazily constructed repository singletons bound to one
// *gorm.DB.
type Factory struct {
	db    *gorm.DB
	repos *Repositories
	once  sync.Once
}

func NewFactory(db *gorm.DB) *Factory {
	return &Factory{db: db}
}

// GetRepositories builds the repository set on first use.
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db)
	})
	return f.repos
}

func (f *Factory) GetUserRepository() UserRepository {
	return f.GetRepositories().User
}

func (f *Factory) GetPostRepository() PostRepository {
	return f.GetRepositories().Post
}

func (f *Factory) GetCommentRepository() CommentRepository {
	return f.GetRepositories().Comment
}

func (f *Factory) GetEdgeRepository() EdgeRepository {
	return f.GetRepositories().Edge
}

var (
	globalFactory *Factory
	factoryOnce   sync.Once
)

// InitializeFactory wires the process-wide factory. Called once from main
// after the database connection is up; later calls are no-ops.
func InitializeFactory(db *gorm.DB) {
	factoryOnce.Do(func() {
		globalFactory = NewFactory(db)
	})
}

func GetGlobalFactory() *Factory {
	if globalFactory == nil {
		panic("repository factory not initialized, call InitializeFactory first")
	}
	return globalFactory
}

func GetGlobalRepositories() *Repositories {
	return GetGlobalFactory().GetRepositories()
}
