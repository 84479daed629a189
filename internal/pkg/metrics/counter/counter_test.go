package counter

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rabbithole-social/rabbithole/app/models"
	"github.com/rabbithole-social/rabbithole/internal/pkg/cache"
	"github.com/rabbithole-social/rabbithole/internal/pkg/database"
)

func setupCounter(t *testing.T) *gorm.DB {
	t.Helper()
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Post{}))
	database.SetDB(db)
	return db
}

func TestFlushAll_AppliesPendingViews(t *testing.T) {
	db := setupCounter(t)

	post := &models.Post{ID: uuid.New().String(), AuthorID: uuid.New().String(), Body: "p"}
	require.NoError(t, db.Create(post).Error)

	for i := 0; i < 3; i++ {
		require.NoError(t, AddPostView(post.ID))
	}
	require.NoError(t, FlushAll())

	var got models.Post
	require.NoError(t, db.First(&got, "id = ?", post.ID).Error)
	assert.Equal(t, int64(3), got.ViewCount)

	// A second flush with nothing pending changes nothing.
	require.NoError(t, FlushAll())
	require.NoError(t, db.First(&got, "id = ?", post.ID).Error)
	assert.Equal(t, int64(3), got.ViewCount)
}

func TestFlushAll_EmptyIsNoOp(t *testing.T) {
	setupCounter(t)
	assert.NoError(t, FlushAll())
}
