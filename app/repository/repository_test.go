package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rabbithole-social/rabbithole/app/models"
	"github.com/rabbithole-social/rabbithole/internal/pkg/cursor"
)

func setupRepoDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Profile{},
		&models.Post{}, &models.PostImage{},
		&models.Comment{}, &models.Edge{},
	))
	return db
}

func TestEdgeRepository_UpsertConvergesToOneRow(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewEdgeRepository(db)
	actor, target := uuid.New().String(), uuid.New().String()

	for i := 0; i < 3; i++ {
		err := repo.Upsert(&models.Edge{
			ID:       uuid.New().String(),
			ActorID:  actor,
			TargetID: target,
			Kind:     models.EdgeKindFollow,
		})
		require.NoError(t, err)
	}

	var count int64
	require.NoError(t, db.Model(&models.Edge{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestEdgeRepository_DeleteMissingIsNoOp(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewEdgeRepository(db)

	assert.NoError(t, repo.Delete(uuid.New().String(), uuid.New().String(), models.EdgeKindLike))
}

func TestPostRepository_KeysetScopeTieBreak(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewPostRepository(db)

	// Three posts at the same instant; the page boundary falls between rows
	// that only the id distinguishes.
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	ids := []string{
		"00000000-0000-0000-0000-000000000001",
		"00000000-0000-0000-0000-000000000002",
		"00000000-0000-0000-0000-000000000003",
	}
	for i, id := range ids {
		require.NoError(t, db.Create(&models.Post{
			ID: id, AuthorID: uuid.New().String(),
			Body: fmt.Sprintf("post %d", i), CreatedAt: at,
		}).Error)
	}

	first, err := repo.ListPage(nil, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, ids[2], first[0].ID)
	assert.Equal(t, ids[1], first[1].ID)

	last := first[len(first)-1]
	second, err := repo.ListPage(&cursor.Cursor{SortKey: last.CreatedAt, TieBreakID: last.ID}, 2)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, ids[0], second[0].ID)
}

func TestPostRepository_ImagesOrderedByPosition(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewPostRepository(db)

	post := &models.Post{
		ID:       uuid.New().String(),
		AuthorID: uuid.New().String(),
		Body:     "with images",
		Images: []models.PostImage{
			{Position: 1, URL: "https://cdn.example.com/b.webp"},
			{Position: 0, URL: "https://cdn.example.com/a.webp"},
		},
	}
	require.NoError(t, repo.Create(post))

	got, err := repo.GetByID(post.ID)
	require.NoError(t, err)
	require.Len(t, got.Images, 2)
	assert.Equal(t, "https://cdn.example.com/a.webp", got.Images[0].URL)
	assert.Equal(t, "https://cdn.example.com/b.webp", got.Images[1].URL)
}

func TestPostRepository_UpdateReplacesImageSet(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewPostRepository(db)

	post := &models.Post{
		ID:       uuid.New().String(),
		AuthorID: uuid.New().String(),
		Body:     "before edit",
		Images: []models.PostImage{
			{Position: 0, URL: "https://cdn.example.com/a.webp"},
			{Position: 1, URL: "https://cdn.example.com/b.webp"},
		},
	}
	require.NoError(t, repo.Create(post))

	// The edit drops a.webp. The stored set must shrink, not accumulate.
	post.Body = "after edit"
	post.Images = []models.PostImage{
		{Position: 0, URL: "https://cdn.example.com/b.webp"},
	}
	require.NoError(t, repo.Update(post))

	got, err := repo.GetByID(post.ID)
	require.NoError(t, err)
	assert.Equal(t, "after edit", got.Body)
	require.Len(t, got.Images, 1)
	assert.Equal(t, "https://cdn.example.com/b.webp", got.Images[0].URL)

	// Repeated edits stay bounded by the request payload.
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Update(got))
		var count int64
		require.NoError(t, db.Model(&models.PostImage{}).Where("post_id = ?", post.ID).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	}
}

func TestUserRepository_GetProfileSummaries(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewUserRepository(db)

	user := &models.User{
		ID: uuid.New().String(), Username: "alice",
		Email: "alice@example.com", Password: "hashed",
	}
	require.NoError(t, repo.Create(user))
	require.NoError(t, db.Create(&models.Profile{
		UserID: user.ID, DisplayName: "Alice", Plan: models.PlanGoldenCarrot, IsPremium: true,
	}).Error)

	missing := uuid.New().String()
	summaries, err := repo.GetProfileSummaries([]string{user.ID, missing})
	require.NoError(t, err)

	// Unknown ids are absent, not an error.
	require.Len(t, summaries, 1)
	summary := summaries[user.ID]
	assert.Equal(t, "alice", summary.Username)
	assert.Equal(t, "Alice", summary.DisplayName)
	assert.True(t, summary.IsPremium)
}

func TestCommentRepository_ListPageByPost(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewCommentRepository(db)
	postID := uuid.New().String()

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, db.Create(&models.Comment{
			ID: uuid.New().String(), PostID: postID, UserID: uuid.New().String(),
			Body: fmt.Sprintf("c%d", i), CreatedAt: base.Add(time.Duration(i) * time.Second),
		}).Error)
	}
	// A comment on a different post stays out of the page.
	require.NoError(t, db.Create(&models.Comment{
		ID: uuid.New().String(), PostID: uuid.New().String(), UserID: uuid.New().String(), Body: "other",
	}).Error)

	comments, err := repo.ListPageByPost(postID, nil, 10)
	require.NoError(t, err)
	assert.Len(t, comments, 3)
	assert.Equal(t, "c2", comments[0].Body)

	count, err := repo.CountByPost(postID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}
