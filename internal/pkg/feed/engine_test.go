package feed

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
	"github.com/rabbithole-social/rabbithole/app/repository"
)

func setupEngine(t *testing.T) (*Engine, *gorm.DB) {
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
	return NewEngine(repository.NewRepositories(db)), db
}

func seedUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	user := &models.User{
		ID:       uuid.New().String(),
		Username: name,
		Email:    name + "@example.com",
		Password: "hashed",
	}
	require.NoError(t, db.Create(user).Error)
	require.NoError(t, db.Create(&models.Profile{UserID: user.ID, DisplayName: name, Plan: models.PlanFree}).Error)
	return user
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, ClampLimit(0))
	assert.Equal(t, DefaultLimit, ClampLimit(-3))
	assert.Equal(t, 1, ClampLimit(1))
	assert.Equal(t, MaxLimit, ClampLimit(51))
	assert.Equal(t, MaxLimit, ClampLimit(1000))
}

func TestGlobalPage_PaginationCoversAllPostsExactlyOnce(t *testing.T) {
	engine, db := setupEngine(t)
	author := seedUser(t, db, "alice")

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		post := &models.Post{
			ID:        uuid.New().String(),
			AuthorID:  author.ID,
			Body:      fmt.Sprintf("post %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(post).Error)
	}

	seen := make(map[string]bool)
	var sizes []int
	cursorToken := ""
	for i := 0; i < 10; i++ {
		page, err := engine.GlobalPage(cursorToken, 2)
		require.NoError(t, err)
		sizes = append(sizes, len(page.Posts))
		for _, post := range page.Posts {
			assert.False(t, seen[post.ID], "post %s returned twice", post.ID)
			seen[post.ID] = true
		}
		if page.NextCursor == "" {
			break
		}
		cursorToken = page.NextCursor
	}

	assert.Equal(t, []int{2, 2, 1}, sizes)
	assert.Len(t, seen, 5)
}

func TestGlobalPage_SharedTimestampTieBreak(t *testing.T) {
	engine, db := setupEngine(t)
	author := seedUser(t, db, "alice")

	// All posts share one created_at; only the id orders them.
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		post := &models.Post{
			ID:        fmt.Sprintf("00000000-0000-0000-0000-00000000000%d", i),
			AuthorID:  author.ID,
			Body:      fmt.Sprintf("post %d", i),
			CreatedAt: at,
		}
		require.NoError(t, db.Create(post).Error)
	}

	seen := make(map[string]bool)
	cursorToken := ""
	for i := 0; i < 10; i++ {
		page, err := engine.GlobalPage(cursorToken, 2)
		require.NoError(t, err)
		for _, post := range page.Posts {
			assert.False(t, seen[post.ID], "post %s returned twice", post.ID)
			seen[post.ID] = true
		}
		if page.NextCursor == "" {
			break
		}
		cursorToken = page.NextCursor
	}
	assert.Len(t, seen, 5)
}

func TestGlobalPage_GarbageCursorStartsFromTop(t *testing.T) {
	engine, db := setupEngine(t)
	author := seedUser(t, db, "alice")
	require.NoError(t, db.Create(&models.Post{
		ID: uuid.New().String(), AuthorID: author.ID, Body: "hello",
	}).Error)

	page, err := engine.GlobalPage("!!!not-base64!!!", 10)
	require.NoError(t, err)
	assert.Len(t, page.Posts, 1)
	assert.Empty(t, page.NextCursor)
}

func TestGlobalPage_ExcludesDeletedPosts(t *testing.T) {
	engine, db := setupEngine(t)
	author := seedUser(t, db, "alice")

	keep := &models.Post{ID: uuid.New().String(), AuthorID: author.ID, Body: "keep"}
	gone := &models.Post{ID: uuid.New().String(), AuthorID: author.ID, Body: "gone"}
	require.NoError(t, db.Create(keep).Error)
	require.NoError(t, db.Create(gone).Error)
	require.NoError(t, db.Delete(gone).Error)

	page, err := engine.GlobalPage("", 10)
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, keep.ID, page.Posts[0].ID)
}

func TestAuthorPage(t *testing.T) {
	engine, db := setupEngine(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	require.NoError(t, db.Create(&models.Post{ID: uuid.New().String(), AuthorID: alice.ID, Body: "a"}).Error)
	require.NoError(t, db.Create(&models.Post{ID: uuid.New().String(), AuthorID: bob.ID, Body: "b"}).Error)

	page, err := engine.AuthorPage(alice.ID, "", 10)
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, alice.ID, page.Posts[0].AuthorID)

	_, err = engine.AuthorPage("not-a-uuid", "", 10)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCommentsPage(t *testing.T) {
	engine, db := setupEngine(t)
	alice := seedUser(t, db, "alice")
	post := &models.Post{ID: uuid.New().String(), AuthorID: alice.ID, Body: "p"}
	require.NoError(t, db.Create(post).Error)

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, db.Create(&models.Comment{
			ID:        uuid.New().String(),
			PostID:    post.ID,
			UserID:    alice.ID,
			Body:      fmt.Sprintf("comment %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}).Error)
	}

	page, err := engine.CommentsPage(post.ID, "", 2)
	require.NoError(t, err)
	assert.Len(t, page.Comments, 2)
	require.NotEmpty(t, page.NextCursor)

	page, err = engine.CommentsPage(post.ID, page.NextCursor, 2)
	require.NoError(t, err)
	assert.Len(t, page.Comments, 1)
	assert.Empty(t, page.NextCursor)
}

func TestFollowPage_HydratesProfiles(t *testing.T) {
	engine, db := setupEngine(t)
	target := seedUser(t, db, "celeb")
	fan1 := seedUser(t, db, "fan1")
	fan2 := seedUser(t, db, "fan2")

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, fan := range []*models.User{fan1, fan2} {
		require.NoError(t, db.Create(&models.Edge{
			ID:        uuid.New().String(),
			ActorID:   fan.ID,
			TargetID:  target.ID,
			Kind:      models.EdgeKindFollow,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}).Error)
	}

	page, err := engine.FollowPage(Followers, target.ID, "", 10)
	require.NoError(t, err)
	require.Len(t, page.Profiles, 2)
	// Newest follow first.
	assert.Equal(t, "fan2", page.Profiles[0].Username)
	assert.Equal(t, "fan1", page.Profiles[1].Username)
	assert.Empty(t, page.NextCursor)
}

func TestFollowPage_DropsUnresolvableCounterparts(t *testing.T) {
	engine, db := setupEngine(t)
	target := seedUser(t, db, "celeb")
	fan := seedUser(t, db, "fan")

	require.NoError(t, db.Create(&models.Edge{
		ID: uuid.New().String(), ActorID: fan.ID, TargetID: target.ID, Kind: models.EdgeKindFollow,
	}).Error)
	// An edge from an account that no longer resolves.
	require.NoError(t, db.Create(&models.Edge{
		ID: uuid.New().String(), ActorID: uuid.New().String(), TargetID: target.ID, Kind: models.EdgeKindFollow,
	}).Error)

	page, err := engine.FollowPage(Followers, target.ID, "", 10)
	require.NoError(t, err)
	require.Len(t, page.Profiles, 1)
	assert.Equal(t, "fan", page.Profiles[0].Username)
}

func TestFollowPage_CursorAdvancesPastDroppedRows(t *testing.T) {
	engine, db := setupEngine(t)
	target := seedUser(t, db, "celeb")

	// A full page of unresolvable followers must still yield a cursor, so
	// callers can reach the resolvable rows behind it.
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		require.NoError(t, db.Create(&models.Edge{
			ID:        uuid.New().String(),
			ActorID:   uuid.New().String(),
			TargetID:  target.ID,
			Kind:      models.EdgeKindFollow,
			CreatedAt: base.Add(time.Duration(i+1) * time.Second),
		}).Error)
	}
	fan := seedUser(t, db, "fan")
	require.NoError(t, db.Create(&models.Edge{
		ID: uuid.New().String(), ActorID: fan.ID, TargetID: target.ID,
		Kind: models.EdgeKindFollow, CreatedAt: base,
	}).Error)

	page, err := engine.FollowPage(Followers, target.ID, "", 2)
	require.NoError(t, err)
	assert.Empty(t, page.Profiles)
	require.NotEmpty(t, page.NextCursor)

	page, err = engine.FollowPage(Followers, target.ID, page.NextCursor, 2)
	require.NoError(t, err)
	require.Len(t, page.Profiles, 1)
	assert.Equal(t, "fan", page.Profiles[0].Username)
}

func TestFollowPage_Following(t *testing.T) {
	engine, db := setupEngine(t)
	user := seedUser(t, db, "user")
	friend := seedUser(t, db, "friend")

	require.NoError(t, db.Create(&models.Edge{
		ID: uuid.New().String(), ActorID: user.ID, TargetID: friend.ID, Kind: models.EdgeKindFollow,
	}).Error)

	page, err := engine.FollowPage(Following, user.ID, "", 10)
	require.NoError(t, err)
	require.Len(t, page.Profiles, 1)
	assert.Equal(t, "friend", page.Profiles[0].Username)

	_, err = engine.FollowPage("sideways", user.ID, "", 10)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
