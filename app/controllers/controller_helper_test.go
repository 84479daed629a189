package controllers

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rabbithole-social/rabbithole/app/models"
	"github.com/rabbithole-social/rabbithole/app/repository"
)

func TestIsDuplicateKeyError(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	users := repository.NewUserRepository(db)
	mk := func() *models.User {
		return &models.User{
			ID:       uuid.New().String(),
			Username: "taken_name",
			Email:    "taken@example.com",
			Password: "hashed",
		}
	}
	require.NoError(t, users.Create(mk()))

	// The second insert loses to the unique index, which the register
	// handler must answer with a conflict rather than a 500.
	err = users.Create(mk())
	require.Error(t, err)
	assert.True(t, isDuplicateKeyError(err))

	assert.False(t, isDuplicateKeyError(nil))
	assert.False(t, isDuplicateKeyError(fmt.Errorf("connection refused")))
}
