package controllers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/rabbithole-social/rabbithole/internal/pkg/authz"
	"github.com/rabbithole-social/rabbithole/internal/pkg/feed"
	"github.com/rabbithole-social/rabbithole/internal/pkg/social"
)

// pageParams reads the cursor/limit query pair shared by all list endpoints.
// A malformed limit falls back to 0, which the feed engine clamps to its
// default; a malformed cursor is handled downstream by the cursor codec.
func pageParams(c *fiber.Ctx) (string, int) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	return c.Query("cursor"), limit
}

func jsonError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": code, "message": message})
}

// respondServiceError maps the sentinel errors of the domain services onto
// HTTP responses. Anything unrecognized is a 500.
func respondServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, authz.ErrUnauthorized):
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "login required")
	case errors.Is(err, authz.ErrBanned):
		return jsonError(c, fiber.StatusForbidden, "banned", "account is banned")
	case errors.Is(err, authz.ErrForbidden):
		return jsonError(c, fiber.StatusForbidden, "forbidden", "not permitted")
	case errors.Is(err, social.ErrCannotFollowSelf):
		return jsonError(c, fiber.StatusUnprocessableEntity, "cannot_follow_self", "users cannot follow themselves")
	case errors.Is(err, social.ErrInvalidKind):
		return jsonError(c, fiber.StatusBadRequest, "invalid_kind", "unknown relation kind")
	case errors.Is(err, feed.ErrInvalidInput):
		return jsonError(c, fiber.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		return jsonError(c, fiber.StatusNotFound, "not_found", "resource not found")
	default:
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "something went wrong")
	}
}

// isDuplicateKeyError recognizes unique-index violations across the drivers
// we run against. GORM only translates them to ErrDuplicatedKey when the
// dialector has error translation enabled, so the raw messages are matched
// as a fallback.
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}
