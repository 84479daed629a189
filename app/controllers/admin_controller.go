package controllers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/rabbithole-social/rabbithole/app/repository"
	"github.com/rabbithole-social/rabbithole/internal/pkg/authz"
	"github.com/rabbithole-social/rabbithole/internal/pkg/events"
)

type banRequest struct {
	// Duration of the ban in hours. Zero or missing means permanent
	// (a hundred years out).
	Hours int `json:"hours"`
}

// HandleAdminBanUser sets a user's ban window. Banned users keep their
// session but fail every guarded mutation until the window elapses.
func HandleAdminBanUser(c *fiber.Ctx) error {
	guard := authz.NewGuard(repository.GetGlobalFactory().GetUserRepository())
	admin, err := guard.RequireAdmin(c)
	if err != nil {
		return respondServiceError(c, err)
	}

	users := repository.GetGlobalFactory().GetUserRepository()
	target, err := users.GetByID(c.Params("id"))
	if err != nil {
		return respondServiceError(c, err)
	}
	if target.ID == admin.ID {
		return jsonError(c, fiber.StatusUnprocessableEntity, "cannot_ban_self", "admins cannot ban themselves")
	}

	var req banRequest
	_ = c.BodyParser(&req)

	until := time.Now().Add(100 * 365 * 24 * time.Hour)
	if req.Hours > 0 {
		until = time.Now().Add(time.Duration(req.Hours) * time.Hour)
	}
	target.BannedUntil = &until

	if err := users.Update(target); err != nil {
		log.Printf("ban user %s failed: %v", target.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "could not ban user")
	}

	events.Default().Publish(events.UserBanned, target.ID)
	return c.JSON(fiber.Map{"ok": true, "banned_until": until})
}

// HandleAdminUnbanUser clears a user's ban window.
func HandleAdminUnbanUser(c *fiber.Ctx) error {
	guard := authz.NewGuard(repository.GetGlobalFactory().GetUserRepository())
	if _, err := guard.RequireAdmin(c); err != nil {
		return respondServiceError(c, err)
	}

	users := repository.GetGlobalFactory().GetUserRepository()
	target, err := users.GetByID(c.Params("id"))
	if err != nil {
		return respondServiceError(c, err)
	}

	target.BannedUntil = nil
	if err := users.Update(target); err != nil {
		log.Printf("unban user %s failed: %v", target.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "could not unban user")
	}

	events.Default().Publish(events.UserUnbanned, target.ID)
	return c.JSON(fiber.Map{"ok": true})
}

// HandleAdminDeletePost force-deletes any post.
func HandleAdminDeletePost(c *fiber.Ctx) error {
	guard := authz.NewGuard(repository.GetGlobalFactory().GetUserRepository())
	if _, err := guard.RequireAdmin(c); err != nil {
		return respondServiceError(c, err)
	}

	posts := repository.GetGlobalFactory().GetPostRepository()
	post, err := posts.GetByID(c.Params("id"))
	if err != nil {
		return respondServiceError(c, err)
	}
	if err := posts.Delete(post.ID); err != nil {
		log.Printf("admin delete post %s failed: %v", post.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "could not delete post")
	}

	events.Default().Publish(events.PostDeleted, post.ID)
	return c.JSON(fiber.Map{"ok": true})
}
