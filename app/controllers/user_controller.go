package controllers

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/rabbithole-social/rabbithole/app/repository"
	"github.com/rabbithole-social/rabbithole/internal/pkg/authz"
	"github.com/rabbithole-social/rabbithole/internal/pkg/usercontext"
)

type profileRequest struct {
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio"`
	AvatarURL   string `json:"avatar_url"`
	CoverURL    string `json:"cover_url"`
	AccentColor string `json:"accent_color"`
}

// HandleGetUser returns a user's public profile summary with follow stats.
// The is_following flag reflects the caller when logged in.
func HandleGetUser(c *fiber.Ctx) error {
	users := repository.GetGlobalFactory().GetUserRepository()
	user, err := users.GetByID(c.Params("id"))
	if err != nil {
		return respondServiceError(c, err)
	}

	summaries, err := users.GetProfileSummaries([]string{user.ID})
	if err != nil {
		return respondServiceError(c, err)
	}
	summary, ok := summaries[user.ID]
	if !ok {
		return jsonError(c, fiber.StatusNotFound, "not_found", "profile not found")
	}

	stats, err := socialService().GetFollowStats(user.ID, usercontext.GetUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"profile": summary, "stats": stats})
}

// HandleUpdateProfile updates the logged-in user's own profile fields.
func HandleUpdateProfile(c *fiber.Ctx) error {
	guard := authz.NewGuard(repository.GetGlobalFactory().GetUserRepository())
	user, err := guard.RequireActiveActor(c, "")
	if err != nil {
		return respondServiceError(c, err)
	}

	var req profileRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "request body must be JSON")
	}

	users := repository.GetGlobalFactory().GetUserRepository()
	profile, err := users.GetProfile(user.ID)
	if err != nil {
		return respondServiceError(c, err)
	}

	profile.DisplayName = strings.TrimSpace(req.DisplayName)
	profile.Bio = strings.TrimSpace(req.Bio)
	profile.AvatarURL = strings.TrimSpace(req.AvatarURL)
	profile.CoverURL = strings.TrimSpace(req.CoverURL)
	profile.AccentColor = strings.TrimSpace(req.AccentColor)

	if err := users.SaveProfile(profile); err != nil {
		log.Printf("update profile for user %s failed: %v", user.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "could not update profile")
	}
	return c.JSON(profile)
}
