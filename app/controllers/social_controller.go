package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rabbithole-social/rabbithole/app/models"
	"github.com/rabbithole-social/rabbithole/app/repository"
	"github.com/rabbithole-social/rabbithole/internal/pkg/authz"
	"github.com/rabbithole-social/rabbithole/internal/pkg/events"
	"github.com/rabbithole-social/rabbithole/internal/pkg/social"
)

func socialService() *social.Service {
	return social.NewService(repository.GetGlobalFactory().GetEdgeRepository(), events.Default())
}

// HandleSetFollow turns the caller's follow edge to a user on.
func HandleSetFollow(c *fiber.Ctx) error {
	return setFollow(c, true)
}

// HandleClearFollow turns the caller's follow edge to a user off.
func HandleClearFollow(c *fiber.Ctx) error {
	return setFollow(c, false)
}

func setFollow(c *fiber.Ctx, on bool) error {
	guard := authz.NewGuard(repository.GetGlobalFactory().GetUserRepository())
	actor, err := guard.RequireActiveActor(c, "")
	if err != nil {
		return respondServiceError(c, err)
	}

	target, err := repository.GetGlobalFactory().GetUserRepository().GetByID(c.Params("id"))
	if err != nil {
		return respondServiceError(c, err)
	}

	state, err := socialService().SetEdge(actor.ID, target.ID, models.EdgeKindFollow, on)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"kind": models.EdgeKindFollow, "on": state})
}

// HandleSetPostRelation turns a like/bookmark/repost edge to a post on. The
// relation kind comes from the route.
func HandleSetPostRelation(c *fiber.Ctx) error {
	return setPostRelation(c, true)
}

// HandleClearPostRelation turns a like/bookmark/repost edge to a post off.
func HandleClearPostRelation(c *fiber.Ctx) error {
	return setPostRelation(c, false)
}

func setPostRelation(c *fiber.Ctx, on bool) error {
	kind := c.Params("kind")
	switch kind {
	case models.EdgeKindLike, models.EdgeKindBookmark, models.EdgeKindRepost:
	default:
		return jsonError(c, fiber.StatusBadRequest, "invalid_kind", "relation must be like, bookmark or repost")
	}

	guard := authz.NewGuard(repository.GetGlobalFactory().GetUserRepository())
	actor, err := guard.RequireActiveActor(c, "")
	if err != nil {
		return respondServiceError(c, err)
	}

	post, err := repository.GetGlobalFactory().GetPostRepository().GetByID(c.Params("id"))
	if err != nil {
		return respondServiceError(c, err)
	}

	state, err := socialService().SetEdge(actor.ID, post.ID, kind, on)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"kind": kind, "on": state})
}
