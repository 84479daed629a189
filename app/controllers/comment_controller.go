package controllers

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/rabbithole-social/rabbithole/app/models"
	"github.com/rabbithole-social/rabbithole/app/repository"
	"github.com/rabbithole-social/rabbithole/internal/pkg/authz"
	"github.com/rabbithole-social/rabbithole/internal/pkg/events"
)

type commentRequest struct {
	Body string `json:"body"`
}

// HandleCreateComment adds a comment to a post for the logged-in user.
func HandleCreateComment(c *fiber.Ctx) error {
	guard := authz.NewGuard(repository.GetGlobalFactory().GetUserRepository())
	user, err := guard.RequireActiveActor(c, "")
	if err != nil {
		return respondServiceError(c, err)
	}

	post, err := repository.GetGlobalFactory().GetPostRepository().GetByID(c.Params("id"))
	if err != nil {
		return respondServiceError(c, err)
	}

	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "request body must be JSON")
	}
	req.Body = strings.TrimSpace(req.Body)
	if req.Body == "" {
		return jsonError(c, fiber.StatusUnprocessableEntity, "empty_comment", "a comment needs a body")
	}

	comment := &models.Comment{
		ID:     uuid.New().String(),
		PostID: post.ID,
		UserID: user.ID,
		Body:   req.Body,
	}
	if err := repository.GetGlobalFactory().GetCommentRepository().Create(comment); err != nil {
		log.Printf("create comment on post %s failed: %v", post.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "could not create comment")
	}

	events.Default().Publish(events.CommentCreated, comment.ID)
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// HandleDeleteComment soft-deletes a comment. The comment author or an admin
// may delete it.
func HandleDeleteComment(c *fiber.Ctx) error {
	comments := repository.GetGlobalFactory().GetCommentRepository()
	comment, err := comments.GetByID(c.Params("id"))
	if err != nil {
		return respondServiceError(c, err)
	}

	guard := authz.NewGuard(repository.GetGlobalFactory().GetUserRepository())
	if _, err := guard.RequireActiveActor(c, comment.UserID); err != nil {
		if !errors.Is(err, authz.ErrForbidden) {
			return respondServiceError(c, err)
		}
		if _, adminErr := guard.RequireAdmin(c); adminErr != nil {
			return respondServiceError(c, err)
		}
	}

	if err := comments.Delete(comment.ID); err != nil {
		log.Printf("delete comment %s failed: %v", comment.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "could not delete comment")
	}
	return c.JSON(fiber.Map{"ok": true})
}
