package controllers

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/rabbithole-social/rabbithole/app/models"
	"github.com/rabbithole-social/rabbithole/app/repository"
	"github.com/rabbithole-social/rabbithole/internal/pkg/authz"
	"github.com/rabbithole-social/rabbithole/internal/pkg/entitlements"
	"github.com/rabbithole-social/rabbithole/internal/pkg/events"
	"github.com/rabbithole-social/rabbithole/internal/pkg/metrics/counter"
	"github.com/rabbithole-social/rabbithole/internal/pkg/social"
	"github.com/rabbithole-social/rabbithole/internal/pkg/usercontext"
)

type postImageRequest struct {
	URL     string `json:"url"`
	AltText string `json:"alt_text"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

type postRequest struct {
	Body   string             `json:"body"`
	Images []postImageRequest `json:"images"`
}

// HandleCreatePost creates a post for the logged-in user, bounded by the
// author's plan entitlements.
func HandleCreatePost(c *fiber.Ctx) error {
	guard := authz.NewGuard(repository.GetGlobalFactory().GetUserRepository())
	user, err := guard.RequireActiveActor(c, "")
	if err != nil {
		return respondServiceError(c, err)
	}

	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "request body must be JSON")
	}
	req.Body = strings.TrimSpace(req.Body)
	if req.Body == "" && len(req.Images) == 0 {
		return jsonError(c, fiber.StatusUnprocessableEntity, "empty_post", "a post needs a body or images")
	}

	plan := entitlements.Normalize(usercontext.GetUserContext(c).Plan)
	if msg := checkPostBounds(plan, req); msg != "" {
		return jsonError(c, fiber.StatusUnprocessableEntity, "plan_limit_exceeded", msg)
	}

	post := &models.Post{
		ID:       uuid.New().String(),
		AuthorID: user.ID,
		Body:     req.Body,
		Images:   buildPostImages(req.Images),
	}
	if err := repository.GetGlobalFactory().GetPostRepository().Create(post); err != nil {
		log.Printf("create post failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "could not create post")
	}

	events.Default().Publish(events.PostCreated, post.ID)
	return c.Status(fiber.StatusCreated).JSON(post)
}

// HandleUpdatePost edits a post's body and images; only the author may edit.
func HandleUpdatePost(c *fiber.Ctx) error {
	posts := repository.GetGlobalFactory().GetPostRepository()
	post, err := posts.GetByID(c.Params("id"))
	if err != nil {
		return respondServiceError(c, err)
	}

	guard := authz.NewGuard(repository.GetGlobalFactory().GetUserRepository())
	if _, err := guard.RequireActiveActor(c, post.AuthorID); err != nil {
		return respondServiceError(c, err)
	}

	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "request body must be JSON")
	}
	req.Body = strings.TrimSpace(req.Body)
	if req.Body == "" && len(req.Images) == 0 {
		return jsonError(c, fiber.StatusUnprocessableEntity, "empty_post", "a post needs a body or images")
	}

	plan := entitlements.Normalize(usercontext.GetUserContext(c).Plan)
	if msg := checkPostBounds(plan, req); msg != "" {
		return jsonError(c, fiber.StatusUnprocessableEntity, "plan_limit_exceeded", msg)
	}

	post.Body = req.Body
	post.Images = buildPostImages(req.Images)
	for i := range post.Images {
		post.Images[i].PostID = post.ID
	}
	if err := posts.Update(post); err != nil {
		log.Printf("update post %s failed: %v", post.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "could not update post")
	}
	return c.JSON(post)
}

// HandleDeletePost soft-deletes a post. The author may delete their own post;
// an admin may delete any post.
func HandleDeletePost(c *fiber.Ctx) error {
	posts := repository.GetGlobalFactory().GetPostRepository()
	post, err := posts.GetByID(c.Params("id"))
	if err != nil {
		return respondServiceError(c, err)
	}

	guard := authz.NewGuard(repository.GetGlobalFactory().GetUserRepository())
	if _, err := guard.RequireActiveActor(c, post.AuthorID); err != nil {
		if !errors.Is(err, authz.ErrForbidden) {
			return respondServiceError(c, err)
		}
		if _, adminErr := guard.RequireAdmin(c); adminErr != nil {
			return respondServiceError(c, err)
		}
	}

	if err := posts.Delete(post.ID); err != nil {
		log.Printf("delete post %s failed: %v", post.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "could not delete post")
	}
	events.Default().Publish(events.PostDeleted, post.ID)
	return c.JSON(fiber.Map{"ok": true})
}

// HandleGetPost returns a single post with its relation counters.
func HandleGetPost(c *fiber.Ctx) error {
	post, err := repository.GetGlobalFactory().GetPostRepository().GetByID(c.Params("id"))
	if err != nil {
		return respondServiceError(c, err)
	}
	if err := counter.AddPostView(post.ID); err != nil {
		log.Printf("count view for post %s failed: %v", post.ID, err)
	}
	stats, err := social.NewService(repository.GetGlobalFactory().GetEdgeRepository(), events.Default()).
		GetPostStats(post.ID, usercontext.GetUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"post": post, "stats": stats})
}

func checkPostBounds(plan entitlements.Plan, req postRequest) string {
	if maxLen := entitlements.MaxPostBodyLen(plan); len(req.Body) > maxLen {
		return fmt.Sprintf("post body exceeds the %d character limit of the %s plan", maxLen, plan)
	}
	if maxImages := entitlements.MaxPostImages(plan); len(req.Images) > maxImages {
		return fmt.Sprintf("post exceeds the %d image limit of the %s plan", maxImages, plan)
	}
	return ""
}

func buildPostImages(reqs []postImageRequest) []models.PostImage {
	images := make([]models.PostImage, 0, len(reqs))
	for i, img := range reqs {
		url := strings.TrimSpace(img.URL)
		if url == "" {
			continue
		}
		images = append(images, models.PostImage{
			Position: i,
			URL:      url,
			AltText:  strings.TrimSpace(img.AltText),
			Width:    img.Width,
			Height:   img.Height,
		})
	}
	return images
}
