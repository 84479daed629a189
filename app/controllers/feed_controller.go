package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rabbithole-social/rabbithole/app/repository"
	"github.com/rabbithole-social/rabbithole/internal/pkg/feed"
)

func feedEngine() *feed.Engine {
	return feed.NewEngine(repository.GetGlobalRepositories())
}

// HandleFeed returns one page of the global feed.
func HandleFeed(c *fiber.Ctx) error {
	cursorToken, limit := pageParams(c)
	page, err := feedEngine().GlobalPage(cursorToken, limit)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(page)
}

// HandleUserPosts returns one page of a single author's posts.
func HandleUserPosts(c *fiber.Ctx) error {
	cursorToken, limit := pageParams(c)
	page, err := feedEngine().AuthorPage(c.Params("id"), cursorToken, limit)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(page)
}

// HandleUserFollowers returns one hydrated page of a user's followers.
func HandleUserFollowers(c *fiber.Ctx) error {
	cursorToken, limit := pageParams(c)
	page, err := feedEngine().FollowPage(feed.Followers, c.Params("id"), cursorToken, limit)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(page)
}

// HandleUserFollowing returns one hydrated page of the users someone follows.
func HandleUserFollowing(c *fiber.Ctx) error {
	cursorToken, limit := pageParams(c)
	page, err := feedEngine().FollowPage(feed.Following, c.Params("id"), cursorToken, limit)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(page)
}

// HandlePostComments returns one page of a post's comments.
func HandlePostComments(c *fiber.Ctx) error {
	cursorToken, limit := pageParams(c)
	page, err := feedEngine().CommentsPage(c.Params("id"), cursorToken, limit)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(page)
}
