package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/rabbithole-social/rabbithole/app/controllers"
	"github.com/rabbithole-social/rabbithole/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "rabbithole api",
		})
	})

	v1 := api.Group("/v1")

	// Auth
	v1.Post("/auth/register", controllers.HandleRegister)
	v1.Post("/auth/login", controllers.HandleLogin)
	v1.Post("/auth/logout", middleware.RequireAuth, controllers.HandleLogout)

	// Feed
	v1.Get("/feed", controllers.HandleFeed)

	// Users
	v1.Get("/users/:id", controllers.HandleGetUser)
	v1.Get("/users/:id/posts", controllers.HandleUserPosts)
	v1.Get("/users/:id/followers", controllers.HandleUserFollowers)
	v1.Get("/users/:id/following", controllers.HandleUserFollowing)
	v1.Put("/users/:id/follow", middleware.RequireAuth, controllers.HandleSetFollow)
	v1.Delete("/users/:id/follow", middleware.RequireAuth, controllers.HandleClearFollow)
	v1.Put("/me/profile", middleware.RequireAuth, controllers.HandleUpdateProfile)

	// Posts
	v1.Post("/posts", middleware.RequireAuth, controllers.HandleCreatePost)
	v1.Get("/posts/:id", controllers.HandleGetPost)
	v1.Patch("/posts/:id", middleware.RequireAuth, controllers.HandleUpdatePost)
	v1.Delete("/posts/:id", middleware.RequireAuth, controllers.HandleDeletePost)
	v1.Put("/posts/:id/:kind", middleware.RequireAuth, controllers.HandleSetPostRelation)
	v1.Delete("/posts/:id/:kind", middleware.RequireAuth, controllers.HandleClearPostRelation)

	// Comments
	v1.Get("/posts/:id/comments", controllers.HandlePostComments)
	v1.Post("/posts/:id/comments", middleware.RequireAuth, controllers.HandleCreateComment)
	v1.Delete("/comments/:id", middleware.RequireAuth, controllers.HandleDeleteComment)

	// Billing
	v1.Get("/billing/status", middleware.RequireAuth, controllers.HandleBillingStatus)

	// Admin
	admin := v1.Group("/admin", middleware.RequireAdmin)
	admin.Post("/users/:id/ban", controllers.HandleAdminBanUser)
	admin.Post("/users/:id/unban", controllers.HandleAdminUnbanUser)
	admin.Delete("/posts/:id", controllers.HandleAdminDeletePost)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
