package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rabbithole-social/rabbithole/app/controllers"
	"github.com/rabbithole-social/rabbithole/internal/pkg/middleware"
	"github.com/rabbithole-social/rabbithole/internal/pkg/session"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	// Billing provider webhooks live outside the rate-limited API group.
	// No session, no CSRF; the signature is verified in the controller.
	app.Post("/webhooks/stripe", controllers.HandleStripeWebhook)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
