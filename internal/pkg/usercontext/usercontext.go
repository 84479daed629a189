package usercontext

import "github.com/gofiber/fiber/v2"

// UserContext is the per-request view of the authenticated caller, built by
// the user context middleware from the session and attached to Locals.
type UserContext struct {
	UserID     string `json:"user_id"`
	Username   string `json:"username"`
	IsLoggedIn bool   `json:"is_logged_in"`
	IsAdmin    bool   `json:"is_admin"`
	Plan       string `json:"plan"`
}

// GetUserContext returns the caller's context, or an anonymous one when the
// middleware never ran (tests, unauthenticated routes).
func GetUserContext(c *fiber.Ctx) UserContext {
	if v := c.Locals(KeyUserContext); v != nil {
		return v.(UserContext)
	}
	return UserContext{}
}

func IsLoggedIn(c *fiber.Ctx) bool {
	return GetUserContext(c).IsLoggedIn
}

func IsAdmin(c *fiber.Ctx) bool {
	return GetUserContext(c).IsAdmin
}

// GetUserID returns the caller's user id, empty when anonymous.
func GetUserID(c *fiber.Ctx) string {
	return GetUserContext(c).UserID
}

func GetUsername(c *fiber.Ctx) string {
	return GetUserContext(c).Username
}
