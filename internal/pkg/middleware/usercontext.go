package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rabbithole-social/rabbithole/app/models"
	"github.com/rabbithole-social/rabbithole/internal/pkg/database"
	"github.com/rabbithole-social/rabbithole/internal/pkg/session"
	"github.com/rabbithole-social/rabbithole/internal/pkg/usercontext"
)

// UserContextMiddleware resolves the session into a complete per-request
// user context. This centralizes session handling so controllers never touch
// the session store directly.
func UserContextMiddleware(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return setAnonymous(c)
	}

	userID, _ := sess.Get(usercontext.KeyUserID).(string)
	if userID == "" {
		return setAnonymous(c)
	}

	username, _ := sess.Get(usercontext.KeyUsername).(string)
	isAdmin, _ := sess.Get(usercontext.KeyIsAdmin).(bool)

	// Plan is session-cached; the profile is only hit once per session.
	plan, _ := sess.Get(usercontext.KeyUserPlan).(string)
	if plan == "" {
		plan = models.PlanFree
		if db := database.GetDB(); db != nil {
			if p, err := models.GetOrCreateProfile(db, userID); err == nil && p.Plan != "" {
				plan = p.Plan
			}
		}
		_ = session.SetSessionValue(c, usercontext.KeyUserPlan, plan)
	}

	c.Locals(usercontext.KeyUserContext, usercontext.UserContext{
		UserID:     userID,
		Username:   username,
		IsLoggedIn: true,
		IsAdmin:    isAdmin,
		Plan:       plan,
	})
	c.Locals(usercontext.KeyFromProtected, true)
	c.Locals(usercontext.KeyUserID, userID)
	c.Locals(usercontext.KeyUsername, username)
	c.Locals(usercontext.KeyIsAdmin, isAdmin)

	return c.Next()
}

func setAnonymous(c *fiber.Ctx) error {
	c.Locals(usercontext.KeyUserContext, usercontext.UserContext{
		IsLoggedIn: false,
		IsAdmin:    false,
	})
	c.Locals(usercontext.KeyFromProtected, false)
	c.Locals(usercontext.KeyIsAdmin, false)
	return c.Next()
}
