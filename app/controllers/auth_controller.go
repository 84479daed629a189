package controllers

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/rabbithole-social/rabbithole/app/models"
	"github.com/rabbithole-social/rabbithole/app/repository"
	"github.com/rabbithole-social/rabbithole/internal/pkg/database"
	"github.com/rabbithole-social/rabbithole/internal/pkg/session"
	"github.com/rabbithole-social/rabbithole/internal/pkg/usercontext"
	"github.com/rabbithole-social/rabbithole/internal/pkg/utils"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister creates a new account and logs it in.
func HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "request body must be JSON")
	}

	user, err := models.CreateUser(strings.TrimSpace(req.Username), strings.TrimSpace(strings.ToLower(req.Email)), req.Password)
	if err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", err.Error())
	}

	users := repository.GetGlobalFactory().GetUserRepository()
	if _, err := users.GetByEmail(user.Email); err == nil {
		return jsonError(c, fiber.StatusConflict, "email_taken", "email is already registered")
	}
	if _, err := users.GetByUsername(user.Username); err == nil {
		return jsonError(c, fiber.StatusConflict, "username_taken", "username is already taken")
	}

	if err := users.Create(user); err != nil {
		// Two concurrent registrations can both pass the lookups above;
		// the unique index decides and the loser gets a conflict.
		if isDuplicateKeyError(err) {
			return jsonError(c, fiber.StatusConflict, "account_exists", "email or username is already taken")
		}
		log.Printf("register: create user failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "could not create account")
	}
	if profile, err := models.GetOrCreateProfile(database.GetDB(), user.ID); err != nil {
		log.Printf("register: create profile failed: %v", err)
	} else if profile.AvatarURL == "" {
		profile.AvatarURL = utils.DefaultAvatarURL(user.Email, 200)
		if err := users.SaveProfile(profile); err != nil {
			log.Printf("register: set default avatar failed: %v", err)
		}
	}

	if err := establishSession(c, user); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "could not start session")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":       user.ID,
		"username": user.Username,
		"email":    user.Email,
	})
}

// HandleLogin verifies credentials and establishes a session.
func HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "request body must be JSON")
	}

	users := repository.GetGlobalFactory().GetUserRepository()
	user, err := users.GetByEmail(strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusUnauthorized, "invalid_credentials", "email or password is wrong")
		}
		log.Printf("login: lookup failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "login failed")
	}
	if !user.CheckPassword(req.Password) {
		return jsonError(c, fiber.StatusUnauthorized, "invalid_credentials", "email or password is wrong")
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := users.Update(user); err != nil {
		log.Printf("login: updating last_login_at for %s failed: %v", user.ID, err)
	}

	if err := establishSession(c, user); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "could not start session")
	}
	return c.JSON(fiber.Map{
		"id":       user.ID,
		"username": user.Username,
		"is_admin": user.IsAdmin(),
	})
}

// HandleLogout destroys the current session.
func HandleLogout(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err == nil {
		if err := sess.Destroy(); err != nil {
			log.Printf("logout: destroy session failed: %v", err)
		}
	}
	return c.JSON(fiber.Map{"ok": true})
}

func establishSession(c *fiber.Ctx, user *models.User) error {
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return err
	}
	sess.Set(usercontext.KeyUserID, user.ID)
	sess.Set(usercontext.KeyUsername, user.Username)
	sess.Set(usercontext.KeyIsAdmin, user.IsAdmin())
	sess.Delete(usercontext.KeyUserPlan)
	return sess.Save()
}
