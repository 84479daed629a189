package authz

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/rabbithole-social/rabbithole/app/models"
	"github.com/rabbithole-social/rabbithole/app/repository"
	"github.com/rabbithole-social/rabbithole/internal/pkg/usercontext"
)

var (
	ErrUnauthorized = errors.New("no resolvable caller identity")
	ErrBanned       = errors.New("caller is banned")
	ErrForbidden    = errors.New("caller not permitted for this mutation")
)

// Guard validates that the acting identity may perform a mutation. It is a
// pure check: it never mutates state. Checks run in a fixed order so a banned
// caller always sees the ban error, even for an otherwise valid request.
type Guard struct {
	users repository.UserRepository
	now   func() time.Time
}

// NewGuard creates a guard from an injected user repository.
func NewGuard(users repository.UserRepository) *Guard {
	return &Guard{users: users, now: time.Now}
}

// RequireActiveActor resolves the caller from the request session and checks,
// in order: a caller exists, the caller's ban window has elapsed, and (when
// expectedActorID is set) the caller owns the target resource.
func (g *Guard) RequireActiveActor(c *fiber.Ctx, expectedActorID string) (*models.User, error) {
	return g.CheckActor(usercontext.GetUserID(c), expectedActorID)
}

// RequireAdmin resolves the caller and checks the ban window, then requires
// an admin role or the super-admin flag.
func (g *Guard) RequireAdmin(c *fiber.Ctx) (*models.User, error) {
	return g.CheckAdmin(usercontext.GetUserID(c))
}

// CheckActor is the session-independent core of RequireActiveActor.
func (g *Guard) CheckActor(callerID, expectedActorID string) (*models.User, error) {
	user, err := g.resolve(callerID)
	if err != nil {
		return nil, err
	}
	if expectedActorID != "" && user.ID != expectedActorID {
		return nil, ErrForbidden
	}
	return user, nil
}

// CheckAdmin is the session-independent core of RequireAdmin.
func (g *Guard) CheckAdmin(callerID string) (*models.User, error) {
	user, err := g.resolve(callerID)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		return nil, ErrForbidden
	}
	return user, nil
}

func (g *Guard) resolve(callerID string) (*models.User, error) {
	if callerID == "" {
		return nil, ErrUnauthorized
	}
	user, err := g.users.GetByID(callerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if user.IsBannedAt(g.now()) {
		return nil, ErrBanned
	}
	return user, nil
}
