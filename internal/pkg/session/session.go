package session

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage/redis"

	"github.com/rabbithole-social/rabbithole/internal/pkg/cache"
	"github.com/rabbithole-social/rabbithole/internal/pkg/env"
)

// sessionDB is the Redis logical database for sessions. The cache package
// owns DB 0, so sessions live in DB 1 and can be flushed independently.
const sessionDB = 1

var sessionStore *session.Store

// NewSessionStore builds the Redis-backed session store. Connection details
// are taken from the already configured cache client so both share one
// Redis instance.
func NewSessionStore() *session.Store {
	host, port := "localhost", 6379
	password := env.GetEnv("CACHE_PASSWORD", "")

	if c := cache.GetClient(); c != nil {
		if h, p, err := net.SplitHostPort(c.Options().Addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}
		if p := c.Options().Password; p != "" {
			password = p
		}
	}

	sessionStore = session.New(session.Config{
		Storage: redis.New(redis.Config{
			Host:     host,
			Port:     port,
			Password: password,
			Database: sessionDB,
		}),
		CookieHTTPOnly: true,
		Expiration:     24 * time.Hour,
		KeyLookup:      "cookie:session_id",
	})
	return sessionStore
}

func GetSessionStore() *session.Store {
	return sessionStore
}

// SetSessionValue writes a string value into the caller's session.
func SetSessionValue(c *fiber.Ctx, key, value string) error {
	if sessionStore == nil {
		return fmt.Errorf("session store not initialized")
	}
	sess, err := sessionStore.Get(c)
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}
	sess.Set(key, value)
	return sess.Save()
}
