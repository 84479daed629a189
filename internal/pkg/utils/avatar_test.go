package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultAvatarURL(t *testing.T) {
	// Case and surrounding whitespace do not change the hash.
	a := DefaultAvatarURL("Carrot@Example.com ", 200)
	b := DefaultAvatarURL("carrot@example.com", 200)
	assert.Equal(t, a, b)

	assert.Contains(t, a, "s=200")
	assert.Contains(t, a, "d=mp")

	// Non-positive sizes fall back to the default.
	c := DefaultAvatarURL("carrot@example.com", 0)
	assert.Contains(t, c, "s=200")
}
