package utils

import (
	"crypto/md5"
	"fmt"
	"strings"
)

const defaultAvatarSize = 200

// DefaultAvatarURL returns the Gravatar URL used as the initial avatar for a
// freshly registered account. Users can replace it via the profile update
// endpoint. The "mp" fallback renders a neutral silhouette for addresses
// without a Gravatar account.
func DefaultAvatarURL(email string, size int) string {
	if size <= 0 {
		size = defaultAvatarSize
	}

	normalized := strings.ToLower(strings.TrimSpace(email))
	hash := md5.Sum([]byte(normalized))

	return fmt.Sprintf("https://www.gravatar.com/avatar/%x?s=%d&d=mp", hash, size)
}
