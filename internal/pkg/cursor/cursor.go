package cursor

import (
	"encoding/base64"
	"strings"
	"time"
)

// Cursor is the decoded keyset position of the last item of a page. SortKey is
// the item's creation time, TieBreakID its id.
type Cursor struct {
	SortKey    time.Time
	TieBreakID string
}

const delimiter = "|"

// Encode produces an opaque, URL-safe token embedding the sort key and the
// tie-break id. Decode(Encode(a, b)) round-trips for all valid inputs.
func Encode(sortKey time.Time, tieBreakID string) string {
	payload := sortKey.UTC().Format(time.RFC3339Nano) + delimiter + tieBreakID
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

// Decode parses a token produced by Encode. It returns nil for an empty
// token, a token that is not valid base64, a payload that does not split into
// exactly two parts, or an unparseable timestamp. It never panics: a
// malformed cursor means "start from the beginning".
func Decode(token string) *Cursor {
	if token == "" {
		return nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		// Tolerate padded tokens from older clients.
		raw, err = base64.URLEncoding.DecodeString(token)
		if err != nil {
			return nil
		}
	}
	parts := strings.Split(string(raw), delimiter)
	if len(parts) != 2 {
		return nil
	}
	ts, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return nil
	}
	if parts[1] == "" {
		return nil
	}
	return &Cursor{SortKey: ts, TieBreakID: parts[1]}
}
