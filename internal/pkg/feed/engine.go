package feed

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rabbithole-social/rabbithole/app/models"
	"github.com/rabbithole-social/rabbithole/app/repository"
	"github.com/rabbithole-social/rabbithole/internal/pkg/cursor"
)

var ErrInvalidInput = errors.New("invalid input")

const (
	DefaultLimit = 24
	MaxLimit     = 50
)

// ClampLimit normalizes a requested page size into [1, MaxLimit], using
// DefaultLimit when unset.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Engine produces stable keyset pages over posts, comments and follow edges,
// ordered (created_at DESC, id DESC). A malformed cursor token is treated as
// "no cursor", never as an error.
type Engine struct {
	posts    repository.PostRepository
	comments repository.CommentRepository
	edges    repository.EdgeRepository
	users    repository.UserRepository
}

// NewEngine creates a pagination engine from injected repositories.
func NewEngine(repos *repository.Repositories) *Engine {
	return &Engine{
		posts:    repos.Post,
		comments: repos.Comment,
		edges:    repos.Edge,
		users:    repos.User,
	}
}

// PostPage is one page of posts plus the token for the next one. NextCursor
// is empty when the page was not full; a non-empty value means "there might
// be more", not a guarantee.
type PostPage struct {
	Posts      []models.Post `json:"posts"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// GlobalPage returns one page of the global feed.
func (e *Engine) GlobalPage(cursorToken string, limit int) (*PostPage, error) {
	limit = ClampLimit(limit)
	posts, err := e.posts.ListPage(cursor.Decode(cursorToken), limit)
	if err != nil {
		return nil, fmt.Errorf("list feed page: %w", err)
	}
	return &PostPage{Posts: posts, NextCursor: nextPostCursor(posts, limit)}, nil
}

// AuthorPage returns one page of a single author's posts.
func (e *Engine) AuthorPage(authorID, cursorToken string, limit int) (*PostPage, error) {
	if _, err := uuid.Parse(authorID); err != nil {
		return nil, fmt.Errorf("%w: author id %q", ErrInvalidInput, authorID)
	}
	limit = ClampLimit(limit)
	posts, err := e.posts.ListPageByAuthor(authorID, cursor.Decode(cursorToken), limit)
	if err != nil {
		return nil, fmt.Errorf("list author page: %w", err)
	}
	return &PostPage{Posts: posts, NextCursor: nextPostCursor(posts, limit)}, nil
}

// CommentPage is one page of a post's comments.
type CommentPage struct {
	Comments   []models.Comment `json:"comments"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// CommentsPage returns one page of comments on a post.
func (e *Engine) CommentsPage(postID, cursorToken string, limit int) (*CommentPage, error) {
	if _, err := uuid.Parse(postID); err != nil {
		return nil, fmt.Errorf("%w: post id %q", ErrInvalidInput, postID)
	}
	limit = ClampLimit(limit)
	comments, err := e.comments.ListPageByPost(postID, cursor.Decode(cursorToken), limit)
	if err != nil {
		return nil, fmt.Errorf("list comment page: %w", err)
	}
	page := &CommentPage{Comments: comments}
	if len(comments) == limit {
		last := comments[len(comments)-1]
		page.NextCursor = cursor.Encode(last.CreatedAt, last.ID)
	}
	return page, nil
}

// FollowDirection selects which side of the follow edge a page walks.
type FollowDirection string

const (
	Followers FollowDirection = "followers"
	Following FollowDirection = "following"
)

// ProfileEntry is one hydrated row of a follow list.
type ProfileEntry struct {
	repository.ProfileSummary
	FollowedAt time.Time `json:"followed_at"`
}

// ProfilePage is one page of hydrated follow-list entries. Entries whose
// counterpart profile cannot be found are dropped without being counted
// against the limit, so a page may be short even when more data exists;
// callers must rely on NextCursor, not page length, to detect exhaustion.
type ProfilePage struct {
	Profiles   []ProfileEntry `json:"profiles"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// FollowPage returns one page of a user's followers or followings.
func (e *Engine) FollowPage(direction FollowDirection, userID, cursorToken string, limit int) (*ProfilePage, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("%w: user id %q", ErrInvalidInput, userID)
	}
	limit = ClampLimit(limit)
	cur := cursor.Decode(cursorToken)

	var (
		edges []models.Edge
		err   error
	)
	switch direction {
	case Followers:
		edges, err = e.edges.ListPageByTarget(userID, models.EdgeKindFollow, cur, limit)
	case Following:
		edges, err = e.edges.ListPageByActor(userID, models.EdgeKindFollow, cur, limit)
	default:
		return nil, fmt.Errorf("%w: direction %q", ErrInvalidInput, direction)
	}
	if err != nil {
		return nil, fmt.Errorf("list follow page: %w", err)
	}

	page := &ProfilePage{Profiles: make([]ProfileEntry, 0, len(edges))}
	// The cursor advances over raw edges, before hydration drops anything.
	if len(edges) == limit {
		last := edges[len(edges)-1]
		page.NextCursor = cursor.Encode(last.CreatedAt, last.ID)
	}

	counterpartIDs := make([]string, 0, len(edges))
	for _, edge := range edges {
		counterpartIDs = append(counterpartIDs, counterpartID(edge, direction))
	}
	summaries, err := e.users.GetProfileSummaries(counterpartIDs)
	if err != nil {
		return nil, fmt.Errorf("hydrate follow page: %w", err)
	}

	for _, edge := range edges {
		summary, ok := summaries[counterpartID(edge, direction)]
		if !ok {
			// Counterpart account no longer resolvable; drop the row.
			continue
		}
		page.Profiles = append(page.Profiles, ProfileEntry{
			ProfileSummary: summary,
			FollowedAt:     edge.CreatedAt,
		})
	}
	return page, nil
}

func counterpartID(edge models.Edge, direction FollowDirection) string {
	if direction == Followers {
		return edge.ActorID
	}
	return edge.TargetID
}

func nextPostCursor(posts []models.Post, limit int) string {
	if len(posts) != limit {
		return ""
	}
	last := posts[len(posts)-1]
	return cursor.Encode(last.CreatedAt, last.ID)
}
