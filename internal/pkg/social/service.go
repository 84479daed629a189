package social

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/rabbithole-social/rabbithole/app/models"
	"github.com/rabbithole-social/rabbithole/app/repository"
	"github.com/rabbithole-social/rabbithole/internal/pkg/events"
)

var (
	ErrCannotFollowSelf = errors.New("cannot follow self")
	ErrInvalidKind      = errors.New("invalid relation kind")
)

// Service converges relation edges to a desired on/off state. Repeated
// identical calls are idempotent: "on" relies on the store's unique-key
// upsert, "off" treats a missing edge as success.
type Service struct {
	edges repository.EdgeRepository
	bus   *events.Bus
}

// NewService creates a toggle service from an injected edge repository.
func NewService(edges repository.EdgeRepository, bus *events.Bus) *Service {
	return &Service{edges: edges, bus: bus}
}

// SetEdge sets membership of (actorID, targetID, kind) to the requested
// state and returns the resulting state.
func (s *Service) SetEdge(actorID, targetID, kind string, on bool) (bool, error) {
	if !models.ValidEdgeKind(kind) {
		return false, ErrInvalidKind
	}
	if kind == models.EdgeKindFollow && actorID == targetID {
		return false, ErrCannotFollowSelf
	}

	if on {
		edge := &models.Edge{
			ID:       uuid.New().String(),
			ActorID:  actorID,
			TargetID: targetID,
			Kind:     kind,
		}
		if err := s.edges.Upsert(edge); err != nil {
			return false, fmt.Errorf("upsert %s edge: %w", kind, err)
		}
	} else {
		if err := s.edges.Delete(actorID, targetID, kind); err != nil {
			return false, fmt.Errorf("delete %s edge: %w", kind, err)
		}
	}

	if s.bus != nil {
		name := events.EdgeSet
		if !on {
			name = events.EdgeCleared
		}
		s.bus.Publish(name, events.EdgePayload{ActorID: actorID, TargetID: targetID, Kind: kind, On: on})
	}
	return on, nil
}

// FollowStats holds the independent read-only follow counters for a user.
type FollowStats struct {
	IsFollowing    bool  `json:"is_following"`
	FollowerCount  int64 `json:"follower_count"`
	FollowingCount int64 `json:"following_count"`
}

// GetFollowStats returns follower/following counts for targetID. IsFollowing
// is computed only when actorID is set and differs from targetID.
func (s *Service) GetFollowStats(targetID, actorID string) (*FollowStats, error) {
	stats := &FollowStats{}

	var err error
	stats.FollowerCount, err = s.edges.CountByTarget(targetID, models.EdgeKindFollow)
	if err != nil {
		return nil, fmt.Errorf("count followers: %w", err)
	}
	stats.FollowingCount, err = s.edges.CountByActor(targetID, models.EdgeKindFollow)
	if err != nil {
		return nil, fmt.Errorf("count following: %w", err)
	}

	if actorID != "" && actorID != targetID {
		stats.IsFollowing, err = s.edges.Exists(actorID, targetID, models.EdgeKindFollow)
		if err != nil {
			return nil, fmt.Errorf("check following: %w", err)
		}
	}
	return stats, nil
}

// PostStats holds per-post relation counters plus the acting user's state.
type PostStats struct {
	LikeCount    int64 `json:"like_count"`
	RepostCount  int64 `json:"repost_count"`
	IsLiked      bool  `json:"is_liked"`
	IsBookmarked bool  `json:"is_bookmarked"`
	IsReposted   bool  `json:"is_reposted"`
}

// GetPostStats returns like/repost counts for a post and, when actorID is
// set, whether the actor has each relation to it.
func (s *Service) GetPostStats(postID, actorID string) (*PostStats, error) {
	stats := &PostStats{}

	var err error
	stats.LikeCount, err = s.edges.CountByTarget(postID, models.EdgeKindLike)
	if err != nil {
		return nil, fmt.Errorf("count likes: %w", err)
	}
	stats.RepostCount, err = s.edges.CountByTarget(postID, models.EdgeKindRepost)
	if err != nil {
		return nil, fmt.Errorf("count reposts: %w", err)
	}

	if actorID != "" {
		if stats.IsLiked, err = s.edges.Exists(actorID, postID, models.EdgeKindLike); err != nil {
			return nil, fmt.Errorf("check like: %w", err)
		}
		if stats.IsBookmarked, err = s.edges.Exists(actorID, postID, models.EdgeKindBookmark); err != nil {
			return nil, fmt.Errorf("check bookmark: %w", err)
		}
		if stats.IsReposted, err = s.edges.Exists(actorID, postID, models.EdgeKindRepost); err != nil {
			return nil, fmt.Errorf("check repost: %w", err)
		}
	}
	return stats, nil
}
