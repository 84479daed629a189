package models

import "time"

const (
	EdgeKindFollow   = "follow"
	EdgeKindLike     = "like"
	EdgeKindBookmark = "bookmark"
	EdgeKindRepost   = "repost"
)

// Edge is a directed relation between an actor and a target (another user for
// follows, a post for likes/bookmarks/reposts). The composite unique index
// makes the relation a set: at most one row per (actor, target, kind).
// Edges are hard-deleted so the index never collides with tombstones.
type Edge struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ActorID   string    `gorm:"type:varchar(36);not null;index:idx_edges_actor;index:idx_edges_key,unique,priority:1" json:"actor_id"`
	TargetID  string    `gorm:"type:varchar(36);not null;index:idx_edges_target;index:idx_edges_key,unique,priority:2" json:"target_id"`
	Kind      string    `gorm:"type:varchar(16);not null;index:idx_edges_key,unique,priority:3" json:"kind"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_edges_created" json:"created_at"`
}

// ValidEdgeKind reports whether kind names a known relation.
func ValidEdgeKind(kind string) bool {
	switch kind {
	case EdgeKindFollow, EdgeKindLike, EdgeKindBookmark, EdgeKindRepost:
		return true
	default:
		return false
	}
}
