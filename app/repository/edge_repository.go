package repository

import (
	"github.com/rabbithole-social/rabbithole/app/models"
	"github.com/rabbithole-social/rabbithole/internal/pkg/cursor"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// edgeRepository implements the EdgeRepository interface
type edgeRepository struct {
	db *gorm.DB
}

// NewEdgeRepository creates a new edge repository instance
func NewEdgeRepository(db *gorm.DB) EdgeRepository {
	return &edgeRepository{db: db}
}

// Upsert inserts the edge if its (actor, target, kind) key is not present.
// A conflicting concurrent insert is absorbed: both calls converge to the
// same single row and neither errors.
func (r *edgeRepository) Upsert(edge *models.Edge) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "actor_id"},
			{Name: "target_id"},
			{Name: "kind"},
		},
		DoNothing: true,
	}).Create(edge).Error
}

// Delete removes the edge matching the key. Deleting a missing edge is a
// successful no-op.
func (r *edgeRepository) Delete(actorID, targetID, kind string) error {
	return r.db.Where("actor_id = ? AND target_id = ? AND kind = ?", actorID, targetID, kind).
		Delete(&models.Edge{}).Error
}

// Exists reports whether the edge is present
func (r *edgeRepository) Exists(actorID, targetID, kind string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Edge{}).
		Where("actor_id = ? AND target_id = ? AND kind = ?", actorID, targetID, kind).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountByTarget counts edges pointing at a target (e.g. followers, likes)
func (r *edgeRepository) CountByTarget(targetID, kind string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Edge{}).
		Where("target_id = ? AND kind = ?", targetID, kind).
		Count(&count).Error
	return count, err
}

// CountByActor counts edges originating from an actor (e.g. following)
func (r *edgeRepository) CountByActor(actorID, kind string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Edge{}).
		Where("actor_id = ? AND kind = ?", actorID, kind).
		Count(&count).Error
	return count, err
}

// ListPageByTarget returns one keyset page of edges pointing at a target
func (r *edgeRepository) ListPageByTarget(targetID, kind string, cur *cursor.Cursor, limit int) ([]models.Edge, error) {
	var edges []models.Edge
	err := r.db.Scopes(keysetScope(cur)).
		Where("target_id = ? AND kind = ?", targetID, kind).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&edges).Error
	return edges, err
}

// ListPageByActor returns one keyset page of edges originating from an actor
func (r *edgeRepository) ListPageByActor(actorID, kind string, cur *cursor.Cursor, limit int) ([]models.Edge, error) {
	var edges []models.Edge
	err := r.db.Scopes(keysetScope(cur)).
		Where("actor_id = ? AND kind = ?", actorID, kind).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&edges).Error
	return edges, err
}
