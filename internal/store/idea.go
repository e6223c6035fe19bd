package store

import (
	"context"
	"errors"
	"time"

	"incubation-service/internal/model"
	"incubation-service/prometheus"

	"gorm.io/gorm"
)

func (s *Store) GetIdea(ctx context.Context, id uint) (*model.Idea, error) {
	var idea model.Idea
	if err := s.db.WithContext(ctx).First(&idea, id).Error; err != nil {
		return nil, notFound(err, "idea", id)
	}
	return &idea, nil
}

// ApplyTransition updates the status column, writes the audit row and,
// when rec is non-nil, inserts the spawned record, all in one
// transaction. The unique index on idea_id is the single-record
// guarantee: a duplicate insert loads the existing row into rec
// instead of failing. The in-memory idea is updated only after commit.
func (s *Store) ApplyTransition(ctx context.Context, idea *model.Idea, to model.IdeaStatus, entry *model.IdeaStatusLog, rec *model.PreIncubatee) error {
	defer prometheus.TrackDBOperation("update")(time.Now())
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Idea{}).Where("id = ?", idea.ID).
			Update("status", to).Error; err != nil {
			return err
		}
		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		if rec != nil {
			if err := tx.Create(rec).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return tx.Where("idea_id = ?", rec.IdeaID).First(rec).Error
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	idea.Status = to
	return nil
}
