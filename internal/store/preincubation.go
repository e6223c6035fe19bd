package store

import (
	"context"

	"incubation-service/internal/model"
)

func (s *Store) GetPreIncubatee(ctx context.Context, id uint) (*model.PreIncubatee, error) {
	var rec model.PreIncubatee
	if err := s.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return nil, notFound(err, "pre-incubatee", id)
	}
	return &rec, nil
}

func (s *Store) SavePreIncubatee(ctx context.Context, p *model.PreIncubatee) error {
	return s.db.WithContext(ctx).Save(p).Error
}
