package store

import (
	"context"
	"fmt"

	"incubation-service/internal/apperr"
	"incubation-service/internal/model"
)

func (s *Store) CreateNotification(ctx context.Context, n *model.Notification) error {
	return s.db.WithContext(ctx).Create(n).Error
}

func (s *Store) ListNotifications(ctx context.Context, userID uint, unreadOnly bool) ([]model.Notification, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("read = ?", false)
	}
	var ns []model.Notification
	err := q.Order("created_at DESC").Limit(100).Find(&ns).Error
	return ns, err
}

func (s *Store) MarkNotificationRead(ctx context.Context, id, userID uint) error {
	res := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: notification %d", apperr.ErrNotFound, id)
	}
	return nil
}
