package service

import (
	"context"
	"encoding/json"

	"incubation-service/internal/model"
	"incubation-service/prometheus"

	"go.uber.org/zap"
)

// NotificationService persists durable notification records for the
// parties affected by transitions, assignments and messages. Dispatch
// failures are logged, not propagated: a notification that could not
// be written must never fail the operation that triggered it.
type NotificationService struct {
	store NotificationStore
	log   *zap.Logger
}

func NewNotificationService(store NotificationStore, log *zap.Logger) *NotificationService {
	return &NotificationService{store: store, log: log}
}

// Dispatch writes one notification row for userID.
func (s *NotificationService) Dispatch(ctx context.Context, userID uint, kind model.NotificationKind, payload map[string]interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		s.log.Error("Failed to encode notification payload",
			zap.Uint("user_id", userID), zap.String("kind", string(kind)), zap.Error(err))
		return
	}
	n := &model.Notification{
		UserID:  userID,
		Kind:    kind,
		Payload: string(raw),
	}
	if err := s.store.CreateNotification(ctx, n); err != nil {
		s.log.Error("Failed to persist notification",
			zap.Uint("user_id", userID), zap.String("kind", string(kind)), zap.Error(err))
		return
	}
	prometheus.RecordNotification(string(kind))
}

// List returns the recipient's notifications, optionally unread only.
func (s *NotificationService) List(ctx context.Context, userID uint, unreadOnly bool) ([]model.Notification, error) {
	return s.store.ListNotifications(ctx, userID, unreadOnly)
}

// MarkRead marks one notification read. Only the recipient may consume
// its own notifications.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID uint) error {
	return s.store.MarkNotificationRead(ctx, id, userID)
}
