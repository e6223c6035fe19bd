package store

import (
	"context"
	"time"

	"incubation-service/internal/model"
	"incubation-service/prometheus"

	"gorm.io/gorm/clause"
)

func (s *Store) GetConversation(ctx context.Context, id uint) (*model.Conversation, error) {
	var conv model.Conversation
	if err := s.db.WithContext(ctx).First(&conv, id).Error; err != nil {
		return nil, notFound(err, "conversation", id)
	}
	return &conv, nil
}

func (s *Store) ConversationByAssignment(ctx context.Context, assignmentID uint) (*model.Conversation, error) {
	var conv model.Conversation
	err := s.db.WithContext(ctx).Where("assignment_id = ?", assignmentID).First(&conv).Error
	if err != nil {
		return nil, notFound(err, "conversation for assignment", assignmentID)
	}
	return &conv, nil
}

func (s *Store) CreateMessage(ctx context.Context, m *model.Message) error {
	return s.db.WithContext(ctx).Create(m).Error
}

func (s *Store) GetMessage(ctx context.Context, id uint) (*model.Message, error) {
	var m model.Message
	if err := s.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, notFound(err, "message", id)
	}
	return &m, nil
}

func (s *Store) SaveMessage(ctx context.Context, m *model.Message) error {
	return s.db.WithContext(ctx).Save(m).Error
}

func (s *Store) ListMessages(ctx context.Context, conversationID uint, limit, offset int) ([]model.Message, error) {
	var msgs []model.Message
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Limit(limit).Offset(offset).
		Preload("Reads").
		Find(&msgs).Error
	return msgs, err
}

// MarkRead inserts a read row for every message the reader has not
// already read, up to the cutoff. ON CONFLICT DO NOTHING keeps the
// operation monotonic and safe to repeat.
func (s *Store) MarkRead(ctx context.Context, conversationID, readerID uint, until time.Time) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())
	var ids []uint
	err := s.db.WithContext(ctx).Model(&model.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND created_at <= ?", conversationID, readerID, until).
		Pluck("id", &ids).Error
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	reads := make([]model.MessageRead, 0, len(ids))
	for _, id := range ids {
		reads = append(reads, model.MessageRead{MessageID: id, UserID: readerID})
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&reads).Error
}
