package store

import (
	"context"
	"time"

	"incubation-service/internal/model"
	"incubation-service/prometheus"

	"gorm.io/gorm"
)

func (s *Store) GetAssignment(ctx context.Context, id uint) (*model.MentorAssignment, error) {
	var a model.MentorAssignment
	if err := s.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, notFound(err, "assignment", id)
	}
	return &a, nil
}

func (s *Store) ActiveAssignmentForIdea(ctx context.Context, ideaID uint) (*model.MentorAssignment, error) {
	var a model.MentorAssignment
	err := s.db.WithContext(ctx).
		Where("idea_id = ? AND status = ?", ideaID, model.AssignmentActive).
		First(&a).Error
	if err != nil {
		return nil, notFound(err, "active assignment for idea", ideaID)
	}
	return &a, nil
}

func (s *Store) CountActiveForMentor(ctx context.Context, mentorID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.MentorAssignment{}).
		Where("mentor_id = ? AND status = ?", mentorID, model.AssignmentActive).
		Count(&count).Error
	return count, err
}

func (s *Store) GetMentorProfile(ctx context.Context, userID uint) (*model.MentorProfile, error) {
	var p model.MentorProfile
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if err != nil {
		return nil, notFound(err, "mentor profile", userID)
	}
	return &p, nil
}

// CreateAssignmentWithConversation persists both rows in one
// transaction; a failed conversation insert rolls the assignment back.
func (s *Store) CreateAssignmentWithConversation(ctx context.Context, a *model.MentorAssignment) (*model.Conversation, error) {
	defer prometheus.TrackDBOperation("insert")(time.Now())
	conv := &model.Conversation{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(a).Error; err != nil {
			return err
		}
		conv.AssignmentID = a.ID
		conv.MentorID = a.MentorID
		conv.StudentID = a.StudentID
		return tx.Create(conv).Error
	})
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// RevokeAssignment marks the assignment revoked and archives its
// conversation. Messages are left in place for the read-only view.
func (s *Store) RevokeAssignment(ctx context.Context, a *model.MentorAssignment) error {
	defer prometheus.TrackDBOperation("update")(time.Now())
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.MentorAssignment{}).Where("id = ?", a.ID).
			Update("status", model.AssignmentRevoked).Error; err != nil {
			return err
		}
		return tx.Model(&model.Conversation{}).Where("assignment_id = ?", a.ID).
			Update("archived", true).Error
	})
	if err != nil {
		return err
	}
	a.Status = model.AssignmentRevoked
	return nil
}
