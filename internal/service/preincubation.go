package service

import (
	"context"
	"errors"
	"fmt"

	"incubation-service/internal/apperr"
	"incubation-service/internal/model"

	"go.uber.org/zap"
)

// PreIncubationService owns the lifecycle of the tracked project
// record after an idea is endorsed: phase advances, student progress
// updates and the irreversible terminal states.
type PreIncubationService struct {
	records     PreIncubateeStore
	assignments AssignmentStore
	notifier    *NotificationService
	log         *zap.Logger
}

func NewPreIncubationService(records PreIncubateeStore, assignments AssignmentStore, notifier *NotificationService, log *zap.Logger) *PreIncubationService {
	return &PreIncubationService{
		records:     records,
		assignments: assignments,
		notifier:    notifier,
		log:         log,
	}
}

// AdvancePhase moves the record to the next phase in the fixed list.
// The progress floor resets with the new phase, so the monotonicity
// rule applies within a single phase only.
func (s *PreIncubationService) AdvancePhase(ctx context.Context, recordID uint, actor Actor) (*model.PreIncubatee, error) {
	if !actor.Role.IncubationLevel() {
		return nil, fmt.Errorf("%w: advancing phases requires an incubation-level role", apperr.ErrUnauthorized)
	}

	rec, err := s.records.GetPreIncubatee(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if rec.Status.Terminal() {
		return nil, fmt.Errorf("%w: record is %s", apperr.ErrTerminalRecord, rec.Status)
	}
	next, ok := model.NextPhase(rec.Phase)
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperr.ErrAlreadyFinalPhase, rec.Phase)
	}

	rec.Phase = next
	rec.ProgressPercentage = 0
	if err := s.records.SavePreIncubatee(ctx, rec); err != nil {
		return nil, err
	}

	s.notifier.Dispatch(ctx, rec.StudentID, model.NotifyPhaseAdvanced, map[string]interface{}{
		"record_id": rec.ID,
		"phase":     next,
	})
	s.log.Info("Pre-incubation phase advanced",
		zap.Uint("record_id", rec.ID), zap.String("phase", string(next)))
	return rec, nil
}

// UpdateProgress records the owning student's progress report.
// Percentage must stay within [0,100] and may not decrease within the
// current phase.
func (s *PreIncubationService) UpdateProgress(ctx context.Context, recordID, studentID uint, percentage int, notes string) (*model.PreIncubatee, error) {
	rec, err := s.records.GetPreIncubatee(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if rec.StudentID != studentID {
		return nil, fmt.Errorf("%w: only the owning student may report progress", apperr.ErrUnauthorized)
	}
	if rec.Status.Terminal() {
		return nil, fmt.Errorf("%w: record is %s", apperr.ErrTerminalRecord, rec.Status)
	}
	if percentage < 0 || percentage > 100 {
		return nil, fmt.Errorf("%w: percentage %d out of range", apperr.ErrInvalidInput, percentage)
	}
	if percentage < rec.ProgressPercentage {
		return nil, fmt.Errorf("%w: %d < %d", apperr.ErrRegressionRejected, percentage, rec.ProgressPercentage)
	}

	rec.ProgressPercentage = percentage
	if notes != "" {
		rec.Notes = notes
	}
	if err := s.records.SavePreIncubatee(ctx, rec); err != nil {
		return nil, err
	}

	// The assigned mentor, if any, gets the progress report too.
	if a, err := s.assignments.ActiveAssignmentForIdea(ctx, rec.IdeaID); err == nil {
		s.notifier.Dispatch(ctx, a.MentorID, model.NotifyProgressSubmitted, map[string]interface{}{
			"record_id":           rec.ID,
			"idea_id":             rec.IdeaID,
			"progress_percentage": percentage,
		})
	} else if !errors.Is(err, apperr.ErrNotFound) {
		s.log.Error("Failed to look up assignment for progress notification",
			zap.Uint("idea_id", rec.IdeaID), zap.Error(err))
	}

	return rec, nil
}

// Finalize moves the record to completed or cancelled. Terminal states
// are irreversible.
func (s *PreIncubationService) Finalize(ctx context.Context, recordID uint, actor Actor, status model.PreIncubateeStatus) (*model.PreIncubatee, error) {
	if !actor.Role.IncubationLevel() {
		return nil, fmt.Errorf("%w: finalizing records requires an incubation-level role", apperr.ErrUnauthorized)
	}
	if status != model.PreIncubateeCompleted && status != model.PreIncubateeCancelled {
		return nil, fmt.Errorf("%w: %s is not a terminal status", apperr.ErrInvalidInput, status)
	}

	rec, err := s.records.GetPreIncubatee(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if rec.Status.Terminal() {
		return nil, fmt.Errorf("%w: record is already %s", apperr.ErrTerminalRecord, rec.Status)
	}

	rec.Status = status
	if err := s.records.SavePreIncubatee(ctx, rec); err != nil {
		return nil, err
	}
	s.log.Info("Pre-incubation record finalized",
		zap.Uint("record_id", rec.ID), zap.String("status", string(status)))
	return rec, nil
}
