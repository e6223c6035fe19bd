package service

import (
	"context"
	"errors"
	"fmt"

	"incubation-service/internal/apperr"
	"incubation-service/internal/keylock"
	"incubation-service/internal/model"
	"incubation-service/prometheus"

	"go.uber.org/zap"
)

// AssignmentService creates and revokes mentor/student/idea bindings.
// Capacity is never stored: the invariant current < max is enforced by
// counting active assignments under a per-mentor lock, so two
// concurrent assigns for the same mentor serialize while assigns for
// different mentors proceed in parallel.
type AssignmentService struct {
	ideas         IdeaStore
	assignments   AssignmentStore
	conversations ConversationStore
	locks         *keylock.Ring
	notifier      *NotificationService
	log           *zap.Logger
}

func NewAssignmentService(ideas IdeaStore, assignments AssignmentStore, conversations ConversationStore, locks *keylock.Ring, notifier *NotificationService, log *zap.Logger) *AssignmentService {
	return &AssignmentService{
		ideas:         ideas,
		assignments:   assignments,
		conversations: conversations,
		locks:         locks,
		notifier:      notifier,
		log:           log,
	}
}

// Assign binds mentorID to the idea's student. Preconditions, in
// order: the idea is in nurture or needs_development, the idea has no
// active assignment, and the mentor has a free capacity slot. The
// assignment and its conversation are persisted in one transaction;
// if the conversation cannot be created nothing is kept.
func (s *AssignmentService) Assign(ctx context.Context, ideaID, mentorID uint, actor Actor, assignmentType, reason string) (*model.MentorAssignment, error) {
	if !actor.Role.IncubationLevel() && !actor.Role.CollegeLevel() {
		return nil, fmt.Errorf("%w: assigning mentors requires an admin role", apperr.ErrUnauthorized)
	}

	// Lock order is fixed (mentor, then idea) across all call sites.
	releaseMentor, err := s.locks.Acquire(ctx, keylock.MentorKey(mentorID))
	if err != nil {
		return nil, fmt.Errorf("%w: mentor %d", apperr.ErrContended, mentorID)
	}
	defer releaseMentor()
	releaseIdea, err := s.locks.Acquire(ctx, keylock.IdeaKey(ideaID))
	if err != nil {
		return nil, fmt.Errorf("%w: idea %d", apperr.ErrContended, ideaID)
	}
	defer releaseIdea()

	idea, err := s.ideas.GetIdea(ctx, ideaID)
	if err != nil {
		return nil, err
	}
	if idea.Status != model.StatusNurture && idea.Status != model.StatusNeedsDevelopment {
		return nil, fmt.Errorf("%w: idea is %s", apperr.ErrInvalidPhaseForAssignment, idea.Status)
	}

	if _, err := s.assignments.ActiveAssignmentForIdea(ctx, ideaID); err == nil {
		return nil, apperr.ErrAlreadyAssigned
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	profile, err := s.assignments.GetMentorProfile(ctx, mentorID)
	if err != nil {
		return nil, err
	}
	current, err := s.assignments.CountActiveForMentor(ctx, mentorID)
	if err != nil {
		return nil, err
	}
	if current >= int64(profile.MaxStudents) {
		return nil, fmt.Errorf("%w: %d/%d students", apperr.ErrCapacityExceeded, current, profile.MaxStudents)
	}

	a := &model.MentorAssignment{
		IdeaID:         ideaID,
		MentorID:       mentorID,
		StudentID:      idea.StudentID,
		Status:         model.AssignmentActive,
		AssignmentType: assignmentType,
		AssignedBy:     actor.UserID,
		Reason:         reason,
	}
	conv, err := s.assignments.CreateAssignmentWithConversation(ctx, a)
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"assignment_id":   a.ID,
		"idea_id":         ideaID,
		"mentor_id":       mentorID,
		"student_id":      idea.StudentID,
		"conversation_id": conv.ID,
	}
	s.notifier.Dispatch(ctx, idea.StudentID, model.NotifyMentorAssigned, payload)
	s.notifier.Dispatch(ctx, mentorID, model.NotifyMentorAssigned, payload)
	prometheus.RecordAssignment("assign")

	s.log.Info("Mentor assigned",
		zap.Uint("assignment_id", a.ID),
		zap.Uint("idea_id", ideaID),
		zap.Uint("mentor_id", mentorID),
		zap.Int64("mentor_load", current+1),
		zap.Uint("conversation_id", conv.ID))
	return a, nil
}

// Unassign revokes the assignment and archives its conversation. The
// message history stays readable; the mentor's capacity slot is freed
// because the derived count no longer includes this assignment.
// Reassigning is Unassign followed by Assign, never a separate path.
func (s *AssignmentService) Unassign(ctx context.Context, assignmentID uint, actor Actor) error {
	if !actor.Role.IncubationLevel() && !actor.Role.CollegeLevel() {
		return fmt.Errorf("%w: revoking assignments requires an admin role", apperr.ErrUnauthorized)
	}

	a, err := s.assignments.GetAssignment(ctx, assignmentID)
	if err != nil {
		return err
	}
	if a.Status != model.AssignmentActive {
		return fmt.Errorf("%w: assignment is %s", apperr.ErrInvalidInput, a.Status)
	}
	if err := s.assignments.RevokeAssignment(ctx, a); err != nil {
		return err
	}

	payload := map[string]interface{}{
		"assignment_id": a.ID,
		"idea_id":       a.IdeaID,
		"mentor_id":     a.MentorID,
	}
	s.notifier.Dispatch(ctx, a.StudentID, model.NotifyMentorUnassigned, payload)
	s.notifier.Dispatch(ctx, a.MentorID, model.NotifyMentorUnassigned, payload)
	prometheus.RecordAssignment("unassign")

	s.log.Info("Mentor unassigned",
		zap.Uint("assignment_id", a.ID),
		zap.Uint("mentor_id", a.MentorID),
		zap.Uint("actor_id", actor.UserID))
	return nil
}
