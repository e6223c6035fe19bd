package service

import (
	"context"
	"errors"
	"fmt"

	"incubation-service/internal/apperr"
	"incubation-service/internal/model"
	"incubation-service/prometheus"

	"go.uber.org/zap"
)

// transitions is the idea lifecycle graph. Any (from, to) pair not
// present here is rejected; the enum plus this table make illegal
// states unrepresentable instead of checked per endpoint.
var transitions = map[model.IdeaStatus][]model.IdeaStatus{
	model.StatusDraft:            {model.StatusSubmitted},
	model.StatusSubmitted:        {model.StatusUnderReview},
	model.StatusUnderReview:      {model.StatusEndorsed, model.StatusRejected, model.StatusNeedsDevelopment},
	model.StatusEndorsed:         {model.StatusNurture},
	model.StatusNurture:          {model.StatusIncubated},
	model.StatusNeedsDevelopment: {model.StatusUnderReview},
}

func edgeAllowed(from, to model.IdeaStatus) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Actor identifies who is requesting an operation, as resolved from
// the bearer token by the auth middleware.
type Actor struct {
	UserID uint
	Role   model.Role
}

// TransitionService validates and applies idea status changes. It is
// the orchestrator of the workflow: the first entry into endorsed
// spawns the pre-incubation record, every applied transition writes an
// audit entry and notifies the affected parties.
type TransitionService struct {
	ideas       IdeaStore
	assignments AssignmentStore
	notifier    *NotificationService
	log         *zap.Logger
}

func NewTransitionService(ideas IdeaStore, assignments AssignmentStore, notifier *NotificationService, log *zap.Logger) *TransitionService {
	return &TransitionService{
		ideas:       ideas,
		assignments: assignments,
		notifier:    notifier,
		log:         log,
	}
}

// Transition moves the idea to target if the edge exists in the graph
// and the actor's role permits it. The idea is left untouched on any
// rejection.
func (s *TransitionService) Transition(ctx context.Context, ideaID uint, target model.IdeaStatus, actor Actor, feedback string) (*model.Idea, error) {
	idea, err := s.ideas.GetIdea(ctx, ideaID)
	if err != nil {
		return nil, err
	}

	if !target.Valid() || !edgeAllowed(idea.Status, target) {
		return nil, fmt.Errorf("%w: %s -> %s", apperr.ErrInvalidTransition, idea.Status, target)
	}
	if err := s.authorize(idea, target, actor); err != nil {
		return nil, err
	}

	from := idea.Status
	entry := &model.IdeaStatusLog{
		IdeaID:     idea.ID,
		FromStatus: from,
		ToStatus:   target,
		ActorID:    actor.UserID,
		Feedback:   feedback,
	}

	// The first entry into endorsed spawns the tracked project record
	// inside the same transaction as the status change: a failed record
	// insert rolls everything back and leaves the idea where it was.
	// The unique index on idea_id guarantees at most one record per
	// idea, so a repeat pass through endorsed cannot duplicate it.
	var rec *model.PreIncubatee
	if target == model.StatusEndorsed {
		rec = &model.PreIncubatee{
			IdeaID:    idea.ID,
			StudentID: idea.StudentID,
			Phase:     model.PhaseIdeation,
			Status:    model.PreIncubateeActive,
		}
	}
	if err := s.ideas.ApplyTransition(ctx, idea, target, entry, rec); err != nil {
		return nil, err
	}

	s.notify(ctx, idea, from, target, feedback)
	prometheus.RecordTransition(string(from), string(target))

	s.log.Info("Idea transitioned",
		zap.Uint("idea_id", idea.ID),
		zap.String("from", string(from)),
		zap.String("to", string(target)),
		zap.Uint("actor_id", actor.UserID))
	return idea, nil
}

// authorize gates each edge by role. College-level roles own the review
// stage, incubation-level roles own the nurture stage, and the student
// owner drives submission and resubmission.
func (s *TransitionService) authorize(idea *model.Idea, target model.IdeaStatus, actor Actor) error {
	switch target {
	case model.StatusSubmitted:
		if actor.UserID != idea.StudentID {
			return fmt.Errorf("%w: only the idea owner may submit", apperr.ErrUnauthorized)
		}
	case model.StatusUnderReview:
		// Resubmission out of needs_development belongs to the owner;
		// moving a fresh submission into review belongs to the college.
		if idea.Status == model.StatusNeedsDevelopment {
			if actor.UserID != idea.StudentID {
				return fmt.Errorf("%w: only the idea owner may resubmit", apperr.ErrUnauthorized)
			}
		} else if !actor.Role.CollegeLevel() {
			return fmt.Errorf("%w: review requires a college-level role", apperr.ErrUnauthorized)
		}
	case model.StatusEndorsed, model.StatusRejected, model.StatusNeedsDevelopment:
		if !actor.Role.CollegeLevel() {
			return fmt.Errorf("%w: review decisions require a college-level role", apperr.ErrUnauthorized)
		}
	case model.StatusNurture, model.StatusIncubated:
		if !actor.Role.IncubationLevel() {
			return fmt.Errorf("%w: nurture-stage transitions require an incubation-level role", apperr.ErrUnauthorized)
		}
	}
	return nil
}

func (s *TransitionService) notify(ctx context.Context, idea *model.Idea, from, to model.IdeaStatus, feedback string) {
	payload := map[string]interface{}{
		"idea_id":  idea.ID,
		"from":     from,
		"to":       to,
		"feedback": feedback,
	}
	s.notifier.Dispatch(ctx, idea.StudentID, model.NotifyIdeaTransition, payload)

	// An active assignment survives the resubmission loop, so the
	// mentor also hears about transitions on their mentee's idea.
	a, err := s.assignments.ActiveAssignmentForIdea(ctx, idea.ID)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			s.log.Error("Failed to look up assignment for notification",
				zap.Uint("idea_id", idea.ID), zap.Error(err))
		}
		return
	}
	s.notifier.Dispatch(ctx, a.MentorID, model.NotifyIdeaTransition, payload)
}
