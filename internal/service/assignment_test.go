package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"incubation-service/internal/apperr"
	"incubation-service/internal/keylock"
	"incubation-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAssignmentService(store *memStore) *AssignmentService {
	log := zap.NewNop()
	notifier := NewNotificationService(store, log)
	locks := keylock.New(2 * time.Second)
	return NewAssignmentService(store, store, store, locks, notifier, log)
}

var manager = Actor{UserID: 100, Role: model.RoleIncubationManager}

func TestAssignCreatesAssignmentAndConversation(t *testing.T) {
	store := newMemStore()
	svc := newAssignmentService(store)
	idea := store.seedIdea(7, model.StatusNurture)
	store.seedMentor(5, 5)

	a, err := svc.Assign(context.Background(), idea.ID, 5, manager, "mentorship", "domain expertise match")
	require.NoError(t, err)
	assert.Equal(t, model.AssignmentActive, a.Status)
	assert.Equal(t, uint(7), a.StudentID)
	assert.Equal(t, manager.UserID, a.AssignedBy)

	conv, err := store.ConversationByAssignment(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(5), conv.MentorID)
	assert.Equal(t, uint(7), conv.StudentID)
	assert.False(t, conv.Archived)

	assert.Equal(t, []model.NotificationKind{model.NotifyMentorAssigned}, store.notificationsFor(7))
	assert.Equal(t, []model.NotificationKind{model.NotifyMentorAssigned}, store.notificationsFor(5))
}

func TestAssignRequiresAdminRole(t *testing.T) {
	store := newMemStore()
	svc := newAssignmentService(store)
	idea := store.seedIdea(7, model.StatusNurture)
	store.seedMentor(5, 5)

	for _, role := range []model.Role{model.RoleStudent, model.RoleMentor} {
		_, err := svc.Assign(context.Background(), idea.ID, 5, Actor{UserID: 50, Role: role}, "mentorship", "")
		require.ErrorIs(t, err, apperr.ErrUnauthorized, "role %s must not assign", role)
	}
}

func TestAssignRejectsWrongIdeaStatus(t *testing.T) {
	store := newMemStore()
	svc := newAssignmentService(store)
	store.seedMentor(5, 5)

	for _, status := range []model.IdeaStatus{
		model.StatusDraft, model.StatusSubmitted, model.StatusUnderReview,
		model.StatusEndorsed, model.StatusRejected, model.StatusIncubated,
	} {
		idea := store.seedIdea(7, status)
		_, err := svc.Assign(context.Background(), idea.ID, 5, manager, "mentorship", "")
		require.ErrorIs(t, err, apperr.ErrInvalidPhaseForAssignment, "status %s must not accept a mentor", status)
	}

	for _, status := range []model.IdeaStatus{model.StatusNurture, model.StatusNeedsDevelopment} {
		idea := store.seedIdea(8, status)
		_, err := svc.Assign(context.Background(), idea.ID, 5, manager, "mentorship", "")
		require.NoError(t, err, "status %s must accept a mentor", status)
	}
}

func TestAssignRejectsSecondActiveAssignment(t *testing.T) {
	store := newMemStore()
	svc := newAssignmentService(store)
	idea := store.seedIdea(7, model.StatusNurture)
	store.seedMentor(5, 5)
	store.seedMentor(6, 5)

	_, err := svc.Assign(context.Background(), idea.ID, 5, manager, "mentorship", "")
	require.NoError(t, err)

	// A different mentor for the same idea still violates the one
	// active assignment rule.
	_, err = svc.Assign(context.Background(), idea.ID, 6, manager, "mentorship", "")
	require.ErrorIs(t, err, apperr.ErrAlreadyAssigned)
}

func TestAssignEnforcesCapacity(t *testing.T) {
	store := newMemStore()
	svc := newAssignmentService(store)
	store.seedMentor(5, 2)

	for i := 0; i < 2; i++ {
		idea := store.seedIdea(uint(10+i), model.StatusNurture)
		_, err := svc.Assign(context.Background(), idea.ID, 5, manager, "mentorship", "")
		require.NoError(t, err)
	}

	idea := store.seedIdea(12, model.StatusNurture)
	_, err := svc.Assign(context.Background(), idea.ID, 5, manager, "mentorship", "")
	require.ErrorIs(t, err, apperr.ErrCapacityExceeded)
}

func TestConcurrentAssignsNeverExceedCapacity(t *testing.T) {
	const (
		maxStudents = 3
		attempts    = 8
	)
	store := newMemStore()
	svc := newAssignmentService(store)
	store.seedMentor(5, maxStudents)

	ideaIDs := make([]uint, attempts)
	for i := range ideaIDs {
		ideaIDs[i] = store.seedIdea(uint(10+i), model.StatusNurture).ID
	}

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Assign(context.Background(), ideaIDs[i], 5, manager, "mentorship", "")
		}(i)
	}
	wg.Wait()

	var successes, rejections int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		default:
			require.ErrorIs(t, err, apperr.ErrCapacityExceeded)
			rejections++
		}
	}
	assert.Equal(t, maxStudents, successes)
	assert.Equal(t, attempts-maxStudents, rejections)

	count, err := store.CountActiveForMentor(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(maxStudents), count)
}

func TestAssignRollsBackWhenConversationFails(t *testing.T) {
	store := newMemStore()
	store.failConversation = true
	svc := newAssignmentService(store)
	idea := store.seedIdea(7, model.StatusNurture)
	store.seedMentor(5, 5)

	_, err := svc.Assign(context.Background(), idea.ID, 5, manager, "mentorship", "")
	require.Error(t, err)

	_, err = store.ActiveAssignmentForIdea(context.Background(), idea.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound, "a failed transaction must keep nothing")
	count, err := store.CountActiveForMentor(context.Background(), 5)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, store.notificationsFor(7))
}

func TestUnassignFreesSlotAndArchivesConversation(t *testing.T) {
	store := newMemStore()
	svc := newAssignmentService(store)
	idea := store.seedIdea(7, model.StatusNurture)
	store.seedMentor(5, 1)

	a, err := svc.Assign(context.Background(), idea.ID, 5, manager, "mentorship", "")
	require.NoError(t, err)

	require.NoError(t, svc.Unassign(context.Background(), a.ID, manager))

	got, err := store.GetAssignment(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AssignmentRevoked, got.Status)

	conv, err := store.ConversationByAssignment(context.Background(), a.ID)
	require.NoError(t, err)
	assert.True(t, conv.Archived)

	// The freed slot makes the mentor assignable again even at
	// max_students of one.
	other := store.seedIdea(8, model.StatusNurture)
	_, err = svc.Assign(context.Background(), other.ID, 5, manager, "mentorship", "")
	require.NoError(t, err)
}

func TestUnassignRejectsNonActiveAssignment(t *testing.T) {
	store := newMemStore()
	svc := newAssignmentService(store)
	idea := store.seedIdea(7, model.StatusNurture)
	store.seedMentor(5, 5)

	a, err := svc.Assign(context.Background(), idea.ID, 5, manager, "mentorship", "")
	require.NoError(t, err)
	require.NoError(t, svc.Unassign(context.Background(), a.ID, manager))

	err = svc.Unassign(context.Background(), a.ID, manager)
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestUnassignRequiresAdminRole(t *testing.T) {
	store := newMemStore()
	svc := newAssignmentService(store)
	idea := store.seedIdea(7, model.StatusNurture)
	store.seedMentor(5, 5)

	a, err := svc.Assign(context.Background(), idea.ID, 5, manager, "mentorship", "")
	require.NoError(t, err)

	err = svc.Unassign(context.Background(), a.ID, Actor{UserID: 5, Role: model.RoleMentor})
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
}
