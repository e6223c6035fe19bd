package service

import (
	"context"
	"testing"

	"incubation-service/internal/apperr"
	"incubation-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newPreIncubationService(store *memStore) *PreIncubationService {
	log := zap.NewNop()
	notifier := NewNotificationService(store, log)
	return NewPreIncubationService(store, store, notifier, log)
}

func TestAdvancePhaseWalksTheFixedOrder(t *testing.T) {
	store := newMemStore()
	svc := newPreIncubationService(store)
	rec := store.seedRecord(1, 7, model.PhaseIdeation, 80)

	for _, want := range model.PhaseOrder[1:] {
		got, err := svc.AdvancePhase(context.Background(), rec.ID, manager)
		require.NoError(t, err)
		assert.Equal(t, want, got.Phase)
		assert.Zero(t, got.ProgressPercentage, "progress restarts with each phase")
	}

	_, err := svc.AdvancePhase(context.Background(), rec.ID, manager)
	require.ErrorIs(t, err, apperr.ErrAlreadyFinalPhase)
}

func TestAdvancePhaseRequiresIncubationRole(t *testing.T) {
	store := newMemStore()
	svc := newPreIncubationService(store)
	rec := store.seedRecord(1, 7, model.PhaseIdeation, 0)

	for _, role := range []model.Role{model.RoleStudent, model.RoleMentor, model.RoleCollegeAdmin} {
		_, err := svc.AdvancePhase(context.Background(), rec.ID, Actor{UserID: 9, Role: role})
		require.ErrorIs(t, err, apperr.ErrUnauthorized, "role %s must not advance phases", role)
	}
}

func TestAdvancePhaseNotifiesStudent(t *testing.T) {
	store := newMemStore()
	svc := newPreIncubationService(store)
	rec := store.seedRecord(1, 7, model.PhaseIdeation, 0)

	_, err := svc.AdvancePhase(context.Background(), rec.ID, manager)
	require.NoError(t, err)
	assert.Equal(t, []model.NotificationKind{model.NotifyPhaseAdvanced}, store.notificationsFor(7))
}

func TestUpdateProgressOwnerOnly(t *testing.T) {
	store := newMemStore()
	svc := newPreIncubationService(store)
	rec := store.seedRecord(1, 7, model.PhaseIdeation, 0)

	_, err := svc.UpdateProgress(context.Background(), rec.ID, 8, 10, "")
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	got, err := svc.UpdateProgress(context.Background(), rec.ID, 7, 10, "built the first mockup")
	require.NoError(t, err)
	assert.Equal(t, 10, got.ProgressPercentage)
	assert.Equal(t, "built the first mockup", got.Notes)
}

func TestUpdateProgressRange(t *testing.T) {
	store := newMemStore()
	svc := newPreIncubationService(store)
	rec := store.seedRecord(1, 7, model.PhaseIdeation, 0)

	_, err := svc.UpdateProgress(context.Background(), rec.ID, 7, -1, "")
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
	_, err = svc.UpdateProgress(context.Background(), rec.ID, 7, 101, "")
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestUpdateProgressMonotonicWithinPhase(t *testing.T) {
	store := newMemStore()
	svc := newPreIncubationService(store)
	rec := store.seedRecord(1, 7, model.PhaseIdeation, 0)

	_, err := svc.UpdateProgress(context.Background(), rec.ID, 7, 60, "")
	require.NoError(t, err)

	_, err = svc.UpdateProgress(context.Background(), rec.ID, 7, 40, "")
	require.ErrorIs(t, err, apperr.ErrRegressionRejected)

	// Repeating the same value is a no-op report, not a regression.
	_, err = svc.UpdateProgress(context.Background(), rec.ID, 7, 60, "")
	require.NoError(t, err)

	// After a phase advance the floor is back at zero.
	_, err = svc.AdvancePhase(context.Background(), rec.ID, manager)
	require.NoError(t, err)
	got, err := svc.UpdateProgress(context.Background(), rec.ID, 7, 5, "")
	require.NoError(t, err)
	assert.Equal(t, 5, got.ProgressPercentage)
}

func TestUpdateProgressNotifiesAssignedMentor(t *testing.T) {
	store := newMemStore()
	svc := newPreIncubationService(store)
	rec := store.seedRecord(1, 7, model.PhaseIdeation, 0)
	store.seedConversation(1, 5, 7)

	_, err := svc.UpdateProgress(context.Background(), rec.ID, 7, 25, "")
	require.NoError(t, err)
	assert.Equal(t, []model.NotificationKind{model.NotifyProgressSubmitted}, store.notificationsFor(5))
}

func TestUpdateProgressWithoutMentorIsQuiet(t *testing.T) {
	store := newMemStore()
	svc := newPreIncubationService(store)
	rec := store.seedRecord(1, 7, model.PhaseIdeation, 0)

	_, err := svc.UpdateProgress(context.Background(), rec.ID, 7, 25, "")
	require.NoError(t, err)
	assert.Empty(t, store.notifications)
}

func TestFinalizeIsIrreversible(t *testing.T) {
	store := newMemStore()
	svc := newPreIncubationService(store)
	rec := store.seedRecord(1, 7, model.PhaseFunding, 90)

	got, err := svc.Finalize(context.Background(), rec.ID, manager, model.PreIncubateeCompleted)
	require.NoError(t, err)
	assert.Equal(t, model.PreIncubateeCompleted, got.Status)

	_, err = svc.Finalize(context.Background(), rec.ID, manager, model.PreIncubateeCancelled)
	require.ErrorIs(t, err, apperr.ErrTerminalRecord)
	_, err = svc.UpdateProgress(context.Background(), rec.ID, 7, 95, "")
	require.ErrorIs(t, err, apperr.ErrTerminalRecord)
	_, err = svc.AdvancePhase(context.Background(), rec.ID, manager)
	require.ErrorIs(t, err, apperr.ErrTerminalRecord)
}

func TestFinalizeValidatesTargetStatus(t *testing.T) {
	store := newMemStore()
	svc := newPreIncubationService(store)
	rec := store.seedRecord(1, 7, model.PhaseIdeation, 0)

	for _, status := range []model.PreIncubateeStatus{model.PreIncubateeActive, model.PreIncubateePaused, "shipped"} {
		_, err := svc.Finalize(context.Background(), rec.ID, manager, status)
		require.ErrorIs(t, err, apperr.ErrInvalidInput, "%s is not a terminal status", status)
	}
}

func TestFinalizeRequiresIncubationRole(t *testing.T) {
	store := newMemStore()
	svc := newPreIncubationService(store)
	rec := store.seedRecord(1, 7, model.PhaseIdeation, 0)

	_, err := svc.Finalize(context.Background(), rec.ID, Actor{UserID: 9, Role: model.RoleCollegeAdmin}, model.PreIncubateeCompleted)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
}
