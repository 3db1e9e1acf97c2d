package services

import (
	"testing"

	"project-planning-api/internal/apperrors"
	"project-planning-api/internal/models"

	"github.com/stretchr/testify/require"
)

func TestCreateDefaultStatuses_SeedsFive(t *testing.T) {
	db := newTestDB(t)
	svc := NewStatusService(db)

	statuses, err := svc.CreateDefaultStatuses()
	require.NoError(t, err)
	require.Len(t, statuses, 5)

	require.Equal(t, "BACKLOG", statuses[0].Name)
	require.Equal(t, 0, statuses[0].OrderIndex)
	require.Equal(t, "TODO", statuses[1].Name)
	require.True(t, statuses[1].IsDefaultForNew)
	require.Equal(t, "IN PROGRESS", statuses[2].Name)
	require.Equal(t, "DONE", statuses[3].Name)
	require.True(t, statuses[3].IsCompleted)
	require.Equal(t, "CANCELLED", statuses[4].Name)
	require.True(t, statuses[4].IsCancelled)
}

func TestCreateDefaultStatuses_Idempotent(t *testing.T) {
	db := newTestDB(t)
	svc := NewStatusService(db)

	_, err := svc.CreateStatus(CreateStatusInput{Name: "CUSTOM", IsDefaultForNew: true})
	require.NoError(t, err)

	statuses, err := svc.CreateDefaultStatuses()
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	require.Equal(t, "CUSTOM", statuses[0].Name)
}

func TestCreateStatus_DuplicateName(t *testing.T) {
	db := newTestDB(t)
	svc := NewStatusService(db)

	_, err := svc.CreateStatus(CreateStatusInput{Name: "REVIEW"})
	require.NoError(t, err)

	_, err = svc.CreateStatus(CreateStatusInput{Name: "REVIEW"})
	require.Error(t, err)
	require.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))
}

func TestValidateTransition_SameStatusAlwaysValid(t *testing.T) {
	db := newTestDB(t)
	svc := NewStatusService(db)
	byName := seedDefaultStatuses(t, svc)

	for _, st := range byName {
		allowed, err := svc.ValidateTransition(st.ID, st.ID)
		require.NoError(t, err)
		require.True(t, allowed)
	}
}

func TestValidateTransition_PermissiveDefault(t *testing.T) {
	db := newTestDB(t)
	svc := NewStatusService(db)
	byName := seedDefaultStatuses(t, svc)

	// no explicit rule exists, so the pair is allowed
	allowed, err := svc.ValidateTransition(byName["TODO"].ID, byName["DONE"].ID)
	require.NoError(t, err)
	require.True(t, allowed)

	// while the explicit listing stays empty for the same pair
	targets, err := svc.ListAllowedTargets(byName["TODO"].ID)
	require.NoError(t, err)
	require.Empty(t, targets)
}

func TestValidateTransition_ExplicitDeny(t *testing.T) {
	db := newTestDB(t)
	svc := NewStatusService(db)
	byName := seedDefaultStatuses(t, svc)

	// prime the cache, then mutate the rules: the deny must be seen
	allowed, err := svc.ValidateTransition(byName["DONE"].ID, byName["TODO"].ID)
	require.NoError(t, err)
	require.True(t, allowed)

	_, err = svc.CreateStatusTransition(byName["DONE"].ID, byName["TODO"].ID, false)
	require.NoError(t, err)

	allowed, err = svc.ValidateTransition(byName["DONE"].ID, byName["TODO"].ID)
	require.NoError(t, err)
	require.False(t, allowed)
}

func TestListAllowedTargets_ExplicitAllowOnly(t *testing.T) {
	db := newTestDB(t)
	svc := NewStatusService(db)
	byName := seedDefaultStatuses(t, svc)

	_, err := svc.CreateStatusTransition(byName["TODO"].ID, byName["IN PROGRESS"].ID, true)
	require.NoError(t, err)
	_, err = svc.CreateStatusTransition(byName["TODO"].ID, byName["CANCELLED"].ID, false)
	require.NoError(t, err)

	targets, err := svc.ListAllowedTargets(byName["TODO"].ID)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	require.Equal(t, "IN PROGRESS", targets[0].Name)
}

func TestListAllowedTargets_UnknownStatus(t *testing.T) {
	db := newTestDB(t)
	svc := NewStatusService(db)

	_, err := svc.ListAllowedTargets(99)
	require.Error(t, err)
	require.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestCreateStatusTransition_DuplicatePair(t *testing.T) {
	db := newTestDB(t)
	svc := NewStatusService(db)
	byName := seedDefaultStatuses(t, svc)

	_, err := svc.CreateStatusTransition(byName["TODO"].ID, byName["DONE"].ID, true)
	require.NoError(t, err)

	_, err = svc.CreateStatusTransition(byName["TODO"].ID, byName["DONE"].ID, false)
	require.Error(t, err)
	require.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))

	// the reverse pair is its own rule slot
	_, err = svc.CreateStatusTransition(byName["DONE"].ID, byName["TODO"].ID, true)
	require.NoError(t, err)
}

func TestCreateStatusTransition_MissingStatus(t *testing.T) {
	db := newTestDB(t)
	svc := NewStatusService(db)
	byName := seedDefaultStatuses(t, svc)

	_, err := svc.CreateStatusTransition(byName["TODO"].ID, 999, true)
	require.Error(t, err)
	require.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestDeleteStatus_RefusedWhileReferenced(t *testing.T) {
	db := newTestDB(t)
	svc := NewStatusService(db)
	byName := seedDefaultStatuses(t, svc)

	owner := seedUser(t, db, "alice")
	project := seedProject(t, db, "ABC", owner.ID)
	seedWorkItem(t, db, project.ID, "ABC-1", models.TypeTask, byName["TODO"].ID)

	err := svc.DeleteStatus(byName["TODO"].ID)
	require.Error(t, err)
	require.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))

	// unreferenced statuses go away fine
	require.NoError(t, svc.DeleteStatus(byName["BACKLOG"].ID))
	_, err = svc.GetStatus(byName["BACKLOG"].ID)
	require.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestDeleteStatus_NameReusableAfterDelete(t *testing.T) {
	db := newTestDB(t)
	svc := NewStatusService(db)
	byName := seedDefaultStatuses(t, svc)

	// a rule touching the status goes away with it
	_, err := svc.CreateStatusTransition(byName["BACKLOG"].ID, byName["DONE"].ID, true)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteStatus(byName["BACKLOG"].ID))

	// the name of a status that no longer exists is free again
	recreated, err := svc.CreateStatus(CreateStatusInput{Name: "BACKLOG"})
	require.NoError(t, err)
	require.NotEqual(t, byName["BACKLOG"].ID, recreated.ID)

	targets, err := svc.ListAllowedTargets(recreated.ID)
	require.NoError(t, err)
	require.Empty(t, targets)
}
