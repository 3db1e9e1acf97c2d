package services

import (
	"testing"

	"project-planning-api/internal/apperrors"
	"project-planning-api/internal/models"

	"github.com/stretchr/testify/require"
)

func TestValidateParent_RuleTable(t *testing.T) {
	db := newTestDB(t)
	statuses := NewStatusService(db)
	byName := seedDefaultStatuses(t, statuses)
	owner := seedUser(t, db, "alice")
	project := seedProject(t, db, "ABC", owner.ID)
	svc := NewHierarchyService(db)

	task := seedWorkItem(t, db, project.ID, "ABC-1", models.TypeTask, byName["TODO"].ID)
	bug := seedWorkItem(t, db, project.ID, "ABC-2", models.TypeBug, byName["TODO"].ID)

	// tasks and bugs accept no parent at all
	err := svc.ValidateParent(models.TypeTask, task.ID, project.ID)
	require.Equal(t, apperrors.KindInvalidHierarchy, apperrors.KindOf(err))

	err = svc.ValidateParent(models.TypeBug, task.ID, project.ID)
	require.Equal(t, apperrors.KindInvalidHierarchy, apperrors.KindOf(err))

	// a subtask may only hang under a task
	err = svc.ValidateParent(models.TypeSubtask, bug.ID, project.ID)
	require.Equal(t, apperrors.KindInvalidHierarchy, apperrors.KindOf(err))

	require.NoError(t, svc.ValidateParent(models.TypeSubtask, task.ID, project.ID))
}

func TestValidateParent_NestedParentRejected(t *testing.T) {
	db := newTestDB(t)
	statuses := NewStatusService(db)
	byName := seedDefaultStatuses(t, statuses)
	owner := seedUser(t, db, "alice")
	project := seedProject(t, db, "ABC", owner.ID)
	svc := NewHierarchyService(db)

	task := seedWorkItem(t, db, project.ID, "ABC-1", models.TypeTask, byName["TODO"].ID)
	nested := models.WorkItem{
		ProjectID: project.ID, Key: "ABC-2", Summary: "nested",
		Type: models.TypeSubtask, StatusID: byName["TODO"].ID, ParentID: &task.ID,
	}
	require.NoError(t, db.Create(&nested).Error)

	err := svc.ValidateParent(models.TypeSubtask, nested.ID, project.ID)
	require.Equal(t, apperrors.KindInvalidHierarchy, apperrors.KindOf(err))
}

func TestValidateParent_MissingAndForeignParent(t *testing.T) {
	db := newTestDB(t)
	statuses := NewStatusService(db)
	byName := seedDefaultStatuses(t, statuses)
	owner := seedUser(t, db, "alice")
	project := seedProject(t, db, "ABC", owner.ID)
	other := seedProject(t, db, "XYZ", owner.ID)
	svc := NewHierarchyService(db)

	err := svc.ValidateParent(models.TypeSubtask, 999, project.ID)
	require.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	foreign := seedWorkItem(t, db, other.ID, "XYZ-1", models.TypeTask, byName["TODO"].ID)
	err = svc.ValidateParent(models.TypeSubtask, foreign.ID, project.ID)
	require.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))
}

func TestWouldCreateCycle_SelfParent(t *testing.T) {
	cycle, err := WouldCreateCycle(7, 7, func(uint) (*uint, error) {
		t.Fatal("accessor must not be called when the parent is the item itself")
		return nil, nil
	})
	require.NoError(t, err)
	require.True(t, cycle)
}

func TestWouldCreateCycle_ChainLoopsBack(t *testing.T) {
	// chain: 3 -> 2 -> 1; hanging 1 under 3 would loop
	parents := map[uint]*uint{3: ptr(uint(2)), 2: ptr(uint(1))}
	accessor := func(id uint) (*uint, error) { return parents[id], nil }

	cycle, err := WouldCreateCycle(1, 3, accessor)
	require.NoError(t, err)
	require.True(t, cycle)

	// an unrelated chain terminates cleanly
	cycle, err = WouldCreateCycle(9, 3, accessor)
	require.NoError(t, err)
	require.False(t, cycle)
}

func TestWouldCreateCycle_PreexistingLoopTerminates(t *testing.T) {
	// corrupted data: 5 -> 6 -> 5 loops without ever reaching the item
	parents := map[uint]*uint{5: ptr(uint(6)), 6: ptr(uint(5))}
	cycle, err := WouldCreateCycle(1, 5, func(id uint) (*uint, error) { return parents[id], nil })
	require.NoError(t, err)
	require.True(t, cycle)
}

func TestCheckCycle_AgainstDatabaseChain(t *testing.T) {
	db := newTestDB(t)
	statuses := NewStatusService(db)
	byName := seedDefaultStatuses(t, statuses)
	owner := seedUser(t, db, "alice")
	project := seedProject(t, db, "ABC", owner.ID)
	svc := NewHierarchyService(db)

	a := seedWorkItem(t, db, project.ID, "ABC-1", models.TypeTask, byName["TODO"].ID)
	b := models.WorkItem{
		ProjectID: project.ID, Key: "ABC-2", Summary: "b",
		Type: models.TypeSubtask, StatusID: byName["TODO"].ID, ParentID: &a.ID,
	}
	require.NoError(t, db.Create(&b).Error)

	// b's chain includes a, so a cannot be reparented under b
	err := svc.CheckCycle(a.ID, b.ID)
	require.Equal(t, apperrors.KindCircularHierarchy, apperrors.KindOf(err))

	// the other direction is fine
	require.NoError(t, svc.CheckCycle(b.ID, a.ID))
}

func ptr[T any](v T) *T { return &v }
