package services

import (
	"testing"

	"project-planning-api/internal/apperrors"
	"project-planning-api/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newBoard(db *gorm.DB) (*StatusService, *WorkflowService, *BoardService) {
	statuses, workflow := newWorkflow(db)
	return statuses, workflow, NewBoardService(db, statuses)
}

func TestCreateBoard_SnapshotsActiveStatuses(t *testing.T) {
	db := newTestDB(t)
	statuses, _, boards := newBoard(db)
	byName := seedDefaultStatuses(t, statuses)
	owner := seedUser(t, db, "alice")
	project := seedProject(t, db, "ABC", owner.ID)

	board, err := boards.CreateBoard(project.ID, "", "", owner.ID)
	require.NoError(t, err)
	require.Equal(t, "ABC project Board", board.Name)

	_, columns, err := boards.GetBoardByProject(project.ID)
	require.NoError(t, err)
	require.Len(t, columns, 5)
	for i, column := range columns {
		require.Equal(t, i, column.OrderIndex)
		require.Nil(t, column.WIPLimit)
		require.False(t, column.IsCollapsed)
	}
	require.Equal(t, byName["BACKLOG"].ID, columns[0].StatusID)
	require.Equal(t, byName["CANCELLED"].ID, columns[4].StatusID)
}

func TestCreateBoard_DuplicateRejected(t *testing.T) {
	db := newTestDB(t)
	statuses, _, boards := newBoard(db)
	seedDefaultStatuses(t, statuses)
	owner := seedUser(t, db, "alice")
	project := seedProject(t, db, "ABC", owner.ID)

	_, err := boards.CreateBoard(project.ID, "", "", owner.ID)
	require.NoError(t, err)

	_, err = boards.CreateBoard(project.ID, "", "", owner.ID)
	require.Error(t, err)
	require.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))
}

func TestCreateBoard_ValidationOrder(t *testing.T) {
	db := newTestDB(t)
	statuses, _, boards := newBoard(db)
	seedDefaultStatuses(t, statuses)
	owner := seedUser(t, db, "alice")
	stranger := seedUser(t, db, "mallory")
	project := seedProject(t, db, "ABC", owner.ID)

	// a non-owner hitting a missing project sees NotFound, not Forbidden
	_, err := boards.CreateBoard(999, "", "", stranger.ID)
	require.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	_, err = boards.CreateBoard(project.ID, "", "", stranger.ID)
	require.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
}

func TestColumns_AreASnapshotUntilReconciled(t *testing.T) {
	db := newTestDB(t)
	statuses, _, boards := newBoard(db)
	seedDefaultStatuses(t, statuses)
	owner := seedUser(t, db, "alice")
	project := seedProject(t, db, "ABC", owner.ID)

	_, err := boards.CreateBoard(project.ID, "", "", owner.ID)
	require.NoError(t, err)

	review, err := statuses.CreateStatus(CreateStatusInput{Name: "REVIEW", OrderIndex: 5})
	require.NoError(t, err)

	// the new status does not appear on its own
	_, columns, err := boards.GetBoardByProject(project.ID)
	require.NoError(t, err)
	require.Len(t, columns, 5)

	columns, err = boards.ReconcileColumns(project.ID, owner.ID)
	require.NoError(t, err)
	require.Len(t, columns, 6)
	require.Equal(t, review.ID, columns[5].StatusID)
	require.Equal(t, 5, columns[5].OrderIndex)
}

func TestReconcileColumns_DropsInactiveAndRenumbers(t *testing.T) {
	db := newTestDB(t)
	statuses, _, boards := newBoard(db)
	byName := seedDefaultStatuses(t, statuses)
	owner := seedUser(t, db, "alice")
	project := seedProject(t, db, "ABC", owner.ID)

	_, err := boards.CreateBoard(project.ID, "", "", owner.ID)
	require.NoError(t, err)

	inactive := false
	_, err = statuses.UpdateStatus(byName["BACKLOG"].ID, UpdateStatusInput{IsActive: &inactive})
	require.NoError(t, err)

	columns, err := boards.ReconcileColumns(project.ID, owner.ID)
	require.NoError(t, err)
	require.Len(t, columns, 4)
	for i, column := range columns {
		require.Equal(t, i, column.OrderIndex)
		require.NotEqual(t, byName["BACKLOG"].ID, column.StatusID)
	}
}

func TestGetBoardView_FiltersAndCounts(t *testing.T) {
	db := newTestDB(t)
	statuses, workflow, boards := newBoard(db)
	byName := seedDefaultStatuses(t, statuses)
	owner := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	project := seedProject(t, db, "ABC", owner.ID)

	_, err := boards.CreateBoard(project.ID, "", "", owner.ID)
	require.NoError(t, err)

	epic, err := workflow.CreateEpic(CreateEpicInput{ProjectID: project.ID, Name: "Theme"}, owner.ID)
	require.NoError(t, err)

	first, err := workflow.CreateWorkItem(CreateWorkItemInput{
		ProjectID: project.ID, Summary: "Login page", Type: models.TypeTask,
		AssigneeID: &bob.ID, EpicID: &epic.ID,
	}, owner.ID)
	require.NoError(t, err)
	_, err = workflow.CreateWorkItem(CreateWorkItemInput{
		ProjectID: project.ID, Summary: "Logout flow", Type: models.TypeBug,
	}, owner.ID)
	require.NoError(t, err)

	// unfiltered: both items land in the TODO column
	view, err := boards.GetBoardView(project.ID, BoardFilters{})
	require.NoError(t, err)
	require.Equal(t, 2, view.TotalItems)
	var todo *BoardColumnView
	for i := range view.Columns {
		if view.Columns[i].StatusID == byName["TODO"].ID {
			todo = &view.Columns[i]
		}
	}
	require.NotNil(t, todo)
	require.Equal(t, 2, todo.Count)
	require.Equal(t, "TODO", todo.StatusName)
	require.Equal(t, "bob", todo.Items[0].AssigneeName)

	// empty non-nil filter slices behave exactly like no filter
	view, err = boards.GetBoardView(project.ID, BoardFilters{AssigneeIDs: []uint{}, EpicIDs: []uint{}})
	require.NoError(t, err)
	require.Equal(t, 2, view.TotalItems)

	// assignee filter
	view, err = boards.GetBoardView(project.ID, BoardFilters{AssigneeIDs: []uint{bob.ID}})
	require.NoError(t, err)
	require.Equal(t, 1, view.TotalItems)

	// epic filter
	view, err = boards.GetBoardView(project.ID, BoardFilters{EpicIDs: []uint{epic.ID}})
	require.NoError(t, err)
	require.Equal(t, 1, view.TotalItems)

	// search is a case-sensitive substring over key and summary
	view, err = boards.GetBoardView(project.ID, BoardFilters{SearchText: "Login"})
	require.NoError(t, err)
	require.Equal(t, 1, view.TotalItems)

	view, err = boards.GetBoardView(project.ID, BoardFilters{SearchText: "login"})
	require.NoError(t, err)
	require.Equal(t, 0, view.TotalItems)

	view, err = boards.GetBoardView(project.ID, BoardFilters{SearchText: first.Key})
	require.NoError(t, err)
	require.Equal(t, 1, view.TotalItems)

	// spaces inside a term are part of the term, not stripped
	view, err = boards.GetBoardView(project.ID, BoardFilters{SearchText: " page"})
	require.NoError(t, err)
	require.Equal(t, 1, view.TotalItems)

	view, err = boards.GetBoardView(project.ID, BoardFilters{SearchText: "page "})
	require.NoError(t, err)
	require.Equal(t, 0, view.TotalItems)

	// a whitespace-only term is no filter at all
	view, err = boards.GetBoardView(project.ID, BoardFilters{SearchText: "   "})
	require.NoError(t, err)
	require.Equal(t, 2, view.TotalItems)

	// filters are conjunctive
	view, err = boards.GetBoardView(project.ID, BoardFilters{AssigneeIDs: []uint{bob.ID}, SearchText: "Logout"})
	require.NoError(t, err)
	require.Equal(t, 0, view.TotalItems)
}

func TestUpdateColumn_AdvisoryWIPAndVersioning(t *testing.T) {
	db := newTestDB(t)
	statuses, workflow, boards := newBoard(db)
	seedDefaultStatuses(t, statuses)
	owner := seedUser(t, db, "alice")
	project := seedProject(t, db, "ABC", owner.ID)

	_, err := boards.CreateBoard(project.ID, "", "", owner.ID)
	require.NoError(t, err)
	_, columns, err := boards.GetBoardByProject(project.ID)
	require.NoError(t, err)
	todoColumn := columns[1]

	for i := 0; i < 3; i++ {
		_, err = workflow.CreateWorkItem(CreateWorkItemInput{
			ProjectID: project.ID, Summary: "item", Type: models.TypeTask,
		}, owner.ID)
		require.NoError(t, err)
	}

	// a limit below the current item count is accepted: it is display-only
	limit := 1
	updated, err := boards.UpdateColumn(project.ID, todoColumn.ID, UpdateColumnInput{
		WIPLimit: &limit, IsCollapsed: true, Version: todoColumn.Version,
	}, owner.ID)
	require.NoError(t, err)
	require.Equal(t, 1, *updated.WIPLimit)
	require.True(t, updated.IsCollapsed)
	require.Equal(t, todoColumn.Version+1, updated.Version)

	// a write against the stale token is a conflict
	_, err = boards.UpdateColumn(project.ID, todoColumn.ID, UpdateColumnInput{
		WIPLimit: nil, IsCollapsed: false, Version: todoColumn.Version,
	}, owner.ID)
	require.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))

	// negative limits are rejected
	negative := -1
	_, err = boards.UpdateColumn(project.ID, todoColumn.ID, UpdateColumnInput{
		WIPLimit: &negative, IsCollapsed: false, Version: updated.Version,
	}, owner.ID)
	require.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))
}

func TestReorderColumns_Validation(t *testing.T) {
	db := newTestDB(t)
	statuses, _, boards := newBoard(db)
	seedDefaultStatuses(t, statuses)
	owner := seedUser(t, db, "alice")
	project := seedProject(t, db, "ABC", owner.ID)
	other := seedProject(t, db, "XYZ", owner.ID)

	_, err := boards.CreateBoard(project.ID, "", "", owner.ID)
	require.NoError(t, err)
	_, err = boards.CreateBoard(other.ID, "", "", owner.ID)
	require.NoError(t, err)

	_, columns, err := boards.GetBoardByProject(project.ID)
	require.NoError(t, err)
	_, otherColumns, err := boards.GetBoardByProject(other.ID)
	require.NoError(t, err)

	ids := func(cols []models.BoardColumn) []uint {
		out := make([]uint, len(cols))
		for i, c := range cols {
			out[i] = c.ID
		}
		return out
	}

	// too short
	_, err = boards.ReorderColumns(project.ID, ids(columns)[:4], owner.ID)
	require.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))

	// a column from another board
	foreign := ids(columns)
	foreign[0] = otherColumns[0].ID
	_, err = boards.ReorderColumns(project.ID, foreign, owner.ID)
	require.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))

	// a duplicated id shrinks the effective set and is rejected
	duplicated := ids(columns)
	duplicated[1] = duplicated[0]
	_, err = boards.ReorderColumns(project.ID, duplicated, owner.ID)
	require.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))

	// a valid permutation is applied positionally
	reversed := ids(columns)
	for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
		reversed[i], reversed[j] = reversed[j], reversed[i]
	}
	reordered, err := boards.ReorderColumns(project.ID, reversed, owner.ID)
	require.NoError(t, err)
	require.Equal(t, reversed[0], reordered[0].ID)
	require.Equal(t, 0, reordered[0].OrderIndex)
	require.Equal(t, reversed[4], reordered[4].ID)
}

func TestMoveWorkItem_NoOpOnSameStatus(t *testing.T) {
	db := newTestDB(t)
	statuses, workflow, boards := newBoard(db)
	byName := seedDefaultStatuses(t, statuses)
	owner := seedUser(t, db, "alice")
	project := seedProject(t, db, "ABC", owner.ID)

	_, err := boards.CreateBoard(project.ID, "", "", owner.ID)
	require.NoError(t, err)
	item, err := workflow.CreateWorkItem(CreateWorkItemInput{
		ProjectID: project.ID, Summary: "item", Type: models.TypeTask,
	}, owner.ID)
	require.NoError(t, err)
	before := item.UpdatedAt

	moved, err := boards.MoveWorkItem(project.ID, item.ID, byName["TODO"].ID, owner.ID)
	require.NoError(t, err)
	require.Equal(t, byName["TODO"].ID, moved.StatusID)

	var reloaded models.WorkItem
	require.NoError(t, db.First(&reloaded, item.ID).Error)
	require.True(t, reloaded.UpdatedAt.Equal(before), "a no-op move must not touch the timestamp")
}

func TestMoveWorkItem_RequiresAColumn(t *testing.T) {
	db := newTestDB(t)
	statuses, workflow, boards := newBoard(db)
	seedDefaultStatuses(t, statuses)
	owner := seedUser(t, db, "alice")
	project := seedProject(t, db, "ABC", owner.ID)

	_, err := boards.CreateBoard(project.ID, "", "", owner.ID)
	require.NoError(t, err)
	item, err := workflow.CreateWorkItem(CreateWorkItemInput{
		ProjectID: project.ID, Summary: "item", Type: models.TypeTask,
	}, owner.ID)
	require.NoError(t, err)

	// a status created after the board has no column yet
	review, err := statuses.CreateStatus(CreateStatusInput{Name: "REVIEW", OrderIndex: 5})
	require.NoError(t, err)

	_, err = boards.MoveWorkItem(project.ID, item.ID, review.ID, owner.ID)
	require.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))

	// an unknown status is NotFound, not BadRequest
	_, err = boards.MoveWorkItem(project.ID, item.ID, 999, owner.ID)
	require.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestMoveWorkItem_OwnerOnly(t *testing.T) {
	db := newTestDB(t)
	statuses, workflow, boards := newBoard(db)
	byName := seedDefaultStatuses(t, statuses)
	owner := seedUser(t, db, "alice")
	stranger := seedUser(t, db, "mallory")
	project := seedProject(t, db, "ABC", owner.ID)

	_, err := boards.CreateBoard(project.ID, "", "", owner.ID)
	require.NoError(t, err)
	item, err := workflow.CreateWorkItem(CreateWorkItemInput{
		ProjectID: project.ID, Summary: "item", Type: models.TypeTask,
	}, owner.ID)
	require.NoError(t, err)

	_, err = boards.MoveWorkItem(project.ID, item.ID, byName["DONE"].ID, stranger.ID)
	require.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
}

func TestBoardLifecycle_EndToEnd(t *testing.T) {
	db := newTestDB(t)
	statuses, workflow, boards := newBoard(db)
	owner := seedUser(t, db, "user-one")
	project := seedProject(t, db, "TST", owner.ID)

	byName := seedDefaultStatuses(t, statuses)
	require.Len(t, byName, 5)

	_, err := boards.CreateBoard(project.ID, "", "", owner.ID)
	require.NoError(t, err)
	_, columns, err := boards.GetBoardByProject(project.ID)
	require.NoError(t, err)
	require.Len(t, columns, 5)
	for i, column := range columns {
		require.Equal(t, i, column.OrderIndex)
	}

	item, err := workflow.CreateWorkItem(CreateWorkItemInput{
		ProjectID: project.ID, Summary: "Ship it", Type: models.TypeTask,
	}, owner.ID)
	require.NoError(t, err)
	require.Equal(t, "TST-1", item.Key)
	require.Equal(t, byName["TODO"].ID, item.StatusID)

	view, err := boards.GetBoardView(project.ID, BoardFilters{})
	require.NoError(t, err)
	for _, column := range view.Columns {
		if column.StatusID == byName["TODO"].ID {
			require.Equal(t, 1, column.Count)
		} else {
			require.Equal(t, 0, column.Count)
		}
	}

	// no explicit rule yet: the permissive default lets the move through
	moved, err := boards.MoveWorkItem(project.ID, item.ID, byName["DONE"].ID, owner.ID)
	require.NoError(t, err)
	require.Equal(t, byName["DONE"].ID, moved.StatusID)

	// an explicit deny now blocks the way back
	_, err = statuses.CreateStatusTransition(byName["DONE"].ID, byName["TODO"].ID, false)
	require.NoError(t, err)

	_, err = boards.MoveWorkItem(project.ID, item.ID, byName["TODO"].ID, owner.ID)
	require.Equal(t, apperrors.KindInvalidStatusTransition, apperrors.KindOf(err))
}

func TestDeleteBoard_CascadesColumns(t *testing.T) {
	db := newTestDB(t)
	statuses, _, boards := newBoard(db)
	seedDefaultStatuses(t, statuses)
	owner := seedUser(t, db, "alice")
	stranger := seedUser(t, db, "mallory")
	project := seedProject(t, db, "ABC", owner.ID)

	board, err := boards.CreateBoard(project.ID, "", "", owner.ID)
	require.NoError(t, err)

	require.Equal(t, apperrors.KindForbidden, apperrors.KindOf(boards.DeleteBoard(project.ID, stranger.ID)))
	require.NoError(t, boards.DeleteBoard(project.ID, owner.ID))

	_, _, err = boards.GetBoardByProject(project.ID)
	require.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	var count int64
	require.NoError(t, db.Model(&models.BoardColumn{}).Where("board_id = ?", board.ID).Count(&count).Error)
	require.Zero(t, count)
}
