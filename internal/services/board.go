package services

import (
	"errors"
	"strings"

	"project-planning-api/internal/apperrors"
	"project-planning-api/internal/models"

	"gorm.io/gorm"
)

// BoardService builds and maintains the one Kanban board each project may
// have: the column snapshot, the aggregated view, column edits and item
// moves. All mutations are owner-only.
type BoardService struct {
	db       *gorm.DB
	statuses *StatusService
}

// NewBoardService constructs a BoardService backed by db.
func NewBoardService(db *gorm.DB, statuses *StatusService) *BoardService {
	return &BoardService{db: db, statuses: statuses}
}

// BoardFilters narrows the items shown on a board view. All filters are
// conjunctive; an empty slice or blank search text means "no filter".
type BoardFilters struct {
	EpicIDs     []uint
	AssigneeIDs []uint
	SearchText  string
}

// BoardCard is the lightweight item representation shown in a column.
type BoardCard struct {
	ID           uint                `json:"id"`
	Key          string              `json:"key"`
	Summary      string              `json:"summary"`
	AssigneeID   *uint               `json:"assigneeId"`
	AssigneeName string              `json:"assigneeName"`
	Type         models.WorkItemType `json:"type"`
	Priority     models.Priority     `json:"priority"`
}

// BoardColumnView is one lane of the aggregated view, denormalizing the
// status display fields so consumers need no extra lookups.
type BoardColumnView struct {
	ID          uint        `json:"id"`
	StatusID    uint        `json:"statusId"`
	StatusName  string      `json:"statusName"`
	StatusColor string      `json:"statusColor"`
	OrderIndex  int         `json:"orderIndex"`
	WIPLimit    *int        `json:"wipLimit"`
	IsCollapsed bool        `json:"isCollapsed"`
	Version     uint        `json:"version"`
	Items       []BoardCard `json:"items"`
	Count       int         `json:"count"`
}

// BoardView is the read-only aggregate returned by GetBoardView.
type BoardView struct {
	Board      models.Board      `json:"board"`
	Columns    []BoardColumnView `json:"columns"`
	TotalItems int               `json:"totalItems"`
}

func (s *BoardService) getProject(projectID uint) (*models.Project, error) {
	var project models.Project
	if err := s.db.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("project %d not found", projectID)
		}
		return nil, err
	}
	return &project, nil
}

func (s *BoardService) getBoard(projectID uint) (*models.Board, error) {
	var board models.Board
	if err := s.db.Where("project_id = ?", projectID).First(&board).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("project %d has no board", projectID)
		}
		return nil, err
	}
	return &board, nil
}

func (s *BoardService) getColumns(boardID uint) ([]models.BoardColumn, error) {
	var columns []models.BoardColumn
	if err := s.db.Where("board_id = ?", boardID).Order("order_index asc").Find(&columns).Error; err != nil {
		return nil, err
	}
	return columns, nil
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// CreateBoard creates the project's board with one column per currently
// active status, in status display order, densely renumbered from 0. The
// column set is a snapshot: later status changes do not touch it (see
// ReconcileColumns).
func (s *BoardService) CreateBoard(projectID uint, name, description string, callerID uint) (*models.Board, error) {
	project, err := s.getProject(projectID)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != callerID {
		return nil, apperrors.Forbidden("only the project owner may create the board")
	}

	var count int64
	if err := s.db.Model(&models.Board{}).Where("project_id = ?", projectID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, apperrors.BadRequest("project %s already has a board", project.Key)
	}

	statuses, err := s.statuses.ListActiveStatuses()
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(name) == "" {
		name = project.Name + " Board"
	}
	board := models.Board{
		ProjectID:   projectID,
		Name:        strings.TrimSpace(name),
		Description: description,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&board).Error; err != nil {
			return err
		}
		for i, status := range statuses {
			column := models.BoardColumn{
				BoardID:     board.ID,
				StatusID:    status.ID,
				OrderIndex:  i,
				IsCollapsed: false,
				Version:     1,
			}
			if err := tx.Create(&column).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			// lost the creation race; the caller may re-read and retry
			return nil, apperrors.Conflict("a board was concurrently created for project %s", project.Key)
		}
		return nil, err
	}
	return &board, nil
}

// GetBoardByProject returns the project's board and its columns in display
// order.
func (s *BoardService) GetBoardByProject(projectID uint) (*models.Board, []models.BoardColumn, error) {
	if _, err := s.getProject(projectID); err != nil {
		return nil, nil, err
	}
	board, err := s.getBoard(projectID)
	if err != nil {
		return nil, nil, err
	}
	columns, err := s.getColumns(board.ID)
	if err != nil {
		return nil, nil, err
	}
	return board, columns, nil
}

// UpdateBoardInput carries optional updates; nil fields are unchanged.
type UpdateBoardInput struct {
	Name        *string
	Description *string
}

// UpdateBoard renames the board; owner-only.
func (s *BoardService) UpdateBoard(projectID uint, in UpdateBoardInput, callerID uint) (*models.Board, error) {
	project, err := s.getProject(projectID)
	if err != nil {
		return nil, err
	}
	board, err := s.getBoard(projectID)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != callerID {
		return nil, apperrors.Forbidden("only the project owner may update the board")
	}

	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, apperrors.BadRequest("board name is required")
		}
		board.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		board.Description = *in.Description
	}
	if err := s.db.Save(board).Error; err != nil {
		return nil, err
	}
	return board, nil
}

// DeleteBoard removes the board and all its columns; owner-only.
func (s *BoardService) DeleteBoard(projectID uint, callerID uint) error {
	project, err := s.getProject(projectID)
	if err != nil {
		return err
	}
	board, err := s.getBoard(projectID)
	if err != nil {
		return err
	}
	if project.OwnerID != callerID {
		return apperrors.Forbidden("only the project owner may delete the board")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("board_id = ?", board.ID).Delete(&models.BoardColumn{}).Error; err != nil {
			return err
		}
		return tx.Delete(board).Error
	})
}

// GetBoardView aggregates the project's work items into the board's
// columns, applying the filters conjunctively. Items sitting in a status
// the board has no column for are not shown or counted.
func (s *BoardService) GetBoardView(projectID uint, filters BoardFilters) (*BoardView, error) {
	if _, err := s.getProject(projectID); err != nil {
		return nil, err
	}
	board, err := s.getBoard(projectID)
	if err != nil {
		return nil, err
	}
	columns, err := s.getColumns(board.ID)
	if err != nil {
		return nil, err
	}

	var items []models.WorkItem
	if err := s.db.Where("project_id = ?", projectID).Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}

	statuses, err := s.statuses.ListStatuses()
	if err != nil {
		return nil, err
	}
	statusByID := make(map[uint]models.Status, len(statuses))
	for _, st := range statuses {
		statusByID[st.ID] = st
	}

	var users []models.User
	if err := s.db.Find(&users).Error; err != nil {
		return nil, err
	}
	userByID := make(map[uint]models.User, len(users))
	for _, u := range users {
		userByID[u.ID] = u
	}

	epicSet := make(map[uint]struct{}, len(filters.EpicIDs))
	for _, id := range filters.EpicIDs {
		epicSet[id] = struct{}{}
	}
	assigneeSet := make(map[uint]struct{}, len(filters.AssigneeIDs))
	for _, id := range filters.AssigneeIDs {
		assigneeSet[id] = struct{}{}
	}
	// whitespace-only input means no filter, but a real term keeps its
	// spaces and matches verbatim
	search := filters.SearchText
	if strings.TrimSpace(search) == "" {
		search = ""
	}

	itemsByStatus := make(map[uint][]BoardCard)
	for _, item := range items {
		if len(epicSet) > 0 {
			if item.EpicID == nil {
				continue
			}
			if _, ok := epicSet[*item.EpicID]; !ok {
				continue
			}
		}
		if len(assigneeSet) > 0 {
			if item.AssigneeID == nil {
				continue
			}
			if _, ok := assigneeSet[*item.AssigneeID]; !ok {
				continue
			}
		}
		if search != "" && !strings.Contains(item.Key, search) && !strings.Contains(item.Summary, search) {
			continue
		}

		card := BoardCard{
			ID:         item.ID,
			Key:        item.Key,
			Summary:    item.Summary,
			AssigneeID: item.AssigneeID,
			Type:       item.Type,
			Priority:   item.Priority,
		}
		if item.AssigneeID != nil {
			if u, ok := userByID[*item.AssigneeID]; ok {
				card.AssigneeName = u.DisplayName()
			}
		}
		itemsByStatus[item.StatusID] = append(itemsByStatus[item.StatusID], card)
	}

	view := BoardView{Board: *board, Columns: make([]BoardColumnView, 0, len(columns))}
	for _, column := range columns {
		cards := itemsByStatus[column.StatusID]
		if cards == nil {
			cards = []BoardCard{}
		}
		columnView := BoardColumnView{
			ID:          column.ID,
			StatusID:    column.StatusID,
			OrderIndex:  column.OrderIndex,
			WIPLimit:    column.WIPLimit,
			IsCollapsed: column.IsCollapsed,
			Version:     column.Version,
			Items:       cards,
			Count:       len(cards),
		}
		if st, ok := statusByID[column.StatusID]; ok {
			columnView.StatusName = st.Name
			columnView.StatusColor = st.Color
		}
		view.Columns = append(view.Columns, columnView)
		view.TotalItems += len(cards)
	}
	return &view, nil
}

// UpdateColumnInput carries the writable column fields plus the version
// token the caller read.
type UpdateColumnInput struct {
	WIPLimit    *int
	IsCollapsed bool
	Version     uint
}

// UpdateColumn sets a column's WIP limit and collapse state; owner-only.
// The WIP limit is advisory display metadata: lowering it below the
// column's current item count is accepted and moves never consult it. A
// stale version token is rejected as a conflict.
func (s *BoardService) UpdateColumn(projectID, columnID uint, in UpdateColumnInput, callerID uint) (*models.BoardColumn, error) {
	project, err := s.getProject(projectID)
	if err != nil {
		return nil, err
	}
	board, err := s.getBoard(projectID)
	if err != nil {
		return nil, err
	}

	var column models.BoardColumn
	if err := s.db.Where("id = ? AND board_id = ?", columnID, board.ID).First(&column).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("column %d not found on this board", columnID)
		}
		return nil, err
	}

	if project.OwnerID != callerID {
		return nil, apperrors.Forbidden("only the project owner may update columns")
	}
	if in.WIPLimit != nil && *in.WIPLimit < 0 {
		return nil, apperrors.BadRequest("wip limit must not be negative")
	}

	res := s.db.Model(&models.BoardColumn{}).
		Where("id = ? AND version = ?", columnID, in.Version).
		Updates(map[string]any{
			"wip_limit":    in.WIPLimit,
			"is_collapsed": in.IsCollapsed,
			"version":      gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.Conflict("column %d was modified concurrently; re-read and retry", columnID)
	}

	if err := s.db.First(&column, columnID).Error; err != nil {
		return nil, err
	}
	return &column, nil
}

// ReorderColumns rewrites the board's column order to match the submitted
// id list; owner-only. The submission must be exactly the board's column
// id set: wrong length, foreign ids and duplicates are all rejected, since
// a duplicate would silently shrink the effective set.
func (s *BoardService) ReorderColumns(projectID uint, columnIDs []uint, callerID uint) ([]models.BoardColumn, error) {
	project, err := s.getProject(projectID)
	if err != nil {
		return nil, err
	}
	board, err := s.getBoard(projectID)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != callerID {
		return nil, apperrors.Forbidden("only the project owner may reorder columns")
	}

	columns, err := s.getColumns(board.ID)
	if err != nil {
		return nil, err
	}
	if len(columnIDs) != len(columns) {
		return nil, apperrors.BadRequest("expected %d column ids, got %d", len(columns), len(columnIDs))
	}

	existing := make(map[uint]models.BoardColumn, len(columns))
	for _, column := range columns {
		existing[column.ID] = column
	}
	seen := make(map[uint]struct{}, len(columnIDs))
	for _, id := range columnIDs {
		if _, dup := seen[id]; dup {
			return nil, apperrors.BadRequest("column id %d appears more than once", id)
		}
		seen[id] = struct{}{}
		if _, ok := existing[id]; !ok {
			return nil, apperrors.BadRequest("column %d does not belong to this board", id)
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		for position, id := range columnIDs {
			res := tx.Model(&models.BoardColumn{}).
				Where("id = ? AND version = ?", id, existing[id].Version).
				Updates(map[string]any{
					"order_index": position,
					"version":     gorm.Expr("version + 1"),
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return apperrors.Conflict("column %d was modified concurrently; re-read and retry", id)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.getColumns(board.ID)
}

// MoveWorkItem moves a work item into another board column, checking the
// transition rules. A board only accepts moves into statuses it has a
// column for. Moving an item onto its current status is a silent no-op:
// nothing is written and the item's timestamp is untouched.
func (s *BoardService) MoveWorkItem(projectID, workItemID, toStatusID uint, callerID uint) (*models.WorkItem, error) {
	project, err := s.getProject(projectID)
	if err != nil {
		return nil, err
	}
	board, err := s.getBoard(projectID)
	if err != nil {
		return nil, err
	}

	var item models.WorkItem
	if err := s.db.Where("id = ? AND project_id = ?", workItemID, projectID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("work item %d not found in project %s", workItemID, project.Key)
		}
		return nil, err
	}

	toStatus, err := s.statuses.GetStatus(toStatusID)
	if err != nil {
		return nil, err
	}

	if project.OwnerID != callerID {
		return nil, apperrors.Forbidden("only the project owner may move items on the board")
	}

	var columnCount int64
	if err := s.db.Model(&models.BoardColumn{}).
		Where("board_id = ? AND status_id = ?", board.ID, toStatusID).
		Count(&columnCount).Error; err != nil {
		return nil, err
	}
	if columnCount == 0 {
		return nil, apperrors.BadRequest("the board has no column for status %q", toStatus.Name)
	}

	allowed, err := s.statuses.ValidateTransition(item.StatusID, toStatusID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperrors.InvalidStatusTransition("transition to status %q is not allowed", toStatus.Name)
	}

	if item.StatusID == toStatusID {
		return &item, nil
	}

	if err := s.db.Model(&item).Update("status_id", toStatusID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// ReconcileColumns realigns the board's columns with the current active
// status set: a column is added for every active status that lacks one and
// removed for every status that is gone or inactive, then the order is
// renumbered densely. This is a deliberate administrator action; nothing
// reconciles automatically. Owner-only.
func (s *BoardService) ReconcileColumns(projectID uint, callerID uint) ([]models.BoardColumn, error) {
	project, err := s.getProject(projectID)
	if err != nil {
		return nil, err
	}
	board, err := s.getBoard(projectID)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != callerID {
		return nil, apperrors.Forbidden("only the project owner may reconcile columns")
	}

	columns, err := s.getColumns(board.ID)
	if err != nil {
		return nil, err
	}
	active, err := s.statuses.ListActiveStatuses()
	if err != nil {
		return nil, err
	}
	activeByID := make(map[uint]struct{}, len(active))
	for _, st := range active {
		activeByID[st.ID] = struct{}{}
	}
	covered := make(map[uint]struct{}, len(columns))
	for _, column := range columns {
		covered[column.StatusID] = struct{}{}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		kept := make([]models.BoardColumn, 0, len(columns))
		for _, column := range columns {
			if _, ok := activeByID[column.StatusID]; !ok {
				if err := tx.Delete(&column).Error; err != nil {
					return err
				}
				continue
			}
			kept = append(kept, column)
		}

		next := len(kept)
		for _, st := range active {
			if _, ok := covered[st.ID]; ok {
				continue
			}
			column := models.BoardColumn{
				BoardID:    board.ID,
				StatusID:   st.ID,
				OrderIndex: next,
				Version:    1,
			}
			if err := tx.Create(&column).Error; err != nil {
				return err
			}
			next++
		}

		// close any gaps left by removed columns
		for i, column := range kept {
			if column.OrderIndex == i {
				continue
			}
			res := tx.Model(&models.BoardColumn{}).
				Where("id = ? AND version = ?", column.ID, column.Version).
				Updates(map[string]any{
					"order_index": i,
					"version":     gorm.Expr("version + 1"),
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return apperrors.Conflict("column %d was modified concurrently; re-read and retry", column.ID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.getColumns(board.ID)
}
