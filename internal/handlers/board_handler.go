package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"project-planning-api/internal/services"

	"github.com/gin-gonic/gin"
)

// CreateBoardRequest represents the request payload for creating a board
type CreateBoardRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UpdateBoardRequest represents the request payload for updating a board
type UpdateBoardRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// UpdateColumnRequest carries the writable column fields plus the version
// token read by the client.
type UpdateColumnRequest struct {
	WIPLimit    *int `json:"wipLimit"`
	IsCollapsed bool `json:"isCollapsed"`
	Version     uint `json:"version" binding:"required"`
}

// ReorderColumnsRequest submits the full column id list in the new order
type ReorderColumnsRequest struct {
	ColumnIDs []uint `json:"columnIds" binding:"required"`
}

// MoveWorkItemRequest moves an item into another column
type MoveWorkItemRequest struct {
	WorkItemID uint `json:"workItemId" binding:"required"`
	ToStatusID uint `json:"toStatusId" binding:"required"`
}

// CreateBoard handles POST /api/projects/:id/board
func CreateBoard(c *gin.Context) {
	callerID, ok := caller(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req CreateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	board, err := getServices().board.CreateBoard(projectID, req.Name, req.Description, callerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, board)
}

// GetBoard handles GET /api/projects/:id/board
func GetBoard(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	board, columns, err := getServices().board.GetBoardByProject(projectID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"board": board, "columns": columns})
}

// UpdateBoard handles PUT /api/projects/:id/board
func UpdateBoard(c *gin.Context) {
	callerID, ok := caller(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req UpdateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	board, err := getServices().board.UpdateBoard(projectID, services.UpdateBoardInput{
		Name:        req.Name,
		Description: req.Description,
	}, callerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, board)
}

// DeleteBoard handles DELETE /api/projects/:id/board
func DeleteBoard(c *gin.Context) {
	callerID, ok := caller(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := getServices().board.DeleteBoard(projectID, callerID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Board deleted successfully", "projectId": projectID})
}

// parseIDList turns "1,2,3" into ids, ignoring blanks.
func parseIDList(raw string) []uint {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]uint, 0, len(parts))
	for _, p := range parts {
		if v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64); err == nil {
			ids = append(ids, uint(v))
		}
	}
	return ids
}

// GetBoardView handles GET /api/projects/:id/board/view
// Query params: epicIds, assigneeIds (comma-separated), search.
func GetBoardView(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	view, err := getServices().board.GetBoardView(projectID, services.BoardFilters{
		EpicIDs:     parseIDList(c.Query("epicIds")),
		AssigneeIDs: parseIDList(c.Query("assigneeIds")),
		SearchText:  c.Query("search"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// UpdateColumn handles PATCH /api/projects/:id/board/columns/:columnId
func UpdateColumn(c *gin.Context) {
	callerID, ok := caller(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	columnID, ok := pathID(c, "columnId")
	if !ok {
		return
	}
	var req UpdateColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	column, err := getServices().board.UpdateColumn(projectID, columnID, services.UpdateColumnInput{
		WIPLimit:    req.WIPLimit,
		IsCollapsed: req.IsCollapsed,
		Version:     req.Version,
	}, callerID)
	if err != nil {
		respondError(c, err)
		return
	}

	broadcastProjectEvent(projectID, map[string]any{
		"type":      "board_column_updated",
		"projectId": projectID,
		"columnId":  column.ID,
	})
	c.JSON(http.StatusOK, column)
}

// ReorderColumns handles PUT /api/projects/:id/board/column-order
func ReorderColumns(c *gin.Context) {
	callerID, ok := caller(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req ReorderColumnsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	columns, err := getServices().board.ReorderColumns(projectID, req.ColumnIDs, callerID)
	if err != nil {
		respondError(c, err)
		return
	}

	broadcastProjectEvent(projectID, map[string]any{
		"type":      "board_columns_reordered",
		"projectId": projectID,
	})
	c.JSON(http.StatusOK, gin.H{"columns": columns})
}

// ReconcileColumns handles POST /api/projects/:id/board/reconcile
func ReconcileColumns(c *gin.Context) {
	callerID, ok := caller(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	columns, err := getServices().board.ReconcileColumns(projectID, callerID)
	if err != nil {
		respondError(c, err)
		return
	}

	broadcastProjectEvent(projectID, map[string]any{
		"type":      "board_columns_reconciled",
		"projectId": projectID,
	})
	c.JSON(http.StatusOK, gin.H{"columns": columns})
}

// MoveWorkItem handles POST /api/projects/:id/board/move
func MoveWorkItem(c *gin.Context) {
	callerID, ok := caller(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req MoveWorkItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := getServices().board.MoveWorkItem(projectID, req.WorkItemID, req.ToStatusID, callerID)
	if err != nil {
		respondError(c, err)
		return
	}

	broadcastProjectEvent(projectID, map[string]any{
		"type":       "work_item_moved",
		"projectId":  projectID,
		"workItemId": item.ID,
		"statusId":   item.StatusID,
	})
	c.JSON(http.StatusOK, item)
}
