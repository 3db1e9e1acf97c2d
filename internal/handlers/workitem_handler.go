package handlers

import (
	"encoding/json"
	"net/http"

	"project-planning-api/internal/models"
	"project-planning-api/internal/realtime"
	"project-planning-api/internal/services"

	"github.com/gin-gonic/gin"
)

// CreateWorkItemRequest represents the request payload for creating a work item
type CreateWorkItemRequest struct {
	Summary     string              `json:"summary" binding:"required"`
	Description string              `json:"description"`
	Type        models.WorkItemType `json:"type" binding:"required"`
	Priority    models.Priority     `json:"priority"`
	AssigneeID  *uint               `json:"assigneeId"`
	EpicID      *uint               `json:"epicId"`
	ParentID    *uint               `json:"parentWorkItemId"`
}

// UpdateWorkItemRequest represents the request payload for updating a work item
type UpdateWorkItemRequest struct {
	Summary     *string              `json:"summary"`
	Description *string              `json:"description"`
	Priority    *models.Priority     `json:"priority"`
	Type        *models.WorkItemType `json:"type"`
	EpicID      *uint                `json:"epicId"`
	ClearEpic   bool                 `json:"clearEpic"`
}

// UpdateWorkItemStatusRequest is a minimal request to change status
type UpdateWorkItemStatusRequest struct {
	StatusID uint `json:"statusId" binding:"required"`
}

// AssignRequest sets or clears (null) the assignee
type AssignRequest struct {
	AssigneeID *uint `json:"assigneeId"`
}

// UpdateParentRequest sets or clears (null) the parent work item
type UpdateParentRequest struct {
	ParentID *uint `json:"parentWorkItemId"`
}

func broadcastProjectEvent(projectID uint, event map[string]any) {
	if bytes, err := json.Marshal(event); err == nil {
		realtime.GetHub().Broadcast(projectID, bytes)
	}
}

// CreateWorkItem handles POST /api/projects/:id/work-items
func CreateWorkItem(c *gin.Context) {
	callerID, ok := caller(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req CreateWorkItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := getServices().workflow.CreateWorkItem(services.CreateWorkItemInput{
		ProjectID:   projectID,
		Summary:     req.Summary,
		Description: req.Description,
		Type:        req.Type,
		Priority:    req.Priority,
		AssigneeID:  req.AssigneeID,
		EpicID:      req.EpicID,
		ParentID:    req.ParentID,
	}, callerID)
	if err != nil {
		respondError(c, err)
		return
	}

	broadcastProjectEvent(projectID, map[string]any{
		"type":       "work_item_created",
		"projectId":  projectID,
		"workItemId": item.ID,
		"key":        item.Key,
	})
	c.JSON(http.StatusCreated, item)
}

// GetWorkItems handles GET /api/projects/:id/work-items
func GetWorkItems(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, err := getServices().projects.GetProject(projectID); err != nil {
		respondError(c, err)
		return
	}
	items, err := getServices().workflow.ListWorkItems(projectID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"workItems": items, "count": len(items)})
}

// GetWorkItemByID handles GET /api/work-items/:id
func GetWorkItemByID(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	item, err := getServices().workflow.GetWorkItem(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// UpdateWorkItem handles PUT /api/work-items/:id
func UpdateWorkItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req UpdateWorkItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := getServices().workflow.UpdateWorkItem(id, services.UpdateWorkItemInput{
		Summary:     req.Summary,
		Description: req.Description,
		Priority:    req.Priority,
		Type:        req.Type,
		EpicID:      req.EpicID,
		ClearEpic:   req.ClearEpic,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	broadcastProjectEvent(item.ProjectID, map[string]any{
		"type":       "work_item_updated",
		"projectId":  item.ProjectID,
		"workItemId": item.ID,
	})
	c.JSON(http.StatusOK, item)
}

// UpdateWorkItemStatus handles PATCH /api/work-items/:id/status
func UpdateWorkItemStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req UpdateWorkItemStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := getServices().workflow.UpdateWorkItemStatus(id, req.StatusID)
	if err != nil {
		respondError(c, err)
		return
	}

	broadcastProjectEvent(item.ProjectID, map[string]any{
		"type":       "work_item_status_changed",
		"projectId":  item.ProjectID,
		"workItemId": item.ID,
		"statusId":   item.StatusID,
	})
	c.JSON(http.StatusOK, item)
}

// AssignWorkItem handles PATCH /api/work-items/:id/assignee
func AssignWorkItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := getServices().workflow.AssignWorkItem(id, req.AssigneeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// UpdateWorkItemParent handles PATCH /api/work-items/:id/parent
func UpdateWorkItemParent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req UpdateParentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := getServices().workflow.UpdateWorkItemParent(id, req.ParentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteWorkItem handles DELETE /api/work-items/:id
func DeleteWorkItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	item, err := getServices().workflow.GetWorkItem(id)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := getServices().workflow.DeleteWorkItem(id); err != nil {
		respondError(c, err)
		return
	}

	broadcastProjectEvent(item.ProjectID, map[string]any{
		"type":       "work_item_deleted",
		"projectId":  item.ProjectID,
		"workItemId": id,
	})
	c.JSON(http.StatusOK, gin.H{"message": "Work item deleted successfully", "id": id})
}
