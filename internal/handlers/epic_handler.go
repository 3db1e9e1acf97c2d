package handlers

import (
	"net/http"

	"project-planning-api/internal/models"
	"project-planning-api/internal/services"

	"github.com/gin-gonic/gin"
)

// CreateEpicRequest represents the request payload for creating an epic
type CreateEpicRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Priority    models.Priority `json:"priority"`
	AssigneeID  *uint           `json:"assigneeId"`
}

// UpdateEpicRequest represents the request payload for updating an epic
type UpdateEpicRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Priority    *models.Priority `json:"priority"`
}

// UpdateEpicStatusRequest is a minimal request to change status
type UpdateEpicStatusRequest struct {
	StatusID uint `json:"statusId" binding:"required"`
}

// CreateEpic handles POST /api/projects/:id/epics
func CreateEpic(c *gin.Context) {
	callerID, ok := caller(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req CreateEpicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	epic, err := getServices().workflow.CreateEpic(services.CreateEpicInput{
		ProjectID:   projectID,
		Name:        req.Name,
		Description: req.Description,
		Priority:    req.Priority,
		AssigneeID:  req.AssigneeID,
	}, callerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, epic)
}

// GetEpics handles GET /api/projects/:id/epics
func GetEpics(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, err := getServices().projects.GetProject(projectID); err != nil {
		respondError(c, err)
		return
	}
	epics, err := getServices().workflow.ListEpics(projectID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"epics": epics, "count": len(epics)})
}

// GetEpicByID handles GET /api/epics/:id
func GetEpicByID(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	epic, err := getServices().workflow.GetEpic(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, epic)
}

// UpdateEpic handles PUT /api/epics/:id
func UpdateEpic(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req UpdateEpicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	epic, err := getServices().workflow.UpdateEpic(id, services.UpdateEpicInput{
		Name:        req.Name,
		Description: req.Description,
		Priority:    req.Priority,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, epic)
}

// UpdateEpicStatus handles PATCH /api/epics/:id/status
func UpdateEpicStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req UpdateEpicStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	epic, err := getServices().workflow.UpdateEpicStatus(id, req.StatusID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, epic)
}

// AssignEpic handles PATCH /api/epics/:id/assignee
func AssignEpic(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	epic, err := getServices().workflow.AssignEpic(id, req.AssigneeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, epic)
}

// DeleteEpic handles DELETE /api/epics/:id
func DeleteEpic(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := getServices().workflow.DeleteEpic(id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Epic deleted successfully", "id": id})
}
