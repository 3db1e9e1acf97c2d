package handlers

import (
	"net/http"

	"project-planning-api/internal/services"

	"github.com/gin-gonic/gin"
)

// CreateProjectRequest represents the request payload for creating a project
type CreateProjectRequest struct {
	Key         string `json:"key" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// UpdateProjectRequest represents the request payload for updating a project
type UpdateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// CreateProject handles POST /api/projects
func CreateProject(c *gin.Context) {
	callerID, ok := caller(c)
	if !ok {
		return
	}
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := getServices().projects.CreateProject(services.CreateProjectInput{
		Key:         req.Key,
		Name:        req.Name,
		Description: req.Description,
	}, callerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

// GetProjects handles GET /api/projects
func GetProjects(c *gin.Context) {
	projects, err := getServices().projects.ListProjects()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects, "count": len(projects)})
}

// GetProjectByID handles GET /api/projects/:id
func GetProjectByID(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	project, err := getServices().projects.GetProject(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// UpdateProject handles PUT /api/projects/:id
func UpdateProject(c *gin.Context) {
	callerID, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := getServices().projects.UpdateProject(id, services.UpdateProjectInput{
		Name:        req.Name,
		Description: req.Description,
	}, callerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// DeleteProject handles DELETE /api/projects/:id
func DeleteProject(c *gin.Context) {
	callerID, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := getServices().projects.DeleteProject(id, callerID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully", "id": id})
}
