package handlers

import (
	"net/http"
	"strconv"

	"project-planning-api/internal/services"

	"github.com/gin-gonic/gin"
)

// CreateStatusRequest represents the request payload for creating a status
type CreateStatusRequest struct {
	Name            string `json:"name" binding:"required"`
	Color           string `json:"color"`
	OrderIndex      int    `json:"orderIndex"`
	IsDefaultForNew bool   `json:"isDefaultForNew"`
	IsCompleted     bool   `json:"isCompleted"`
	IsCancelled     bool   `json:"isCancelled"`
}

// UpdateStatusRequest represents the request payload for updating a status
type UpdateStatusRequest struct {
	Name            *string `json:"name"`
	Color           *string `json:"color"`
	OrderIndex      *int    `json:"orderIndex"`
	IsDefaultForNew *bool   `json:"isDefaultForNew"`
	IsCompleted     *bool   `json:"isCompleted"`
	IsCancelled     *bool   `json:"isCancelled"`
	IsActive        *bool   `json:"isActive"`
}

// CreateTransitionRequest represents the request payload for a transition rule
type CreateTransitionRequest struct {
	FromStatusID uint  `json:"fromStatusId" binding:"required"`
	ToStatusID   uint  `json:"toStatusId" binding:"required"`
	IsAllowed    *bool `json:"isAllowed" binding:"required"`
}

// CreateStatus handles POST /api/statuses
func CreateStatus(c *gin.Context) {
	var req CreateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status, err := getServices().statuses.CreateStatus(services.CreateStatusInput{
		Name:            req.Name,
		Color:           req.Color,
		OrderIndex:      req.OrderIndex,
		IsDefaultForNew: req.IsDefaultForNew,
		IsCompleted:     req.IsCompleted,
		IsCancelled:     req.IsCancelled,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, status)
}

// GetStatuses handles GET /api/statuses
func GetStatuses(c *gin.Context) {
	statuses, err := getServices().statuses.ListStatuses()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"statuses": statuses, "count": len(statuses)})
}

// UpdateStatus handles PUT /api/statuses/:id
func UpdateStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status, err := getServices().statuses.UpdateStatus(id, services.UpdateStatusInput{
		Name:            req.Name,
		Color:           req.Color,
		OrderIndex:      req.OrderIndex,
		IsDefaultForNew: req.IsDefaultForNew,
		IsCompleted:     req.IsCompleted,
		IsCancelled:     req.IsCancelled,
		IsActive:        req.IsActive,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// DeleteStatus handles DELETE /api/statuses/:id
func DeleteStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := getServices().statuses.DeleteStatus(id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Status deleted successfully", "id": id})
}

// BootstrapStatuses handles POST /api/statuses/bootstrap
// Seeds the default workflow; a no-op when statuses already exist.
func BootstrapStatuses(c *gin.Context) {
	statuses, err := getServices().statuses.CreateDefaultStatuses()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"statuses": statuses, "count": len(statuses)})
}

// GetAllowedTransitions handles GET /api/statuses/:id/transitions
// Lists only explicitly allowed target statuses.
func GetAllowedTransitions(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	targets, err := getServices().statuses.ListAllowedTargets(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"statuses": targets, "count": len(targets)})
}

// ValidateTransition handles GET /api/statuses/validate-transition?from=&to=
func ValidateTransition(c *gin.Context) {
	from, err1 := strconv.ParseUint(c.Query("from"), 10, 64)
	to, err2 := strconv.ParseUint(c.Query("to"), 10, 64)
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from and to must be status ids"})
		return
	}

	allowed, err := getServices().statuses.ValidateTransition(uint(from), uint(to))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"from": from, "to": to, "allowed": allowed})
}

// CreateStatusTransition handles POST /api/status-transitions
func CreateStatusTransition(c *gin.Context) {
	var req CreateTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rule, err := getServices().statuses.CreateStatusTransition(req.FromStatusID, req.ToStatusID, *req.IsAllowed)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rule)
}
