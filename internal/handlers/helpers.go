package handlers

import (
	"net/http"
	"strconv"
	"sync"

	"project-planning-api/internal/apperrors"
	"project-planning-api/internal/database"
	"project-planning-api/internal/middleware"
	"project-planning-api/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// registry wires the service graph once per database handle. Tests swap
// database.DB for an in-memory instance, so the graph is rebuilt whenever
// the handle changes.
type registry struct {
	db       *gorm.DB
	projects *services.ProjectService
	statuses *services.StatusService
	workflow *services.WorkflowService
	board    *services.BoardService
}

var (
	regMu sync.Mutex
	reg   *registry
)

func getServices() *registry {
	regMu.Lock()
	defer regMu.Unlock()

	db := database.GetDB()
	if reg == nil || reg.db != db {
		statuses := services.NewStatusService(db)
		hierarchy := services.NewHierarchyService(db)
		keys := services.NewKeyService(db)
		reg = &registry{
			db:       db,
			projects: services.NewProjectService(db),
			statuses: statuses,
			workflow: services.NewWorkflowService(db, statuses, hierarchy, keys),
			board:    services.NewBoardService(db, statuses),
		}
	}
	return reg
}

// respondError translates a service error into the JSON error body. Errors
// outside the domain taxonomy are masked as a plain 500.
func respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		c.JSON(status, gin.H{"error": "Internal server error", "code": apperrors.Code(err)})
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": apperrors.Code(err)})
}

// pathID parses a numeric path parameter, replying 400 itself on failure.
func pathID(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name, "code": "BAD_REQUEST"})
		return 0, false
	}
	return uint(id), true
}

// caller extracts the authenticated user id, replying 401 itself when the
// middleware did not run.
func caller(c *gin.Context) (uint, bool) {
	id, ok := middleware.CallerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in token"})
		return 0, false
	}
	return id, true
}
