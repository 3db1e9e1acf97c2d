package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"project-planning-api/internal/auth"
	"project-planning-api/internal/database"
	"project-planning-api/internal/middleware"
	"project-planning-api/internal/models"
	"project-planning-api/internal/services"
	"project-planning-api/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newBoardAPI(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := testutil.NewInMemoryDB()
	require.NoError(t, err)
	database.DB = db

	r := gin.New()
	r.Use(middleware.JWTAuthMiddleware())
	r.POST("/api/projects", CreateProject)
	r.POST("/api/statuses/bootstrap", BootstrapStatuses)
	r.POST("/api/projects/:id/board", CreateBoard)
	r.GET("/api/projects/:id/board/view", GetBoardView)
	r.POST("/api/projects/:id/work-items", CreateWorkItem)
	r.POST("/api/projects/:id/board/move", MoveWorkItem)
	return r, db
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBoardFlow_CreateMoveAndView(t *testing.T) {
	r, db := newBoardAPI(t)

	owner := models.User{Username: "alice", PasswordHash: "x"}
	require.NoError(t, db.Create(&owner).Error)
	token, err := auth.GenerateToken(owner.ID, owner.Username)
	require.NoError(t, err)

	w := doJSON(t, r, http.MethodPost, "/api/statuses/bootstrap", token, gin.H{})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/projects", token, gin.H{
		"key":  "TST",
		"name": "Test",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var project models.Project
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &project))

	w = doJSON(t, r, http.MethodPost, "/api/projects/1/board", token, gin.H{})
	require.Equal(t, http.StatusCreated, w.Code)
	var board models.Board
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &board))
	require.Equal(t, "Test Board", board.Name)

	w = doJSON(t, r, http.MethodPost, "/api/projects/1/work-items", token, gin.H{
		"summary": "First item",
		"type":    "task",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var item models.WorkItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))
	require.Equal(t, "TST-1", item.Key)

	var done models.Status
	require.NoError(t, db.Where("name = ?", "DONE").First(&done).Error)

	w = doJSON(t, r, http.MethodPost, "/api/projects/1/board/move", token, gin.H{
		"workItemId": item.ID,
		"toStatusId": done.ID,
	})
	require.Equal(t, http.StatusOK, w.Code)
	var moved models.WorkItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &moved))
	require.Equal(t, done.ID, moved.StatusID)

	w = doJSON(t, r, http.MethodGet, "/api/projects/1/board/view", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view services.BoardView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	require.Len(t, view.Columns, 5)
	require.Equal(t, 1, view.TotalItems)
	for _, col := range view.Columns {
		if col.StatusID == done.ID {
			require.Equal(t, 1, col.Count)
			require.Equal(t, "TST-1", col.Items[0].Key)
		}
	}
}

func TestBoardFlow_MoveRequiresOwner(t *testing.T) {
	r, db := newBoardAPI(t)

	owner := models.User{Username: "alice", PasswordHash: "x"}
	require.NoError(t, db.Create(&owner).Error)
	intruder := models.User{Username: "mallory", PasswordHash: "x"}
	require.NoError(t, db.Create(&intruder).Error)

	ownerToken, err := auth.GenerateToken(owner.ID, owner.Username)
	require.NoError(t, err)
	intruderToken, err := auth.GenerateToken(intruder.ID, intruder.Username)
	require.NoError(t, err)

	w := doJSON(t, r, http.MethodPost, "/api/statuses/bootstrap", ownerToken, gin.H{})
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, r, http.MethodPost, "/api/projects", ownerToken, gin.H{"key": "TST", "name": "Test"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = doJSON(t, r, http.MethodPost, "/api/projects/1/board", ownerToken, gin.H{})
	require.Equal(t, http.StatusCreated, w.Code)
	w = doJSON(t, r, http.MethodPost, "/api/projects/1/work-items", ownerToken, gin.H{
		"summary": "First item",
		"type":    "task",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var item models.WorkItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))

	var done models.Status
	require.NoError(t, db.Where("name = ?", "DONE").First(&done).Error)

	w = doJSON(t, r, http.MethodPost, "/api/projects/1/board/move", intruderToken, gin.H{
		"workItemId": item.ID,
		"toStatusId": done.ID,
	})
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestBoardFlow_RejectsAnonymous(t *testing.T) {
	r, _ := newBoardAPI(t)

	w := doJSON(t, r, http.MethodGet, "/api/projects/1/board/view", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
