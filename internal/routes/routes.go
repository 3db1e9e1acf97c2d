package routes

import (
	"project-planning-api/internal/handlers"
	"project-planning-api/internal/middleware"

	"github.com/gin-gonic/gin"
)

func SetupRoutes() *gin.Engine {
	// Create a new GIN Router
	ginRouter := gin.Default()

	ginRouter.Use(middleware.RequestID())

	// CORS middleware (for frontend integration)
	ginRouter.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Health check endpoint
	ginRouter.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Project Planning API is running",
		})
	})

	// Public routes (no authentication required)
	api := ginRouter.Group("/api")
	{
		api.POST("/register", handlers.Register)
		api.POST("/login", handlers.Login)
	}

	// Protected routes (authentication required)
	protectedRoutes := api.Group("")
	protectedRoutes.Use(middleware.JWTAuthMiddleware())
	{
		// Users
		protectedRoutes.GET("/users", handlers.GetAllUsers)

		// Projects
		protectedRoutes.POST("/projects", handlers.CreateProject)
		protectedRoutes.GET("/projects", handlers.GetProjects)
		protectedRoutes.GET("/projects/:id", handlers.GetProjectByID)
		protectedRoutes.PUT("/projects/:id", handlers.UpdateProject)
		protectedRoutes.DELETE("/projects/:id", handlers.DeleteProject)

		// Statuses and transition rules
		protectedRoutes.GET("/statuses", handlers.GetStatuses)
		protectedRoutes.POST("/statuses", handlers.CreateStatus)
		protectedRoutes.POST("/statuses/bootstrap", handlers.BootstrapStatuses)
		protectedRoutes.GET("/statuses/validate-transition", handlers.ValidateTransition)
		protectedRoutes.PUT("/statuses/:id", handlers.UpdateStatus)
		protectedRoutes.DELETE("/statuses/:id", handlers.DeleteStatus)
		protectedRoutes.GET("/statuses/:id/transitions", handlers.GetAllowedTransitions)
		protectedRoutes.POST("/status-transitions", handlers.CreateStatusTransition)

		// Work items
		protectedRoutes.POST("/projects/:id/work-items", handlers.CreateWorkItem)
		protectedRoutes.GET("/projects/:id/work-items", handlers.GetWorkItems)
		protectedRoutes.GET("/work-items/:id", handlers.GetWorkItemByID)
		protectedRoutes.PUT("/work-items/:id", handlers.UpdateWorkItem)
		protectedRoutes.PATCH("/work-items/:id/status", handlers.UpdateWorkItemStatus)
		protectedRoutes.PATCH("/work-items/:id/assignee", handlers.AssignWorkItem)
		protectedRoutes.PATCH("/work-items/:id/parent", handlers.UpdateWorkItemParent)
		protectedRoutes.DELETE("/work-items/:id", handlers.DeleteWorkItem)

		// Epics
		protectedRoutes.POST("/projects/:id/epics", handlers.CreateEpic)
		protectedRoutes.GET("/projects/:id/epics", handlers.GetEpics)
		protectedRoutes.GET("/epics/:id", handlers.GetEpicByID)
		protectedRoutes.PUT("/epics/:id", handlers.UpdateEpic)
		protectedRoutes.PATCH("/epics/:id/status", handlers.UpdateEpicStatus)
		protectedRoutes.PATCH("/epics/:id/assignee", handlers.AssignEpic)
		protectedRoutes.DELETE("/epics/:id", handlers.DeleteEpic)

		// Board
		protectedRoutes.POST("/projects/:id/board", handlers.CreateBoard)
		protectedRoutes.GET("/projects/:id/board", handlers.GetBoard)
		protectedRoutes.PUT("/projects/:id/board", handlers.UpdateBoard)
		protectedRoutes.DELETE("/projects/:id/board", handlers.DeleteBoard)
		protectedRoutes.GET("/projects/:id/board/view", handlers.GetBoardView)
		protectedRoutes.PATCH("/projects/:id/board/columns/:columnId", handlers.UpdateColumn)
		protectedRoutes.PUT("/projects/:id/board/column-order", handlers.ReorderColumns)
		protectedRoutes.POST("/projects/:id/board/reconcile", handlers.ReconcileColumns)
		protectedRoutes.POST("/projects/:id/board/move", handlers.MoveWorkItem)

		// Board event stream
		protectedRoutes.GET("/projects/:id/events", handlers.ProjectEvents)
	}

	return ginRouter
}
