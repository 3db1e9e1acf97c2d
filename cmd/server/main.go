package main

import (
	"log"
	"os"

	"project-planning-api/internal/database"
	"project-planning-api/internal/routes"
)

func main() {
	// Init database
	database.InitDB()

	// Setup the routes (public and protected routes)
	ginRoutes := routes.SetupRoutes()

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8008"
	}
	log.Printf("Server starting on port :%s", port)
	log.Println("API endpoints:")
	log.Println("  POST   /api/register")
	log.Println("  POST   /api/login")
	log.Println("  GET    /api/projects")
	log.Println("  POST   /api/projects/:id/board")
	log.Println("  GET    /api/projects/:id/board/view")
	log.Println("  POST   /api/projects/:id/board/move")
	log.Println("  GET    /health")

	if err := ginRoutes.Run(":" + port); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}
