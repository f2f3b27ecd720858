package server

import (
	"github.com/madewith/chatbot/backend/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Status routes
	e.GET("/", routes.RootHandler)
	e.GET("/health", routes.HealthHandler)
	e.GET("/ready", routes.ReadyHandler)

	apiRoutes := e.Group("/api")

	// Chat routes
	apiRoutes.POST("/chat", routes.ChatHandler)
}
