package routes

import (
	"net/http"

	"github.com/madewith/chatbot/backend/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

func RootHandler(c echo.Context) error {
	type rootResponse struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}

	return c.JSON(http.StatusOK, rootResponse{
		Status:  "ok",
		Message: "Made with Nestlé Chatbot API is running",
	})
}

func HealthHandler(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// ReadyHandler reports whether the backing stores are reachable.
func ReadyHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	if app.Ready == nil {
		return c.String(http.StatusOK, "OK")
	}
	if err := app.Ready(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"message": err.Error(),
		})
	}
	return c.String(http.StatusOK, "OK")
}
