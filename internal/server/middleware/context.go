package middleware

import (
	"context"

	"github.com/madewith/chatbot/backend/pkg/common"

	"github.com/labstack/echo/v4"
)

// ChatService answers a single chat request.
type ChatService interface {
	Handle(ctx context.Context, q common.Question) (string, error)
}

// App is what handlers can reach through the request context.
type App struct {
	Chat  ChatService
	Ready func(ctx context.Context) error
}

type AppContext struct {
	echo.Context
	App *App
}

// AppContextMiddleware wraps every request context in an AppContext
// carrying app.
func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app}
			return next(cc)
		}
	}
}
