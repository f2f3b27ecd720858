package routes

import (
	"errors"
	"net/http"

	"github.com/madewith/chatbot/backend/internal/server/middleware"
	"github.com/madewith/chatbot/backend/pkg/chat"
	"github.com/madewith/chatbot/backend/pkg/common"
	"github.com/madewith/chatbot/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ChatHandler answers a question, or lists nearby stores when the question
// asks for them.
func ChatHandler(c echo.Context) error {
	type chatBody struct {
		Question *string  `json:"question" validate:"required"`
		Name     *string  `json:"name" validate:"required"`
		Lat      *float64 `json:"lat" validate:"omitempty,min=-90,max=90"`
		Lng      *float64 `json:"lng" validate:"omitempty,min=-180,max=180"`
	}

	type chatResponse struct {
		Answer  string `json:"answer,omitempty"`
		Message string `json:"message,omitempty"`
	}

	data := new(chatBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, chatResponse{
			Message: "Invalid request body",
		})
	}

	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, chatResponse{
			Message: "Invalid request body",
		})
	}

	q := common.Question{
		Text: *data.Question,
		Name: *data.Name,
	}
	if data.Lat != nil && data.Lng != nil {
		q.Coordinate = &common.Coordinate{Lat: *data.Lat, Lng: *data.Lng}
	}

	app := c.(*middleware.AppContext).App
	answer, err := app.Chat.Handle(c.Request().Context(), q)
	if errors.Is(err, chat.ErrNoAnswer) {
		return c.JSON(http.StatusNotFound, chatResponse{
			Message: "No answer found",
		})
	}
	if err != nil {
		logger.Error("[Chat] Request failed", "err", err)
		return c.JSON(http.StatusInternalServerError, chatResponse{
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, chatResponse{
		Answer: answer,
	})
}
