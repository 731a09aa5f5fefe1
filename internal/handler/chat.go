package handler

import (
	"net/http"
	"strconv"

	"mdla-platform/internal/middleware"
	"mdla-platform/internal/service"

	"github.com/labstack/echo/v4"
)

type ChatHandler struct {
	chatService service.ChatService
}

func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func (h *ChatHandler) Conversations(c echo.Context) error {
	ctx := c.Request().Context()

	conversations, err := h.chatService.Conversations(ctx, middleware.UserID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, conversations)
}

func (h *ChatHandler) DirectHistory(c echo.Context) error {
	ctx := c.Request().Context()

	counterpartID, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	messages, err := h.chatService.DirectHistory(ctx, middleware.UserID(c), uint(counterpartID))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messages)
}

func (h *ChatHandler) RoomHistory(c echo.Context) error {
	ctx := c.Request().Context()

	messages, err := h.chatService.RoomHistory(ctx, c.Param("roomId"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messages)
}

func (h *ChatHandler) MarkRead(c echo.Context) error {
	ctx := c.Request().Context()

	counterpartID, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	if err := h.chatService.MarkRead(ctx, middleware.UserID(c), uint(counterpartID)); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
