package handler

import (
	"net/http"
	"strconv"

	"incubation-service/internal/model"
	"incubation-service/internal/service"
	"incubation-service/pkg/logger"
	"incubation-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ChatHandler exposes the mentor/student conversation operations.
type ChatHandler struct {
	conversations *service.ConversationService
	pageSize      int
}

func NewChatHandler(conversations *service.ConversationService, pageSize int) *ChatHandler {
	if pageSize <= 0 {
		pageSize = 50
	}
	return &ChatHandler{conversations: conversations, pageSize: pageSize}
}

// Ensure handles POST /api/mentor-chats. The conversation is created
// with the assignment; this returns it and is safe to call repeatedly.
func (h *ChatHandler) Ensure(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		AssignmentID uint `json:"assignment_id"`
	}
	if err := c.Bind(&req); err != nil || req.AssignmentID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "assignment_id is required"})
	}

	conv, err := h.conversations.Ensure(c.Request().Context(), req.AssignmentID, actor(c))
	if err != nil {
		return respondError(c, log, err)
	}
	return c.JSON(http.StatusOK, conv)
}

// PostMessage handles POST /api/mentor-chats/:id/messages
func (h *ChatHandler) PostMessage(c echo.Context) error {
	log := logger.FromContext(c)

	conversationID, ok := paramUint(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid conversation id"})
	}

	var req struct {
		Message     string            `json:"message"`
		MessageType model.MessageType `json:"message_type"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse message request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	m, err := h.conversations.PostMessage(c.Request().Context(), conversationID, actor(c).UserID, req.Message, req.MessageType)
	if err != nil {
		return respondError(c, log, err)
	}
	prometheus.RecordMessage("post")
	return c.JSON(http.StatusCreated, m)
}

// ListMessages handles GET /api/mentor-chats/:id/messages
func (h *ChatHandler) ListMessages(c echo.Context) error {
	log := logger.FromContext(c)

	conversationID, ok := paramUint(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid conversation id"})
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if limit <= 0 {
		limit = h.pageSize
	}

	msgs, err := h.conversations.ListMessages(c.Request().Context(), conversationID, actor(c), limit, offset)
	if err != nil {
		return respondError(c, log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"messages": msgs,
		"limit":    limit,
		"offset":   offset,
	})
}

// EditMessage handles PUT /api/mentor-chats/messages/:id
func (h *ChatHandler) EditMessage(c echo.Context) error {
	log := logger.FromContext(c)

	messageID, ok := paramUint(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid message id"})
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse edit request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	m, err := h.conversations.EditMessage(c.Request().Context(), messageID, actor(c).UserID, req.Message)
	if err != nil {
		return respondError(c, log, err)
	}
	prometheus.RecordMessage("edit")
	return c.JSON(http.StatusOK, m)
}

// DeleteMessage handles DELETE /api/mentor-chats/messages/:id
func (h *ChatHandler) DeleteMessage(c echo.Context) error {
	log := logger.FromContext(c)

	messageID, ok := paramUint(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid message id"})
	}

	m, err := h.conversations.DeleteMessage(c.Request().Context(), messageID, actor(c).UserID)
	if err != nil {
		return respondError(c, log, err)
	}
	prometheus.RecordMessage("delete")
	return c.JSON(http.StatusOK, m)
}

// MarkRead handles POST /api/mentor-chats/:id/read
func (h *ChatHandler) MarkRead(c echo.Context) error {
	log := logger.FromContext(c)

	conversationID, ok := paramUint(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid conversation id"})
	}

	if err := h.conversations.MarkRead(c.Request().Context(), conversationID, actor(c).UserID); err != nil {
		return respondError(c, log, err)
	}
	prometheus.RecordMessage("read")
	return c.JSON(http.StatusOK, echo.Map{"message": "conversation marked read"})
}
