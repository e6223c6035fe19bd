package handler

import (
	"net/http"

	"incubation-service/internal/service"
	"incubation-service/pkg/logger"

	"github.com/labstack/echo/v4"
)

// NotificationHandler lets recipients list and consume their durable
// notifications.
type NotificationHandler struct {
	notifications *service.NotificationService
}

func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List handles GET /api/notifications
func (h *NotificationHandler) List(c echo.Context) error {
	log := logger.FromContext(c)

	unreadOnly := c.QueryParam("unread") == "true"
	ns, err := h.notifications.List(c.Request().Context(), actor(c).UserID, unreadOnly)
	if err != nil {
		return respondError(c, log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"notifications": ns})
}

// MarkRead handles POST /api/notifications/:id/read
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	log := logger.FromContext(c)

	id, ok := paramUint(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid notification id"})
	}

	if err := h.notifications.MarkRead(c.Request().Context(), id, actor(c).UserID); err != nil {
		return respondError(c, log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "notification marked read"})
}
