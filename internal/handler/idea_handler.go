package handler

import (
	"net/http"

	"incubation-service/internal/model"
	"incubation-service/internal/service"
	"incubation-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// IdeaHandler exposes the status transition operation. All other idea
// CRUD lives in the portal service; status is mutated here only.
type IdeaHandler struct {
	transitions *service.TransitionService
}

func NewIdeaHandler(transitions *service.TransitionService) *IdeaHandler {
	return &IdeaHandler{transitions: transitions}
}

// Transition handles POST /api/ideas/:id/status
func (h *IdeaHandler) Transition(c echo.Context) error {
	log := logger.FromContext(c)

	ideaID, ok := paramUint(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid idea id"})
	}

	var req struct {
		Status   model.IdeaStatus `json:"status"`
		Feedback string           `json:"feedback"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse transition request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	idea, err := h.transitions.Transition(c.Request().Context(), ideaID, req.Status, actor(c), req.Feedback)
	if err != nil {
		return respondError(c, log, err)
	}

	return c.JSON(http.StatusOK, idea)
}
