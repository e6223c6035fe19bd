package handler

import (
	"net/http"

	"incubation-service/internal/service"
	"incubation-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AssignmentHandler exposes mentor assignment and revocation.
type AssignmentHandler struct {
	assignments *service.AssignmentService
}

func NewAssignmentHandler(assignments *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments}
}

// Assign handles POST /api/mentor-assignments/assign
func (h *AssignmentHandler) Assign(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		IdeaID         uint   `json:"idea_id"`
		MentorID       uint   `json:"mentor_id"`
		AssignmentType string `json:"assignment_type"`
		Reason         string `json:"reason"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse assignment request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.IdeaID == 0 || req.MentorID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "idea_id and mentor_id are required"})
	}

	a, err := h.assignments.Assign(c.Request().Context(), req.IdeaID, req.MentorID, actor(c), req.AssignmentType, req.Reason)
	if err != nil {
		return respondError(c, log, err)
	}
	return c.JSON(http.StatusCreated, a)
}

// Unassign handles DELETE /api/mentor-assignments/:id
func (h *AssignmentHandler) Unassign(c echo.Context) error {
	log := logger.FromContext(c)

	assignmentID, ok := paramUint(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid assignment id"})
	}

	if err := h.assignments.Unassign(c.Request().Context(), assignmentID, actor(c)); err != nil {
		return respondError(c, log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
