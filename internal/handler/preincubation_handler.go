package handler

import (
	"net/http"

	"incubation-service/internal/model"
	"incubation-service/internal/service"
	"incubation-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// PreIncubationHandler exposes the tracked project record operations.
type PreIncubationHandler struct {
	records *service.PreIncubationService
}

func NewPreIncubationHandler(records *service.PreIncubationService) *PreIncubationHandler {
	return &PreIncubationHandler{records: records}
}

// StudentUpdate handles PUT /api/pre-incubatees/:id/student-update
func (h *PreIncubationHandler) StudentUpdate(c echo.Context) error {
	log := logger.FromContext(c)

	recordID, ok := paramUint(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid record id"})
	}

	var req struct {
		ProgressPercentage int    `json:"progress_percentage"`
		Notes              string `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse progress update", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	rec, err := h.records.UpdateProgress(c.Request().Context(), recordID, actor(c).UserID, req.ProgressPercentage, req.Notes)
	if err != nil {
		return respondError(c, log, err)
	}
	return c.JSON(http.StatusOK, rec)
}

// AdvancePhase handles POST /api/pre-incubatees/:id/advance-phase
func (h *PreIncubationHandler) AdvancePhase(c echo.Context) error {
	log := logger.FromContext(c)

	recordID, ok := paramUint(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid record id"})
	}

	rec, err := h.records.AdvancePhase(c.Request().Context(), recordID, actor(c))
	if err != nil {
		return respondError(c, log, err)
	}
	return c.JSON(http.StatusOK, rec)
}

// Finalize handles POST /api/pre-incubatees/:id/finalize
func (h *PreIncubationHandler) Finalize(c echo.Context) error {
	log := logger.FromContext(c)

	recordID, ok := paramUint(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid record id"})
	}

	var req struct {
		Status model.PreIncubateeStatus `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse finalize request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	rec, err := h.records.Finalize(c.Request().Context(), recordID, actor(c), req.Status)
	if err != nil {
		return respondError(c, log, err)
	}
	return c.JSON(http.StatusOK, rec)
}
