package handler

import (
	"net/http"
	"strconv"

	"incubation-service/internal/apperr"
	"incubation-service/internal/middleware"
	"incubation-service/internal/service"
	"incubation-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// respondError maps a domain error to its HTTP status and taxonomy
// code so callers can react to the specific failure.
func respondError(c echo.Context, log *zap.Logger, err error) error {
	code := apperr.Code(err)
	status := apperr.HTTPStatus(err)
	prometheus.RecordDomainError(code)
	if status >= http.StatusInternalServerError {
		log.Error("Request failed", zap.Error(err))
		return c.JSON(status, echo.Map{"error": "internal error", "code": code})
	}
	log.Warn("Request rejected", zap.String("code", code), zap.Error(err))
	return c.JSON(status, echo.Map{"error": err.Error(), "code": code})
}

// paramUint parses a numeric path parameter.
func paramUint(c echo.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(v), true
}

// actor assembles the acting identity resolved by the auth middleware.
func actor(c echo.Context) service.Actor {
	userID, role := middleware.ActorFromContext(c)
	return service.Actor{UserID: userID, Role: role}
}
