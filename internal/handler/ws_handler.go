package handler

import (
	"net/http"
	"strings"

	"incubation-service/internal/ws"
	"incubation-service/pkg/jwtutil"
	"incubation-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// WSHandler upgrades authenticated clients to live connections.
type WSHandler struct {
	hub *ws.Hub
}

func NewWSHandler(hub *ws.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

// Connect handles GET /ws. The bearer credential is accepted either as
// an Authorization header or a token query parameter (browser
// WebSocket clients cannot set headers); it is resolved once, at
// connect time.
func (h *WSHandler) Connect(c echo.Context) error {
	log := logger.FromContext(c)

	token := c.QueryParam("token")
	if token == "" {
		authHeader := c.Request().Header.Get("Authorization")
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			token = parts[1]
		}
	}
	if token == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
	}

	claims, err := jwtutil.ValidateToken(token)
	if err != nil {
		log.Error("Invalid websocket credential", zap.Error(err))
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
	}

	if err := h.hub.Serve(c.Response(), c.Request(), claims.UserID); err != nil {
		log.Error("Websocket upgrade failed", zap.Error(err))
		return err
	}
	return nil
}
