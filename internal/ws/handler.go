package ws

import (
	"net/http"

	"mdla-platform/internal/middleware"
	"mdla-platform/internal/service"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Same-origin policy is enforced upstream; the API is token-gated.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades authenticated clients onto the hub.
type Handler struct {
	hub       *Hub
	chat      service.ChatService
	jwtSecret string
	logger    zerolog.Logger
}

func NewHandler(hub *Hub, chat service.ChatService, jwtSecret string, logger zerolog.Logger) *Handler {
	return &Handler{
		hub:       hub,
		chat:      chat,
		jwtSecret: jwtSecret,
		logger:    logger.With().Str("component", "ws_handler").Logger(),
	}
}

// Serve authenticates the handshake token before any event handling is
// attached; unauthenticated connections are rejected outright.
func (h *Handler) Serve(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}

	claims, err := middleware.ParseToken(h.jwtSecret, token)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := newClient(h.hub, h.chat, conn, claims.UserID, h.logger)

	// Every connection is implicitly addressable through its user's
	// private delivery group.
	h.hub.Join(UserRoom(claims.UserID), client)

	h.logger.Info().Uint("user_id", claims.UserID).Msg("websocket connected")

	go client.writePump()
	go client.readPump()

	return nil
}
