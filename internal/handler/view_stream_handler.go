package handler

import (
	"encoding/json"

	"vibez-studio/internal/pkg/logger"
	"vibez-studio/internal/pkg/serverutils"
	"vibez-studio/internal/service"
	internalWS "vibez-studio/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type ViewStreamHandler struct {
	workspaces service.IWorkspaceService
	hub        *internalWS.Hub
	secret     string
	revoked    serverutils.RevocationChecker
	logger     logger.ILogger
}

func NewViewStreamHandler(workspaces service.IWorkspaceService, hub *internalWS.Hub, secret string, revoked serverutils.RevocationChecker, log logger.ILogger) *ViewStreamHandler {
	return &ViewStreamHandler{
		workspaces: workspaces,
		hub:        hub,
		secret:     secret,
		revoked:    revoked,
		logger:     log,
	}
}

// ServeWs authenticates the handshake, then streams the user's workspace
// views starting with the current one.
func (h *ViewStreamHandler) ServeWs(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	tokenStr := serverutils.BearerToken(c)
	if tokenStr == "" {
		return serverutils.Unauthorized("Missing token (Query 'token' or Header 'Authorization')")
	}

	claims, err := serverutils.ParseToken(h.secret, tokenStr)
	if err != nil {
		h.logger.Warn("ViewStreamHandler", "Invalid token in WS handshake", map[string]interface{}{"error": err.Error()})
		return err
	}
	if h.revoked != nil && claims.TokenID != "" {
		revoked, err := h.revoked.IsRevoked(c.UserContext(), claims.TokenID)
		if err != nil {
			return err
		}
		if revoked {
			return serverutils.Unauthorized("Token has been revoked")
		}
	}

	userID := claims.UserID
	return websocket.New(func(conn *websocket.Conn) {
		// Views carry a version, so a client that also gets a relayed view
		// keeps whichever is newer.
		initial, err := json.Marshal(internalWS.Message{Type: "view", Data: h.workspaces.View(userID)})
		if err != nil {
			h.logger.Error("ViewStreamHandler", "Failed to encode view", map[string]interface{}{"error": err.Error()})
			return
		}
		h.logger.Info("ViewStreamHandler", "Starting WebSocket session", map[string]interface{}{"user_id": userID})
		internalWS.Serve(h.hub, conn, userID, initial)
		h.logger.Info("ViewStreamHandler", "WebSocket session ended", map[string]interface{}{"user_id": userID})
	})(c)
}

func (h *ViewStreamHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws", h.ServeWs)
}
