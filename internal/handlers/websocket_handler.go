package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/signcast/server/internal/middleware"
	"github.com/signcast/server/internal/observability"
	"github.com/signcast/server/internal/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Players connect from kiosk browsers and native shells; origin
		// checks are enforced at the reverse proxy
		return true
	},
}

// WebSocketHandler handles the live channel screens hold open
type WebSocketHandler struct {
	hub    *services.ScreenHub
	logger *observability.Logger
}

// NewWebSocketHandler creates a new WebSocketHandler
func NewWebSocketHandler(hub *services.ScreenHub) *WebSocketHandler {
	return &WebSocketHandler{
		hub:    hub,
		logger: observability.WithField("component", "websocket"),
	}
}

// HandleConnection upgrades HTTP to WebSocket and manages the connection.
// The screen must already be authenticated by the ScreenAuth middleware.
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	screen := middleware.GetScreenFromContext(r.Context())
	if screen == nil || screen.PrincipalID == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Errorf("WebSocket upgrade failed: %v", err)
		return
	}

	connectionID := uuid.New().String()
	client := h.hub.NewClient(connectionID, *screen.PrincipalID, conn)

	h.logger.Infof("Screen %s (%s) connected as %s", screen.ID, screen.Name, connectionID)

	h.hub.Register(client)

	// Start the write pump in a goroutine
	go client.WritePump()

	// Run the read pump (blocks until connection closes)
	client.ReadPump(h.handleMessage)
}

// handleMessage processes incoming WebSocket messages. Screens are mostly
// listeners; the only inbound message is the application-level ping.
func (h *WebSocketHandler) handleMessage(client *services.ScreenClient, messageType int, data []byte) {
	if messageType != websocket.TextMessage {
		return
	}

	var msg services.HubMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		h.logger.Warnf("Invalid WebSocket message from %s: %v", client.ID, err)
		return
	}

	switch msg.Type {
	case services.MsgTypePing:
		response := services.HubMessage{Type: services.MsgTypePong}
		if data, err := json.Marshal(response); err == nil {
			select {
			case client.Send <- data:
			default:
			}
		}

	default:
		h.logger.Warnf("Unknown WebSocket message type from %s: %s", client.ID, msg.Type)
	}
}
