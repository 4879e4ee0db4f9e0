package services

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// HubMessage is the envelope for every live-channel message
type HubMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Live-channel message types
const (
	MsgTypeConfigurationUpdate = "configuration_update"
	MsgTypeStartAssetSync      = "start_asset_sync"
	MsgTypePing                = "ping"
	MsgTypePong                = "pong"
)

// ScreenClient represents one live-channel connection from a screen
type ScreenClient struct {
	ID       string // connection id
	Identity string // principal id of the screen
	Conn     *websocket.Conn
	Send     chan []byte

	hub        *ScreenHub
	mu         sync.Mutex
	closedOnce sync.Once
}

// ScreenHub manages live-channel connections to screens and unicasts
// configuration and sync payloads to a specific connected identity. It keeps
// the ConnectionRegistry in step with its own client set and raises
// online/offline transitions so device liveness can be persisted.
type ScreenHub struct {
	registry *ConnectionRegistry

	clients       map[*ScreenClient]bool
	identityConns map[string]map[*ScreenClient]bool

	register   chan *ScreenClient
	unregister chan *ScreenClient
	unicast    chan *unicastMsg

	mu sync.RWMutex

	// Presence transitions. onOnline fires when an identity gains its first
	// connection, onOffline when it loses its last one.
	onOnline  func(identity string)
	onOffline func(identity string)
}

type unicastMsg struct {
	identity string
	message  []byte
}

// NewScreenHub creates a hub backed by the given registry
func NewScreenHub(registry *ConnectionRegistry) *ScreenHub {
	return &ScreenHub{
		registry:      registry,
		clients:       make(map[*ScreenClient]bool),
		identityConns: make(map[string]map[*ScreenClient]bool),
		register:      make(chan *ScreenClient),
		unregister:    make(chan *ScreenClient),
		unicast:       make(chan *unicastMsg, 256),
	}
}

// OnPresenceChange sets the callbacks fired on identity online/offline
// transitions. Must be called before Run.
func (h *ScreenHub) OnPresenceChange(onOnline, onOffline func(identity string)) {
	h.onOnline = onOnline
	h.onOffline = onOffline
}

// Run starts the hub's main loop
func (h *ScreenHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			firstConn := h.identityConns[client.Identity] == nil
			if firstConn {
				h.identityConns[client.Identity] = make(map[*ScreenClient]bool)
			}
			h.identityConns[client.Identity][client] = true
			h.mu.Unlock()

			h.registry.AddConnection(client.Identity, client.ID)
			log.Printf("Screen connected: identity=%s connection=%s online=%d",
				client.Identity, client.ID, h.registry.OnlineCount())

			if firstConn && h.onOnline != nil {
				h.onOnline(client.Identity)
			}

		case client := <-h.unregister:
			h.mu.Lock()
			var lastConn bool
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				if conns, ok := h.identityConns[client.Identity]; ok {
					delete(conns, client)
					if len(conns) == 0 {
						delete(h.identityConns, client.Identity)
						lastConn = true
					}
				}
				close(client.Send)
			}
			h.mu.Unlock()

			_, wentOffline := h.registry.RemoveConnection(client.ID)
			log.Printf("Screen disconnected: identity=%s connection=%s online=%d",
				client.Identity, client.ID, h.registry.OnlineCount())

			if lastConn && wentOffline && h.onOffline != nil {
				h.onOffline(client.Identity)
			}

		case msg := <-h.unicast:
			h.mu.RLock()
			targets := h.identityConns[msg.identity]
			for client := range targets {
				select {
				case client.Send <- msg.message:
				default:
					// Client buffer full, drop the connection
					go func(c *ScreenClient) {
						h.unregister <- c
					}(client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a client to the hub
func (h *ScreenHub) Register(client *ScreenClient) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *ScreenHub) Unregister(client *ScreenClient) {
	h.unregister <- client
}

// SendToScreen unicasts a message to every live connection of one identity.
// Messages to identities with no connections are silently dropped; there is
// no store-and-forward.
func (h *ScreenHub) SendToScreen(identity string, msg HubMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Error marshaling hub message: %v", err)
		return
	}
	h.unicast <- &unicastMsg{identity: identity, message: data}
}

// NewClient creates a live-channel client bound to this hub
func (h *ScreenHub) NewClient(connectionID, identity string, conn *websocket.Conn) *ScreenClient {
	return &ScreenClient{
		ID:       connectionID,
		Identity: identity,
		Conn:     conn,
		Send:     make(chan []byte, 256),
		hub:      h,
	}
}

// Close closes the client connection
func (c *ScreenClient) Close() {
	c.closedOnce.Do(func() {
		c.hub.Unregister(c)
		c.Conn.Close()
	})
}

// WritePump pumps messages from the hub to the websocket connection
func (c *ScreenClient) WritePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			c.mu.Lock()
			err := c.Conn.WriteMessage(websocket.TextMessage, message)
			c.mu.Unlock()

			if err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump pumps messages from the websocket connection to the hub
func (c *ScreenClient) ReadPump(onMessage func(client *ScreenClient, messageType int, data []byte)) {
	defer c.Close()

	c.Conn.SetReadLimit(64 * 1024)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		messageType, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("Screen channel error: %v", err)
			}
			break
		}

		if onMessage != nil {
			onMessage(c, messageType, message)
		}
	}
}
