package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/signcast/server/internal/models"
	"github.com/signcast/server/internal/observability"
	"github.com/signcast/server/internal/services"
)

const (
	initialReconnectDelay = 2 * time.Second
	maxReconnectDelay     = 60 * time.Second
	handshakeTimeout      = 30 * time.Second
)

// hubEnvelope mirrors the server's message envelope with the payload kept
// raw for per-type decoding
type hubEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// HubClient holds the live channel to the server open and dispatches
// incoming pushes. It reconnects forever with exponential backoff; every
// successful (re)connect fires OnConnected so the caller can reconcile
// state it may have missed while offline.
type HubClient struct {
	serverURL string
	token     string
	logger    *observability.Logger

	// OnConnected fires after every successful connect, including the first
	OnConnected func()
	// OnConfiguration fires for each configuration push
	OnConfiguration func(config models.ScreenConfiguration)
	// OnStartSync fires for each start-sync manifest push
	OnStartSync func(manifest []models.CampaignSyncInfo)
}

// NewHubClient creates a new HubClient
func NewHubClient(serverURL, token string) *HubClient {
	return &HubClient{
		serverURL: serverURL,
		token:     token,
		logger:    observability.WithField("component", "hub_client"),
	}
}

// Run connects and processes messages until the context is cancelled.
// Connection loss is not an error; the client backs off and redials.
func (c *HubClient) Run(ctx context.Context) error {
	delay := initialReconnectDelay

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		conn, err := c.dial(ctx)
		if err != nil {
			c.logger.Warnf("Connect failed, retrying in %s: %v", delay, err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
			if delay > maxReconnectDelay {
				delay = maxReconnectDelay
			}
			continue
		}

		delay = initialReconnectDelay
		c.logger.Info("Connected to server")

		if c.OnConnected != nil {
			c.OnConnected()
		}

		c.readLoop(ctx, conn)
		conn.Close()

		if err := ctx.Err(); err != nil {
			return err
		}
		c.logger.Warn("Connection lost, reconnecting")
	}
}

func (c *HubClient) dial(ctx context.Context) (*websocket.Conn, error) {
	wsURL, err := websocketURL(c.serverURL)
	if err != nil {
		return nil, err
	}

	headers := make(http.Header)
	headers.Set("Authorization", "Bearer "+c.token)

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return conn, err
}

func (c *HubClient) readLoop(ctx context.Context, conn *websocket.Conn) {
	// Unblock the read when the context is cancelled
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		c.dispatch(data)
	}
}

func (c *HubClient) dispatch(data []byte) {
	var env hubEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.logger.Warnf("Invalid message from server: %v", err)
		return
	}

	switch env.Type {
	case services.MsgTypeConfigurationUpdate:
		var config models.ScreenConfiguration
		if err := json.Unmarshal(env.Payload, &config); err != nil {
			c.logger.Warnf("Invalid configuration payload: %v", err)
			return
		}
		if c.OnConfiguration != nil {
			c.OnConfiguration(config)
		}

	case services.MsgTypeStartAssetSync:
		var manifest []models.CampaignSyncInfo
		if err := json.Unmarshal(env.Payload, &manifest); err != nil {
			c.logger.Warnf("Invalid sync manifest payload: %v", err)
			return
		}
		if c.OnStartSync != nil {
			c.OnStartSync(manifest)
		}

	case services.MsgTypePong:
		// Nothing to do

	default:
		c.logger.Warnf("Unknown message type: %s", env.Type)
	}
}

// websocketURL converts the server's base HTTP URL to its ws endpoint
func websocketURL(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String(), nil
}
