package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/anhbaysgalan1/turngame/internal/hub"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// subscribeFrame is the only inbound shape the websocket connection
// understands: subscribe/unsubscribe to a game's event stream.
type subscribeFrame struct {
	Action string `json:"action"`
	GameID string `json:"gameId"`
}

// wsConnection bridges one gorilla/websocket connection to its hub.Sink,
// the way client.go's readPump/writePump pair bridges a raw connection to
// the hub's register/unregister channels.
type wsConnection struct {
	conn         *websocket.Conn
	sink         hub.Sink
	hub          *hub.Hub
	connectionID string
	userID       string
}

// serveWebSocket resolves playerID from a bearer JWT (header or ?token=
// query param), registers a hub.Connection, and relays subscribe/
// unsubscribe frames into hub.Subscribe/Unsubscribe.
func (s *GameServer) serveWebSocket(w http.ResponseWriter, r *http.Request) {
	tokenString := s.jwtManager.ExtractTokenFromBearer(r.Header.Get("Authorization"))
	if tokenString == "" {
		tokenString = r.URL.Query().Get("token")
	}
	if tokenString == "" {
		writeErrorResponse(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	claims, err := s.jwtManager.ValidateToken(tokenString)
	if err != nil {
		writeErrorResponse(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("server: websocket upgrade failed", "error", err)
		return
	}

	wc := &wsConnection{
		conn:         conn,
		sink:         make(hub.Sink, 64),
		hub:          s.hub,
		connectionID: uuid.NewString(),
		userID:       claims.PlayerID,
	}
	s.hub.RegisterConnection(wc.userID, wc.connectionID, wc.sink)

	go wc.writePump()
	go wc.readPump()
}

func (c *wsConnection) disconnect() {
	c.hub.UnregisterConnection(c.connectionID)
	c.conn.Close()
}

func (c *wsConnection) readPump() {
	defer c.disconnect()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("server: websocket unexpected close", "error", err, "connectionId", c.connectionID)
			}
			return
		}

		var frame subscribeFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			slog.Warn("server: discarding malformed websocket frame", "error", err, "connectionId", c.connectionID)
			continue
		}

		switch strings.ToLower(frame.Action) {
		case "subscribe":
			if frame.GameID != "" {
				c.hub.Subscribe(c.userID, frame.GameID)
			}
		case "unsubscribe":
			if frame.GameID != "" {
				c.hub.Unsubscribe(c.userID, frame.GameID)
			}
		default:
			slog.Warn("server: unknown websocket action", "action", frame.Action, "connectionId", c.connectionID)
		}
	}
}

func (c *wsConnection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.sink:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				slog.Error("server: marshal outbound event failed", "error", err, "connectionId", c.connectionID)
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
