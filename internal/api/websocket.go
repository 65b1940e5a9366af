package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/diversityiq/backend/internal/models"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// WebSocket message types for the session stream
const (
	// Client -> Server messages
	MsgTypePing = "ping"

	// Server -> Client messages
	MsgTypeConnected = "connected"
	MsgTypeSnapshot  = "snapshot"
	MsgTypePong      = "pong"
)

const wsWriteTimeout = 10 * time.Second

// WSMessage is the envelope of every websocket frame
type WSMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// WebSocketHandler streams session snapshots to the page
type WebSocketHandler struct {
	sessions SessionManager
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a new session stream handler
func NewWebSocketHandler(sessions SessionManager) StreamHandler {
	return &WebSocketHandler{
		sessions: sessions,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
		},
	}
}

// HandleSessionStream upgrades the connection and sends a snapshot on connect
// and after every change. Bursts of changes collapse into the latest snapshot.
func (wsh *WebSocketHandler) HandleSessionStream(c echo.Context) error {
	view, err := lookupView(c, wsh.sessions)
	if err != nil {
		return err
	}

	ws, err := wsh.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	id := view.ID()
	fmt.Printf("[WebSocket] Client connected to session %s\n", shortID(id))

	changed := make(chan struct{}, 1)
	pings := make(chan struct{}, 1)
	done := make(chan struct{})

	cancel := view.Subscribe(func(models.Snapshot) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer cancel()

	// Single writer: gorilla connections allow one concurrent writer.
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		wsh.sendMessage(ws, WSMessage{Type: MsgTypeConnected, ID: id, Timestamp: time.Now().UnixMilli()})
		wsh.sendSnapshot(ws, view.Snapshot())
		for {
			select {
			case <-done:
				return
			case <-changed:
				if !wsh.sendSnapshot(ws, view.Snapshot()) {
					return
				}
			case <-pings:
				if !wsh.sendMessage(ws, WSMessage{Type: MsgTypePong, ID: id, Timestamp: time.Now().UnixMilli()}) {
					return
				}
			}
		}
	}()

	for {
		var msg WSMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				fmt.Printf("[WebSocket] Connection error: %v\n", err)
			}
			break
		}
		switch msg.Type {
		case MsgTypePing:
			// Pings keep the session marked as accessed.
			wsh.sessions.Get(id)
			select {
			case pings <- struct{}{}:
			default:
			}
		default:
			// Unknown client messages are ignored; the stream is server driven.
		}
	}

	close(done)
	<-writerDone
	fmt.Printf("[WebSocket] Client disconnected from session %s\n", shortID(id))
	return nil
}

func (wsh *WebSocketHandler) sendSnapshot(ws *websocket.Conn, snap models.Snapshot) bool {
	return wsh.sendMessage(ws, WSMessage{
		Type:      MsgTypeSnapshot,
		ID:        snap.SessionID,
		Payload:   marshalPayload(snap),
		Timestamp: time.Now().UnixMilli(),
	})
}

func (wsh *WebSocketHandler) sendMessage(ws *websocket.Conn, msg WSMessage) bool {
	ws.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := ws.WriteJSON(msg); err != nil {
		fmt.Printf("[WebSocket] Failed to send message: %v\n", err)
		return false
	}
	return true
}

func marshalPayload(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return data
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
