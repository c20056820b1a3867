package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"huddle/internal/agent"
	"huddle/internal/metrics"
)

// ToneMessage is the JSON protocol of the live tone stream.
//
// Client → server: {"type":"draft","draft":"<id>","text":"..."}
// Server → client: {"type":"status"|"tone"|"error", ...}
type ToneMessage struct {
	Type    string            `json:"type"`
	Draft   string            `json:"draft,omitempty"`
	Text    string            `json:"text,omitempty"`
	Content string            `json:"content,omitempty"`
	Update  *agent.ToneUpdate `json:"update,omitempty"`
}

const (
	toneWriteTimeout = 10 * time.Second
	toneMaxMessage   = 64 << 10
)

// toneConn serializes writes to one WebSocket connection.
type toneConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *toneConn) send(msg ToneMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(toneWriteTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowOrigin(s.cfg.Server.AllowedOrigins, origin) != ""
		},
	}
}

// handleToneStream debounces draft updates per draft id and pushes tone
// results that still match the draft's latest text.
func (s *Server) handleToneStream(w http.ResponseWriter, r *http.Request) {
	logger := s.loggerFrom(r.Context())
	up := s.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	conn.SetReadLimit(toneMaxMessage)
	client := &toneConn{conn: conn}

	ctx, cancel := context.WithCancel(r.Context())
	lt := agent.NewLiveTone(ctx, s.dispatcher, s.cfg.ToneDebounce, func(u agent.ToneUpdate) {
		msg := ToneMessage{Type: "tone", Draft: u.Draft, Update: &u}
		if u.Error != "" {
			msg.Type = "error"
			msg.Content = u.Error
		}
		if err := client.send(msg); err != nil {
			logger.Debug("websocket write failed", "err", err)
		}
	}, logger)

	metrics.ToneStreams.Inc()
	logger.Info("tone stream connected")
	defer func() {
		cancel()
		lt.Close()
		conn.Close()
		metrics.ToneStreams.Dec()
		logger.Info("tone stream disconnected")
	}()

	client.send(ToneMessage{Type: "status", Content: "connected"})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("websocket read error", "err", err)
			}
			return
		}

		var msg ToneMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			client.send(ToneMessage{Type: "error", Content: "invalid message"})
			continue
		}
		switch msg.Type {
		case "draft":
			if s.dispatcher == nil {
				client.send(ToneMessage{Type: "error", Draft: msg.Draft, Content: "agent router is not configured"})
				continue
			}
			lt.Update(msg.Draft, msg.Text)
		case "ping":
			client.send(ToneMessage{Type: "pong"})
		default:
			client.send(ToneMessage{Type: "error", Content: "unknown message type " + msg.Type})
		}
	}
}
