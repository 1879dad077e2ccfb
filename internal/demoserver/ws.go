package demoserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/demiplane/demiplane/pkg/scroll"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// sendMutex serializes writes to a *websocket.Conn: gorilla/websocket
// forbids concurrent writers, and handleWS's read loop and its tail
// pump goroutine both send on the same connection.
type sendMutex struct {
	mu sync.Mutex
}

func (s *sendMutex) writeJSON(conn *websocket.Conn, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return conn.WriteJSON(v)
}

// wsRequest is the subscribe/unsubscribe protocol a client speaks over
// the websocket: "subscribe"/"unsubscribe" a named Library query, or
// "tail" to start receiving the live log stream.
type wsRequest struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// handleWS upgrades the connection and serves both live feeds the demo
// server offers: named live-query snapshots (subscribe/unsubscribe) and
// the disruptor logger's tail (tail/untail).
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.zlog.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	var sendMu sendMutex
	send := func(kind string, payload any) error {
		return sendMu.writeJSON(conn, map[string]any{"type": kind, "data": payload})
	}

	client := &Client{Send: send}
	subscribed := map[string]struct{}{}
	var tailCh chan scroll.LogEvent

	defer func() {
		for name := range subscribed {
			s.registry.Unsubscribe(name, client)
		}
		if tailCh != nil {
			s.tail.unsubscribe(tailCh)
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				s.zlog.Info("ws closed", zap.Int("code", ce.Code))
			} else {
				s.zlog.Warn("ws read error", zap.Error(err))
			}
			return
		}

		var req wsRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			_ = send("error", map[string]string{"error": "invalid JSON"})
			continue
		}

		switch strings.ToLower(req.Type) {
		case "subscribe":
			if req.Name == "" {
				_ = send("error", map[string]string{"error": "missing name"})
				continue
			}
			s.registry.Subscribe(req.Name, client)
			subscribed[req.Name] = struct{}{}
			_ = send("subscribed", map[string]string{"name": req.Name})

		case "unsubscribe":
			if req.Name == "" {
				continue
			}
			s.registry.Unsubscribe(req.Name, client)
			delete(subscribed, req.Name)
			_ = send("unsubscribed", map[string]string{"name": req.Name})

		case "tail":
			if tailCh != nil {
				continue
			}
			tailCh = s.tail.subscribe()
			for _, ev := range s.tail.Tail() {
				_ = send("log", logEventJSON(ev))
			}
			go s.pumpTail(conn, &sendMu, tailCh)

		case "untail":
			if tailCh != nil {
				s.tail.unsubscribe(tailCh)
				tailCh = nil
			}

		default:
			_ = send("error", map[string]string{"error": "unknown message type"})
		}
	}
}

// pumpTail forwards tailCh's events to conn until the channel is
// closed by unsubscribe, running on its own goroutine since the main
// handleWS loop is blocked in ReadMessage.
func (s *Server) pumpTail(conn *websocket.Conn, sendMu *sendMutex, tailCh chan scroll.LogEvent) {
	for ev := range tailCh {
		if err := sendMu.writeJSON(conn, map[string]any{"type": "log", "data": logEventJSON(ev)}); err != nil {
			return
		}
	}
}

func logEventJSON(ev scroll.LogEvent) map[string]any {
	return map[string]any{
		"level":     ev.Level.String(),
		"message":   ev.Message,
		"file":      ev.File,
		"line":      ev.Line,
		"func":      ev.Func,
		"timestamp": ev.Timestamp,
		"tid":       ev.ThreadID,
		"pid":       ev.ProcessID,
	}
}
