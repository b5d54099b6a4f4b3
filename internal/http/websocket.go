package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"zenbudget/internal/core"
	"zenbudget/internal/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Push message types.
const (
	pushTransactions = "transactions"
	pushCategories   = "categories"
)

type pushMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// pusher keeps the latest unsent snapshot of each collection. A slow client
// skips intermediate snapshots but always receives the newest one.
type pusher struct {
	mu      sync.Mutex
	pending map[string][]byte
	order   []string
	wake    chan struct{}
}

func newPusher() *pusher {
	return &pusher{pending: make(map[string][]byte), wake: make(chan struct{}, 1)}
}

func (p *pusher) put(kind string, payload any) error {
	b, err := json.Marshal(pushMessage{Type: kind, Payload: payload})
	if err != nil {
		return err
	}
	p.mu.Lock()
	if _, ok := p.pending[kind]; !ok {
		p.order = append(p.order, kind)
	}
	p.pending[kind] = b
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
	return nil
}

// take returns the pending messages in arrival order and clears them.
func (p *pusher) take() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]byte, 0, len(p.order))
	for _, kind := range p.order {
		out = append(out, p.pending[kind])
	}
	p.pending = make(map[string][]byte)
	p.order = p.order[:0]
	return out
}

// handleWebSocket pushes a full snapshot of the user's transactions and
// categories on connect and after every change. The socket closes when the
// client goes away or the session ends.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)
	sess := sessionFrom(ctx)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WarnContext(ctx, "WebSocket upgrade failed", log.FieldError, err)
		return
	}
	defer conn.Close()

	p := newPusher()
	push := func(kind string, payload any) {
		if err := p.put(kind, payload); err != nil {
			logger.ErrorContext(ctx, "Failed to encode snapshot", log.FieldError, err, log.FieldCollection, kind)
		}
	}
	sub, err := s.deps.Feed.Subscribe(ctx, sess.UID(),
		func(txs []core.Transaction) { push(pushTransactions, txs) },
		func(cats []core.Category) { push(pushCategories, cats) },
	)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to subscribe", log.FieldError, err)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscribe failed"),
			time.Now().Add(writeWait))
		return
	}
	defer sub.Cancel()

	logger.InfoContext(ctx, "WebSocket connected")
	done := make(chan struct{})
	go readPump(conn, logger, done)
	writePump(conn, p, done, sess.Done())
	logger.InfoContext(ctx, "WebSocket disconnected")
}

// readPump discards client messages and keeps the read deadline fresh on
// pongs. It closes done when the connection fails.
func readPump(conn *websocket.Conn, logger *log.Logger, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.WarnContext(context.Background(), "WebSocket read error", log.FieldError, err)
			}
			return
		}
	}
}

func writePump(conn *websocket.Conn, p *pusher, done <-chan struct{}, sessionDone <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-sessionDone:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "signed out"),
				time.Now().Add(writeWait))
			return
		case <-p.wake:
			for _, msg := range p.take() {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
