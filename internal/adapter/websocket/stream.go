// Package websocket pushes live view snapshots to browser clients over gorilla/websocket.
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Ibeandyson/mini-product-feedback-wall/internal/adapter/metrics"
	"github.com/Ibeandyson/mini-product-feedback-wall/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
)

const (
	writeDeadline  = 5 * time.Second
	pingInterval   = 30 * time.Second
	pongDeadline   = 60 * time.Second
	maxMessageSize = 512
)

// Message is the wire form of one snapshot.
type Message struct {
	Type string `json:"type"`
	domain.Snapshot
	Error string `json:"error,omitempty"`
}

// NewMessage converts a snapshot. A failed refresh carries a generic error
// text and no items.
func NewMessage(snap domain.Snapshot) Message {
	msg := Message{Type: "snapshot", Snapshot: snap}
	if snap.Failed() {
		msg.Error = "Failed to load feedback"
	}
	if msg.Items == nil {
		msg.Items = []domain.AnnotatedItem{}
	}
	if msg.Chart == nil {
		msg.Chart = []domain.ChartBar{}
	}
	return msg
}

// Stream owns the write side of one connection. Only Run writes to the socket.
// Socket deadlines use wall time; the clock only drives keepalive pings.
type Stream struct {
	conn    *websocket.Conn
	clock   clockwork.Clock
	metrics *metrics.StreamMetrics
}

// NewStream wraps conn. m may be nil.
func NewStream(conn *websocket.Conn, clock clockwork.Clock, m *metrics.StreamMetrics) *Stream {
	return &Stream{conn: conn, clock: clock, metrics: m}
}

// Run writes every snapshot received from updates until updates is closed,
// ctx is done or the peer goes away. A nil error means the stream ended cleanly.
func (s *Stream) Run(ctx context.Context, updates <-chan domain.Snapshot) error {
	peerGone := make(chan struct{})
	go s.readPump(peerGone)

	ticker := s.clock.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case snap, ok := <-updates:
			if !ok {
				// Shutdown tears the view down too; report it as going away.
				if ctx.Err() != nil {
					s.closeWith(websocket.CloseGoingAway, "server shutting down")
				} else {
					s.closeWith(websocket.CloseNormalClosure, "view closed")
				}
				return nil
			}
			if err := s.write(snap); err != nil {
				return fmt.Errorf("failed to write snapshot: %w", err)
			}
		case <-ticker.Chan():
			s.setWriteDeadline()
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if s.metrics != nil {
					s.metrics.PingFailures.Inc()
				}
				return fmt.Errorf("failed to ping: %w", err)
			}
		case <-peerGone:
			return nil
		case <-ctx.Done():
			s.closeWith(websocket.CloseGoingAway, "server shutting down")
			return nil
		}
	}
}

func (s *Stream) write(snap domain.Snapshot) error {
	data, err := json.Marshal(NewMessage(snap))
	if err != nil {
		return err
	}

	s.setWriteDeadline()
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.SnapshotsSent.Inc()
	}
	return nil
}

// readPump consumes control frames so pongs and close frames are processed.
// Clients never send data; anything they send is discarded.
func (s *Stream) readPump(peerGone chan<- struct{}) {
	defer close(peerGone)

	s.conn.SetReadLimit(maxMessageSize)
	s.setReadDeadline()
	s.conn.SetPongHandler(func(string) error {
		s.setReadDeadline()
		return nil
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Stream) closeWith(code int, reason string) {
	s.setWriteDeadline()
	_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
}

func (s *Stream) setWriteDeadline() {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
}

func (s *Stream) setReadDeadline() {
	_ = s.conn.SetReadDeadline(time.Now().Add(pongDeadline))
}
