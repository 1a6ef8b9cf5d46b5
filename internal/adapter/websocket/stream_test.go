package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Ibeandyson/mini-product-feedback-wall/internal/adapter/metrics"
	"github.com/Ibeandyson/mini-product-feedback-wall/internal/domain"
	ws "github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConnPair(t *testing.T) (server *ws.Conn, client *ws.Conn) {
	t.Helper()
	upgrader := ws.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	ready := make(chan *ws.Conn, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ready <- conn
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	clientConn, _, err := ws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = clientConn.Close() })

	serverConn := <-ready
	t.Cleanup(func() { _ = serverConn.Close() })

	return serverConn, clientConn
}

func readMessage(t *testing.T, conn *ws.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func runStream(t *testing.T, stream *Stream, ctx context.Context, updates <-chan domain.Snapshot) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- stream.Run(ctx, updates) }()
	return done
}

func TestNewMessage(t *testing.T) {
	msg := NewMessage(domain.Snapshot{Version: 3, Err: errors.New("db down")})

	assert.Equal(t, "snapshot", msg.Type)
	assert.Equal(t, "Failed to load feedback", msg.Error)
	assert.NotNil(t, msg.Items)
	assert.NotNil(t, msg.Chart)

	data, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"items":[]`)
	assert.NotContains(t, string(data), "db down")
}

func TestStream_WritesSnapshots(t *testing.T) {
	server, client := newTestConnPair(t)
	m := metrics.NewStreamMetrics(prometheus.NewRegistry())
	stream := NewStream(server, clockwork.NewFakeClock(), m)

	updates := make(chan domain.Snapshot, 1)
	done := runStream(t, stream, context.Background(), updates)

	updates <- domain.Snapshot{
		Version: 1,
		Voter:   "alice",
		Items: []domain.AnnotatedItem{{
			Item:          domain.Item{ID: "a", Title: "Dark mode"},
			VoteAggregate: domain.NewVoteAggregate(2, 0),
			UserVote:      domain.PolarityUp,
		}},
	}

	msg := readMessage(t, client)
	assert.Equal(t, uint64(1), msg.Version)
	assert.Equal(t, domain.Identity("alice"), msg.Voter)
	require.Len(t, msg.Items, 1)
	assert.Equal(t, "a", msg.Items[0].ID)
	assert.Equal(t, 2, msg.Items[0].Net)
	assert.Empty(t, msg.Error)

	close(updates)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not stop after updates closed")
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SnapshotsSent))
}

func TestStream_ClosedUpdatesSendsCloseFrame(t *testing.T) {
	server, client := newTestConnPair(t)
	stream := NewStream(server, clockwork.NewFakeClock(), nil)

	updates := make(chan domain.Snapshot)
	done := runStream(t, stream, context.Background(), updates)
	close(updates)
	require.NoError(t, <-done)

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := client.ReadMessage()
	assert.True(t, ws.IsCloseError(err, ws.CloseNormalClosure), "got %v", err)
}

func TestStream_StopsWhenPeerDisconnects(t *testing.T) {
	server, client := newTestConnPair(t)
	stream := NewStream(server, clockwork.NewFakeClock(), nil)

	done := runStream(t, stream, context.Background(), make(chan domain.Snapshot))
	require.NoError(t, client.Close())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not notice the peer going away")
	}
}

func TestStream_StopsOnContextCancel(t *testing.T) {
	server, client := newTestConnPair(t)
	stream := NewStream(server, clockwork.NewFakeClock(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := runStream(t, stream, ctx, make(chan domain.Snapshot))
	cancel()
	require.NoError(t, <-done)

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := client.ReadMessage()
	assert.True(t, ws.IsCloseError(err, ws.CloseGoingAway), "got %v", err)
}

func TestStream_ShutdownWithClosedViewSendsGoingAway(t *testing.T) {
	// Shutdown cancels ctx and closes updates at once; either branch may win.
	for range 20 {
		server, client := newTestConnPair(t)
		stream := NewStream(server, clockwork.NewFakeClock(), nil)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		updates := make(chan domain.Snapshot)
		close(updates)
		require.NoError(t, <-runStream(t, stream, ctx, updates))

		require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, _, err := client.ReadMessage()
		require.True(t, ws.IsCloseError(err, ws.CloseGoingAway), "got %v", err)
	}
}

func TestStream_PingsOnTick(t *testing.T) {
	server, client := newTestConnPair(t)
	clock := clockwork.NewFakeClock()
	stream := NewStream(server, clock, nil)

	pinged := make(chan struct{}, 1)
	client.SetPingHandler(func(string) error {
		pinged <- struct{}{}
		return nil
	})
	go func() {
		for {
			if _, _, err := client.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_ = runStream(t, stream, ctx, make(chan domain.Snapshot))

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(pingInterval)

	select {
	case <-pinged:
	case <-time.After(2 * time.Second):
		t.Fatal("no ping received")
	}
}
