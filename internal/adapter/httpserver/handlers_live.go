package httpserver

import (
	"context"
	"log/slog"

	"github.com/Ibeandyson/mini-product-feedback-wall/internal/adapter/websocket"
	"github.com/Ibeandyson/mini-product-feedback-wall/internal/platform/correlation"
	apperrors "github.com/Ibeandyson/mini-product-feedback-wall/internal/platform/errors"
	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// handleLiveFeed mounts one live view for the lifetime of the connection and
// unmounts it on every exit path.
func (s *Server) handleLiveFeed(c echo.Context) error {
	if !s.connections.TryAcquire(1) {
		return apperrors.RateLimitedError("too many live connections")
	}
	defer s.connections.Release(1)

	s.streams.Add(1)
	defer s.streams.Done()

	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		slog.DebugContext(c.Request().Context(), "WebSocket upgrade failed", "error", err)
		return nil
	}
	defer func() { _ = conn.Close() }()

	s.streamMetrics.ActiveConnections.Inc()
	defer s.streamMetrics.ActiveConnections.Dec()
	s.liveViews.Add(1)
	defer s.liveViews.Add(-1)

	ctx, cancel := context.WithCancel(s.streamsCtx)
	defer cancel()
	if id, ok := correlation.ID(c.Request().Context()); ok {
		ctx = correlation.WithID(ctx, id)
	}

	voter := voterFrom(c)
	view := s.app.NewView(voter)
	if err := view.Mount(ctx); err != nil {
		slog.ErrorContext(ctx, "Failed to mount live view", "voter", voter, "error", err)
		_ = conn.WriteMessage(gorillaws.CloseMessage,
			gorillaws.FormatCloseMessage(gorillaws.CloseInternalServerErr, "live feed unavailable"))
		return nil
	}
	defer view.Unmount()

	slog.DebugContext(ctx, "Live view mounted", "voter", voter)
	if err := websocket.NewStream(conn, s.clock, s.streamMetrics).Run(ctx, view.Updates()); err != nil {
		slog.DebugContext(ctx, "Live feed stream ended", "error", err)
	}
	return nil
}
