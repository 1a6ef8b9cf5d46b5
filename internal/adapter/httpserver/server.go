// Package httpserver is the web shell: an echo server exposing the feedback
// API, the embedded page and one live view per websocket connection.
package httpserver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Ibeandyson/mini-product-feedback-wall/internal/adapter/metrics"
	"github.com/Ibeandyson/mini-product-feedback-wall/internal/adapter/websocket"
	"github.com/Ibeandyson/mini-product-feedback-wall/internal/app"
	"github.com/Ibeandyson/mini-product-feedback-wall/internal/domain"
	"github.com/Ibeandyson/mini-product-feedback-wall/internal/platform/config"
	apperrors "github.com/Ibeandyson/mini-product-feedback-wall/internal/platform/errors"
	"github.com/Ibeandyson/mini-product-feedback-wall/web"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	gorillaws "github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/semaphore"
)

type feedbackService interface {
	NewView(voter domain.Identity) *app.LiveView
	Snapshot(ctx context.Context, voter domain.Identity) (domain.Snapshot, error)
	Chart(ctx context.Context) ([]domain.ChartBar, error)
	CastVote(ctx context.Context, itemID string, voter domain.Identity, desired domain.Polarity) (domain.Operation, error)
	Submit(ctx context.Context, author domain.Identity, title, description string) (*domain.Item, error)
}

type Server struct {
	echo   *echo.Echo
	config *config.Config
	app    feedbackService
	clock  clockwork.Clock

	templates    *template.Template
	sessionStore *sessions.CookieStore
	errors       *apperrors.Handler

	registry      *prometheus.Registry
	httpMetrics   *metrics.HTTPMetrics
	streamMetrics *metrics.StreamMetrics

	upgrader    gorillaws.Upgrader
	connections *semaphore.Weighted

	streamsCtx    context.Context
	cancelStreams context.CancelFunc
	streams       sync.WaitGroup
	liveViews     atomic.Int64

	healthChecks []HealthCheck
	startTime    time.Time
}

// NewServer builds the server and registers its routes and metrics on reg.
func NewServer(cfg *config.Config, app feedbackService, clock clockwork.Clock, reg *prometheus.Registry, healthChecks []HealthCheck) (*Server, error) {
	templates, err := template.ParseFS(web.TemplateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	streamsCtx, cancelStreams := context.WithCancel(context.Background())

	srv := &Server{
		echo:          e,
		config:        cfg,
		app:           app,
		clock:         clock,
		templates:     templates,
		sessionStore:  setupSessionStore(cfg),
		errors:        apperrors.NewHandler(reg),
		registry:      reg,
		httpMetrics:   metrics.NewHTTPMetrics(reg),
		streamMetrics: metrics.NewStreamMetrics(reg),
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     websocket.NewOriginPolicy(cfg.AppURL, cfg.AllowedOrigins, !cfg.IsProduction()).Check,
		},
		connections:   semaphore.NewWeighted(int64(max(1, cfg.MaxWebSocketConnections))),
		streamsCtx:    streamsCtx,
		cancelStreams: cancelStreams,
		healthChecks:  healthChecks,
		startTime:     clock.Now(),
	}

	srv.registerRoutes()

	return srv, nil
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown unmounts every live view, then drains regular requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancelStreams()

	drained := make(chan struct{})
	go func() {
		s.streams.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-ctx.Done():
		slog.Warn("Live feed connections did not close before shutdown deadline")
	}

	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// Session keys
const (
	sessionName        = "feedbackwall-session"
	sessionKeyIdentity = "identity"
)

func (s *Server) renderTemplate(c echo.Context, name string, data any) error {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.ErrorContext(c.Request().Context(), "Template execution failed", "path", c.Request().URL.Path, "error", err)
		if err := c.String(http.StatusInternalServerError, "Failed to render page"); err != nil {
			return fmt.Errorf("failed to send error response: %w", err)
		}
		return nil
	}
	if err := c.HTMLBlob(http.StatusOK, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to send HTML response: %w", err)
	}
	return nil
}

// setupSessionStore signs the identity cookie. Without a configured secret
// (development only) a random key is used, so sessions end on restart.
func setupSessionStore(cfg *config.Config) *sessions.CookieStore {
	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		slog.Warn("SESSION_SECRET not set, using a random key; sessions will not survive a restart")
		secret = securecookie.GenerateRandomKey(32)
	}

	sessionStore := sessions.NewCookieStore(secret)
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}
	return sessionStore
}
