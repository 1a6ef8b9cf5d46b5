package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Ibeandyson/mini-product-feedback-wall/internal/platform/version"
	"github.com/labstack/echo/v4"
)

const readinessProbeTimeout = 5 * time.Second

// HealthCheck probes one backing service; a nil error means it is reachable.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type livenessResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	LiveViews     int64   `json:"live_views"`
}

type readinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (s *Server) registerHealthRoutes() {
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/version", s.handleVersion)
}

func (s *Server) handleLiveness(c echo.Context) error {
	resp := livenessResponse{
		Status:        "ok",
		UptimeSeconds: s.clock.Since(s.startTime).Seconds(),
		LiveViews:     s.liveViews.Load(),
	}
	if err := c.JSON(http.StatusOK, resp); err != nil {
		return fmt.Errorf("failed to write liveness response: %w", err)
	}
	return nil
}

// handleReadiness runs every check in parallel and reports each result.
// A draining server is never ready.
func (s *Server) handleReadiness(c echo.Context) error {
	resp := readinessResponse{Status: "ready", Checks: make(map[string]string, len(s.healthChecks))}
	status := http.StatusOK

	if s.streamsCtx.Err() != nil {
		resp.Status = "draining"
		status = http.StatusServiceUnavailable
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessProbeTimeout)
	defer cancel()

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, hc := range s.healthChecks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := "ok"
			if err := hc.Check(ctx); err != nil {
				result = err.Error()
			}
			mu.Lock()
			resp.Checks[hc.Name] = result
			mu.Unlock()
		}()
	}
	wg.Wait()

	for _, result := range resp.Checks {
		if result != "ok" && status == http.StatusOK {
			resp.Status = "unhealthy"
			status = http.StatusServiceUnavailable
		}
	}

	if err := c.JSON(status, resp); err != nil {
		return fmt.Errorf("failed to write readiness response: %w", err)
	}
	return nil
}

func (s *Server) handleVersion(c echo.Context) error {
	if err := c.JSON(http.StatusOK, version.Get()); err != nil {
		return fmt.Errorf("failed to write version response: %w", err)
	}
	return nil
}
