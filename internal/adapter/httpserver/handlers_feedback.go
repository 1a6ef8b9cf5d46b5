package httpserver

import (
	"fmt"
	"net/http"

	"github.com/Ibeandyson/mini-product-feedback-wall/internal/adapter/websocket"
	"github.com/Ibeandyson/mini-product-feedback-wall/internal/domain"
	"github.com/Ibeandyson/mini-product-feedback-wall/internal/feedback"
	apperrors "github.com/Ibeandyson/mini-product-feedback-wall/internal/platform/errors"
	"github.com/labstack/echo/v4"
)

type submitRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type voteRequest struct {
	Vote string `json:"vote"`
}

type voteResponse struct {
	Operation domain.Operation `json:"operation"`
}

type indexData struct {
	CSRFToken            string
	Identity             string
	MaxTitleLength       int
	MaxDescriptionLength int
}

func (s *Server) registerFeedbackRoutes(csrfMiddleware, writeLimiter echo.MiddlewareFunc) {
	s.echo.GET("/api/feedback", s.handleListFeedback)
	s.echo.GET("/api/chart", s.handleChart)
	s.echo.POST("/api/feedback", s.handleSubmit, csrfMiddleware, writeLimiter)
	s.echo.POST("/api/feedback/:id/vote", s.handleVote, csrfMiddleware, writeLimiter)
}

func (s *Server) handleIndex(c echo.Context) error {
	token, _ := c.Get(csrfContextKey).(string)
	return s.renderTemplate(c, "index.html", indexData{
		CSRFToken:            token,
		Identity:             voterFrom(c).String(),
		MaxTitleLength:       feedback.MaxTitleLength,
		MaxDescriptionLength: feedback.MaxDescriptionLength,
	})
}

// csrfContextKey is where echo's CSRF middleware stores the token.
const csrfContextKey = "csrf"

func (s *Server) handleListFeedback(c echo.Context) error {
	snap, err := s.app.Snapshot(c.Request().Context(), voterFrom(c))
	if err != nil {
		return apperrors.ExternalError("failed to load feedback", err)
	}
	if err := c.JSON(http.StatusOK, websocket.NewMessage(snap)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleChart(c echo.Context) error {
	bars, err := s.app.Chart(c.Request().Context())
	if err != nil {
		return apperrors.ExternalError("failed to load chart", err)
	}
	if bars == nil {
		bars = []domain.ChartBar{}
	}
	if err := c.JSON(http.StatusOK, map[string]any{"bars": bars}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleSubmit(c echo.Context) error {
	var req submitRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	item, err := s.app.Submit(c.Request().Context(), voterFrom(c), req.Title, req.Description)
	if err != nil {
		return err
	}

	if err := c.JSON(http.StatusCreated, item); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

// handleVote decides the transition from the stored vote, not the page's copy of it.
func (s *Server) handleVote(c echo.Context) error {
	var req voteRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	desired, err := domain.ParsePolarity(req.Vote)
	if err != nil {
		return err
	}

	op, err := s.app.CastVote(c.Request().Context(), c.Param("id"), voterFrom(c), desired)
	if err != nil {
		return err
	}

	if err := c.JSON(http.StatusOK, voteResponse{Operation: op}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
