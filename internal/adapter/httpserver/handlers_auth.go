package httpserver

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Ibeandyson/mini-product-feedback-wall/internal/domain"
	apperrors "github.com/Ibeandyson/mini-product-feedback-wall/internal/platform/errors"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type identityResponse struct {
	Identity *string `json:"identity"`
	SignedIn bool    `json:"signed_in"`
}

func newIdentityResponse(voter domain.Identity) identityResponse {
	if !voter.Present() {
		return identityResponse{}
	}
	id := voter.String()
	return identityResponse{Identity: &id, SignedIn: true}
}

func (s *Server) registerAuthRoutes(csrfMiddleware echo.MiddlewareFunc) {
	s.echo.GET("/auth/me", s.handleMe)
	s.echo.POST("/auth/anonymous", s.handleAnonymousSignIn, csrfMiddleware)
	s.echo.POST("/auth/logout", s.handleLogout, csrfMiddleware)
}

func (s *Server) handleMe(c echo.Context) error {
	if err := c.JSON(http.StatusOK, newIdentityResponse(voterFrom(c))); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

// handleAnonymousSignIn issues a fresh opaque identity. Signing in again while
// signed in keeps the current identity.
func (s *Server) handleAnonymousSignIn(c echo.Context) error {
	if voter := voterFrom(c); voter.Present() {
		if err := c.JSON(http.StatusOK, newIdentityResponse(voter)); err != nil {
			return fmt.Errorf("failed to send JSON response: %w", err)
		}
		return nil
	}

	// A new session, never an existing one, so a planted cookie cannot be promoted.
	session, err := s.sessionStore.New(c.Request(), sessionName)
	if err != nil {
		slog.DebugContext(c.Request().Context(), "Replacing unreadable session", "error", err)
	}
	voter := domain.Identity(uuid.NewString())
	session.Values[sessionKeyIdentity] = voter.String()
	if err := session.Save(c.Request(), c.Response().Writer); err != nil {
		return apperrors.InternalError("failed to save session", err)
	}

	slog.InfoContext(c.Request().Context(), "Viewer signed in", "voter", voter)

	if err := c.JSON(http.StatusOK, newIdentityResponse(voter)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleLogout(c echo.Context) error {
	session, err := s.sessionStore.New(c.Request(), sessionName)
	if err != nil {
		slog.DebugContext(c.Request().Context(), "Replacing unreadable session", "error", err)
	}
	session.Options.MaxAge = -1
	if err := session.Save(c.Request(), c.Response().Writer); err != nil {
		return apperrors.InternalError("failed to save logout session", err)
	}

	slog.InfoContext(c.Request().Context(), "Viewer signed out", "voter", voterFrom(c))

	if err := c.JSON(http.StatusOK, newIdentityResponse(domain.Anonymous)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
