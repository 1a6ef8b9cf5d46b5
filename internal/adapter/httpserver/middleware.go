package httpserver

import (
	"log/slog"

	"github.com/Ibeandyson/mini-product-feedback-wall/internal/domain"
	"github.com/labstack/echo/v4"
)

const contextKeyVoter = "voter"

// loadIdentity resolves the session identity for every request. A missing or
// unreadable session is an anonymous viewer, never an error.
func (s *Server) loadIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		voter := domain.Anonymous

		session, err := s.sessionStore.Get(c.Request(), sessionName)
		if err != nil {
			slog.DebugContext(c.Request().Context(), "Ignoring unreadable session", "error", err)
		} else if id, ok := session.Values[sessionKeyIdentity].(string); ok {
			voter = domain.Identity(id)
		}

		c.Set(contextKeyVoter, voter)
		return next(c)
	}
}

func voterFrom(c echo.Context) domain.Identity {
	voter, _ := c.Get(contextKeyVoter).(domain.Identity)
	return voter
}

// audience labels request metrics; it runs after loadIdentity has set the voter.
func audience(c echo.Context) string {
	if voterFrom(c).Present() {
		return "signed_in"
	}
	return "anonymous"
}
