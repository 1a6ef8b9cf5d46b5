package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Ibeandyson/mini-product-feedback-wall/internal/adapter/memory"
	"github.com/Ibeandyson/mini-product-feedback-wall/internal/app"
	"github.com/Ibeandyson/mini-product-feedback-wall/internal/domain"
	"github.com/Ibeandyson/mini-product-feedback-wall/internal/platform/config"
	"github.com/Ibeandyson/mini-product-feedback-wall/internal/realtime"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	srv   *Server
	store *memory.Store
	hub   *realtime.Hub
}

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:                  "development",
		Port:                    "0",
		AppURL:                  "http://localhost:8080",
		SessionSecret:           "test-secret-key-32-bytes-long!!!",
		SessionMaxAge:           time.Hour,
		VoteRateLimit:           100,
		VoteRateBurst:           100,
		MaxWebSocketConnections: 10,
	}
}

func newTestEnv(t *testing.T, opts ...func(*config.Config)) *testEnv {
	t.Helper()
	cfg := testConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	clock := clockwork.NewRealClock()
	hub := realtime.NewHub()
	store := memory.NewStore(clock, hub)
	return &testEnv{
		srv:   newServerWithStore(t, cfg, store, hub),
		store: store,
		hub:   hub,
	}
}

func newServerWithStore(t *testing.T, cfg *config.Config, store domain.Store, feed domain.ChangeFeed, checks ...HealthCheck) *Server {
	t.Helper()
	clock := clockwork.NewRealClock()
	service := app.NewService(store, feed, nil, clock, app.ViewConfig{PollInterval: time.Hour}, nil, nil)

	srv, err := NewServer(cfg, service, clock, prometheus.NewRegistry(), checks)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv
}

// session holds the cookies a browser would carry between requests.
type session struct {
	t       *testing.T
	srv     *Server
	cookies map[string]*http.Cookie
	csrf    string
}

func newSession(t *testing.T, srv *Server) *session {
	return &session{t: t, srv: srv, cookies: make(map[string]*http.Cookie)}
}

func (s *session) do(method, path, body string) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.csrf != "" {
		req.Header.Set("X-CSRF-Token", s.csrf)
	}
	for _, c := range s.cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	s.srv.echo.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(s.cookies, c.Name)
			continue
		}
		s.cookies[c.Name] = c
	}
	return rec
}

// loadPage fetches the index page so the CSRF cookie is issued.
func (s *session) loadPage() {
	s.t.Helper()
	rec := s.do(http.MethodGet, "/", "")
	require.Equal(s.t, http.StatusOK, rec.Code)
	c, ok := s.cookies[csrfCookieName]
	require.True(s.t, ok, "CSRF cookie should be set")
	s.csrf = c.Value
}

func (s *session) signIn() domain.Identity {
	s.t.Helper()
	if s.csrf == "" {
		s.loadPage()
	}
	rec := s.do(http.MethodPost, "/auth/anonymous", "")
	require.Equal(s.t, http.StatusOK, rec.Code)

	var resp identityResponse
	decode(s.t, rec, &resp)
	require.True(s.t, resp.SignedIn)
	return domain.Identity(*resp.Identity)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func createItem(t *testing.T, store domain.ItemWriter, title string) *domain.Item {
	t.Helper()
	item, err := store.CreateItem(context.Background(), domain.NewItem{Title: title, CreatedBy: "author"})
	require.NoError(t, err)
	return item
}

var errStoreDown = errors.New("store down")

type failingStore struct{}

func (failingStore) ListWithVotes(context.Context) ([]domain.ItemWithVotes, error) {
	return nil, errStoreDown
}
func (failingStore) VotesByVoter(context.Context, domain.Identity) ([]domain.Vote, error) {
	return nil, errStoreDown
}
func (failingStore) CreateVote(context.Context, string, domain.Identity, domain.Polarity) error {
	return errStoreDown
}
func (failingStore) UpdateVote(context.Context, string, domain.Identity, domain.Polarity) error {
	return errStoreDown
}
func (failingStore) DeleteVote(context.Context, string, domain.Identity) error {
	return errStoreDown
}
func (failingStore) CreateItem(context.Context, domain.NewItem) (*domain.Item, error) {
	return nil, errStoreDown
}
