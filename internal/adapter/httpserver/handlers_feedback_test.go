package httpserver

import (
	"context"
	"net/http"
	"testing"

	"github.com/Ibeandyson/mini-product-feedback-wall/internal/adapter/websocket"
	"github.com/Ibeandyson/mini-product-feedback-wall/internal/domain"
	apperrors "github.com/Ibeandyson/mini-product-feedback-wall/internal/platform/errors"
	"github.com/Ibeandyson/mini-product-feedback-wall/internal/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex_RendersWithCSRFToken(t *testing.T) {
	env := newTestEnv(t)
	s := newSession(t, env.srv)

	rec := s.do(http.MethodGet, "/", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Product Feedback")
	c, ok := s.cookies[csrfCookieName]
	require.True(t, ok)
	assert.Contains(t, body, `content="`+c.Value+`"`)
}

func TestListFeedback_RankedWithUserVotes(t *testing.T) {
	env := newTestEnv(t)
	s := newSession(t, env.srv)
	voter := s.signIn()
	ctx := context.Background()

	low := createItem(t, env.store, "low")
	high := createItem(t, env.store, "high")
	require.NoError(t, env.store.CreateVote(ctx, high.ID, voter, domain.PolarityUp))
	require.NoError(t, env.store.CreateVote(ctx, low.ID, "someone", domain.PolarityDown))

	rec := s.do(http.MethodGet, "/api/feedback", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var msg websocket.Message
	decode(t, rec, &msg)
	require.Len(t, msg.Items, 2)
	assert.Equal(t, high.ID, msg.Items[0].ID)
	assert.Equal(t, domain.PolarityUp, msg.Items[0].UserVote)
	assert.Equal(t, low.ID, msg.Items[1].ID)
	assert.Equal(t, domain.PolarityNone, msg.Items[1].UserVote)
	assert.Equal(t, -1, msg.Items[1].Net)
	assert.Equal(t, voter, msg.Voter)
}

func TestListFeedback_AnonymousHasNoUserVotes(t *testing.T) {
	env := newTestEnv(t)
	item := createItem(t, env.store, "item")
	require.NoError(t, env.store.CreateVote(context.Background(), item.ID, "someone", domain.PolarityUp))

	rec := newSession(t, env.srv).do(http.MethodGet, "/api/feedback", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_vote":null`)
}

func TestListFeedback_StoreFailure(t *testing.T) {
	srv := newServerWithStore(t, testConfig(), failingStore{}, realtime.NewHub())

	rec := newSession(t, srv).do(http.MethodGet, "/api/feedback", "")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	var resp apperrors.ErrorResponse
	decode(t, rec, &resp)
	assert.Equal(t, apperrors.TypeExternal, resp.Type)
	assert.NotContains(t, rec.Body.String(), errStoreDown.Error())
}

func TestChart_TopFive(t *testing.T) {
	env := newTestEnv(t)
	for _, title := range []string{"a", "b", "c", "d", "e", "f"} {
		createItem(t, env.store, title)
	}

	rec := newSession(t, env.srv).do(http.MethodGet, "/api/chart", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Bars []domain.ChartBar `json:"bars"`
	}
	decode(t, rec, &resp)
	assert.Len(t, resp.Bars, 5)
}

func TestVote_Anonymous(t *testing.T) {
	env := newTestEnv(t)
	item := createItem(t, env.store, "item")
	s := newSession(t, env.srv)
	s.loadPage()

	rec := s.do(http.MethodPost, "/api/feedback/"+item.ID+"/vote", `{"vote":"up"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var resp apperrors.ErrorResponse
	decode(t, rec, &resp)
	assert.Equal(t, apperrors.TypeUnauthorized, resp.Type)
	assert.Equal(t, "sign_in", resp.Context["action"])
}

func TestVote_ToggleAndSwitch(t *testing.T) {
	env := newTestEnv(t)
	item := createItem(t, env.store, "item")
	s := newSession(t, env.srv)
	voter := s.signIn()
	path := "/api/feedback/" + item.ID + "/vote"

	steps := []struct {
		vote string
		op   domain.Operation
		want domain.Polarity
	}{
		{"up", domain.OpCreate, domain.PolarityUp},
		{"down", domain.OpChange, domain.PolarityDown},
		{"down", domain.OpRetract, domain.PolarityNone},
	}
	for _, step := range steps {
		rec := s.do(http.MethodPost, path, `{"vote":"`+step.vote+`"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp voteResponse
		decode(t, rec, &resp)
		assert.Equal(t, step.op, resp.Operation)

		votes, err := env.store.VotesByVoter(context.Background(), voter)
		require.NoError(t, err)
		if step.want == domain.PolarityNone {
			assert.Empty(t, votes)
		} else {
			require.Len(t, votes, 1)
			assert.Equal(t, step.want, votes[0].Polarity)
		}
	}
}

func TestVote_InvalidPolarity(t *testing.T) {
	env := newTestEnv(t)
	item := createItem(t, env.store, "item")
	s := newSession(t, env.srv)
	s.signIn()

	rec := s.do(http.MethodPost, "/api/feedback/"+item.ID+"/vote", `{"vote":"sideways"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp apperrors.ErrorResponse
	decode(t, rec, &resp)
	assert.Equal(t, apperrors.TypeValidation, resp.Type)
}

func TestVote_UnknownItem(t *testing.T) {
	env := newTestEnv(t)
	s := newSession(t, env.srv)
	s.signIn()

	rec := s.do(http.MethodPost, "/api/feedback/missing/vote", `{"vote":"up"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVote_RequiresCSRFToken(t *testing.T) {
	env := newTestEnv(t)
	item := createItem(t, env.store, "item")
	s := newSession(t, env.srv)
	s.signIn()
	s.csrf = ""

	rec := s.do(http.MethodPost, "/api/feedback/"+item.ID+"/vote", `{"vote":"up"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVote_RejectsWrongCSRFToken(t *testing.T) {
	env := newTestEnv(t)
	item := createItem(t, env.store, "item")
	s := newSession(t, env.srv)
	s.signIn()
	s.csrf = "forged"

	rec := s.do(http.MethodPost, "/api/feedback/"+item.ID+"/vote", `{"vote":"up"}`)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSubmit(t *testing.T) {
	env := newTestEnv(t)
	s := newSession(t, env.srv)
	voter := s.signIn()

	rec := s.do(http.MethodPost, "/api/feedback", `{"title":"  Dark mode  ","description":"  "}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var item domain.Item
	decode(t, rec, &item)
	assert.Equal(t, "Dark mode", item.Title)
	assert.Nil(t, item.Description)
	assert.Equal(t, voter.String(), item.CreatedBy)

	rows, err := env.store.ListWithVotes(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, item.ID, rows[0].ID)
}

func TestSubmit_Validation(t *testing.T) {
	env := newTestEnv(t)
	s := newSession(t, env.srv)
	s.signIn()

	rec := s.do(http.MethodPost, "/api/feedback", `{"title":"   "}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp apperrors.ErrorResponse
	decode(t, rec, &resp)
	assert.Equal(t, "title is required", resp.Error)
}

func TestSubmit_Anonymous(t *testing.T) {
	env := newTestEnv(t)
	s := newSession(t, env.srv)
	s.loadPage()

	rec := s.do(http.MethodPost, "/api/feedback", `{"title":"x"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
