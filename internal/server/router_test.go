package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"catan-standings/internal/domain"
	"catan-standings/internal/metrics"
	"catan-standings/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubmitter struct {
	got service.Submission
	res *service.Result
	err error
}

func (f *fakeSubmitter) Submit(_ context.Context, sub service.Submission) (*service.Result, error) {
	f.got = sub
	return f.res, f.err
}

type fakePlayers struct {
	player    *domain.Player
	err       error
	refreshed []domain.Division
	gotName   string
}

func (f *fakePlayers) GetPlayer(_ context.Context, _ domain.Division, _ domain.Site, name string) (*domain.Player, error) {
	f.gotName = name
	return f.player, f.err
}

func (f *fakePlayers) RefreshRoster(d domain.Division) { f.refreshed = append(f.refreshed, d) }

type fakeGames struct {
	games    []domain.StoredGame
	gotLimit int
}

func (f *fakeGames) List(_ context.Context, _ domain.Division, limit int) ([]domain.StoredGame, error) {
	f.gotLimit = limit
	return f.games, nil
}

type testServer struct {
	submitter *fakeSubmitter
	players   *fakePlayers
	games     *fakeGames
	handler   http.Handler
}

func newTestServer() *testServer {
	ts := &testServer{submitter: &fakeSubmitter{}, players: &fakePlayers{}, games: &fakeGames{}}
	ts.handler = NewStandingsServer(ts.submitter, ts.players, ts.games, metrics.New(), zerolog.Nop()).Router()
	return ts
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func TestSubmit(t *testing.T) {
	ts := newTestServer()
	ts.submitter.res = &service.Result{
		SubmissionID: "abc",
		Message:      "posted",
		Record: &domain.GameRecord{
			Division:    domain.Div2,
			ReplayLink:  "https://colonist.io/replay/x",
			PlayedAt:    time.Date(2025, 1, 3, 18, 4, 5, 0, time.UTC),
			IsDuplicate: true,
			Scores: []domain.PlayerScore{
				{SourceName: "a", RosterName: "alice", Score: 10},
				{SourceName: "b", Score: 7},
				{SourceName: "c", Score: 6},
				{SourceName: "d", Score: 4},
			},
		},
	}

	rec := ts.do(http.MethodPost, "/v1/submissions", `{"division":"2","content":"https://colonist.io/replay/x","author":"me"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	assert.Equal(t, domain.Div2, ts.submitter.got.Division)
	assert.Equal(t, "me", ts.submitter.got.Author)

	var resp submitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "abc", resp.SubmissionID)
	assert.True(t, resp.Duplicate)
	assert.Equal(t, "2025-01-03T18:04:05+00:00", resp.PlayedAt)
	require.Len(t, resp.Scores, 4)
	assert.Equal(t, scoreResponse{SourceName: "a", LedgerName: "alice", Display: "@alice", Score: 10}, resp.Scores[0])
	assert.Equal(t, "b (FALLBACK)", resp.Scores[1].LedgerName)
}

func TestSubmit_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{name: "bad json", body: `{`, status: http.StatusBadRequest},
		{name: "bad division", body: `{"division":"3"}`, status: http.StatusBadRequest},
		{name: "no link", body: `{"division":"1"}`, err: domain.ErrNoReplayLink, status: http.StatusUnprocessableEntity},
		{name: "malformed", body: `{"division":"1"}`, err: domain.Malformed("no seats"), status: http.StatusUnprocessableEntity},
		{name: "upstream", body: `{"division":"CK"}`, err: domain.Upstream("ledger", errors.New("503")), status: http.StatusBadGateway},
		{name: "division without ledger", body: `{"division":"CK"}`, err: fmt.Errorf("%w: CK", domain.ErrDivisionNotConfigured), status: http.StatusBadRequest},
		{name: "other", body: `{"division":"1"}`, err: errors.New("boom"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer()
			ts.submitter.err = tt.err
			rec := ts.do(http.MethodPost, "/v1/submissions", tt.body)
			assert.Equal(t, tt.status, rec.Code)

			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestListGames(t *testing.T) {
	ts := newTestServer()
	ts.games.games = []domain.StoredGame{{SubmissionID: "g1", Division: domain.Div1}}

	rec := ts.do(http.MethodGet, "/v1/games?division=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, defaultGamesLimit, ts.games.gotLimit)

	var games []domain.StoredGame
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &games))
	require.Len(t, games, 1)
	assert.Equal(t, "g1", games[0].SubmissionID)

	ts.do(http.MethodGet, "/v1/games?division=1&limit=5000", "")
	assert.Equal(t, maxGamesLimit, ts.games.gotLimit)

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/v1/games?division=1&limit=-1", "").Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/v1/games", "").Code)
}

func TestGetPlayer(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(http.MethodGet, "/v1/players/1/colonist.io/nobody", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	ts.players.player = &domain.Player{DiscordName: "settler", ColonistUsername: "Settler#1234"}
	rec = ts.do(http.MethodGet, "/v1/players/1/colonist.io/Settler%231234", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"discord_name":"settler","colonist_username":"Settler#1234"}`, rec.Body.String())

	ts.players.err = domain.Upstream("roster", errors.New("503"))
	assert.Equal(t, http.StatusBadGateway, ts.do(http.MethodGet, "/v1/players/CK/colonist.io/x", "").Code)
}

func TestRefreshRoster(t *testing.T) {
	ts := newTestServer()

	assert.Equal(t, http.StatusNoContent, ts.do(http.MethodDelete, "/v1/roster/CK", "").Code)
	assert.Equal(t, http.StatusNoContent, ts.do(http.MethodDelete, "/v1/roster", "").Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodDelete, "/v1/roster/9", "").Code)
	assert.Equal(t, []domain.Division{domain.CK, ""}, ts.players.refreshed)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = ts.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
