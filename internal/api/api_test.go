package api

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/epl-etl/internal/api/handlers"
	"github.com/wonny/epl-etl/internal/contracts"
	"github.com/wonny/epl-etl/internal/publish"
	"github.com/wonny/epl-etl/pkg/config"
	"github.com/wonny/epl-etl/pkg/logger"
	"github.com/wonny/epl-etl/pkg/metrics"
)

func newTestServer(t *testing.T) (*httptest.Server, *metrics.Manager) {
	t.Helper()

	store := publish.NewFileStore(t.TempDir(), logger.Nop())
	rs := &contracts.ResultSet{
		RunID:   "run-1",
		Seasons: []string{"9394"},
		Positions: []contracts.TeamSeasonStanding{
			{Season: "9394", Team: "Arsenal", Points: 4, GoalsScored: 3, GoalsConceded: 1, GoalDifference: 2, Rank: 1},
			{Season: "9394", Team: "Liverpool", Points: 1, GoalsScored: 2, GoalsConceded: 2, GoalDifference: 0, Rank: 2},
			{Season: "9394", Team: "Man City", Points: 1, GoalsScored: 1, GoalsConceded: 3, GoalDifference: -2, Rank: 3},
		},
		BestScoring: []contracts.TopScorerRecord{{Season: "9394", Team: "Arsenal", TotalGoals: 3}},
		Manifest: &contracts.RunManifest{
			RunID:     "run-1",
			StartedAt: time.Now().UTC(),
			Seasons:   map[string]contracts.RowCounts{"9394": {Matches: 2, Positions: 3, BestScoring: 1}},
		},
	}
	require.NoError(t, store.Publish(context.Background(), rs))

	m := metrics.NewManager()
	h := handlers.NewResultsHandler(store, store, logger.Nop())
	srv := httptest.NewServer(NewRouter(h, m, logger.Nop()))
	t.Cleanup(srv.Close)
	return srv, m
}

func getJSON(t *testing.T, url string, out interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	var body map[string]interface{}
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/health", &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "epl-etl-api", body["service"])
}

func TestListSeasons(t *testing.T) {
	srv, _ := newTestServer(t)

	var body handlers.SeasonsResponse
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/seasons", &body))
	assert.Equal(t, []string{"9394"}, body.Seasons)
	assert.Equal(t, 1, body.Count)
}

func TestGetPositions(t *testing.T) {
	srv, _ := newTestServer(t)

	var body handlers.PositionsResponse
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/seasons/9394/positions", &body))
	assert.Equal(t, "9394", body.Season)
	require.Len(t, body.Rows, 3)
	assert.Equal(t, "Arsenal", body.Rows[0].Team)
	assert.Equal(t, 1, body.Rows[0].Rank)
	assert.Equal(t, 3, body.Rows[2].Rank)
}

func TestGetPositions_Limit(t *testing.T) {
	srv, _ := newTestServer(t)

	var body handlers.PositionsResponse
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/seasons/9394/positions?limit=1", &body))
	require.Len(t, body.Rows, 1)
	assert.Equal(t, 1, body.Count)

	var errBody map[string]string
	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/api/seasons/9394/positions?limit=x", &errBody))
	assert.NotEmpty(t, errBody["error"])
}

func TestGetBestScoring(t *testing.T) {
	srv, _ := newTestServer(t)

	var body handlers.BestScoringResponse
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/seasons/9394/best-scoring", &body))
	assert.Equal(t, []contracts.TopScorerRecord{{Season: "9394", Team: "Arsenal", TotalGoals: 3}}, body.Rows)
}

func TestUnknownSeason(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{
		"/api/seasons/9900/positions",
		"/api/seasons/9900/best-scoring",
		"/api/seasons/abcd/positions",
	} {
		var body map[string]string
		assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+path, &body), path)
		assert.NotEmpty(t, body["error"], path)
	}
}

func TestUnknownRoute(t *testing.T) {
	srv, _ := newTestServer(t)

	var body map[string]string
	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/api/teams", &body))
	assert.Equal(t, "Not found", body["error"])
}

func TestGetManifest(t *testing.T) {
	srv, _ := newTestServer(t)

	var body contracts.RunManifest
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/manifest", &body))
	assert.Equal(t, "run-1", body.RunID)
	assert.Equal(t, 3, body.Seasons["9394"].Positions)
}

func TestGetManifest_NotPublished(t *testing.T) {
	store := publish.NewFileStore(t.TempDir(), logger.Nop())
	srv := httptest.NewServer(NewRouter(handlers.NewResultsHandler(store, store, logger.Nop()), nil, logger.Nop()))
	defer srv.Close()

	var body map[string]string
	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/api/manifest", &body))

	var seasons handlers.SeasonsResponse
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/seasons", &seasons))
	assert.Empty(t, seasons.Seasons)
}

func TestMetricsEndpoint_RecordsRouteTemplate(t *testing.T) {
	srv, _ := newTestServer(t)

	getJSON(t, srv.URL+"/api/seasons/9394/positions", nil)
	getJSON(t, srv.URL+"/api/seasons/9900/positions", nil)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(raw)

	assert.Contains(t, text, `epl_etl_api_requests_total{code="200",method="GET",route="/api/seasons/{season}/positions"} 1`)
	assert.Contains(t, text, `epl_etl_api_requests_total{code="404",method="GET",route="/api/seasons/{season}/positions"} 1`)
	assert.NotContains(t, text, `route="/api/seasons/9394/positions"`)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/seasons", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
}

func TestServer_ServeAndShutdown(t *testing.T) {
	store := publish.NewFileStore(t.TempDir(), logger.Nop())
	router := NewRouter(handlers.NewResultsHandler(store, store, logger.Nop()), nil, logger.Nop())
	srv := New(&config.Config{Port: "0", Env: "development"}, logger.Nop(), router)
	assert.Equal(t, ":0", srv.Addr())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	var body map[string]interface{}
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return json.NewDecoder(resp.Body).Decode(&body) == nil
	}, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, "ok", body["status"])

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.NoError(t, <-errCh)
}
