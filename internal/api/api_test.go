package api

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

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workplay/officegame/internal/export"
	"github.com/workplay/officegame/internal/game"
	"github.com/workplay/officegame/internal/scenario"
)

type evalFunc func(ctx context.Context, scenarioText string, answers, names []string, model string) (string, error)

func (f evalFunc) Evaluate(ctx context.Context, scenarioText string, answers []string, playerNames []string, model string) (string, error) {
	return f(ctx, scenarioText, answers, playerNames, model)
}

type stubArchive struct {
	reports []export.ArchivedReport
	err     error
}

func (a stubArchive) Recent(_ context.Context, limit int) ([]export.ArchivedReport, error) {
	if limit < len(a.reports) {
		return a.reports[:limit], a.err
	}
	return a.reports, a.err
}

func newTestServer(t *testing.T, eval game.Evaluator) (*gin.Engine, *Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	catalog := scenario.Default()
	ctrl := game.NewController(catalog, eval, game.Options{
		PlayerCount:       2,
		DefaultModel:      "gpt-3.5-turbo",
		EvaluationTimeout: time.Second,
		Logger:            zerolog.Nop(),
	})
	h := &Handler{Ctrl: ctrl, Scenarios: catalog.All()}
	r := gin.New()
	h.Mount(r)
	return r, h
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeSnapshot(t *testing.T, w *httptest.ResponseRecorder) game.Snapshot {
	t.Helper()
	var snap game.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	return snap
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) (string, game.Snapshot) {
	t.Helper()
	var body struct {
		Error   string        `json:"error"`
		Message string        `json:"message"`
		State   game.Snapshot `json:"state"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Message)
	return body.Error, body.State
}

func TestAPI_FullRound(t *testing.T) {
	r, _ := newTestServer(t, evalFunc(func(_ context.Context, _ string, _, names []string, model string) (string, error) {
		return fmt.Sprintf("🥈 SILVER MEDAL for %s (%s)", names[1], model), nil
	}))

	w := do(t, r, http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, game.PhaseNoRoster, decodeSnapshot(t, w).Phase)

	w = do(t, r, http.MethodPost, "/api/roster", `{"names":["Ann","Bo"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, game.PhaseAwaitingRoundStart, decodeSnapshot(t, w).Phase)

	w = do(t, r, http.MethodPost, "/api/round/start", `{"title":"The Late Arrival"}`)
	require.Equal(t, http.StatusOK, w.Code)
	snap := decodeSnapshot(t, w)
	assert.Equal(t, "The Late Arrival", snap.Round.Scenario.Title)

	for _, answer := range []string{"Apologise", "Explain"} {
		w = do(t, r, http.MethodPost, "/api/round/answer", fmt.Sprintf(`{"text":%q}`, answer))
		require.Equal(t, http.StatusOK, w.Code)
	}
	assert.Equal(t, game.PhaseReadyForEvaluation, decodeSnapshot(t, w).Phase)

	w = do(t, r, http.MethodPost, "/api/round/evaluate", `{"model":"gpt-4"}`)
	require.Equal(t, http.StatusOK, w.Code)
	snap = decodeSnapshot(t, w)
	assert.Equal(t, game.PhaseGameOver, snap.Phase)
	assert.Equal(t, "Bo", snap.Winner.Name)
	assert.Equal(t, "gpt-4", snap.Round.Model)

	w = do(t, r, http.MethodGet, "/api/report?format=markdown", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="round_1_report.md"`, w.Header().Get("Content-Disposition"))
	assert.Contains(t, w.Body.String(), "**Bo:** Explain")

	w = do(t, r, http.MethodGet, "/api/report?format=json", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	var report map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, "gpt-4", report["model_used"])

	w = do(t, r, http.MethodPost, "/api/round/answer", `{"text":"too late"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	code, state := decodeError(t, w)
	assert.Equal(t, "game_ended", code)
	assert.True(t, state.GameEnded)

	w = do(t, r, http.MethodPost, "/api/game/reset", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, game.PhaseNoRoster, decodeSnapshot(t, w).Phase)
}

func TestAPI_ValidationErrors(t *testing.T) {
	r, _ := newTestServer(t, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"bad player count", http.MethodPost, "/api/players/count", `{"count":9}`, http.StatusBadRequest, "player_count"},
		{"roster size", http.MethodPost, "/api/roster", `{"names":["Solo"]}`, http.StatusBadRequest, "roster_size"},
		{"no roster", http.MethodPost, "/api/round/start", "", http.StatusConflict, "no_roster"},
		{"skip without round", http.MethodPost, "/api/round/skip", "", http.StatusConflict, "no_roster"},
		{"report before evaluation", http.MethodGet, "/api/report", "", http.StatusConflict, "no_roster"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code)
			code, _ := decodeError(t, w)
			assert.Equal(t, tt.code, code)
		})
	}

	w := do(t, r, http.MethodPost, "/api/roster", `{"names":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodGet, "/api/report?format=pdf", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPI_EmptyAnswerAndScenarioLookup(t *testing.T) {
	r, _ := newTestServer(t, nil)
	require.Equal(t, http.StatusOK, do(t, r, http.MethodPost, "/api/roster", `{"names":["Ann","Bo"]}`).Code)

	w := do(t, r, http.MethodPost, "/api/round/start", `{"title":"Nope"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.Equal(t, http.StatusOK, do(t, r, http.MethodPost, "/api/round/start", "").Code)
	w = do(t, r, http.MethodPost, "/api/round/answer", `{"text":"   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	code, state := decodeError(t, w)
	assert.Equal(t, "empty_answer", code)
	assert.Equal(t, 0, state.Round.Submitted)

	w = do(t, r, http.MethodPost, "/api/round/reset", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, game.PhaseAwaitingRoundStart, decodeSnapshot(t, w).Phase)
}

func TestAPI_EvaluationFailure(t *testing.T) {
	r, _ := newTestServer(t, evalFunc(func(context.Context, string, []string, []string, string) (string, error) {
		return "", errors.New("upstream unavailable")
	}))
	require.Equal(t, http.StatusOK, do(t, r, http.MethodPost, "/api/roster", `{"names":["Ann","Bo"]}`).Code)
	require.Equal(t, http.StatusOK, do(t, r, http.MethodPost, "/api/round/start", "").Code)
	require.Equal(t, http.StatusOK, do(t, r, http.MethodPost, "/api/round/answer", `{"text":"a"}`).Code)
	require.Equal(t, http.StatusOK, do(t, r, http.MethodPost, "/api/round/answer", `{"text":"b"}`).Code)

	w := do(t, r, http.MethodPost, "/api/round/evaluate", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	code, state := decodeError(t, w)
	assert.Equal(t, "evaluation_failed", code)
	assert.Equal(t, game.PhaseReadyForEvaluation, state.Phase)

	w = do(t, r, http.MethodPost, "/api/round/skip", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decodeSnapshot(t, w).RoundNumber)
}

func TestAPI_Scenarios(t *testing.T) {
	r, _ := newTestServer(t, nil)
	w := do(t, r, http.MethodGet, "/api/scenarios", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Scenarios []game.Scenario `json:"scenarios"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Scenarios, 8)
}

func TestAPI_Reports(t *testing.T) {
	r, h := newTestServer(t, nil)
	w := do(t, r, http.MethodGet, "/api/reports", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	h.Archive = stubArchive{reports: []export.ArchivedReport{
		{ID: "b", Report: game.Report{ID: "b", Round: 2}},
		{ID: "a", Report: game.Report{ID: "a", Round: 1}},
	}}
	w = do(t, r, http.MethodGet, "/api/reports?limit=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Reports []game.Report `json:"reports"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Reports, 1)
	assert.Equal(t, 2, body.Reports[0].Round)

	h.Archive = stubArchive{err: errors.New("disk I/O error")}
	w = do(t, r, http.MethodGet, "/api/reports", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		code   string
		status int
	}{
		{game.ErrEmptyAnswer, "empty_answer", http.StatusBadRequest},
		{game.ErrInvalidPhase, "invalid_phase", http.StatusConflict},
		{game.ErrEvaluationInFlight, "evaluation_in_flight", http.StatusConflict},
		{game.ErrNoEvaluator, "no_evaluator", http.StatusServiceUnavailable},
		{&game.EvaluationError{Err: errors.New("boom")}, "evaluation_failed", http.StatusBadGateway},
		{&game.EvaluationError{Err: fmt.Errorf("%w after 1s", game.ErrEvaluationTimeout)}, "evaluation_timeout", http.StatusGatewayTimeout},
		{errors.New("unexpected"), "internal", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		code, status := Classify(tt.err)
		assert.Equal(t, tt.code, code, tt.err.Error())
		assert.Equal(t, tt.status, status, tt.err.Error())
	}
}
