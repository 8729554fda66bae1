package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"cyber_cricket/internal/cache"
	"cyber_cricket/internal/config"
	"cyber_cricket/internal/domain"
	httpServer "cyber_cricket/internal/http"
	"cyber_cricket/internal/http/handlers"
	"cyber_cricket/internal/orchestrator"
	"cyber_cricket/internal/repository"
	"cyber_cricket/internal/service"
	"cyber_cricket/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cannedResponder struct {
	mu    sync.Mutex
	votes map[string]string
}

func (r *cannedResponder) Speak(ctx context.Context, p *domain.Participant, name string, history []domain.Statement, situation string) string {
	return name + " says hello"
}

func (r *cannedResponder) Vote(ctx context.Context, p *domain.Participant, st *domain.GameState, round int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.votes[p.ID]; ok {
		return t
	}
	return domain.AbstainID
}

type testServer struct {
	router    *gin.Engine
	store     *repository.Store
	responder *cannedResponder
	sim       *service.SimulationService
	token     string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	service.InitJWT("test-secret")
	token, err := service.GenerateOperatorToken("tester", time.Hour)
	require.NoError(t, err)

	store := repository.NewMemoryStore()
	responder := &cannedResponder{votes: map[string]string{}}
	audit := service.NewAuditService(store.Audit)
	prompts := service.NewPromptService(store.Settings, audit)
	game := service.NewGameService(store, responder, prompts, audit, service.GameConfig{
		MinParticipants: 2, MaxParticipants: 10, FinalSurvivors: 2,
	})

	hub := ws.NewHub()
	seq := orchestrator.NewSequencer(game, orchestrator.Options{
		SpeakDelay: time.Millisecond,
		VoteDelay:  2 * time.Millisecond,
		Cooldown:   5 * time.Millisecond,
		Observer:   hub,
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	sim := service.NewSimulationService(ctx, seq, cache.NewRunLock(nil, "test", time.Second), "test")

	r := gin.New()
	httpServer.RegisterRoutes(r, httpServer.Server{
		Handler: &handlers.Handler{
			Store:        store,
			Game:         game,
			Participants: service.NewParticipantService(store.Participants, responder, audit),
			Prompts:      prompts,
			Audit:        audit,
			Simulation:   sim,
		},
		Health: handlers.NewHealthHandler(store, nil, sim, "test"),
		Hub:    hub,
		Config: &config.Config{APIRateLimit: 10000, APIRateWindow: time.Minute},
	})

	return &testServer{router: r, store: store, responder: responder, sim: sim, token: token}
}

func (s *testServer) do(t *testing.T, method, path string, body any, auth bool) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w.Code, out
}

func (s *testServer) addParticipants(t *testing.T, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, s.store.Participants.Create(context.Background(), &domain.Participant{
			ID: id, Name: "model-" + id, APIKey: "key-" + id, APIBase: "http://" + id,
		}))
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(t, http.MethodGet, "/healthz", nil, false)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])


	code, body = s.do(t, http.MethodGet, "/health", nil, false)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["game_running"])

	code, body = s.do(t, http.MethodGet, "/readyz", nil, false)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body["status"])
	checks, ok := body["checks"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "healthy", checks["database"])
	assert.Equal(t, "disabled", checks["redis"])
	assert.Equal(t, "not_started", checks["simulation"])
}

func TestParticipantRegistry(t *testing.T) {
	s := newTestServer(t)
	in := map[string]string{"name": "gpt", "apikey": "sk-1234567890", "apibase": "http://one"}

	code, _ := s.do(t, http.MethodPost, "/api/v1/participants", in, false)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, created := s.do(t, http.MethodPost, "/api/v1/participants", in, true)
	require.Equal(t, http.StatusCreated, code)
	id := created["id"].(string)
	assert.NotEmpty(t, id)

	code, body := s.do(t, http.MethodPost, "/api/v1/participants", in, true)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, domain.ErrDuplicateName.Error(), body["error"])

	code, _ = s.do(t, http.MethodPost, "/api/v1/participants", map[string]string{"name": "x"}, true)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = s.do(t, http.MethodGet, "/api/v1/participants", nil, false)
	require.Equal(t, http.StatusOK, code)
	list := body["participants"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "sk-1*****7890", list[0].(map[string]any)["apikey"])

	edit := map[string]string{"name": "gpt-2", "apikey": "sk-1*****7890", "apibase": "http://one"}
	code, body = s.do(t, http.MethodPut, "/api/v1/participants/"+id, edit, true)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "gpt-2", body["name"])

	code, _ = s.do(t, http.MethodDelete, "/api/v1/participants/missing", nil, true)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(t, http.MethodDelete, "/api/v1/participants/"+id, nil, true)
	assert.Equal(t, http.StatusOK, code)
}

func TestCallParticipant(t *testing.T) {
	s := newTestServer(t)
	s.addParticipants(t, "a")

	code, body := s.do(t, http.MethodPost, "/api/v1/participants/a/call", map[string]string{"message": "hi"}, true)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "model-a says hello", body["response"])

	code, _ = s.do(t, http.MethodPost, "/api/v1/participants/a/call", map[string]string{"message": " "}, true)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestPrompt(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(t, http.MethodGet, "/api/v1/prompt", nil, false)
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, body["prompt"])

	code, _ = s.do(t, http.MethodPut, "/api/v1/prompt", map[string]string{"prompt": ""}, true)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPut, "/api/v1/prompt", map[string]string{"prompt": "Be brief."}, true)
	require.Equal(t, http.StatusOK, code)

	_, body = s.do(t, http.MethodGet, "/api/v1/prompt", nil, false)
	assert.Equal(t, "Be brief.", body["prompt"])

	code, body = s.do(t, http.MethodGet, "/api/v1/audit", nil, true)
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, body["logs"])
}

func TestGameEndpoints(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(t, http.MethodGet, "/api/v1/game/state", nil, false)
	assert.Equal(t, http.StatusOK, code)
	assert.Empty(t, body)

	for _, path := range []string{"/api/v1/game/start", "/api/v1/game/round", "/api/v1/game/step"} {
		code, _ = s.do(t, http.MethodPost, path, nil, false)
		assert.Equal(t, http.StatusUnauthorized, code, path)
	}

	code, body = s.do(t, http.MethodPost, "/api/v1/game/step", domain.StepRequest{Stage: domain.StageSpeak, Round: 1}, true)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["error"], "start the game")

	code, _ = s.do(t, http.MethodPost, "/api/v1/game/start", nil, true)
	assert.Equal(t, http.StatusBadRequest, code)

	s.addParticipants(t, "a", "b", "c")
	code, body = s.do(t, http.MethodPost, "/api/v1/game/start", nil, true)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["responses"], 3)

	code, body = s.do(t, http.MethodPost, "/api/v1/game/step", domain.StepRequest{Stage: domain.StageSpeak, AIIndex: 0, Round: 1}, true)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "a", body["ai_id"])
	assert.Equal(t, "Player 1 says hello", body["response"])

	code, body = s.do(t, http.MethodPost, "/api/v1/game/step", domain.StepRequest{Stage: domain.StageSpeak, AIIndex: 0, Round: 2}, true)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["error"], "round mismatch")

	code, body = s.do(t, http.MethodPost, "/api/v1/game/round", domain.AdvanceRoundRequest{Round: 2}, true)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 2, body["round"])

	code, _ = s.do(t, http.MethodPost, "/api/v1/game/round", map[string]int{"round": 0}, true)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = s.do(t, http.MethodGet, "/api/v1/game/state", nil, false)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 2, body["round"])
	assert.Len(t, body["activeAIs"], 3)
}

func TestSimulationRunsToGameOver(t *testing.T) {
	s := newTestServer(t)
	s.addParticipants(t, "a", "b", "c")
	s.responder.votes = map[string]string{"a": "c", "b": "c", "c": "a"}

	code, _ := s.do(t, http.MethodPost, "/api/v1/simulation/start", nil, false)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(t, http.MethodPost, "/api/v1/simulation/start", nil, true)
	require.Equal(t, http.StatusAccepted, code)
	require.True(t, s.sim.Wait(5*time.Second), "simulation did not finish")

	code, body := s.do(t, http.MethodGet, "/api/v1/simulation", nil, false)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["in_progress"])
	assert.Equal(t, "game_over", body["phase"])
	assert.Equal(t, "a|b", body["winner"])

	code, body = s.do(t, http.MethodGet, "/api/v1/simulation/transcript", nil, false)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["openings"], 3)
	assert.Len(t, body["steps"], 6)

	code, _ = s.do(t, http.MethodPost, "/api/v1/simulation/retry", nil, true)
	assert.Equal(t, http.StatusConflict, code)

	st, err := s.store.Games.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a|b", st.Winner)
	assert.Equal(t, []domain.Elimination{{Round: 1, AIID: "c"}}, st.Eliminated)
}

func TestSimulationStop(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.do(t, http.MethodPost, "/api/v1/simulation/stop", nil, true)
	require.Equal(t, http.StatusOK, code)

	code, body := s.do(t, http.MethodGet, "/api/v1/simulation", nil, false)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["in_progress"])
	assert.Equal(t, "not_started", body["phase"])
}
