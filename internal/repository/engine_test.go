package repository

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"ipvgo_bridge/internal/bootstrap"
	"ipvgo_bridge/internal/domain"
	"ipvgo_bridge/internal/errors"
)

func newTestEngineRepository(t *testing.T, url string) *EngineRepository {
	cfg := &bootstrap.Config{
		EngineUrl:          url,
		AuthorizationToken: "token",
		ReadyAttempts:      5,
		ReadyInterval:      time.Millisecond,
	}
	return NewEngineRepository(cfg, zaptest.NewLogger(t).Sugar())
}

func TestCheckReadyOnThirdPoll(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/check-ready", r.URL.Path)
		assert.Equal(t, "token", r.Header.Get("Authorization"))
		if polls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ready, err := newTestEngineRepository(t, srv.URL).CheckReady(context.Background())
	require.NoError(t, err)
	assert.True(t, ready)
	assert.Equal(t, int32(3), polls.Load())
}

func TestCheckReadyGivesUp(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		polls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ready, err := newTestEngineRepository(t, srv.URL).CheckReady(context.Background())
	require.NoError(t, err)
	assert.False(t, ready)
	assert.Equal(t, int32(5), polls.Load())
}

func TestCheckReadyUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	ready, err := newTestEngineRepository(t, url).CheckReady(context.Background())
	require.NoError(t, err)
	assert.False(t, ready)
}

func TestInitRequestBody(t *testing.T) {
	var got domain.InitRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/init", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	err := newTestEngineRepository(t, srv.URL).Init(context.Background(), 5, 5, 5.5, []string{"A1", "C3"})
	require.NoError(t, err)
	assert.Equal(t, domain.InitRequest{BoardSize: "5 5", Komi: "5.5", Handicaps: []string{"A1", "C3"}}, got)
}

func TestInitSendsEmptyHandicaps(t *testing.T) {
	var body map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	}))
	defer srv.Close()

	err := newTestEngineRepository(t, srv.URL).Init(context.Background(), 5, 5, 7.5, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(body["handicaps"]))
}

func TestInitIgnoresStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := newTestEngineRepository(t, srv.URL).Init(context.Background(), 7, 7, 7, nil)
	assert.NoError(t, err)
}

func TestPlayMoveRequestBody(t *testing.T) {
	var got domain.PlayMoveRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/play-move", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	err := newTestEngineRepository(t, srv.URL).PlayMove(context.Background(), domain.ColorWhite, "pass")
	require.NoError(t, err)
	assert.Equal(t, domain.PlayMoveRequest{Color: "white", MoveToPos: "pass"}, got)
}

func TestGenMove(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req domain.GenMoveRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "black", req.Color)
		_ = json.NewEncoder(w).Encode(domain.GenMoveResponse{Move: "C3"})
	}))
	defer srv.Close()

	move, err := newTestEngineRepository(t, srv.URL).GenMove(context.Background(), domain.ColorBlack)
	require.NoError(t, err)
	assert.Equal(t, "C3", move)
}

func TestGenMoveServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestEngineRepository(t, srv.URL).GenMove(context.Background(), domain.ColorBlack)
	assert.ErrorIs(t, err, errors.ErrEngineUnavailable)
}

func TestGenMoveEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{}"))
	}))
	defer srv.Close()

	move, err := newTestEngineRepository(t, srv.URL).GenMove(context.Background(), domain.ColorBlack)
	require.NoError(t, err)
	assert.Equal(t, "", move)
}
