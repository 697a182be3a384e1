package adapters

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"ipvgo_bridge/internal/bootstrap"
	"ipvgo_bridge/internal/domain/board"
	"ipvgo_bridge/internal/errors"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type relayCall struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// newRelay serves a fake in-game relay; reply answers by method name.
func newRelay(t *testing.T, reply func(method string, params json.RawMessage) (any, string), calls chan<- relayCall) *AdapterHost {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var req struct {
				ID     string          `json:"id"`
				Method string          `json:"method"`
				Params json.RawMessage `json:"params"`
			}
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			if calls != nil {
				calls <- relayCall{Method: req.Method, Params: req.Params}
			}
			result, errText := reply(req.Method, req.Params)
			raw, _ := json.Marshal(result)
			if err := conn.WriteJSON(map[string]any{"id": req.ID, "result": json.RawMessage(raw), "error": errText}); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	cfg := &bootstrap.Config{HostUrl: "ws" + strings.TrimPrefix(srv.URL, "http")}
	host := NewAdapterHost(cfg, zaptest.NewLogger(t).Sugar())
	require.NoError(t, host.Init(context.Background()))
	t.Cleanup(func() { _ = host.Close(context.Background()) })
	return host
}

func TestHostCalls(t *testing.T) {
	calls := make(chan relayCall, 16)
	host := newRelay(t, func(method string, params json.RawMessage) (any, string) {
		switch method {
		case "getCurrentPlayer":
			return "Black", ""
		case "resetBoardState":
			return []string{".....", "....."}, ""
		case "getGameState":
			return map[string]any{"currentPlayer": "Black", "komi": 5.5}, ""
		case "makeMove":
			return map[string]any{"type": "move", "x": 1, "y": 2}, ""
		case "opponentNextTurn":
			return map[string]any{"type": "pass", "x": -1, "y": -1}, ""
		}
		return nil, "unknown method"
	}, calls)
	ctx := context.Background()

	player, err := host.CurrentPlayer(ctx)
	require.NoError(t, err)
	assert.Equal(t, board.PlayerBlack, player)
	assert.Equal(t, "getCurrentPlayer", (<-calls).Method)

	rows, err := host.ResetBoard(ctx, "Netburners", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{".....", "....."}, rows)
	call := <-calls
	assert.Equal(t, "resetBoardState", call.Method)
	assert.JSONEq(t, `{"opponent":"Netburners","boardSize":5}`, string(call.Params))

	state, err := host.GameState(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5.5, state.Komi)
	<-calls

	result, err := host.MakeMove(ctx, board.Point{X: 1, Y: 2})
	require.NoError(t, err)
	assert.Equal(t, board.TurnResult{Type: board.TurnMove, X: 1, Y: 2}, result)
	call = <-calls
	assert.JSONEq(t, `{"x":1,"y":2}`, string(call.Params))

	result, err = host.OpponentNextTurn(ctx)
	require.NoError(t, err)
	assert.Equal(t, board.TurnPass, result.Type)
	<-calls

	_, err = host.PassTurn(ctx)
	assert.ErrorIs(t, err, errors.ErrHostCall)
	assert.Contains(t, err.Error(), "unknown method")
}

func TestHostNotConnected(t *testing.T) {
	host := NewAdapterHost(&bootstrap.Config{}, zaptest.NewLogger(t).Sugar())
	_, err := host.CurrentPlayer(context.Background())
	assert.ErrorIs(t, err, errors.ErrHostCall)
}
