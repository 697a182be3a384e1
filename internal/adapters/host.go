package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"ipvgo_bridge/internal/bootstrap"
	"ipvgo_bridge/internal/domain/board"
	"ipvgo_bridge/internal/errors"
)

type hostRequest struct {
	ID     string `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

type hostResponse struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error,omitempty"`
}

type resetParams struct {
	Opponent  string `json:"opponent"`
	BoardSize int    `json:"boardSize"`
}

// AdapterHost calls the game's Go API through a relay script over WebSocket.
type AdapterHost struct {
	cfg  *bootstrap.Config
	log  *zap.SugaredLogger
	conn *websocket.Conn
	mu   sync.Mutex
}

func NewAdapterHost(cfg *bootstrap.Config, log *zap.SugaredLogger) *AdapterHost {
	return &AdapterHost{
		cfg: cfg,
		log: log,
	}
}

func (a *AdapterHost) Init(ctx context.Context) error {
	ctxDial, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(ctxDial, a.cfg.HostUrl, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to host relay: %w", err)
	}
	a.conn = conn

	a.log.Infow("connected to host relay", "url", a.cfg.HostUrl)
	return nil
}

func (a *AdapterHost) Close(ctx context.Context) error {
	if a.conn == nil {
		return nil
	}
	_ = a.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return a.conn.Close()
}

func (a *AdapterHost) CurrentPlayer(ctx context.Context) (string, error) {
	var player string
	err := a.call(ctx, "getCurrentPlayer", nil, &player)
	return player, err
}

func (a *AdapterHost) BoardState(ctx context.Context) ([]string, error) {
	var rows []string
	err := a.call(ctx, "getBoardState", nil, &rows)
	return rows, err
}

func (a *AdapterHost) ResetBoard(ctx context.Context, opponent string, size int) ([]string, error) {
	var rows []string
	err := a.call(ctx, "resetBoardState", resetParams{Opponent: opponent, BoardSize: size}, &rows)
	return rows, err
}

func (a *AdapterHost) GameState(ctx context.Context) (board.GameState, error) {
	var state board.GameState
	err := a.call(ctx, "getGameState", nil, &state)
	return state, err
}

func (a *AdapterHost) MakeMove(ctx context.Context, p board.Point) (board.TurnResult, error) {
	var result board.TurnResult
	err := a.call(ctx, "makeMove", p, &result)
	return result, err
}

func (a *AdapterHost) PassTurn(ctx context.Context) (board.TurnResult, error) {
	var result board.TurnResult
	err := a.call(ctx, "passTurn", nil, &result)
	return result, err
}

func (a *AdapterHost) OpponentNextTurn(ctx context.Context) (board.TurnResult, error) {
	var result board.TurnResult
	err := a.call(ctx, "opponentNextTurn", nil, &result)
	return result, err
}

func (a *AdapterHost) call(ctx context.Context, method string, params any, out any) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.conn == nil {
		return fmt.Errorf("%w: %s: not connected", errors.ErrHostCall, method)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = a.conn.SetWriteDeadline(deadline)
		_ = a.conn.SetReadDeadline(deadline)
		defer func() {
			_ = a.conn.SetWriteDeadline(time.Time{})
			_ = a.conn.SetReadDeadline(time.Time{})
		}()
	}

	// unblock a pending read when the caller gives up
	stop := context.AfterFunc(ctx, func() {
		_ = a.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	req := hostRequest{ID: uuid.New().String(), Method: method, Params: params}
	if err := a.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("%w: %s: %v", errors.ErrHostCall, method, err)
	}

	var resp hostResponse
	if err := a.conn.ReadJSON(&resp); err != nil {
		return fmt.Errorf("%w: %s: %v", errors.ErrHostCall, method, err)
	}
	if resp.ID != req.ID {
		return fmt.Errorf("%w: %s: response id %q does not match %q", errors.ErrHostCall, method, resp.ID, req.ID)
	}
	if resp.Error != "" {
		return fmt.Errorf("%w: %s: %s", errors.ErrHostCall, method, resp.Error)
	}

	if out == nil || len(resp.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("%w: %s: bad result: %v", errors.ErrHostCall, method, err)
	}
	return nil
}
