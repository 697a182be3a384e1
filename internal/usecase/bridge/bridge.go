package bridge

import (
	"context"
	goerrors "errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ipvgo_bridge/internal/bootstrap"
	"ipvgo_bridge/internal/domain"
	"ipvgo_bridge/internal/domain/board"
	"ipvgo_bridge/internal/errors"
	"ipvgo_bridge/internal/usecase/record"
)

// Host is the game's Go API.
type Host interface {
	CurrentPlayer(ctx context.Context) (string, error)
	BoardState(ctx context.Context) ([]string, error)
	ResetBoard(ctx context.Context, opponent string, size int) ([]string, error)
	GameState(ctx context.Context) (board.GameState, error)
	MakeMove(ctx context.Context, p board.Point) (board.TurnResult, error)
	PassTurn(ctx context.Context) (board.TurnResult, error)
	OpponentNextTurn(ctx context.Context) (board.TurnResult, error)
}

// Engine is the move-generation service.
type Engine interface {
	CheckReady(ctx context.Context) (bool, error)
	Init(ctx context.Context, boardX, boardY int, komi float64, handicaps []string) error
	PlayMove(ctx context.Context, color, moveToPos string) error
	GenMove(ctx context.Context, color string) (string, error)
}

// Recorder keeps a copy of every game. Its failures never stop play.
type Recorder interface {
	StartGame(ctx context.Context, params record.StartParams) (string, error)
	AddMove(ctx context.Context, gameID, color string, p *board.Point) error
	FinishGame(ctx context.Context, gameID string) error
}

type Options struct {
	Opponent       string
	BoardSize      int
	SettleDelay    time.Duration
	TurnDelay      time.Duration
	DiscoveryDelay time.Duration
}

func OptionsFromConfig(cfg *bootstrap.Config) Options {
	return Options{
		Opponent:       cfg.Opponent,
		BoardSize:      cfg.BoardSize,
		SettleDelay:    cfg.SettleDelay,
		TurnDelay:      cfg.TurnDelay,
		DiscoveryDelay: cfg.DiscoveryDelay,
	}
}

type BridgeUseCase struct {
	host     Host
	engine   Engine
	recorder Recorder
	opts     Options
	log      *zap.SugaredLogger
}

// NewBridgeUseCase wires the driver. recorder may be nil.
func NewBridgeUseCase(host Host, engine Engine, recorder Recorder, opts Options, log *zap.SugaredLogger) *BridgeUseCase {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &BridgeUseCase{
		host:     host,
		engine:   engine,
		recorder: recorder,
		opts:     opts,
		log:      log,
	}
}

// game is the state live during one game.
type game struct {
	id     string
	offset int
}

// Run plays games until ctx is cancelled or the engine never becomes ready.
func (b *BridgeUseCase) Run(ctx context.Context) error {
	for {
		err := b.PlayGame(ctx)
		switch {
		case ctx.Err() != nil:
			return ctx.Err()
		case goerrors.Is(err, errors.ErrEngineNotReady):
			return err
		case err != nil:
			b.log.Errorw("game aborted", "error", err)
			if err := sleep(ctx, b.opts.DiscoveryDelay); err != nil {
				return err
			}
		}
	}
}

// PlayGame runs one pass of the loop: discover, initialize, play until game over.
func (b *BridgeUseCase) PlayGame(ctx context.Context) error {
	m, err := b.discoverBoard(ctx)
	if err != nil {
		return err
	}
	boardX, boardY := m.Dims()
	g := &game{offset: board.Offset(b.opts.BoardSize, boardY)}

	handicaps, err := b.findHandicaps(ctx, g.offset)
	if err != nil {
		return err
	}

	ready, err := b.engine.CheckReady(ctx)
	if err != nil {
		return err
	}
	if !ready {
		b.log.Error("engine server is not ready")
		return errors.ErrEngineNotReady
	}

	state, err := b.host.GameState(ctx)
	if err != nil {
		return err
	}
	if err := b.engine.Init(ctx, boardX, boardY, state.Komi, handicaps); err != nil {
		return fmt.Errorf("failed to init engine board: %w", err)
	}

	g.id = b.startRecord(ctx, m, state.Komi, handicaps)
	defer b.finishRecord(ctx, g)

	if err := sleep(ctx, b.opts.SettleDelay); err != nil {
		return err
	}

	for {
		over, err := b.playTurn(ctx, g)
		if err != nil {
			return err
		}
		if over {
			b.gameOver(ctx)
			return nil
		}
		if err := sleep(ctx, b.opts.TurnDelay); err != nil {
			return err
		}
	}
}

// discoverBoard resets the host board until it comes back as a size x size rectangle.
func (b *BridgeUseCase) discoverBoard(ctx context.Context) (board.Matrix, error) {
	for {
		rows, err := b.host.ResetBoard(ctx, b.opts.Opponent, b.opts.BoardSize)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			b.log.Warnw("failed to reset board", "error", err)
		} else if m := board.ParseMatrix(rows); board.IsRect(m, b.opts.BoardSize) {
			return m, nil
		}

		if err := sleep(ctx, b.opts.DiscoveryDelay); err != nil {
			return nil, err
		}
	}
}

func (b *BridgeUseCase) findHandicaps(ctx context.Context, offset int) ([]string, error) {
	rows, err := b.host.BoardState(ctx)
	if err != nil {
		return nil, err
	}
	return board.Handicaps(board.ParseMatrix(rows), offset)
}

// playTurn makes our move then replays the opponent's answer to the engine.
func (b *BridgeUseCase) playTurn(ctx context.Context, g *game) (bool, error) {
	player, err := b.host.CurrentPlayer(ctx)
	if err != nil {
		return false, err
	}
	if player == board.PlayerNone {
		return true, nil
	}

	p, ok, err := b.nextMove(ctx, g.offset)
	if err != nil {
		return false, err
	}
	if ok {
		if _, err := b.host.MakeMove(ctx, p); err != nil {
			return false, err
		}
		b.recordMove(ctx, g, "B", &p)
	} else {
		b.log.Info("no valid moves, passing turn")
		if _, err := b.host.PassTurn(ctx); err != nil {
			return false, err
		}
		b.recordMove(ctx, g, "B", nil)
	}

	opMove, err := b.host.OpponentNextTurn(ctx)
	if err != nil {
		return false, err
	}

	switch opMove = opMove.Normalize(); opMove.Type {
	case board.TurnMove:
		p := board.Point{X: opMove.X, Y: opMove.Y}
		vertex, err := board.EncodeVertex(p, g.offset)
		if err != nil {
			return false, err
		}
		if err := b.engine.PlayMove(ctx, domain.ColorWhite, vertex); err != nil {
			return false, err
		}
		b.recordMove(ctx, g, "W", &p)
	case board.TurnPass:
		if err := b.engine.PlayMove(ctx, domain.ColorWhite, board.Pass); err != nil {
			return false, err
		}
		b.recordMove(ctx, g, "W", nil)
	default:
		return true, nil
	}
	return false, nil
}

// nextMove asks the engine for a move. A bad engine answer and a pass both come back as !ok.
// Failing to reach the engine at all is an error.
func (b *BridgeUseCase) nextMove(ctx context.Context, offset int) (board.Point, bool, error) {
	move, err := b.engine.GenMove(ctx, domain.ColorBlack)
	if goerrors.Is(err, errors.ErrEngineUnavailable) {
		b.log.Warnw("engine gave no move", "error", err)
		return board.Point{}, false, nil
	}
	if err != nil {
		return board.Point{}, false, fmt.Errorf("failed to generate move: %w", err)
	}
	if move == "" || move == board.Pass {
		return board.Point{}, false, nil
	}

	p, err := board.DecodeVertex(move, offset)
	if err != nil {
		b.log.Warnw("engine move not understood", "move", move, "error", err)
		return board.Point{}, false, nil
	}
	return p, true, nil
}

func (b *BridgeUseCase) gameOver(ctx context.Context) {
	state, err := b.host.GameState(ctx)
	if err != nil {
		b.log.Info("game over")
		return
	}
	b.log.Infow("game over", "black_score", state.BlackScore, "white_score", state.WhiteScore)
}

func (b *BridgeUseCase) startRecord(ctx context.Context, m board.Matrix, komi float64, handicaps []string) string {
	id, err := b.recorder.StartGame(ctx, record.StartParams{
		Opponent:  b.opts.Opponent,
		Board:     m,
		Komi:      komi,
		Handicaps: handicaps,
	})
	if err != nil {
		b.log.Warnw("failed to start game record", "error", err)
		return ""
	}
	return id
}

func (b *BridgeUseCase) recordMove(ctx context.Context, g *game, color string, p *board.Point) {
	if g.id == "" {
		return
	}
	if err := b.recorder.AddMove(ctx, g.id, color, p); err != nil {
		b.log.Warnw("failed to record move", "game_id", g.id, "error", err)
	}
}

func (b *BridgeUseCase) finishRecord(ctx context.Context, g *game) {
	if g.id == "" {
		return
	}
	// the game may have ended because ctx was cancelled
	ctx = context.WithoutCancel(ctx)
	if err := b.recorder.FinishGame(ctx, g.id); err != nil {
		b.log.Warnw("failed to finish game record", "game_id", g.id, "error", err)
	}
}

type nopRecorder struct{}

func (nopRecorder) StartGame(context.Context, record.StartParams) (string, error) { return "", nil }
func (nopRecorder) AddMove(context.Context, string, string, *board.Point) error   { return nil }
func (nopRecorder) FinishGame(context.Context, string) error                      { return nil }

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
