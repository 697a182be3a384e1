package engine

import (
	"context"
	"fmt"
	"strings"

	"ipvgo_bridge/internal/domain"
)

type GTPStore interface {
	Exec(ctx context.Context, command string) (string, error)
	Ready() bool
	Closed() <-chan struct{}
}

// EngineUseCase translates the HTTP API into GTP commands.
type EngineUseCase struct {
	store GTPStore
}

func NewEngineUseCase(store GTPStore) *EngineUseCase {
	return &EngineUseCase{store: store}
}

func (e *EngineUseCase) Ready() bool {
	return e.store.Ready()
}

func (e *EngineUseCase) Closed() bool {
	select {
	case <-e.store.Closed():
		return true
	default:
		return false
	}
}

// Init clears the engine board and sets size, komi and the white handicap stones.
func (e *EngineUseCase) Init(ctx context.Context, req domain.InitRequest) error {
	commands := []string{
		"clear_board",
		"boardsize " + req.BoardSize,
		"komi " + req.Komi,
	}
	if len(req.Handicaps) > 0 {
		commands = append(commands, "set_position white "+strings.Join(req.Handicaps, " white "))
	}

	for _, command := range commands {
		if _, err := e.store.Exec(ctx, command); err != nil {
			return fmt.Errorf("%s: %w", command, err)
		}
	}
	return nil
}

func (e *EngineUseCase) PlayMove(ctx context.Context, req domain.PlayMoveRequest) error {
	_, err := e.store.Exec(ctx, fmt.Sprintf("play %s %s", req.Color, req.MoveToPos))
	return err
}

func (e *EngineUseCase) GenMove(ctx context.Context, req domain.GenMoveRequest) (domain.GenMoveResponse, error) {
	move, err := e.store.Exec(ctx, "genmove "+req.Color)
	if err != nil {
		return domain.GenMoveResponse{}, err
	}
	if strings.EqualFold(move, "pass") {
		return domain.GenMoveResponse{Move: "pass"}, nil
	}
	return domain.GenMoveResponse{Move: strings.ToUpper(move)}, nil
}
