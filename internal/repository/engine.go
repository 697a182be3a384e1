package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"ipvgo_bridge/internal/bootstrap"
	"ipvgo_bridge/internal/domain"
	"ipvgo_bridge/internal/errors"
)

// EngineRepository talks to the engine HTTP service.
type EngineRepository struct {
	log       *zap.SugaredLogger
	engineURL string
	authToken string
	attempts  int
	interval  time.Duration
	client    *http.Client
}

func NewEngineRepository(cfg *bootstrap.Config, log *zap.SugaredLogger) *EngineRepository {
	return &EngineRepository{
		log:       log,
		engineURL: cfg.EngineUrl,
		authToken: cfg.AuthorizationToken,
		attempts:  cfg.ReadyAttempts,
		interval:  cfg.ReadyInterval,
		client:    &http.Client{},
	}
}

// CheckReady polls /check-ready until it answers 200 or the attempts run out.
// A refused connection counts the same as a non-200 answer.
func (e *EngineRepository) CheckReady(ctx context.Context) (bool, error) {
	for attempt := 0; attempt < e.attempts; attempt++ {
		resp, err := e.do(ctx, http.MethodGet, "/check-ready", nil)
		if err == nil {
			status := resp.StatusCode
			drain(resp)
			if status == http.StatusOK {
				return true, nil
			}
		} else if ctx.Err() != nil {
			return false, ctx.Err()
		}

		e.log.Debugw("engine not ready", "attempt", attempt+1, "error", err)

		if err := sleep(ctx, e.interval); err != nil {
			return false, err
		}
	}
	return false, nil
}

func (e *EngineRepository) Init(ctx context.Context, boardX, boardY int, komi float64, handicaps []string) error {
	if handicaps == nil {
		handicaps = []string{}
	}
	reqBody := domain.InitRequest{
		BoardSize: fmt.Sprintf("%d %d", boardX, boardY),
		Komi:      strconv.FormatFloat(komi, 'f', -1, 64),
		Handicaps: handicaps,
	}
	e.log.Infow("init board request", "board_size", reqBody.BoardSize, "komi", reqBody.Komi, "handicaps", reqBody.Handicaps)

	resp, err := e.do(ctx, http.MethodPost, "/init", reqBody)
	if err != nil {
		return err
	}
	drain(resp)
	return nil
}

func (e *EngineRepository) PlayMove(ctx context.Context, color, moveToPos string) error {
	e.log.Infow("play move request", "color", color, "move", moveToPos)

	resp, err := e.do(ctx, http.MethodPost, "/play-move", domain.PlayMoveRequest{
		Color:     color,
		MoveToPos: moveToPos,
	})
	if err != nil {
		return err
	}
	drain(resp)
	return nil
}

// GenMove returns the engine's vertex, "pass", or "" when the engine sent no move.
// Any non-200 answer is ErrEngineUnavailable.
func (e *EngineRepository) GenMove(ctx context.Context, color string) (string, error) {
	resp, err := e.do(ctx, http.MethodPost, "/gen-move", domain.GenMoveRequest{Color: color})
	if err != nil {
		return "", err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: unexpected status code: %d", errors.ErrEngineUnavailable, resp.StatusCode)
	}

	var result domain.GenMoveResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: failed to decode response: %v", errors.ErrEngineUnavailable, err)
	}
	e.log.Infow("gen move response", "move", result.Move)

	return result.Move, nil
}

func (e *EngineRepository) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reqBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(reqBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, e.engineURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Authorization", e.authToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
