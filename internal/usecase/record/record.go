package record

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ipvgo_bridge/internal/domain/board"
	"ipvgo_bridge/internal/domain/game"
	"ipvgo_bridge/internal/domain/sgf"
)

type RecordStore interface {
	SaveLiveGame(ctx context.Context, record game.GameRecord) error
	LoadLiveGame(ctx context.Context, gameID string) (game.GameRecord, error)
	DeleteLiveGame(ctx context.Context, gameID string) error
	ArchiveGame(ctx context.Context, record game.GameRecord) error
}

// RecordUseCase writes every bridge game as SGF.
type RecordUseCase struct {
	store RecordStore
	log   *zap.SugaredLogger
	now   func() time.Time
}

func NewRecordUseCase(store RecordStore, log *zap.SugaredLogger) *RecordUseCase {
	return &RecordUseCase{store: store, log: log, now: time.Now}
}

type StartParams struct {
	Opponent  string
	Board     board.Matrix
	Komi      float64
	Handicaps []string
}

func (r *RecordUseCase) StartGame(ctx context.Context, params StartParams) (string, error) {
	gameID := uuid.New().String()
	size, _ := params.Board.Dims()

	record := game.GameRecord{
		GameID:    gameID,
		Opponent:  params.Opponent,
		BoardSize: size,
		Komi:      params.Komi,
		Handicaps: params.Handicaps,
		StartedAt: r.now(),
	}
	root := PrepareSgfFile(record, params.Board)
	record.Sgf = SerializeSGF(&root)

	if err := r.store.SaveLiveGame(ctx, record); err != nil {
		return "", err
	}
	return gameID, nil
}

// AddMove appends a move by color ("B" or "W"). A nil point is a pass.
func (r *RecordUseCase) AddMove(ctx context.Context, gameID, color string, p *board.Point) error {
	record, err := r.store.LoadLiveGame(ctx, gameID)
	if err != nil {
		return err
	}

	move := game.Move{Color: color}
	if p != nil {
		move.Coordinates = SgfVertex(*p, record.BoardSize)
	}
	record.Sgf = AppendMoveToSgf(record.Sgf, move)
	record.MovesCount++

	return r.store.SaveLiveGame(ctx, record)
}

func (r *RecordUseCase) FinishGame(ctx context.Context, gameID string) error {
	record, err := r.store.LoadLiveGame(ctx, gameID)
	if err != nil {
		return err
	}
	record.FinishedAt = r.now()

	if err := r.store.ArchiveGame(ctx, record); err != nil {
		return err
	}
	r.log.Infow("game recorded", "game_id", gameID, "moves", record.MovesCount)
	return r.store.DeleteLiveGame(ctx, gameID)
}

// SgfVertex maps a host point to SGF letters. SGF rows count from the top.
func SgfVertex(p board.Point, size int) string {
	return string([]byte{byte('a' + p.X), byte('a' + size - 1 - p.Y)})
}

func PrepareSgfFile(record game.GameRecord, m board.Matrix) sgf.SGF {
	properties := map[string][]string{
		"FF": {"4"},
		"GM": {"1"},
		"SZ": {strconv.Itoa(record.BoardSize)},
		"PB": {"bridge"},
		"PW": {record.Opponent},
		"DT": {record.StartedAt.Format("2006-01-02")},
		"KM": {strconv.FormatFloat(record.Komi, 'f', 1, 64)},
		"RU": {"Chinese"},
	}

	var white []string
	for x, row := range m {
		for y, cell := range row {
			if cell == board.White {
				white = append(white, SgfVertex(board.Point{X: x, Y: y}, record.BoardSize))
			}
		}
	}
	if len(white) > 0 {
		properties["AW"] = white
	}

	return sgf.SGF{
		Root: &sgf.GameTree{
			Nodes: []sgf.Node{{Properties: properties}},
		},
	}
}

func SerializeSGF(s *sgf.SGF) string {
	var builder strings.Builder
	builder.WriteString("(")
	serializeGameTree(&builder, s.Root)
	builder.WriteString(")")
	return builder.String()
}

// fixed property order keeps the output stable
var orderedKeys = []string{"FF", "GM", "SZ", "PB", "PW", "DT", "KM", "RU", "AW", "B", "W"}

func serializeGameTree(builder *strings.Builder, tree *sgf.GameTree) {
	for _, node := range tree.Nodes {
		builder.WriteString(";")

		for _, key := range orderedKeys {
			values, ok := node.Properties[key]
			if !ok {
				continue
			}
			builder.WriteString(key)
			for _, v := range values {
				builder.WriteString(fmt.Sprintf("[%s]", v))
			}
		}
	}

	for _, child := range tree.Children {
		builder.WriteString("(")
		serializeGameTree(builder, child)
		builder.WriteString(")")
	}
}

func AppendMoveToSgf(sgfText string, move game.Move) string {
	sgfText = strings.TrimSuffix(sgfText, ")")
	return sgfText + fmt.Sprintf(";%s[%s])", move.Color, move.Coordinates)
}
