package board

const (
	PlayerBlack = "Black"
	PlayerWhite = "White"
	PlayerNone  = "None"
)

const (
	TurnMove     = "move"
	TurnPass     = "pass"
	TurnGameOver = "gameOver"
)

// TurnResult is what the host reports after a move or for the opponent's turn.
type TurnResult struct {
	Type string `json:"type"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

// Normalize folds every result kind other than move and pass into game over.
func (t TurnResult) Normalize() TurnResult {
	switch t.Type {
	case TurnMove, TurnPass:
		return t
	default:
		return TurnResult{Type: TurnGameOver}
	}
}

type GameState struct {
	CurrentPlayer string  `json:"currentPlayer"`
	Komi          float64 `json:"komi"`
	BlackScore    float64 `json:"blackScore"`
	WhiteScore    float64 `json:"whiteScore"`
}
