package board

import (
	"fmt"
	"strconv"

	"ipvgo_bridge/internal/errors"
)

// Pass is the engine token for a passed turn.
const Pass = "pass"

// columnLetters is the engine column alphabet. "I" is skipped.
var columnLetters = [...]byte{'A', 'B', 'C', 'D', 'E', 'F', 'G', 'H', 'J', 'K', 'L', 'M', 'N'}

// Columns is the widest board the engine notation can address.
const Columns = len(columnLetters)

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func ColumnLetter(n int) (byte, bool) {
	if n < 0 || n >= Columns {
		return 0, false
	}
	return columnLetters[n], true
}

func ColumnNumber(letter byte) (int, bool) {
	for i, l := range columnLetters {
		if l == letter {
			return i, true
		}
	}
	return 0, false
}

// Offset is the vertical shift between host rows and engine rows.
func Offset(boardSize, boardY int) int {
	return boardSize - (boardY + 1)
}

// EncodeVertex turns a host point into engine notation, e.g. {0,0} with offset -1 is "A1".
func EncodeVertex(p Point, offset int) (string, error) {
	letter, ok := ColumnLetter(p.X)
	if !ok {
		return "", fmt.Errorf("%w: column %d", errors.ErrBadVertex, p.X)
	}
	return string(letter) + strconv.Itoa(p.Y-offset), nil
}

// DecodeVertex is the inverse of EncodeVertex. Pass is not a vertex.
func DecodeVertex(vertex string, offset int) (Point, error) {
	if len(vertex) < 2 {
		return Point{}, fmt.Errorf("%w: %q", errors.ErrBadVertex, vertex)
	}
	x, ok := ColumnNumber(vertex[0])
	if !ok {
		return Point{}, fmt.Errorf("%w: column %q", errors.ErrBadVertex, vertex[0])
	}
	row, err := strconv.Atoi(vertex[1:])
	if err != nil {
		return Point{}, fmt.Errorf("%w: row %q", errors.ErrBadVertex, vertex[1:])
	}
	return Point{X: x, Y: row + offset}, nil
}
