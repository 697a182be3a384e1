package board

import "strings"

const (
	Black   byte = 'X'
	White   byte = 'O'
	Empty   byte = '.'
	Offline byte = '#'
)

// Matrix is the host board, indexed [x][y]. Each host string is one column.
type Matrix [][]byte

// ParseMatrix drops offline markers and splits the host rows into cells.
func ParseMatrix(rows []string) Matrix {
	m := make(Matrix, 0, len(rows))
	for _, row := range rows {
		m = append(m, []byte(strings.ReplaceAll(row, string(Offline), "")))
	}
	return m
}

// IsRect reports whether m has exactly size rows of equal length.
func IsRect(m Matrix, size int) bool {
	if len(m) != size || len(m) == 0 {
		return false
	}
	cols := len(m[0])
	for _, row := range m[1:] {
		if len(row) != cols {
			return false
		}
	}
	return true
}

// Dims returns the row count and the column count of a rectangular matrix.
func (m Matrix) Dims() (x, y int) {
	if len(m) == 0 {
		return 0, 0
	}
	return len(m), len(m[0])
}

// Handicaps lists the pre-placed white stones in engine notation, in scan order.
func Handicaps(m Matrix, offset int) ([]string, error) {
	handicaps := make([]string, 0)
	for i, row := range m {
		for j, cell := range row {
			if cell != White {
				continue
			}
			vertex, err := EncodeVertex(Point{X: i, Y: j}, offset)
			if err != nil {
				return nil, err
			}
			handicaps = append(handicaps, vertex)
		}
	}
	return handicaps, nil
}
