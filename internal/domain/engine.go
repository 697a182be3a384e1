package domain

const (
	ColorBlack = "black"
	ColorWhite = "white"
)

type InitRequest struct {
	BoardSize string   `json:"board-size,omitempty"`
	Komi      string   `json:"komi,omitempty"`
	Handicaps []string `json:"handicaps"`
}

type GenMoveRequest struct {
	Color string `json:"color,omitempty"`
}

type GenMoveResponse struct {
	Move string `json:"move,omitempty"`
}

type PlayMoveRequest struct {
	Color     string `json:"color,omitempty"`
	MoveToPos string `json:"move_to_pos,omitempty"`
}
