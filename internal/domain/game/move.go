package game

// Move is one played turn. Coordinates are SGF letters, empty for a pass.
type Move struct {
	Color       string `json:"color"`
	Coordinates string `json:"coordinates"`
}
