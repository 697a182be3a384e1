package game

import "time"

// GameRecord is one finished bridge game as archived in Mongo.
type GameRecord struct {
	GameID     string    `json:"game_id" bson:"game_id"`
	Opponent   string    `json:"opponent" bson:"opponent"`
	BoardSize  int       `json:"board_size" bson:"board_size"`
	Komi       float64   `json:"komi" bson:"komi"`
	Handicaps  []string  `json:"handicaps" bson:"handicaps"`
	MovesCount int       `json:"moves_count" bson:"moves_count"`
	Sgf        string    `json:"sgf" bson:"sgf"`
	StartedAt  time.Time `json:"started_at" bson:"started_at"`
	FinishedAt time.Time `json:"finished_at" bson:"finished_at"`
}
