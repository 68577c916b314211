// models/models.go
package models

import (
	"time"
)

// Account is a registered user.
type Account struct {
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// GameRecord captures one finished game for persistence.
type GameRecord struct {
	RoomID    int             `json:"room_id"`
	RoomName  string          `json:"room_name"`
	Winner    string          `json:"winner"` // "werewolves" or "villagers"
	Players   []PlayerOutcome `json:"players"`
	Duration  int             `json:"duration"` // seconds from game start to game over
	CreatedAt time.Time       `json:"created_at"`
}

// PlayerOutcome is one seat's final state in a game record.
type PlayerOutcome struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Alive    bool   `json:"alive"`
	Outcome  string `json:"outcome"` // win/lose
}

// PlayerStats is the per-account aggregate exposed over the admin RPC.
type PlayerStats struct {
	TotalGames int `json:"total_games"`
	Wins       int `json:"wins"`
	Losses     int `json:"losses"`
}
