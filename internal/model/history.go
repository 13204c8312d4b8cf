package model

import "time"

// GameHistoryID identifies a game history entry
type GameHistoryID string

// GameHistory records one game a user played
type GameHistory struct {
	ID        GameHistoryID `json:"id"`
	UserID    UserID        `json:"userId"`
	Game      GameType      `json:"game"`
	Timestamp time.Time     `json:"timestamp"`
	Players   []string      `json:"players"`
	Duration  int           `json:"duration,omitempty"` // seconds
}

// ProfileStats summarises a user's game history
type ProfileStats struct {
	TotalGames           int              `json:"totalGames"`
	GamesByType          map[GameType]int `json:"gamesByType"`
	TotalDurationSeconds int              `json:"totalDurationSeconds"`
	FavoriteGame         GameType         `json:"favoriteGame,omitempty"`
}
