package model

import (
	"slices"
	"time"
)

// PartyID uniquely identifies a party
type PartyID string

// PartyCode is the short human-readable code used to join a party
type PartyCode string

// GameType identifies which party game a party plays
type GameType string

const (
	GameKingsCup       GameType = "kings-cup"
	GameTruthOrDare    GameType = "truth-or-dare"
	GameWouldYouRather GameType = "would-you-rather"
)

// GameTypes lists every supported game in display order
var GameTypes = []GameType{GameKingsCup, GameTruthOrDare, GameWouldYouRather}

// Valid reports whether g is one of the supported games
func (g GameType) Valid() bool {
	return slices.Contains(GameTypes, g)
}

// PartyStatus is the lifecycle stage of a party
type PartyStatus string

const (
	PartyStatusWaiting    PartyStatus = "waiting"     // Lobby open, players may join
	PartyStatusInProgress PartyStatus = "in-progress" // Host started the game
	PartyStatusFinished   PartyStatus = "finished"    // Ended or abandoned
)

// Valid reports whether s is a known status
func (s PartyStatus) Valid() bool {
	switch s {
	case PartyStatusWaiting, PartyStatusInProgress, PartyStatusFinished:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving from s to next is allowed.
// Status only moves forward; staying put is always allowed.
func (s PartyStatus) CanTransitionTo(next PartyStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case PartyStatusWaiting:
		return next == PartyStatusInProgress || next == PartyStatusFinished
	case PartyStatusInProgress:
		return next == PartyStatusFinished
	}
	return false
}

// PartyPlayer is a user's membership entry in a party
type PartyPlayer struct {
	UserID   UserID    `json:"userId"`
	Name     string    `json:"name"`
	Image    string    `json:"image,omitempty"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Party is a game lobby identified by an id and a join code.
// Players are kept in join order; the first entry is the oldest member.
type Party struct {
	ID        PartyID       `json:"id"`
	Code      PartyCode     `json:"code"`
	HostID    UserID        `json:"hostId"`
	HostName  string        `json:"hostName"`
	Game      GameType      `json:"game"`
	Players   []PartyPlayer `json:"players"`
	Status    PartyStatus   `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// GetPlayer returns the player entry for userID, or nil if not present
func (p *Party) GetPlayer(userID UserID) *PartyPlayer {
	for i := range p.Players {
		if p.Players[i].UserID == userID {
			return &p.Players[i]
		}
	}
	return nil
}

// HasPlayer reports whether userID is in the party
func (p *Party) HasPlayer(userID UserID) bool {
	return p.GetPlayer(userID) != nil
}

// IsHost reports whether userID is the current host
func (p *Party) IsHost(userID UserID) bool {
	return p.HostID == userID
}

// Clone returns a deep copy of the party
func (p *Party) Clone() *Party {
	if p == nil {
		return nil
	}
	c := *p
	c.Players = slices.Clone(p.Players)
	return &c
}
