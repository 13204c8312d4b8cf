package response

import (
	"github.com/mcoot/partygame/internal/model"
	"github.com/mcoot/partygame/internal/services/auth"
	"github.com/mcoot/partygame/internal/services/history"
)

// AuthResponse is the response for sign-in
type AuthResponse struct {
	User         *model.User `json:"user"`
	SessionToken string      `json:"sessionToken"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	user := s.User
	return AuthResponse{
		User:         &user,
		SessionToken: s.Token,
	}
}

// Party is the party record as seen by clients. It matches the stored shape.
type Party = model.Party

// PartyList wraps a list of parties
type PartyList struct {
	Parties []*model.Party `json:"parties"`
}

// PartyListFromModel ensures an empty list serializes as []
func PartyListFromModel(parties []*model.Party) PartyList {
	if parties == nil {
		parties = []*model.Party{}
	}
	return PartyList{Parties: parties}
}

// Profile is the response for the profile endpoint
type Profile = history.Profile

// SaveGameResponse is the response for recording a game
type SaveGameResponse struct {
	Success     bool               `json:"success"`
	GameHistory *model.GameHistory `json:"gameHistory"`
}
