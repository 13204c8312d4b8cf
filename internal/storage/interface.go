package storage

import (
	"context"
	"errors"

	"github.com/mcoot/partygame/internal/model"
)

// ErrNoChange may be returned by an UpdateParty mutate function to signal
// that the party should be left untouched. UpdateParty then returns the
// current party and a nil error.
var ErrNoChange = errors.New("no change")

// MutateFunc edits a party in place during UpdateParty. Returning an error
// aborts the update and nothing is written.
type MutateFunc func(party *model.Party) error

// PartyFilter selects parties in ListParties
type PartyFilter func(party *model.Party) bool

// Storage defines the interface for data persistence
type Storage interface {
	// Party operations

	// CreateParty inserts a new party, claiming its code atomically.
	// Returns model.ErrPartyCodeTaken if another stored party holds the code.
	CreateParty(ctx context.Context, party *model.Party) error
	GetParty(ctx context.Context, id model.PartyID) (*model.Party, error)
	GetPartyByCode(ctx context.Context, code model.PartyCode) (*model.Party, error)
	// UpdateParty applies mutate to the current stored party as one atomic
	// read-modify-write and returns the stored result.
	UpdateParty(ctx context.Context, id model.PartyID, mutate MutateFunc) (*model.Party, error)
	// DeleteParty removes a party and releases its code. Deleting a missing party is not an error.
	DeleteParty(ctx context.Context, id model.PartyID) error
	ListParties(ctx context.Context, filter PartyFilter) ([]*model.Party, error)

	// User operations
	SaveUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id model.UserID) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	// Game history operations
	SaveGameHistory(ctx context.Context, entry *model.GameHistory) error
	// ListGameHistory returns a user's entries, newest first
	ListGameHistory(ctx context.Context, userID model.UserID) ([]*model.GameHistory, error)
}
