package memory

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/mcoot/partygame/internal/model"
	"github.com/mcoot/partygame/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Parties are cloned on the way in and out so callers never share state
// with the store.
type Storage struct {
	mu sync.RWMutex

	parties    map[model.PartyID]*model.Party
	codeIndex  map[model.PartyCode]model.PartyID
	users      map[model.UserID]*model.User
	emailIndex map[string]model.UserID
	history    map[model.UserID][]*model.GameHistory
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		parties:    make(map[model.PartyID]*model.Party),
		codeIndex:  make(map[model.PartyCode]model.PartyID),
		users:      make(map[model.UserID]*model.User),
		emailIndex: make(map[string]model.UserID),
		history:    make(map[model.UserID][]*model.GameHistory),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Party operations

func (s *Storage) CreateParty(ctx context.Context, party *model.Party) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.codeIndex[party.Code]; taken {
		return model.ErrPartyCodeTaken
	}
	s.parties[party.ID] = party.Clone()
	s.codeIndex[party.Code] = party.ID
	return nil
}

func (s *Storage) GetParty(ctx context.Context, id model.PartyID) (*model.Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	party, ok := s.parties[id]
	if !ok {
		return nil, model.ErrPartyNotFound
	}
	return party.Clone(), nil
}

func (s *Storage) GetPartyByCode(ctx context.Context, code model.PartyCode) (*model.Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.codeIndex[code]
	if !ok {
		return nil, model.ErrPartyNotFound
	}
	party, ok := s.parties[id]
	if !ok {
		return nil, model.ErrPartyNotFound
	}
	return party.Clone(), nil
}

func (s *Storage) UpdateParty(ctx context.Context, id model.PartyID, mutate storage.MutateFunc) (*model.Party, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.parties[id]
	if !ok {
		return nil, model.ErrPartyNotFound
	}

	working := current.Clone()
	if err := mutate(working); err != nil {
		if errors.Is(err, storage.ErrNoChange) {
			return current.Clone(), nil
		}
		return nil, err
	}

	// Identity fields are owned by the store
	working.ID = current.ID
	working.Code = current.Code
	s.parties[id] = working
	return working.Clone(), nil
}

func (s *Storage) DeleteParty(ctx context.Context, id model.PartyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	party, ok := s.parties[id]
	if !ok {
		return nil
	}
	delete(s.codeIndex, party.Code)
	delete(s.parties, id)
	return nil
}

func (s *Storage) ListParties(ctx context.Context, filter storage.PartyFilter) ([]*model.Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	parties := make([]*model.Party, 0)
	for _, party := range s.parties {
		if filter == nil || filter(party) {
			parties = append(parties, party.Clone())
		}
	}
	storage.SortPartiesNewestFirst(parties)
	return parties, nil
}

// User operations

func (s *Storage) SaveUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if previous, ok := s.users[user.ID]; ok && previous.Email != user.Email {
		delete(s.emailIndex, previous.Email)
	}
	u := *user
	s.users[user.ID] = &u
	s.emailIndex[user.Email] = user.ID
	return nil
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	u := *user
	return &u, nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emailIndex[email]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	user, ok := s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	u := *user
	return &u, nil
}

// Game history operations

func (s *Storage) SaveGameHistory(ctx context.Context, entry *model.GameHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := *entry
	e.Players = slices.Clone(entry.Players)
	s.history[entry.UserID] = append(s.history[entry.UserID], &e)
	return nil
}

func (s *Storage) ListGameHistory(ctx context.Context, userID model.UserID) ([]*model.GameHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.history[userID]
	result := make([]*model.GameHistory, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		e := *entry
		e.Players = slices.Clone(entry.Players)
		result = append(result, &e)
	}
	storage.SortHistoryNewestFirst(result)
	return result, nil
}
