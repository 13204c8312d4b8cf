// Package party owns the lifecycle of party lobbies: creation with a
// unique join code, membership, host reassignment and status changes.
package party

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mcoot/partygame/internal/dependencies/clock"
	"github.com/mcoot/partygame/internal/dependencies/random"
	"github.com/mcoot/partygame/internal/model"
	"github.com/mcoot/partygame/internal/services/codegen"
	"github.com/mcoot/partygame/internal/storage"
)

// MaxCodeAttempts bounds how many codes Create draws before giving up
const MaxCodeAttempts = 10

// RegistryInterface is the party API consumed by handlers and the sync watcher
type RegistryInterface interface {
	Create(ctx context.Context, hostID model.UserID, hostName string, game model.GameType) (*model.Party, error)
	GetByID(ctx context.Context, id model.PartyID) (*model.Party, error)
	GetByCode(ctx context.Context, code string) (*model.Party, error)
	Join(ctx context.Context, id model.PartyID, userID model.UserID, name, image string) (*model.Party, error)
	Leave(ctx context.Context, id model.PartyID, userID model.UserID) (*model.Party, error)
	SetStatus(ctx context.Context, id model.PartyID, status model.PartyStatus) (*model.Party, error)
	Delete(ctx context.Context, id model.PartyID) error
	ListForUser(ctx context.Context, userID model.UserID) ([]*model.Party, error)
	PurgeFinished(ctx context.Context, olderThan time.Time) (int, error)
}

// Registry is the single owner of party state
type Registry struct {
	storage storage.Storage
	codes   *codegen.Generator
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger
}

// Ensure Registry implements RegistryInterface
var _ RegistryInterface = (*Registry)(nil)

// NewRegistry creates a new Registry
func NewRegistry(
	storage storage.Storage,
	codes *codegen.Generator,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Registry {
	return &Registry{
		storage: storage,
		codes:   codes,
		clock:   clock,
		random:  random,
		logger:  logger.With(slog.String("component", "party")),
	}
}

// Create opens a new waiting party with the host as its only player.
// A fresh code is drawn whenever the previous one is already held by a
// stored party.
func (r *Registry) Create(ctx context.Context, hostID model.UserID, hostName string, game model.GameType) (*model.Party, error) {
	if !game.Valid() {
		return nil, model.ErrInvalidGameType
	}
	if hostID == "" {
		return nil, fmt.Errorf("%w: host id is required", model.ErrInvalidInput)
	}

	now := r.clock.Now()
	party := &model.Party{
		ID:       model.PartyID(r.random.UUID()),
		HostID:   hostID,
		HostName: hostName,
		Game:     game,
		Players: []model.PartyPlayer{
			{UserID: hostID, Name: hostName, JoinedAt: now},
		},
		Status:    model.PartyStatusWaiting,
		CreatedAt: now,
		UpdatedAt: now,
	}

	for attempt := 1; attempt <= MaxCodeAttempts; attempt++ {
		party.Code = r.codes.Generate()
		err := r.storage.CreateParty(ctx, party)
		if err == nil {
			r.logger.Info("party created",
				slog.String("party_id", string(party.ID)),
				slog.String("code", string(party.Code)),
				slog.String("game", string(game)),
				slog.String("host_id", string(hostID)),
			)
			return party, nil
		}
		if !errors.Is(err, model.ErrPartyCodeTaken) {
			return nil, err
		}
		r.logger.Debug("party code collision",
			slog.String("code", string(party.Code)),
			slog.Int("attempt", attempt),
		)
	}

	r.logger.Warn("party code space exhausted", slog.Int("attempts", MaxCodeAttempts))
	return nil, model.ErrCodeSpaceExhausted
}

// GetByID retrieves a party by id
func (r *Registry) GetByID(ctx context.Context, id model.PartyID) (*model.Party, error) {
	return r.storage.GetParty(ctx, id)
}

// FetchParty lets the registry act as a partysync fetcher
func (r *Registry) FetchParty(ctx context.Context, id model.PartyID) (*model.Party, error) {
	return r.GetByID(ctx, id)
}

// GetByCode looks up a party by join code, ignoring case
func (r *Registry) GetByCode(ctx context.Context, code string) (*model.Party, error) {
	normalized := codegen.Normalize(code)
	if normalized == "" {
		return nil, model.ErrInvalidCode
	}
	return r.storage.GetPartyByCode(ctx, normalized)
}

// Join adds a player to the end of the party. Joining twice is a no-op
// that returns the party unchanged. Status is not checked here.
func (r *Registry) Join(ctx context.Context, id model.PartyID, userID model.UserID, name, image string) (*model.Party, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", model.ErrInvalidInput)
	}

	party, err := r.storage.UpdateParty(ctx, id, func(p *model.Party) error {
		if p.HasPlayer(userID) {
			return storage.ErrNoChange
		}
		now := r.clock.Now()
		p.Players = append(p.Players, model.PartyPlayer{
			UserID:   userID,
			Name:     name,
			Image:    image,
			JoinedAt: now,
		})
		p.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debug("player joined party",
		slog.String("party_id", string(id)),
		slog.String("user_id", string(userID)),
	)
	return party, nil
}

// Leave removes a player. If the host leaves, the oldest remaining player
// becomes host; if nobody remains the party is finished. updatedAt is
// refreshed even when the user was not a member.
func (r *Registry) Leave(ctx context.Context, id model.PartyID, userID model.UserID) (*model.Party, error) {
	party, err := r.storage.UpdateParty(ctx, id, func(p *model.Party) error {
		remaining := p.Players[:0]
		for _, player := range p.Players {
			if player.UserID != userID {
				remaining = append(remaining, player)
			}
		}
		p.Players = remaining

		if p.HostID == userID && len(p.Players) > 0 {
			p.HostID = p.Players[0].UserID
			p.HostName = p.Players[0].Name
		}
		if len(p.Players) == 0 {
			p.Status = model.PartyStatusFinished
		}
		p.UpdatedAt = r.clock.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debug("player left party",
		slog.String("party_id", string(id)),
		slog.String("user_id", string(userID)),
		slog.String("host_id", string(party.HostID)),
		slog.String("status", string(party.Status)),
	)
	return party, nil
}

// SetStatus moves the party to status. Setting the current status is a
// no-op; backwards moves are rejected with ErrInvalidTransition.
func (r *Registry) SetStatus(ctx context.Context, id model.PartyID, status model.PartyStatus) (*model.Party, error) {
	if !status.Valid() {
		return nil, model.ErrInvalidStatus
	}

	var previous model.PartyStatus
	party, err := r.storage.UpdateParty(ctx, id, func(p *model.Party) error {
		previous = p.Status
		if p.Status == status {
			return storage.ErrNoChange
		}
		if !p.Status.CanTransitionTo(status) {
			return fmt.Errorf("%w: %s to %s", model.ErrInvalidTransition, p.Status, status)
		}
		p.Status = status
		p.UpdatedAt = r.clock.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	if previous != status {
		r.logger.Info("party status changed",
			slog.String("party_id", string(id)),
			slog.String("from", string(previous)),
			slog.String("to", string(status)),
		)
	}
	return party, nil
}

// Delete removes a party. Deleting a missing party is not an error.
func (r *Registry) Delete(ctx context.Context, id model.PartyID) error {
	if err := r.storage.DeleteParty(ctx, id); err != nil {
		return err
	}
	r.logger.Info("party deleted", slog.String("party_id", string(id)))
	return nil
}

// ListForUser returns the unfinished parties the user belongs to, newest first
func (r *Registry) ListForUser(ctx context.Context, userID model.UserID) ([]*model.Party, error) {
	return r.storage.ListParties(ctx, func(p *model.Party) bool {
		return p.Status != model.PartyStatusFinished && p.HasPlayer(userID)
	})
}

// PurgeFinished deletes finished parties last updated before olderThan and
// returns how many were removed
func (r *Registry) PurgeFinished(ctx context.Context, olderThan time.Time) (int, error) {
	stale, err := r.storage.ListParties(ctx, func(p *model.Party) bool {
		return p.Status == model.PartyStatusFinished && p.UpdatedAt.Before(olderThan)
	})
	if err != nil {
		return 0, err
	}

	for i, p := range stale {
		if err := r.storage.DeleteParty(ctx, p.ID); err != nil {
			return i, fmt.Errorf("purge party %s: %w", p.ID, err)
		}
	}
	if len(stale) > 0 {
		r.logger.Info("purged finished parties", slog.Int("count", len(stale)))
	}
	return len(stale), nil
}
