// Package partysync keeps a client's view of a party current by polling.
package partysync

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/partygame/internal/model"
)

// DefaultInterval is how often a watcher re-reads the party
const DefaultInterval = 2 * time.Second

// Fetcher reads the current state of a party. Implementations return an
// error wrapping model.ErrPartyNotFound once the party is gone.
type Fetcher interface {
	FetchParty(ctx context.Context, id model.PartyID) (*model.Party, error)
}

// FetcherFunc adapts a function to Fetcher
type FetcherFunc func(ctx context.Context, id model.PartyID) (*model.Party, error)

func (f FetcherFunc) FetchParty(ctx context.Context, id model.PartyID) (*model.Party, error) {
	return f(ctx, id)
}

// Watcher polls one party on a fixed interval
type Watcher struct {
	fetcher  Fetcher
	interval time.Duration
	logger   *slog.Logger

	mu   sync.RWMutex
	last *model.Party
}

// NewWatcher creates a Watcher. A non-positive interval uses DefaultInterval.
func NewWatcher(fetcher Fetcher, interval time.Duration, logger *slog.Logger) *Watcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Watcher{
		fetcher:  fetcher,
		interval: interval,
		logger:   logger.With(slog.String("component", "partysync")),
	}
}

// Watch fetches the party immediately and then every interval, calling
// onUpdate with each successful read. It returns nil when ctx is cancelled
// and model.ErrPartyNotFound (wrapped) once the party no longer exists.
// Other fetch errors are logged and the last known state is kept.
func (w *Watcher) Watch(ctx context.Context, id model.PartyID, onUpdate func(*model.Party)) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			return nil
		}
		if err := w.poll(ctx, id, onUpdate); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *Watcher) poll(ctx context.Context, id model.PartyID, onUpdate func(*model.Party)) error {
	party, err := w.fetcher.FetchParty(ctx, id)
	switch {
	case err == nil:
		w.mu.Lock()
		w.last = party
		w.mu.Unlock()
		if onUpdate != nil {
			onUpdate(party)
		}
		return nil
	case ctx.Err() != nil:
		return nil
	case errors.Is(err, model.ErrPartyNotFound):
		w.logger.Info("party gone, stopping watch", slog.String("party_id", string(id)))
		return err
	default:
		w.logger.Warn("party fetch failed, keeping last state",
			slog.String("party_id", string(id)),
			slog.Any("error", err),
		)
		return nil
	}
}

// Last returns the most recent successfully fetched party, or nil
func (w *Watcher) Last() *model.Party {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.last
}
