// Package janitor periodically removes finished parties past their
// retention window and expired sign-in sessions.
package janitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/mcoot/partygame/internal/dependencies/clock"
)

// PartyPurger deletes finished parties last updated before a cutoff
type PartyPurger interface {
	PurgeFinished(ctx context.Context, olderThan time.Time) (int, error)
}

// SessionCleaner drops expired sessions
type SessionCleaner interface {
	CleanExpiredSessions() int
}

// Janitor runs cleanup on a fixed interval
type Janitor struct {
	parties   PartyPurger
	sessions  SessionCleaner
	clock     clock.Clock
	retention time.Duration
	interval  time.Duration
	logger    *slog.Logger
}

// New creates a Janitor. Finished parties are kept for retention after
// their last update.
func New(parties PartyPurger, sessions SessionCleaner, clock clock.Clock, retention, interval time.Duration, logger *slog.Logger) *Janitor {
	return &Janitor{
		parties:   parties,
		sessions:  sessions,
		clock:     clock,
		retention: retention,
		interval:  interval,
		logger:    logger.With(slog.String("component", "janitor")),
	}
}

// Run sweeps every interval until ctx is cancelled. A non-positive
// interval disables the janitor.
func (j *Janitor) Run(ctx context.Context) {
	if j.interval <= 0 {
		j.logger.Info("janitor disabled")
		return
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.Sweep(ctx)
		}
	}
}

// Sweep performs one cleanup pass. Failures are logged and retried on the
// next pass.
func (j *Janitor) Sweep(ctx context.Context) {
	cutoff := j.clock.Now().Add(-j.retention)
	purged, err := j.parties.PurgeFinished(ctx, cutoff)
	if err != nil {
		j.logger.Error("failed to purge finished parties",
			slog.Int("purged", purged),
			slog.Any("error", err),
		)
	}

	sessions := j.sessions.CleanExpiredSessions()

	if purged > 0 || sessions > 0 {
		j.logger.Info("janitor sweep",
			slog.Int("parties_purged", purged),
			slog.Int("sessions_expired", sessions),
		)
	}
}
