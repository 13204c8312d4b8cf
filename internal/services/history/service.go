package history

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mcoot/partygame/internal/dependencies/clock"
	"github.com/mcoot/partygame/internal/dependencies/random"
	"github.com/mcoot/partygame/internal/model"
	"github.com/mcoot/partygame/internal/storage"
)

// Profile is a user together with their game history and stats
type Profile struct {
	User        *model.User          `json:"user"`
	GameHistory []*model.GameHistory `json:"gameHistory"`
	Stats       model.ProfileStats   `json:"stats"`
}

// Service records finished games and builds player profiles
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger
}

// New creates a new history Service
func New(storage storage.Storage, clock clock.Clock, random random.Random, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
		random:  random,
		logger:  logger.With(slog.String("component", "history")),
	}
}

// Record saves a played game for userID. duration is in seconds; zero means unknown.
func (s *Service) Record(ctx context.Context, userID model.UserID, game model.GameType, players []string, duration int) (*model.GameHistory, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", model.ErrInvalidInput)
	}
	if !game.Valid() {
		return nil, model.ErrInvalidGameType
	}
	if duration < 0 {
		return nil, fmt.Errorf("%w: duration must not be negative", model.ErrInvalidInput)
	}
	if players == nil {
		players = []string{}
	}

	entry := &model.GameHistory{
		ID:        model.GameHistoryID(s.random.UUID()),
		UserID:    userID,
		Game:      game,
		Timestamp: s.clock.Now(),
		Players:   players,
		Duration:  duration,
	}
	if err := s.storage.SaveGameHistory(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.Info("game recorded",
		slog.String("user_id", string(userID)),
		slog.String("game", string(game)),
		slog.Int("duration", duration),
	)
	return entry, nil
}

// Profile returns the user, their history newest first, and summary stats
func (s *Service) Profile(ctx context.Context, userID model.UserID) (*Profile, error) {
	user, err := s.storage.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	entries, err := s.storage.ListGameHistory(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Profile{
		User:        user,
		GameHistory: entries,
		Stats:       Summarize(entries),
	}, nil
}

// Summarize computes profile stats. The favourite game is the most played,
// with ties going to the game listed first in model.GameTypes.
func Summarize(entries []*model.GameHistory) model.ProfileStats {
	stats := model.ProfileStats{
		TotalGames:  len(entries),
		GamesByType: make(map[model.GameType]int),
	}
	for _, e := range entries {
		stats.GamesByType[e.Game]++
		stats.TotalDurationSeconds += e.Duration
	}

	best := 0
	for _, g := range model.GameTypes {
		if n := stats.GamesByType[g]; n > best {
			best = n
			stats.FavoriteGame = g
		}
	}
	return stats
}
