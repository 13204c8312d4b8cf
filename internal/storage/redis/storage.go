package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/partygame/internal/model"
	"github.com/mcoot/partygame/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	if cfg.MaxTxRetries <= 0 {
		cfg.MaxTxRetries = DefaultConfig().MaxTxRetries
	}
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Party operations

func (s *Storage) CreateParty(ctx context.Context, party *model.Party) error {
	data, err := json.Marshal(party)
	if err != nil {
		return err
	}

	claimed, err := s.client.SetNX(ctx, codeIndexKey(party.Code), string(party.ID), s.cfg.PartyTTL).Result()
	if err != nil {
		return err
	}
	if !claimed {
		return model.ErrPartyCodeTaken
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, partyKey(party.ID), data, s.cfg.PartyTTL)
	pipe.SAdd(ctx, partiesIndexKey(), string(party.ID))
	if _, err := pipe.Exec(ctx); err != nil {
		// Release the code so a retry can claim it
		_ = s.client.Del(ctx, codeIndexKey(party.Code)).Err()
		return err
	}
	return nil
}

func (s *Storage) GetParty(ctx context.Context, id model.PartyID) (*model.Party, error) {
	data, err := s.client.Get(ctx, partyKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPartyNotFound
		}
		return nil, err
	}
	return decodeParty(data)
}

func (s *Storage) GetPartyByCode(ctx context.Context, code model.PartyCode) (*model.Party, error) {
	id, err := s.client.Get(ctx, codeIndexKey(code)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPartyNotFound
		}
		return nil, err
	}
	return s.GetParty(ctx, model.PartyID(id))
}

// UpdateParty runs mutate inside a WATCH/MULTI transaction on the party key,
// retrying when another writer commits first.
func (s *Storage) UpdateParty(ctx context.Context, id model.PartyID, mutate storage.MutateFunc) (*model.Party, error) {
	key := partyKey(id)

	for attempt := 0; attempt < s.cfg.MaxTxRetries; attempt++ {
		var result *model.Party
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				return model.ErrPartyNotFound
			}
			if err != nil {
				return err
			}
			current, err := decodeParty(data)
			if err != nil {
				return err
			}

			working := current.Clone()
			if err := mutate(working); err != nil {
				if errors.Is(err, storage.ErrNoChange) {
					result = current
					return nil
				}
				return err
			}
			working.ID = current.ID
			working.Code = current.Code

			encoded, err := json.Marshal(working)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, encoded, s.cfg.PartyTTL)
				if s.cfg.PartyTTL > 0 {
					pipe.Expire(ctx, codeIndexKey(current.Code), s.cfg.PartyTTL)
				}
				return nil
			})
			if err != nil {
				return err
			}
			result = working
			return nil
		}, key)

		if err == nil {
			return result, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return nil, err
		}
	}
	return nil, model.ErrConcurrentUpdate
}

func (s *Storage) DeleteParty(ctx context.Context, id model.PartyID) error {
	party, err := s.GetParty(ctx, id)
	if errors.Is(err, model.ErrPartyNotFound) {
		return s.client.SRem(ctx, partiesIndexKey(), string(id)).Err()
	}
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, partyKey(id))
	pipe.Del(ctx, codeIndexKey(party.Code))
	pipe.SRem(ctx, partiesIndexKey(), string(id))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) ListParties(ctx context.Context, filter storage.PartyFilter) ([]*model.Party, error) {
	ids, err := s.client.SMembers(ctx, partiesIndexKey()).Result()
	if err != nil {
		return nil, err
	}

	parties := make([]*model.Party, 0, len(ids))
	if len(ids) == 0 {
		return parties, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = partyKey(model.PartyID(id))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	var expired []any
	for i, val := range values {
		if val == nil {
			expired = append(expired, ids[i])
			continue
		}
		party, err := decodeParty([]byte(val.(string)))
		if err != nil {
			continue // Skip invalid data
		}
		if filter == nil || filter(party) {
			parties = append(parties, party)
		}
	}

	// Drop index entries whose party has expired
	if len(expired) > 0 {
		_ = s.client.SRem(ctx, partiesIndexKey(), expired...).Err()
	}

	storage.SortPartiesNewestFirst(parties)
	return parties, nil
}

// User operations

func (s *Storage) SaveUser(ctx context.Context, user *model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}

	previous, err := s.GetUser(ctx, user.ID)
	if err != nil && !errors.Is(err, model.ErrUserNotFound) {
		return err
	}

	// Use pipeline for atomic save + index update
	pipe := s.client.TxPipeline()
	if previous != nil && previous.Email != user.Email {
		pipe.Del(ctx, emailIndexKey(previous.Email))
	}
	pipe.Set(ctx, userKey(user.ID), data, 0) // No TTL
	pipe.Set(ctx, emailIndexKey(user.Email), string(user.ID), 0)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	data, err := s.client.Get(ctx, userKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}

	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	id, err := s.client.Get(ctx, emailIndexKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}
	return s.GetUser(ctx, model.UserID(id))
}

// Game history operations

func (s *Storage) SaveGameHistory(ctx context.Context, entry *model.GameHistory) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.client.LPush(ctx, historyKey(entry.UserID), data).Err()
}

func (s *Storage) ListGameHistory(ctx context.Context, userID model.UserID) ([]*model.GameHistory, error) {
	values, err := s.client.LRange(ctx, historyKey(userID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]*model.GameHistory, 0, len(values))
	for _, val := range values {
		var entry model.GameHistory
		if err := json.Unmarshal([]byte(val), &entry); err != nil {
			continue // Skip invalid data
		}
		entries = append(entries, &entry)
	}
	storage.SortHistoryNewestFirst(entries)
	return entries, nil
}

func decodeParty(data []byte) (*model.Party, error) {
	var party model.Party
	if err := json.Unmarshal(data, &party); err != nil {
		return nil, err
	}
	return &party, nil
}
