// Package sqlstore persists parties, users and game history in a SQL
// database through gorm. Production uses postgres; any gorm dialector works.
package sqlstore

import (
	"context"
	"errors"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/mcoot/partygame/internal/model"
	"github.com/mcoot/partygame/internal/storage"
)

// Config holds connection pool settings
type Config struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// AutoMigrate creates or updates tables on open. Production deployments
	// run cmd/migrate instead.
	AutoMigrate bool
}

// DefaultConfig returns sensible defaults for the SQL backend
func DefaultConfig() Config {
	return Config{
		MaxOpenConns:    10,
		MaxIdleConns:    10,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: time.Minute,
	}
}

// Storage is a gorm-backed implementation of the storage interface
type Storage struct {
	db *gorm.DB
}

// OpenPostgres connects to postgres using a DSN or URL
func OpenPostgres(dsn string, cfg Config) (*Storage, error) {
	return Open(postgres.Open(dsn), cfg)
}

// Open connects using the given dialector and applies pool settings
func Open(dialector gorm.Dialector, cfg Config) (*Storage, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	s := New(db)
	if cfg.AutoMigrate {
		if err := s.Migrate(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// New wraps an existing gorm connection
func New(db *gorm.DB) *Storage {
	return &Storage{db: db}
}

// Migrate runs gorm auto-migrations for the party tables
func (s *Storage) Migrate() error {
	return s.db.AutoMigrate(&partyRecord{}, &userRecord{}, &gameHistoryRecord{})
}

// Close closes the underlying connection pool
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Party operations

func (s *Storage) CreateParty(ctx context.Context, party *model.Party) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&partyRecord{}).Where("code = ?", string(party.Code)).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return model.ErrPartyCodeTaken
		}
		err := tx.Create(newPartyRecord(party)).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return model.ErrPartyCodeTaken
		}
		return err
	})
}

func (s *Storage) GetParty(ctx context.Context, id model.PartyID) (*model.Party, error) {
	var rec partyRecord
	err := s.db.WithContext(ctx).First(&rec, "id = ?", string(id)).Error
	if err != nil {
		return nil, partyErr(err)
	}
	return rec.toModel(), nil
}

func (s *Storage) GetPartyByCode(ctx context.Context, code model.PartyCode) (*model.Party, error) {
	var rec partyRecord
	err := s.db.WithContext(ctx).First(&rec, "code = ?", string(code)).Error
	if err != nil {
		return nil, partyErr(err)
	}
	return rec.toModel(), nil
}

// UpdateParty locks the party row for the duration of mutate
func (s *Storage) UpdateParty(ctx context.Context, id model.PartyID, mutate storage.MutateFunc) (*model.Party, error) {
	var result *model.Party
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec partyRecord
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&rec, "id = ?", string(id)).Error
		if err != nil {
			return partyErr(err)
		}

		current := rec.toModel()
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

		if err := tx.Save(newPartyRecord(working)).Error; err != nil {
			return err
		}
		result = working
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Storage) DeleteParty(ctx context.Context, id model.PartyID) error {
	return s.db.WithContext(ctx).Delete(&partyRecord{}, "id = ?", string(id)).Error
}

func (s *Storage) ListParties(ctx context.Context, filter storage.PartyFilter) ([]*model.Party, error) {
	var recs []partyRecord
	err := s.db.WithContext(ctx).Order("created_at DESC").Order("id ASC").Find(&recs).Error
	if err != nil {
		return nil, err
	}

	parties := make([]*model.Party, 0, len(recs))
	for i := range recs {
		party := recs[i].toModel()
		if filter == nil || filter(party) {
			parties = append(parties, party)
		}
	}
	return parties, nil
}

// User operations

func (s *Storage) SaveUser(ctx context.Context, user *model.User) error {
	return s.db.WithContext(ctx).Save(newUserRecord(user)).Error
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	var rec userRecord
	err := s.db.WithContext(ctx).First(&rec, "id = ?", string(id)).Error
	if err != nil {
		return nil, userErr(err)
	}
	return rec.toModel(), nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var rec userRecord
	err := s.db.WithContext(ctx).First(&rec, "email = ?", email).Error
	if err != nil {
		return nil, userErr(err)
	}
	return rec.toModel(), nil
}

// Game history operations

func (s *Storage) SaveGameHistory(ctx context.Context, entry *model.GameHistory) error {
	return s.db.WithContext(ctx).Create(newGameHistoryRecord(entry)).Error
}

func (s *Storage) ListGameHistory(ctx context.Context, userID model.UserID) ([]*model.GameHistory, error) {
	var recs []gameHistoryRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ?", string(userID)).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}, Desc: true}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "seq"}, Desc: true}).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}

	entries := make([]*model.GameHistory, 0, len(recs))
	for i := range recs {
		entries = append(entries, recs[i].toModel())
	}
	return entries, nil
}

func partyErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.ErrPartyNotFound
	}
	return err
}

func userErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.ErrUserNotFound
	}
	return err
}
