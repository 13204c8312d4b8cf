package redis

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/partygame/internal/model"
	"github.com/mcoot/partygame/internal/storage"
	"github.com/mcoot/partygame/internal/storage/storagetest"
)

type StorageSuite struct {
	storagetest.Suite
	mini *miniredis.Miniredis
}

func TestStorageSuite(t *testing.T) {
	s := &StorageSuite{}
	s.NewStorage = func(t *testing.T) storage.Storage {
		s.mini = miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: s.mini.Addr()})
		t.Cleanup(func() { _ = client.Close() })

		cfg := DefaultConfig()
		cfg.PartyTTL = time.Hour
		return NewWithClient(client, cfg)
	}
	suite.Run(t, s)
}

func (s *StorageSuite) TestPartyTTLApplied() {
	s.Require().NoError(s.Storage.CreateParty(s.Ctx, s.NewParty("p1", "ABCDEF", "u1")))

	s.True(s.mini.TTL(partyKey("p1")) > 0, "party should have TTL")
	s.True(s.mini.TTL(codeIndexKey("ABCDEF")) > 0, "code claim should have TTL")
}

func (s *StorageSuite) TestUpdateRefreshesTTL() {
	s.Require().NoError(s.Storage.CreateParty(s.Ctx, s.NewParty("p1", "ABCDEF", "u1")))
	s.mini.FastForward(30 * time.Minute)

	_, err := s.Storage.UpdateParty(s.Ctx, "p1", func(p *model.Party) error {
		p.HostName = "Renamed"
		return nil
	})
	s.Require().NoError(err)

	s.Equal(time.Hour, s.mini.TTL(partyKey("p1")))
	s.Equal(time.Hour, s.mini.TTL(codeIndexKey("ABCDEF")))
}

func (s *StorageSuite) TestExpiredPartyIsGone() {
	s.Require().NoError(s.Storage.CreateParty(s.Ctx, s.NewParty("p1", "ABCDEF", "u1")))
	s.mini.FastForward(2 * time.Hour)

	_, err := s.Storage.GetParty(s.Ctx, "p1")
	s.ErrorIs(err, model.ErrPartyNotFound)
	_, err = s.Storage.GetPartyByCode(s.Ctx, "ABCDEF")
	s.ErrorIs(err, model.ErrPartyNotFound)

	parties, err := s.Storage.ListParties(s.Ctx, nil)
	s.Require().NoError(err)
	s.Empty(parties)
	s.False(s.mini.Exists(partiesIndexKey()), "expired ids should be pruned from the index")
}

func (s *StorageSuite) TestUsersHaveNoTTL() {
	s.Require().NoError(s.Storage.SaveUser(s.Ctx, &model.User{ID: "u1", Email: "a@example.com"}))

	s.Equal(time.Duration(0), s.mini.TTL(userKey("u1")))
	s.Equal(time.Duration(0), s.mini.TTL(emailIndexKey("a@example.com")))
}

func (s *StorageSuite) TestZeroTTLKeepsPartiesForever() {
	client := redis.NewClient(&redis.Options{Addr: s.mini.Addr()})
	defer client.Close()
	cfg := DefaultConfig()
	cfg.PartyTTL = 0
	store := NewWithClient(client, cfg)

	s.Require().NoError(store.CreateParty(s.Ctx, s.NewParty("p9", "ZZZZZZ", "u1")))

	s.Equal(time.Duration(0), s.mini.TTL(partyKey("p9")))
	s.Equal(time.Duration(0), s.mini.TTL(codeIndexKey("ZZZZZZ")))
}
