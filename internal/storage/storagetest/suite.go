// Package storagetest holds a conformance suite every storage backend runs.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/partygame/internal/model"
	"github.com/mcoot/partygame/internal/storage"
)

// Suite exercises the storage.Storage contract. Backends embed it and set
// NewStorage, which is called once per test.
type Suite struct {
	suite.Suite
	NewStorage func(t *testing.T) storage.Storage

	Storage storage.Storage
	Ctx     context.Context
	Now     time.Time
}

func (s *Suite) SetupTest() {
	s.Require().NotNil(s.NewStorage, "NewStorage must be set")
	s.Storage = s.NewStorage(s.T())
	s.Ctx = context.Background()
	s.Now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

// NewParty builds a waiting party hosted by host
func (s *Suite) NewParty(id model.PartyID, code model.PartyCode, host model.UserID) *model.Party {
	return &model.Party{
		ID:       id,
		Code:     code,
		HostID:   host,
		HostName: "Host " + string(host),
		Game:     model.GameKingsCup,
		Players: []model.PartyPlayer{
			{UserID: host, Name: "Host " + string(host), JoinedAt: s.Now},
		},
		Status:    model.PartyStatusWaiting,
		CreatedAt: s.Now,
		UpdatedAt: s.Now,
	}
}

// Party tests

func (s *Suite) TestCreateAndGetParty() {
	party := s.NewParty("p1", "ABCDEF", "u1")
	s.Require().NoError(s.Storage.CreateParty(s.Ctx, party))

	got, err := s.Storage.GetParty(s.Ctx, "p1")
	s.Require().NoError(err)
	s.Equal(model.PartyCode("ABCDEF"), got.Code)
	s.Equal(model.UserID("u1"), got.HostID)
	s.Equal(model.GameKingsCup, got.Game)
	s.Equal(model.PartyStatusWaiting, got.Status)
	s.Require().Len(got.Players, 1)
	s.Equal(model.UserID("u1"), got.Players[0].UserID)
	s.True(s.Now.Equal(got.Players[0].JoinedAt))
	s.True(s.Now.Equal(got.CreatedAt))
	s.True(s.Now.Equal(got.UpdatedAt))
}

func (s *Suite) TestGetPartyNotFound() {
	_, err := s.Storage.GetParty(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrPartyNotFound)
}

func (s *Suite) TestGetPartyByCode() {
	s.Require().NoError(s.Storage.CreateParty(s.Ctx, s.NewParty("p1", "ABCDEF", "u1")))

	got, err := s.Storage.GetPartyByCode(s.Ctx, "ABCDEF")
	s.Require().NoError(err)
	s.Equal(model.PartyID("p1"), got.ID)

	_, err = s.Storage.GetPartyByCode(s.Ctx, "ZZZZZZ")
	s.ErrorIs(err, model.ErrPartyNotFound)
}

func (s *Suite) TestCreatePartyRejectsTakenCode() {
	s.Require().NoError(s.Storage.CreateParty(s.Ctx, s.NewParty("p1", "ABCDEF", "u1")))

	err := s.Storage.CreateParty(s.Ctx, s.NewParty("p2", "ABCDEF", "u2"))
	s.ErrorIs(err, model.ErrPartyCodeTaken)

	_, err = s.Storage.GetParty(s.Ctx, "p2")
	s.ErrorIs(err, model.ErrPartyNotFound)

	got, err := s.Storage.GetPartyByCode(s.Ctx, "ABCDEF")
	s.Require().NoError(err)
	s.Equal(model.PartyID("p1"), got.ID)
}

func (s *Suite) TestCodeReusableAfterDelete() {
	s.Require().NoError(s.Storage.CreateParty(s.Ctx, s.NewParty("p1", "ABCDEF", "u1")))
	s.Require().NoError(s.Storage.DeleteParty(s.Ctx, "p1"))

	s.Require().NoError(s.Storage.CreateParty(s.Ctx, s.NewParty("p2", "ABCDEF", "u2")))
	got, err := s.Storage.GetPartyByCode(s.Ctx, "ABCDEF")
	s.Require().NoError(err)
	s.Equal(model.PartyID("p2"), got.ID)
}

func (s *Suite) TestUpdateParty() {
	s.Require().NoError(s.Storage.CreateParty(s.Ctx, s.NewParty("p1", "ABCDEF", "u1")))
	later := s.Now.Add(time.Minute)

	updated, err := s.Storage.UpdateParty(s.Ctx, "p1", func(p *model.Party) error {
		p.Players = append(p.Players, model.PartyPlayer{UserID: "u2", Name: "Bob", JoinedAt: later})
		p.UpdatedAt = later
		return nil
	})
	s.Require().NoError(err)
	s.Len(updated.Players, 2)

	got, err := s.Storage.GetParty(s.Ctx, "p1")
	s.Require().NoError(err)
	s.Require().Len(got.Players, 2)
	s.Equal("Bob", got.Players[1].Name)
	s.True(later.Equal(got.UpdatedAt))
}

func (s *Suite) TestUpdatePartyMutateErrorWritesNothing() {
	s.Require().NoError(s.Storage.CreateParty(s.Ctx, s.NewParty("p1", "ABCDEF", "u1")))
	boom := errors.New("boom")

	_, err := s.Storage.UpdateParty(s.Ctx, "p1", func(p *model.Party) error {
		p.Status = model.PartyStatusFinished
		return boom
	})
	s.ErrorIs(err, boom)

	got, err := s.Storage.GetParty(s.Ctx, "p1")
	s.Require().NoError(err)
	s.Equal(model.PartyStatusWaiting, got.Status)
}

func (s *Suite) TestUpdatePartyNoChangeReturnsCurrent() {
	s.Require().NoError(s.Storage.CreateParty(s.Ctx, s.NewParty("p1", "ABCDEF", "u1")))

	got, err := s.Storage.UpdateParty(s.Ctx, "p1", func(p *model.Party) error {
		p.HostName = "ignored"
		return storage.ErrNoChange
	})
	s.Require().NoError(err)
	s.Equal("Host u1", got.HostName)

	stored, err := s.Storage.GetParty(s.Ctx, "p1")
	s.Require().NoError(err)
	s.Equal("Host u1", stored.HostName)
}

func (s *Suite) TestUpdatePartyCannotChangeIdentity() {
	s.Require().NoError(s.Storage.CreateParty(s.Ctx, s.NewParty("p1", "ABCDEF", "u1")))

	got, err := s.Storage.UpdateParty(s.Ctx, "p1", func(p *model.Party) error {
		p.ID = "other"
		p.Code = "ZZZZZZ"
		return nil
	})
	s.Require().NoError(err)
	s.Equal(model.PartyID("p1"), got.ID)
	s.Equal(model.PartyCode("ABCDEF"), got.Code)

	_, err = s.Storage.GetPartyByCode(s.Ctx, "ABCDEF")
	s.NoError(err)
}

func (s *Suite) TestUpdatePartyNotFound() {
	_, err := s.Storage.UpdateParty(s.Ctx, "missing", func(p *model.Party) error { return nil })
	s.ErrorIs(err, model.ErrPartyNotFound)
}

func (s *Suite) TestReturnedPartiesAreIsolated() {
	s.Require().NoError(s.Storage.CreateParty(s.Ctx, s.NewParty("p1", "ABCDEF", "u1")))

	got, err := s.Storage.GetParty(s.Ctx, "p1")
	s.Require().NoError(err)
	got.Players[0].Name = "Mallory"
	got.Status = model.PartyStatusFinished

	again, err := s.Storage.GetParty(s.Ctx, "p1")
	s.Require().NoError(err)
	s.Equal("Host u1", again.Players[0].Name)
	s.Equal(model.PartyStatusWaiting, again.Status)
}

func (s *Suite) TestConcurrentUpdatesLoseNothing() {
	s.Require().NoError(s.Storage.CreateParty(s.Ctx, s.NewParty("p1", "ABCDEF", "u1")))

	const joiners = 10
	var wg sync.WaitGroup
	errs := make(chan error, joiners)
	for i := range joiners {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			userID := model.UserID(fmt.Sprintf("joiner-%d", i))
			_, err := s.Storage.UpdateParty(s.Ctx, "p1", func(p *model.Party) error {
				p.Players = append(p.Players, model.PartyPlayer{UserID: userID, Name: string(userID), JoinedAt: s.Now})
				return nil
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.Require().NoError(err)
	}

	got, err := s.Storage.GetParty(s.Ctx, "p1")
	s.Require().NoError(err)
	s.Len(got.Players, joiners+1)
}

func (s *Suite) TestDeleteParty() {
	s.Require().NoError(s.Storage.CreateParty(s.Ctx, s.NewParty("p1", "ABCDEF", "u1")))

	s.Require().NoError(s.Storage.DeleteParty(s.Ctx, "p1"))

	_, err := s.Storage.GetParty(s.Ctx, "p1")
	s.ErrorIs(err, model.ErrPartyNotFound)
	_, err = s.Storage.GetPartyByCode(s.Ctx, "ABCDEF")
	s.ErrorIs(err, model.ErrPartyNotFound)
}

func (s *Suite) TestDeleteMissingPartyIsNoop() {
	s.NoError(s.Storage.DeleteParty(s.Ctx, "missing"))
}

func (s *Suite) TestListParties() {
	first := s.NewParty("p1", "AAAAAA", "u1")
	second := s.NewParty("p2", "BBBBBB", "u2")
	second.CreatedAt = s.Now.Add(time.Minute)
	second.Status = model.PartyStatusFinished
	s.Require().NoError(s.Storage.CreateParty(s.Ctx, first))
	s.Require().NoError(s.Storage.CreateParty(s.Ctx, second))

	all, err := s.Storage.ListParties(s.Ctx, nil)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal(model.PartyID("p2"), all[0].ID)
	s.Equal(model.PartyID("p1"), all[1].ID)

	finished, err := s.Storage.ListParties(s.Ctx, func(p *model.Party) bool {
		return p.Status == model.PartyStatusFinished
	})
	s.Require().NoError(err)
	s.Require().Len(finished, 1)
	s.Equal(model.PartyID("p2"), finished[0].ID)
}

func (s *Suite) TestListPartiesEmpty() {
	parties, err := s.Storage.ListParties(s.Ctx, nil)
	s.Require().NoError(err)
	s.Empty(parties)
}

// User tests

func (s *Suite) TestSaveAndGetUser() {
	user := &model.User{ID: "u1", Email: "alice@example.com", Name: "Alice", CreatedAt: s.Now, LastLogin: s.Now}
	s.Require().NoError(s.Storage.SaveUser(s.Ctx, user))

	got, err := s.Storage.GetUser(s.Ctx, "u1")
	s.Require().NoError(err)
	s.Equal("Alice", got.Name)
	s.Equal("alice@example.com", got.Email)

	byEmail, err := s.Storage.GetUserByEmail(s.Ctx, "alice@example.com")
	s.Require().NoError(err)
	s.Equal(model.UserID("u1"), byEmail.ID)
}

func (s *Suite) TestSaveUserOverwrites() {
	user := &model.User{ID: "u1", Email: "alice@example.com", Name: "Alice", CreatedAt: s.Now, LastLogin: s.Now}
	s.Require().NoError(s.Storage.SaveUser(s.Ctx, user))

	later := s.Now.Add(time.Hour)
	user.Name = "Alice B"
	user.LastLogin = later
	s.Require().NoError(s.Storage.SaveUser(s.Ctx, user))

	got, err := s.Storage.GetUser(s.Ctx, "u1")
	s.Require().NoError(err)
	s.Equal("Alice B", got.Name)
	s.True(later.Equal(got.LastLogin))
	s.True(s.Now.Equal(got.CreatedAt))
}

func (s *Suite) TestGetUserNotFound() {
	_, err := s.Storage.GetUser(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrUserNotFound)
	_, err = s.Storage.GetUserByEmail(s.Ctx, "nobody@example.com")
	s.ErrorIs(err, model.ErrUserNotFound)
}

// Game history tests

func (s *Suite) TestGameHistoryNewestFirst() {
	entries := []*model.GameHistory{
		{ID: "h1", UserID: "u1", Game: model.GameKingsCup, Timestamp: s.Now, Players: []string{"Alice"}},
		{ID: "h2", UserID: "u1", Game: model.GameTruthOrDare, Timestamp: s.Now.Add(time.Hour), Players: []string{"Alice"}, Duration: 90},
		{ID: "h3", UserID: "u2", Game: model.GameKingsCup, Timestamp: s.Now, Players: []string{"Bob"}},
		{ID: "h4", UserID: "u1", Game: model.GameWouldYouRather, Timestamp: s.Now.Add(30 * time.Minute), Players: []string{"Alice"}},
	}
	for _, e := range entries {
		s.Require().NoError(s.Storage.SaveGameHistory(s.Ctx, e))
	}

	got, err := s.Storage.ListGameHistory(s.Ctx, "u1")
	s.Require().NoError(err)
	s.Require().Len(got, 3)
	s.Equal(model.GameHistoryID("h2"), got[0].ID)
	s.Equal(model.GameHistoryID("h4"), got[1].ID)
	s.Equal(model.GameHistoryID("h1"), got[2].ID)
	s.Equal(90, got[0].Duration)
	s.Equal([]string{"Alice"}, got[0].Players)
}

func (s *Suite) TestGameHistoryTiesKeepSaveOrder() {
	s.Require().NoError(s.Storage.SaveGameHistory(s.Ctx, &model.GameHistory{ID: "h1", UserID: "u1", Game: model.GameKingsCup, Timestamp: s.Now, Players: []string{}}))
	s.Require().NoError(s.Storage.SaveGameHistory(s.Ctx, &model.GameHistory{ID: "h2", UserID: "u1", Game: model.GameKingsCup, Timestamp: s.Now, Players: []string{}}))

	got, err := s.Storage.ListGameHistory(s.Ctx, "u1")
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(model.GameHistoryID("h2"), got[0].ID)
}

func (s *Suite) TestGameHistoryEmpty() {
	got, err := s.Storage.ListGameHistory(s.Ctx, "nobody")
	s.Require().NoError(err)
	s.Empty(got)
}
