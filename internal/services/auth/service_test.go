package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/partygame/internal/dependencies/mocks"
	"github.com/mcoot/partygame/internal/model"
	"github.com/mcoot/partygame/internal/storage/memory"
	"github.com/mcoot/partygame/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.service = New(s.storage, s.clock, DefaultConfig(), testutil.NopLogger())
	s.ctx = context.Background()
}

func alice() Identity {
	return Identity{Subject: "google-123", Email: "alice@example.com", Name: "Alice", Image: "https://img/alice.png"}
}

// SignIn tests

func (s *ServiceSuite) TestSignInCreatesUser() {
	session, err := s.service.SignIn(s.ctx, alice())
	s.Require().NoError(err)

	s.NotEmpty(session.Token)
	s.Equal(model.UserID("google-123"), session.UserID)
	s.Equal("Alice", session.User.Name)

	user, err := s.storage.GetUser(s.ctx, "google-123")
	s.Require().NoError(err)
	s.Equal("alice@example.com", user.Email)
	s.Equal("https://img/alice.png", user.Image)
	s.Equal(s.clock.Now(), user.CreatedAt)
	s.Equal(s.clock.Now(), user.LastLogin)
}

func (s *ServiceSuite) TestSignInReturningUserKeepsIDAndRefreshes() {
	_, err := s.service.SignIn(s.ctx, alice())
	s.Require().NoError(err)
	created := s.clock.Now()
	s.clock.Advance(48 * time.Hour)

	again := alice()
	again.Subject = "different-subject"
	again.Name = "Alice Smith"
	again.Email = "  ALICE@example.com "
	session, err := s.service.SignIn(s.ctx, again)
	s.Require().NoError(err)

	s.Equal(model.UserID("google-123"), session.UserID)
	user, err := s.storage.GetUser(s.ctx, "google-123")
	s.Require().NoError(err)
	s.Equal("Alice Smith", user.Name)
	s.Equal(created, user.CreatedAt)
	s.Equal(s.clock.Now(), user.LastLogin)
}

func (s *ServiceSuite) TestSignInKeepsNameWhenProviderOmitsIt() {
	_, _ = s.service.SignIn(s.ctx, alice())

	again := alice()
	again.Name = ""
	again.Image = ""
	session, err := s.service.SignIn(s.ctx, again)
	s.Require().NoError(err)
	s.Equal("Alice", session.User.Name)
	s.Equal("https://img/alice.png", session.User.Image)
}

func (s *ServiceSuite) TestSignInRejectsMissingEmail() {
	id := alice()
	id.Email = " "
	_, err := s.service.SignIn(s.ctx, id)
	s.ErrorIs(err, model.ErrInvalidIdentity)
	s.ErrorIs(err, model.ErrInvalidInput)
}

func (s *ServiceSuite) TestSignInRejectsMissingSubject() {
	id := alice()
	id.Subject = ""
	_, err := s.service.SignIn(s.ctx, id)
	s.ErrorIs(err, model.ErrInvalidIdentity)
}

// ValidateSession tests

func (s *ServiceSuite) TestValidateSessionSucceeds() {
	session, _ := s.service.SignIn(s.ctx, alice())

	validated, err := s.service.ValidateSession(session.Token)
	s.Require().NoError(err)
	s.Equal(session.Token, validated.Token)
	s.Equal(session.UserID, validated.UserID)
}

func (s *ServiceSuite) TestValidateSessionFailsForUnknownToken() {
	_, err := s.service.ValidateSession("invalid-token")
	s.ErrorIs(err, ErrInvalidSession)
	s.ErrorIs(err, model.ErrUnauthorized)
}

func (s *ServiceSuite) TestValidateSessionFailsWhenExpired() {
	session, _ := s.service.SignIn(s.ctx, alice())

	s.clock.Advance(25 * time.Hour)

	_, err := s.service.ValidateSession(session.Token)
	s.ErrorIs(err, ErrInvalidSession)
}

// InvalidateSession tests

func (s *ServiceSuite) TestInvalidateSessionRemovesSession() {
	session, _ := s.service.SignIn(s.ctx, alice())

	s.service.InvalidateSession(session.Token)

	_, err := s.service.ValidateSession(session.Token)
	s.ErrorIs(err, ErrInvalidSession)
}

// GetUser tests

func (s *ServiceSuite) TestGetUserReturnsSessionUser() {
	session, _ := s.service.SignIn(s.ctx, alice())

	user, err := s.service.GetUser(session.Token)
	s.Require().NoError(err)
	s.Equal(model.UserID("google-123"), user.ID)
}

// CleanExpiredSessions tests

func (s *ServiceSuite) TestCleanExpiredSessions() {
	old, _ := s.service.SignIn(s.ctx, alice())
	s.clock.Advance(23 * time.Hour)
	fresh, _ := s.service.SignIn(s.ctx, Identity{Subject: "gh-9", Email: "bob@example.com", Name: "Bob"})
	s.clock.Advance(2 * time.Hour)

	s.Equal(1, s.service.CleanExpiredSessions())

	_, err := s.service.ValidateSession(old.Token)
	s.ErrorIs(err, ErrInvalidSession)
	_, err = s.service.ValidateSession(fresh.Token)
	s.NoError(err)
}
