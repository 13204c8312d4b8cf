package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"

	"github.com/mcoot/partygame/internal/api"
	"github.com/mcoot/partygame/internal/api/response"
	"github.com/mcoot/partygame/internal/factory"
	"github.com/mcoot/partygame/internal/model"
	"github.com/mcoot/partygame/internal/testutil"
)

type CLISuite struct {
	suite.Suite
	server    *httptest.Server
	app       *factory.App
	tokenFile string
}

func TestCLISuite(t *testing.T) {
	suite.Run(t, new(CLISuite))
}

func (s *CLISuite) SetupTest() {
	app, err := factory.New(factory.Config{})
	s.Require().NoError(err)
	s.app = app

	s.server = httptest.NewServer(api.NewRouter(api.RouterConfig{
		Logger:         testutil.NopLogger(),
		AuthService:    app.AuthService,
		PartyRegistry:  app.PartyRegistry,
		HistoryService: app.HistoryService,
		PublicURL:      "http://party.test",
	}))
	s.tokenFile = filepath.Join(s.T().TempDir(), "token")
}

func (s *CLISuite) TearDownTest() {
	s.server.Close()
}

func (s *CLISuite) execute(format string, args ...string) (string, error) {
	root := NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{
		"--server", s.server.URL,
		"--token-file", s.tokenFile,
		"--output", format,
	}, args...))
	err := root.ExecuteContext(context.Background())
	return stdout.String(), err
}

func (s *CLISuite) run(args ...string) string {
	out, err := s.execute("json", args...)
	s.Require().NoError(err, out)
	return out
}

func (s *CLISuite) signIn(subject string) {
	s.run("auth", "signin", "--subject", subject, "--email", subject+"@example.com", "--name", strings.ToUpper(subject[:1])+subject[1:])
}

func (s *CLISuite) createParty(game string) model.Party {
	var p model.Party
	s.Require().NoError(json.Unmarshal([]byte(s.run("party", "create", game)), &p))
	return p
}

func (s *CLISuite) TestHealth() {
	var result HealthResult
	s.Require().NoError(json.Unmarshal([]byte(s.run("health")), &result))
	s.Equal("ok", result.Status)
}

func (s *CLISuite) TestHealthWaitGivesUp() {
	dead := httptest.NewServer(http.NotFoundHandler())
	dead.Close()

	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--server", dead.URL, "--token-file", s.tokenFile, "health", "--wait", "1500ms"})

	start := time.Now()
	err := root.ExecuteContext(context.Background())
	s.Require().Error(err)
	s.Contains(err.Error(), "not healthy after 1.5s")
	s.GreaterOrEqual(time.Since(start), time.Second)
}

func (s *CLISuite) TestSignInSavesToken() {
	out := s.run("auth", "signin", "--subject", "alice", "--email", "alice@example.com", "--name", "Alice")

	var resp response.AuthResponse
	s.Require().NoError(json.Unmarshal([]byte(out), &resp))
	s.Equal(model.UserID("alice"), resp.User.ID)

	saved, err := os.ReadFile(s.tokenFile)
	s.Require().NoError(err)
	s.Equal(resp.SessionToken, string(saved))

	var me model.User
	s.Require().NoError(json.Unmarshal([]byte(s.run("player", "me")), &me))
	s.Equal("Alice", me.Name)
}

func (s *CLISuite) TestSignOutForgetsToken() {
	s.signIn("alice")
	s.run("auth", "signout")

	_, err := os.Stat(s.tokenFile)
	s.True(os.IsNotExist(err))

	_, err = s.execute("json", "player", "me")
	s.ErrorIs(err, model.ErrUnauthorized)
}

func (s *CLISuite) TestMalformedCodeWarns() {
	s.signIn("alice")

	root := NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs([]string{"--server", s.server.URL, "--token-file", s.tokenFile, "party", "code", "nope"})

	err := root.ExecuteContext(context.Background())
	s.ErrorIs(err, model.ErrPartyNotFound)
	s.Contains(stderr.String(), "party codes are 6 letters or digits")
	s.Contains(stderr.String(), "code=NOPE")
}

func (s *CLISuite) TestPartyLifecycle() {
	s.signIn("host")
	p := s.createParty("kings-cup")
	s.Equal(model.PartyStatusWaiting, p.Status)

	var got model.Party
	s.Require().NoError(json.Unmarshal([]byte(s.run("party", "code", strings.ToLower(string(p.Code)))), &got))
	s.Equal(p.ID, got.ID)

	var mine response.PartyList
	s.Require().NoError(json.Unmarshal([]byte(s.run("party", "mine")), &mine))
	s.Require().Len(mine.Parties, 1)

	s.Require().NoError(json.Unmarshal([]byte(s.run("party", "start", string(p.ID))), &got))
	s.Equal(model.PartyStatusInProgress, got.Status)

	s.Require().NoError(json.Unmarshal([]byte(s.run("party", "finish", string(p.ID))), &got))
	s.Equal(model.PartyStatusFinished, got.Status)

	_, err := s.execute("json", "party", "start", string(p.ID))
	s.ErrorIs(err, model.ErrInvalidTransition)

	s.run("party", "delete", string(p.ID))
	_, err = s.execute("json", "party", "get", string(p.ID))
	s.ErrorIs(err, model.ErrPartyNotFound)
}

func (s *CLISuite) TestJoinAsSecondUser() {
	s.signIn("host")
	p := s.createParty("truth-or-dare")

	s.signIn("guest")
	var joined model.Party
	s.Require().NoError(json.Unmarshal([]byte(s.run("party", "join", string(p.Code))), &joined))
	s.Len(joined.Players, 2)

	_, err := s.execute("json", "party", "start", string(p.ID))
	s.ErrorIs(err, model.ErrNotHost)

	var left model.Party
	s.Require().NoError(json.Unmarshal([]byte(s.run("party", "leave", string(p.ID))), &left))
	s.Len(left.Players, 1)
}

func (s *CLISuite) TestHistoryAndProfile() {
	s.signIn("player")
	s.run("history", "save", "would-you-rather", "--duration", "5m")

	var profile response.Profile
	s.Require().NoError(json.Unmarshal([]byte(s.run("player", "profile")), &profile))
	s.Equal(1, profile.Stats.TotalGames)
	s.Equal(300, profile.Stats.TotalDurationSeconds)
}

func (s *CLISuite) TestQR() {
	s.signIn("host")
	p := s.createParty("kings-cup")
	file := filepath.Join(s.T().TempDir(), "qr.png")

	s.run("party", "qr", string(p.ID), "--file", file, "--size", "128")

	data, err := os.ReadFile(file)
	s.Require().NoError(err)
	s.True(bytes.HasPrefix(data, []byte("\x89PNG")))
}

func (s *CLISuite) TestTextOutput() {
	s.signIn("host")
	p := s.createParty("kings-cup")

	out, err := s.execute("text", "party", "get", string(p.ID))
	s.Require().NoError(err)
	s.Contains(out, "Party: "+string(p.Code))
	s.Contains(out, "Status: waiting")
	s.Contains(out, "Host (host) [host]")
}

func (s *CLISuite) TestYAMLOutput() {
	s.signIn("host")
	p := s.createParty("kings-cup")

	out, err := s.execute("yaml", "party", "get", string(p.ID))
	s.Require().NoError(err)

	var decoded map[string]any
	s.Require().NoError(yaml.Unmarshal([]byte(out), &decoded))
	s.Equal(string(p.Code), decoded["code"])
	s.Equal("waiting", decoded["status"])
	s.Contains(out, "hostId: host")
}

func (s *CLISuite) TestInvalidOutputFormat() {
	_, err := s.execute("xml", "health")
	s.Error(err)
}

func (s *CLISuite) TestWatchUntilFinished() {
	s.signIn("host")
	p := s.createParty("kings-cup")
	s.run("party", "finish", string(p.ID))

	out := s.run("party", "watch", string(p.ID), "--interval", "10ms", "--until-finished")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	s.Require().Len(lines, 1)

	var seen model.Party
	s.Require().NoError(json.Unmarshal([]byte(lines[0]), &seen))
	s.Equal(model.PartyStatusFinished, seen.Status)
}

func (s *CLISuite) TestWatchMissingParty() {
	s.signIn("host")
	_, err := s.execute("json", "party", "watch", "missing", "--interval", "10ms")
	s.ErrorIs(err, model.ErrPartyNotFound)
}

func (s *CLISuite) TestWatchPrintsChangesUntilDeleted() {
	s.signIn("host")
	p := s.createParty("kings-cup")

	var buf syncBuffer
	root := NewRootCmd()
	root.SetOut(&buf)
	root.SetErr(&bytes.Buffer{})
	cfg.Output = FormatText
	client = NewClient(s.server.URL, "", time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- watchParty(ctx, root, p.ID, 10*time.Millisecond, false)
	}()

	s.Eventually(func() bool { return strings.Contains(buf.String(), "status=waiting") }, 2*time.Second, 10*time.Millisecond)

	_, err := s.app.PartyRegistry.Join(ctx, p.ID, "guest", "Guest", "")
	s.Require().NoError(err)
	s.Eventually(func() bool { return strings.Contains(buf.String(), "players=2") }, 2*time.Second, 10*time.Millisecond)

	s.Require().NoError(s.app.PartyRegistry.Delete(ctx, p.ID))

	select {
	case err := <-done:
		s.NoError(err)
	case <-ctx.Done():
		s.Fail("watch did not stop after the party was deleted")
	}
	s.Contains(buf.String(), "was deleted")
	s.Equal(2, strings.Count(buf.String(), "status=waiting"))
}

func (s *CLISuite) TestStatusErrorUnwrap() {
	cases := []struct {
		err    *StatusError
		target error
	}{
		{&StatusError{Status: http.StatusNotFound}, model.ErrNotFound},
		{&StatusError{Status: http.StatusBadRequest}, model.ErrInvalidInput},
		{&StatusError{Status: http.StatusUnauthorized}, model.ErrUnauthorized},
		{&StatusError{Status: http.StatusForbidden}, model.ErrForbidden},
		{&StatusError{Status: http.StatusConflict}, model.ErrConflict},
	}
	for _, tc := range cases {
		s.True(errors.Is(tc.err, tc.target), "status %d", tc.err.Status)
	}
	s.Nil((&StatusError{Status: http.StatusInternalServerError}).Unwrap())
}
