package janitor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/partygame/internal/dependencies/mocks"
	"github.com/mcoot/partygame/internal/testutil"
)

type fakePurger struct {
	mu      sync.Mutex
	cutoffs []time.Time
	result  int
	err     error
}

func (f *fakePurger) PurgeFinished(ctx context.Context, olderThan time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, olderThan)
	return f.result, f.err
}

func (f *fakePurger) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cutoffs)
}

type fakeCleaner struct {
	mu    sync.Mutex
	count int
}

func (f *fakeCleaner) CleanExpiredSessions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count++
	return 0
}

type JanitorSuite struct {
	suite.Suite
	clock   *mocks.MockClock
	purger  *fakePurger
	cleaner *fakeCleaner
}

func TestJanitorSuite(t *testing.T) {
	suite.Run(t, new(JanitorSuite))
}

func (s *JanitorSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.purger = &fakePurger{}
	s.cleaner = &fakeCleaner{}
}

func (s *JanitorSuite) newJanitor(interval time.Duration) *Janitor {
	return New(s.purger, s.cleaner, s.clock, 24*time.Hour, interval, testutil.NopLogger())
}

func (s *JanitorSuite) TestSweepUsesRetentionCutoff() {
	s.newJanitor(time.Minute).Sweep(context.Background())

	s.Require().Len(s.purger.cutoffs, 1)
	s.Equal(time.Date(2023, 12, 31, 12, 0, 0, 0, time.UTC), s.purger.cutoffs[0])
	s.Equal(1, s.cleaner.count)
}

func (s *JanitorSuite) TestSweepCleansSessionsWhenPurgeFails() {
	s.purger.err = errors.New("storage down")
	logger, logs := testutil.CaptureLogger()

	New(s.purger, s.cleaner, s.clock, 24*time.Hour, time.Minute, logger).Sweep(context.Background())

	s.Equal(1, s.cleaner.count)
	rec := logs.Find("failed to purge finished parties")
	s.Require().NotNil(rec)
	s.Equal("ERROR", rec[slog.LevelKey])
	s.Equal("janitor", rec["component"])
	s.Equal("storage down", rec["error"])
}

func (s *JanitorSuite) TestSweepLogsOnlyWhenSomethingRemoved() {
	logger, logs := testutil.CaptureLogger()
	j := New(s.purger, s.cleaner, s.clock, 24*time.Hour, time.Minute, logger)

	j.Sweep(context.Background())
	s.Nil(logs.Find("janitor sweep"))

	s.purger.result = 3
	j.Sweep(context.Background())
	rec := logs.Find("janitor sweep")
	s.Require().NotNil(rec)
	s.EqualValues(3, rec["parties_purged"])
}

func (s *JanitorSuite) TestRunSweepsUntilCancelled() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.newJanitor(5 * time.Millisecond).Run(ctx)
		close(done)
	}()

	s.Eventually(func() bool { return s.purger.calls() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		s.Fail("janitor did not stop after cancel")
	}
}

func (s *JanitorSuite) TestRunDisabled() {
	s.newJanitor(0).Run(context.Background())
	s.Equal(0, s.purger.calls())
}
