package partysync

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/partygame/internal/model"
	"github.com/mcoot/partygame/internal/testutil"
)

type WatcherSuite struct {
	suite.Suite
}

func TestWatcherSuite(t *testing.T) {
	suite.Run(t, new(WatcherSuite))
}

// scriptedFetcher returns queued results in order, repeating the last one
type scriptedFetcher struct {
	mu      sync.Mutex
	results []result
	calls   atomic.Int32
}

type result struct {
	party *model.Party
	err   error
}

func (f *scriptedFetcher) FetchParty(ctx context.Context, id model.PartyID) (*model.Party, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.results[0]
	if len(f.results) > 1 {
		f.results = f.results[1:]
	}
	return r.party, r.err
}

func partyWithStatus(status model.PartyStatus) *model.Party {
	return &model.Party{ID: "p1", Status: status}
}

func (s *WatcherSuite) TestDefaultInterval() {
	w := NewWatcher(&scriptedFetcher{}, 0, testutil.NopLogger())
	s.Equal(2*time.Second, w.interval)
}

func (s *WatcherSuite) TestFetchesImmediately() {
	fetcher := &scriptedFetcher{results: []result{{party: partyWithStatus(model.PartyStatusWaiting)}}}
	w := NewWatcher(fetcher, time.Hour, testutil.NopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	var updates []*model.Party
	err := w.Watch(ctx, "p1", func(p *model.Party) {
		updates = append(updates, p)
		cancel()
	})

	s.NoError(err)
	s.Len(updates, 1)
	s.Equal(int32(1), fetcher.calls.Load())
}

func (s *WatcherSuite) TestStopsWhenPartyGone() {
	fetcher := &scriptedFetcher{results: []result{
		{party: partyWithStatus(model.PartyStatusWaiting)},
		{party: partyWithStatus(model.PartyStatusInProgress)},
		{err: model.ErrPartyNotFound},
	}}
	w := NewWatcher(fetcher, time.Millisecond, testutil.NopLogger())

	var statuses []model.PartyStatus
	err := w.Watch(context.Background(), "p1", func(p *model.Party) {
		statuses = append(statuses, p.Status)
	})

	s.ErrorIs(err, model.ErrPartyNotFound)
	s.Equal([]model.PartyStatus{model.PartyStatusWaiting, model.PartyStatusInProgress}, statuses)
	s.Equal(model.PartyStatusInProgress, w.Last().Status)
}

func (s *WatcherSuite) TestTransientErrorsKeepLastState() {
	fetcher := &scriptedFetcher{results: []result{
		{party: partyWithStatus(model.PartyStatusWaiting)},
		{err: errors.New("connection refused")},
		{err: errors.New("connection refused")},
		{err: model.ErrPartyNotFound},
	}}
	w := NewWatcher(fetcher, time.Millisecond, testutil.NopLogger())

	updates := 0
	err := w.Watch(context.Background(), "p1", func(p *model.Party) { updates++ })

	s.ErrorIs(err, model.ErrPartyNotFound)
	s.Equal(1, updates)
	s.Equal(int32(4), fetcher.calls.Load())
	s.Require().NotNil(w.Last())
	s.Equal(model.PartyStatusWaiting, w.Last().Status)
}

func (s *WatcherSuite) TestRecoversAfterTransientError() {
	fetcher := &scriptedFetcher{results: []result{
		{err: errors.New("timeout")},
		{party: partyWithStatus(model.PartyStatusFinished)},
	}}
	w := NewWatcher(fetcher, time.Millisecond, testutil.NopLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var got *model.Party
	err := w.Watch(ctx, "p1", func(p *model.Party) {
		got = p
		cancel()
	})

	s.NoError(err)
	s.Require().NotNil(got)
	s.Equal(model.PartyStatusFinished, got.Status)
}

func (s *WatcherSuite) TestCancelReturnsNil() {
	fetcher := &scriptedFetcher{results: []result{{party: partyWithStatus(model.PartyStatusWaiting)}}}
	w := NewWatcher(fetcher, time.Millisecond, testutil.NopLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	s.NoError(w.Watch(ctx, "p1", nil))
	s.Greater(fetcher.calls.Load(), int32(1))
}

func (s *WatcherSuite) TestLastIsNilBeforeFirstFetch() {
	w := NewWatcher(&scriptedFetcher{}, time.Second, testutil.NopLogger())
	s.Nil(w.Last())
}

func (s *WatcherSuite) TestFetcherFunc() {
	var seen model.PartyID
	f := FetcherFunc(func(ctx context.Context, id model.PartyID) (*model.Party, error) {
		seen = id
		return partyWithStatus(model.PartyStatusWaiting), nil
	})

	p, err := f.FetchParty(context.Background(), "p42")
	s.Require().NoError(err)
	s.Equal(model.PartyID("p42"), seen)
	s.Equal(model.PartyStatusWaiting, p.Status)
}
