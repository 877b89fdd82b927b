package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/omarshaarawi/draftboard/internal/api/feed"
	"github.com/omarshaarawi/draftboard/internal/models"
	"github.com/omarshaarawi/draftboard/internal/repository/memory"
	"github.com/omarshaarawi/draftboard/internal/roster"
)

var start = time.Date(2025, 12, 1, 15, 0, 0, 0, time.UTC)

const testRoster = `
people:
  - name: Ann
    teams:
      - name: Duke
      - name: UConn
        aliases: [Connecticut]
  - name: Ben
    teams:
      - name: Kansas
      - name: Gonzaga
`

type fakeFeed struct {
	mu     sync.Mutex
	result feed.Result
	err    error
	calls  int
	gate   chan struct{}
	inside chan struct{}
}

func (f *fakeFeed) Fetch(ctx context.Context) (feed.Result, error) {
	f.mu.Lock()
	f.calls++
	gate, inside := f.gate, f.inside
	res, err := f.result, f.err
	f.mu.Unlock()

	if inside != nil {
		inside <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	return res, err
}

func (f *fakeFeed) set(res feed.Result, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.result, f.err = res, err
}

func (f *fakeFeed) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func ref(location, display string) models.TeamRef {
	return models.TeamRef{Name: display, Location: location}
}

func final(id string, day int, home models.TeamRef, hs int, away models.TeamRef, as int) models.Game {
	return models.Game{
		ID:        id,
		Home:      home,
		Away:      away,
		HomeScore: &hs,
		AwayScore: &as,
		Scheduled: start.AddDate(0, 0, day-10),
		Status:    models.StatusFinal,
	}
}

var (
	duke   = ref("Duke", "Duke Blue Devils")
	uconn  = ref("Connecticut", "Connecticut Huskies")
	kansas = ref("Kansas", "Kansas Jayhawks")
	army   = ref("Army", "Army Black Knights")
	navy   = ref("Navy", "Navy Midshipmen")
)

func sampleResult() feed.Result {
	return feed.Result{
		Games: []models.Game{
			final("1", 0, duke, 80, army, 60),
			final("2", 1, navy, 60, duke, 70),
			final("3", 2, uconn, 75, army, 60),
			final("4", 3, navy, 70, uconn, 65),
			final("5", 1, kansas, 50, navy, 60),
			{
				ID:        "6",
				Home:      kansas,
				Away:      army,
				Scheduled: start.AddDate(0, 0, 2),
				Status:    models.StatusScheduled,
			},
		},
		Skipped: 1,
	}
}

type fakeClock interface {
	clockwork.Clock
	Advance(d time.Duration)
}

func newService(t *testing.T, f Feed) (*DraftService, fakeClock) {
	t.Helper()
	r, err := roster.Parse([]byte(testRoster))
	if err != nil {
		t.Fatal(err)
	}
	clock := clockwork.NewFakeClockAt(start)
	return NewDraftService(f, r, memory.NewRepository(), clock, 10*time.Minute, time.UTC), clock
}

func TestCurrent_Pipeline(t *testing.T) {
	f := &fakeFeed{result: sampleResult()}
	svc, _ := newService(t, f)

	view, err := svc.Current(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	snap := view.Snapshot
	if view.Stale || snap == nil {
		t.Fatalf("unexpected view: %+v", view)
	}

	rows := snap.Leaderboard.Rows
	if len(rows) != 2 || rows[0].Person != "Ann" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	// Duke 2-0, UConn 1-1 (lost last)
	if rows[0].AvgWinPct != 0.75 || rows[0].Wins != 3 || rows[0].Losses != 1 {
		t.Errorf("Ann: got %+v", rows[0])
	}

	ann := snap.Leaderboard.Details[0]
	if ann.Teams[0].Streak.String() != "W2" || ann.Teams[1].Streak.String() != "L1" {
		t.Errorf("streaks: got %s %s", ann.Teams[0].Streak, ann.Teams[1].Streak)
	}

	ben := snap.Leaderboard.Details[1]
	if ben.Teams[0].Team != "Kansas" || ben.Teams[0].NextGame == nil || ben.Teams[0].NextGame.Opponent != "Army Black Knights" {
		t.Errorf("Kansas line: %+v", ben.Teams[0])
	}
	gonzagaLine := ben.Teams[1]
	if !gonzagaLine.NoData || gonzagaLine.Streak.String() != "N/A" || gonzagaLine.WinPct != 0 {
		t.Errorf("Gonzaga should be a no-data team: %+v", gonzagaLine)
	}
	if rows[1].AvgWinPct != 0 {
		t.Errorf("Ben: want 0, got %v", rows[1].AvgWinPct)
	}

	if len(snap.Unmatched) != 1 || snap.Unmatched[0].Team != "Gonzaga" || snap.Unmatched[0].Person != "Ben" {
		t.Errorf("unmatched: %+v", snap.Unmatched)
	}
	if snap.Skipped != 1 {
		t.Errorf("skipped: %d", snap.Skipped)
	}
	if snap.ID == "" || !snap.FetchedAt.Equal(start) {
		t.Errorf("snapshot metadata: %s %s", snap.ID, snap.FetchedAt)
	}
}

func TestCurrent_TTL(t *testing.T) {
	f := &fakeFeed{result: sampleResult()}
	svc, clock := newService(t, f)
	ctx := context.Background()

	first, err := svc.Current(ctx)
	if err != nil {
		t.Fatal(err)
	}

	clock.Advance(9 * time.Minute)
	second, err := svc.Current(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if f.count() != 1 || second.Snapshot != first.Snapshot {
		t.Errorf("within ttl the cached snapshot must be reused, feed calls: %d", f.count())
	}

	clock.Advance(time.Minute)
	third, err := svc.Current(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if f.count() != 2 || third.Snapshot == first.Snapshot {
		t.Errorf("expired snapshot must be refetched, feed calls: %d", f.count())
	}
}

func TestRefresh_BypassesTTL(t *testing.T) {
	f := &fakeFeed{result: sampleResult()}
	svc, _ := newService(t, f)
	ctx := context.Background()

	if _, err := svc.Current(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	if f.count() != 2 {
		t.Errorf("force refresh must poll the feed, calls: %d", f.count())
	}
}

func TestRefresh_UnchangedPayloadIsIdentical(t *testing.T) {
	f := &fakeFeed{result: sampleResult()}
	svc, clock := newService(t, f)
	ctx := context.Background()

	var outputs [][]byte
	for i := 0; i < 3; i++ {
		view, err := svc.Refresh(ctx)
		if err != nil {
			t.Fatal(err)
		}
		b, err := json.Marshal(view.Snapshot.Leaderboard)
		if err != nil {
			t.Fatal(err)
		}
		outputs = append(outputs, b)
		clock.Advance(time.Minute)
	}

	for i := 1; i < len(outputs); i++ {
		if !bytes.Equal(outputs[0], outputs[i]) {
			t.Errorf("refresh %d drifted:\n%s\n%s", i, outputs[0], outputs[i])
		}
	}
}

func TestRefresh_FeedFailureKeepsLastGood(t *testing.T) {
	f := &fakeFeed{result: sampleResult()}
	svc, clock := newService(t, f)
	ctx := context.Background()

	good, err := svc.Current(ctx)
	if err != nil {
		t.Fatal(err)
	}

	f.set(feed.Result{}, errors.New("dial tcp: i/o timeout"))
	clock.Advance(time.Minute)

	view, err := svc.Refresh(ctx)
	if err != nil {
		t.Fatalf("a cached snapshot should be served, got %v", err)
	}
	if !view.Stale || view.Snapshot != good.Snapshot {
		t.Errorf("expected last good snapshot marked stale: %+v", view)
	}
	if !errors.Is(view.Err, ErrFeedUnavailable) {
		t.Errorf("want ErrFeedUnavailable, got %v", view.Err)
	}
	if svc.LastFailure() == nil {
		t.Error("failure should be recorded")
	}

	out := svc.formatLeaderboard(view)
	if !strings.Contains(out, "Feed unavailable") {
		t.Errorf("stale leaderboard should say so:\n%s", out)
	}

	f.set(sampleResult(), nil)
	view, err = svc.Current(ctx)
	if err != nil || view.Stale {
		t.Errorf("recovery should clear staleness: %+v %v", view, err)
	}
	if svc.LastFailure() != nil {
		t.Error("failure should be cleared after a good poll")
	}
}

func TestRefresh_FeedFailureWithoutCache(t *testing.T) {
	f := &fakeFeed{err: errors.New("unexpected status code 503")}
	svc, _ := newService(t, f)

	_, err := svc.Current(context.Background())
	if !errors.Is(err, ErrFeedUnavailable) {
		t.Fatalf("want ErrFeedUnavailable, got %v", err)
	}

	if _, err := svc.GetLeaderboard(context.Background()); err == nil {
		t.Error("leaderboard without data should fail")
	}
}

func TestRefresh_PartialFeed(t *testing.T) {
	res := sampleResult()
	res.Failed = []string{"2250"}
	f := &fakeFeed{result: res, err: feed.ErrPartial}
	svc, _ := newService(t, f)

	view, err := svc.Current(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if view.Stale || len(view.Snapshot.Failed) != 1 {
		t.Errorf("partial data should be stored and flagged: %+v", view.Snapshot.Failed)
	}
	if out := svc.formatLeaderboard(view); !strings.Contains(out, "Incomplete") {
		t.Errorf("partial leaderboard should be flagged:\n%s", out)
	}
}

func TestCurrent_ConcurrentRequestsShareOneRefresh(t *testing.T) {
	f := &fakeFeed{
		result: sampleResult(),
		gate:   make(chan struct{}),
		inside: make(chan struct{}, 2),
	}
	svc, _ := newService(t, f)
	ctx := context.Background()

	var wg sync.WaitGroup
	views := make([]View, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		views[0], _ = svc.Current(ctx)
	}()
	<-f.inside

	wg.Add(1)
	go func() {
		defer wg.Done()
		views[1], _ = svc.Current(ctx)
	}()
	time.Sleep(20 * time.Millisecond)
	close(f.gate)
	wg.Wait()

	if f.count() != 1 {
		t.Errorf("second request should reuse the first refresh, feed calls: %d", f.count())
	}
	if views[0].Snapshot == nil || views[0].Snapshot != views[1].Snapshot {
		t.Error("both requests should see the same snapshot")
	}
}

func TestPerson(t *testing.T) {
	f := &fakeFeed{result: sampleResult()}
	svc, _ := newService(t, f)
	ctx := context.Background()

	detail, row, _, err := svc.Person(ctx, "ben")
	if err != nil {
		t.Fatal(err)
	}
	if detail.Person != "Ben" || row.Rank != 2 || len(detail.Teams) != 2 {
		t.Errorf("unexpected detail: %+v %+v", detail, row)
	}

	_, _, _, err = svc.Person(ctx, "xyz")
	if !errors.Is(err, ErrUnknownPerson) {
		t.Errorf("want ErrUnknownPerson, got %v", err)
	}
	if f.count() != 1 {
		t.Errorf("filtering must not refetch, feed calls: %d", f.count())
	}
}

func TestCurrent_WaitingCallerGivesUpWithContext(t *testing.T) {
	f := &fakeFeed{
		result: sampleResult(),
		gate:   make(chan struct{}),
		inside: make(chan struct{}, 1),
	}
	svc, _ := newService(t, f)

	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.Current(context.Background())
	}()
	<-f.inside

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := svc.Current(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("want context.DeadlineExceeded while the refresh runs, got %v", err)
	}

	close(f.gate)
	<-done
	if f.count() != 1 {
		t.Errorf("the abandoned caller must not poll the feed, calls: %d", f.count())
	}
}

func TestRefresh_CancelledCallerIsNotAFeedFailure(t *testing.T) {
	f := &fakeFeed{result: sampleResult()}
	svc, _ := newService(t, f)

	good, err := svc.Current(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f.set(feed.Result{}, context.Canceled)

	if _, err := svc.Refresh(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("want context.Canceled, got %v", err)
	}
	if svc.LastFailure() != nil {
		t.Error("a cancelled request must not be recorded as a feed failure")
	}

	f.set(sampleResult(), nil)
	view, err := svc.Current(context.Background())
	if err != nil || view.Stale || view.Snapshot == good.Snapshot {
		t.Errorf("next request should poll again: %+v %v", view, err)
	}
}
