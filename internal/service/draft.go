package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/omarshaarawi/draftboard/internal/api/feed"
	"github.com/omarshaarawi/draftboard/internal/leaderboard"
	"github.com/omarshaarawi/draftboard/internal/models"
	"github.com/omarshaarawi/draftboard/internal/repository/memory"
	"github.com/omarshaarawi/draftboard/internal/roster"
	"github.com/omarshaarawi/draftboard/internal/standings"
	"github.com/omarshaarawi/draftboard/internal/teams"
)

var (
	ErrFeedUnavailable = errors.New("game feed unavailable")
	ErrUnknownPerson   = errors.New("no drafter matches")
)

type Feed interface {
	Fetch(ctx context.Context) (feed.Result, error)
}

// View is what callers render: the snapshot to show and, when the latest
// poll failed, the error that made it stale.
type View struct {
	Snapshot *models.Snapshot
	Stale    bool
	Err      error
}

type DraftService struct {
	feed     Feed
	roster   *roster.Roster
	resolver *teams.Resolver
	repo     *memory.Repository
	clock    clockwork.Clock
	ttl      time.Duration
	location *time.Location

	// refreshing holds a token while a poll/recompute cycle runs.
	refreshing chan struct{}
}

func NewDraftService(f Feed, r *roster.Roster, repo *memory.Repository, clock clockwork.Clock, ttl time.Duration, location *time.Location) *DraftService {
	if location == nil {
		location = time.UTC
	}
	return &DraftService{
		feed:     f,
		roster:   r,
		resolver: teams.NewResolver(r.Teams()),
		repo:     repo,
		clock:    clock,
		ttl:      ttl,
		location: location,

		refreshing: make(chan struct{}, 1),
	}
}

// Current returns the cached snapshot while it is younger than the TTL and
// polls the feed otherwise.
func (s *DraftService) Current(ctx context.Context) (View, error) {
	if snap, ok := s.repo.Fresh(s.clock.Now(), s.ttl); ok {
		return View{Snapshot: snap}, nil
	}
	return s.refresh(ctx, false)
}

// Refresh ignores the TTL, drops the cached result and polls the feed.
func (s *DraftService) Refresh(ctx context.Context) (View, error) {
	return s.refresh(ctx, true)
}

// refresh runs one poll/recompute cycle. Only one cycle runs at a time; a
// caller that waited behind another cycle reuses its result unless forced.
// If the feed fails the last good snapshot is returned as stale, and an error
// is returned only when there is nothing to show.
func (s *DraftService) refresh(ctx context.Context, force bool) (View, error) {
	if err := s.lock(ctx); err != nil {
		return View{}, err
	}
	defer s.unlock()

	if force {
		s.repo.Invalidate()
	} else if snap, ok := s.repo.Fresh(s.clock.Now(), s.ttl); ok {
		return View{Snapshot: snap}, nil
	}

	id := uuid.NewString()
	start := s.clock.Now()

	res, err := s.feed.Fetch(ctx)
	if err != nil && ctx.Err() != nil {
		slog.Warn("Refresh abandoned by caller", "snapshot", id, "error", ctx.Err())
		return View{}, ctx.Err()
	}
	if err != nil && !errors.Is(err, feed.ErrPartial) {
		now := s.clock.Now()
		s.repo.SaveFailure(err, now)
		slog.Error("Failed to fetch games", "snapshot", id, "error", err)

		feedErr := fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
		prev := s.repo.GetSnapshot()
		if prev == nil {
			return View{}, feedErr
		}
		return View{Snapshot: prev, Stale: true, Err: feedErr}, nil
	}
	if err != nil {
		slog.Warn("Game feed incomplete", "snapshot", id, "failed", res.Failed, "error", err)
	}

	snap := s.build(id, s.clock.Now(), res)
	s.repo.SaveSnapshot(snap)

	slog.Info("Refreshed leaderboard",
		"snapshot", id,
		"games", len(snap.Games),
		"skipped", snap.Skipped,
		"unmatched", len(snap.Unmatched),
		"duration", s.clock.Since(start),
	)

	return View{Snapshot: snap}, nil
}

// lock waits for the running refresh to finish, or for ctx to be done.
func (s *DraftService) lock(ctx context.Context) error {
	select {
	case s.refreshing <- struct{}{}:
		return nil
	default:
	}
	select {
	case s.refreshing <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *DraftService) unlock() {
	<-s.refreshing
}

func (s *DraftService) build(id string, now time.Time, res feed.Result) *models.Snapshot {
	games := s.resolver.ResolveGames(res.Games)
	rows := standings.Compute(games, now)

	return &models.Snapshot{
		ID:          id,
		FetchedAt:   now,
		Games:       games,
		Standings:   rows,
		Leaderboard: leaderboard.Build(s.roster.Picks(), rows),
		Skipped:     res.Skipped,
		Failed:      res.Failed,
		Unmatched:   s.resolver.Unmatched(games, s.roster.Owners()),
	}
}

// Person returns one drafter's detail from the current snapshot.
func (s *DraftService) Person(ctx context.Context, query string) (models.PersonDetail, models.LeaderboardRow, View, error) {
	view, err := s.Current(ctx)
	if err != nil {
		return models.PersonDetail{}, models.LeaderboardRow{}, View{}, err
	}

	detail, row, ok := leaderboard.Filter(view.Snapshot.Leaderboard, query)
	if !ok {
		return models.PersonDetail{}, models.LeaderboardRow{}, view, fmt.Errorf("%w %q", ErrUnknownPerson, query)
	}
	return detail, row, view, nil
}

// LastFailure reports the most recent failed poll, if it has not been
// followed by a successful one.
func (s *DraftService) LastFailure() *memory.Failure {
	return s.repo.GetFailure()
}

func (s *DraftService) People() []string {
	return s.roster.People()
}
