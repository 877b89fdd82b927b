// Package feed turns the ESPN endpoints into one game feed for the draft:
// either a single scoreboard call or one schedule call per drafted team.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/omarshaarawi/draftboard/internal/api/espn"
	"github.com/omarshaarawi/draftboard/internal/config"
	"github.com/omarshaarawi/draftboard/internal/models"
)

// ErrPartial is returned with a usable Result when some per-team calls
// failed. Result.Failed names the teams whose games may be missing.
var ErrPartial = errors.New("feed returned partial data")

type Result struct {
	Games   []models.Game
	Skipped int
	Failed  []string
}

// Source is what the ESPN API offers the feed.
type Source interface {
	Scoreboard(ctx context.Context) (espn.Batch, error)
	TeamSchedule(ctx context.Context, teamID string) (espn.Batch, error)
}

type API struct {
	source  Source
	mode    string
	teamIDs []string
	workers int
}

// NewAPI builds a feed. teamIDs is only used in schedule mode.
func NewAPI(source Source, mode string, teamIDs []string, workers int) *API {
	if workers <= 0 {
		workers = 1
	}
	return &API{
		source:  source,
		mode:    mode,
		teamIDs: teamIDs,
		workers: workers,
	}
}

func (a *API) Fetch(ctx context.Context) (Result, error) {
	if a.mode == config.ModeSchedule {
		return a.fetchSchedules(ctx)
	}

	batch, err := a.source.Scoreboard(ctx)
	if err != nil {
		return Result{}, err
	}
	return Result{Games: batch.Games, Skipped: batch.Skipped}, nil
}

type teamResult struct {
	teamID string
	batch  espn.Batch
	err    error
}

// fetchSchedules polls every team in parallel and waits for all of them
// before merging. The same game shows up on both teams' schedules, so games
// are merged by event id.
func (a *API) fetchSchedules(ctx context.Context) (Result, error) {
	if len(a.teamIDs) == 0 {
		return Result{}, errors.New("schedule mode needs roster teams with espn ids")
	}

	jobs := make(chan string)
	results := make([]teamResult, len(a.teamIDs))
	index := make(map[string]int, len(a.teamIDs))
	for i, id := range a.teamIDs {
		index[id] = i
	}

	var wg sync.WaitGroup
	for w := 0; w < min(a.workers, len(a.teamIDs)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				batch, err := a.source.TeamSchedule(ctx, id)
				results[index[id]] = teamResult{teamID: id, batch: batch, err: err}
			}
		}()
	}

	for _, id := range a.teamIDs {
		jobs <- id
	}
	close(jobs)
	wg.Wait()

	var res Result
	seen := make(map[string]bool)
	var lastErr error

	for _, r := range results {
		if r.err != nil {
			slog.Error("Failed to fetch team schedule", "team", r.teamID, "error", r.err)
			res.Failed = append(res.Failed, r.teamID)
			lastErr = r.err
			continue
		}
		res.Skipped += r.batch.Skipped
		for _, g := range r.batch.Games {
			if g.ID != "" {
				if seen[g.ID] {
					continue
				}
				seen[g.ID] = true
			}
			res.Games = append(res.Games, g)
		}
	}

	if len(res.Failed) == len(a.teamIDs) {
		return Result{}, fmt.Errorf("all %d team schedules failed: %w", len(a.teamIDs), lastErr)
	}

	sort.Strings(res.Failed)
	if len(res.Failed) > 0 {
		return res, fmt.Errorf("%w: %d of %d teams failed", ErrPartial, len(res.Failed), len(a.teamIDs))
	}
	return res, nil
}
