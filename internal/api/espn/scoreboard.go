package espn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/omarshaarawi/draftboard/internal/models"
)

// ESPN sometimes drops the seconds from event dates.
const shortDateLayout = "2006-01-02T15:04Z07:00"

// Batch is the games parsed from one feed response and the number of events
// that were skipped because they could not be read.
type Batch struct {
	Games   []models.Game
	Skipped int
}

type API struct {
	client *Client
}

func NewAPI(client *Client) *API {
	return &API{client: client}
}

// Scoreboard fetches the scoreboard for the configured dates.
func (a *API) Scoreboard(ctx context.Context) (Batch, error) {
	var resp models.ScoreboardResponse
	params := map[string]string{
		"dates":  a.client.Config.Dates,
		"groups": a.client.Config.Groups,
	}
	if a.client.Config.Limit > 0 {
		params["limit"] = strconv.Itoa(a.client.Config.Limit)
	}

	if err := a.client.Get(ctx, "/scoreboard", params, &resp); err != nil {
		return Batch{}, fmt.Errorf("fetching scoreboard: %w", err)
	}

	return a.parseEvents(resp.Events), nil
}

// TeamSchedule fetches the full season schedule of one team.
func (a *API) TeamSchedule(ctx context.Context, teamID string) (Batch, error) {
	var resp models.ScheduleResponse
	endpoint := fmt.Sprintf("/teams/%s/schedule", teamID)

	if err := a.client.Get(ctx, endpoint, nil, &resp); err != nil {
		return Batch{}, fmt.Errorf("fetching schedule for team %s: %w", teamID, err)
	}

	return a.parseEvents(resp.Events), nil
}

func (a *API) parseEvents(events []models.Event) Batch {
	batch := Batch{Games: make([]models.Game, 0, len(events))}

	for _, event := range events {
		game, err := parseEvent(event, a.client.Config.CountLiveGames)
		if err != nil {
			slog.Warn("Skipping game", "event", event.ID, "error", err)
			batch.Skipped++
			continue
		}
		batch.Games = append(batch.Games, game)
	}

	return batch
}

func parseEvent(event models.Event, countLive bool) (models.Game, error) {
	if len(event.Competitions) == 0 {
		return models.Game{}, errors.New("no competitions")
	}
	comp := event.Competitions[0]

	var home, away *models.Competitor
	for i := range comp.Competitors {
		switch comp.Competitors[i].HomeAway {
		case "home":
			home = &comp.Competitors[i]
		case "away":
			away = &comp.Competitors[i]
		}
	}
	if home == nil || away == nil {
		return models.Game{}, errors.New("missing home or away competitor")
	}

	date := event.Date
	if date == "" {
		date = comp.Date
	}
	scheduled, err := parseDate(date)
	if err != nil {
		return models.Game{}, err
	}

	status := event.Status
	if status == nil {
		status = comp.Status
	}
	gameStatus, completed := parseStatus(status)

	game := models.Game{
		ID:        event.ID,
		Home:      teamRef(home.Team),
		Away:      teamRef(away.Team),
		Scheduled: scheduled,
		Status:    gameStatus,
	}
	if game.ID == "" {
		game.ID = comp.ID
	}
	if game.ID == "" {
		return models.Game{}, errors.New("missing event id")
	}

	keepScores := (gameStatus == models.StatusFinal && completed) ||
		(gameStatus == models.StatusInProgress && countLive)
	if !keepScores {
		return game, nil
	}

	if home.Score.Invalid || away.Score.Invalid {
		return models.Game{}, fmt.Errorf("unreadable score %q-%q", home.Score.Raw, away.Score.Raw)
	}
	if home.Score.Present {
		v := home.Score.Value
		game.HomeScore = &v
	}
	if away.Score.Present {
		v := away.Score.Value
		game.AwayScore = &v
	}

	return game, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("missing date")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(shortDateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unreadable date %q", s)
	}
	return t, nil
}

// parseStatus maps the feed's status to a game status and reports whether
// the feed marked the game completed. Postponed and canceled games come back
// as "post" without completion: they are over but carry no result.
func parseStatus(status *models.EventStatus) (models.GameStatus, bool) {
	if status == nil {
		return models.StatusScheduled, false
	}
	if status.Type.Completed {
		return models.StatusFinal, true
	}

	switch status.Type.State {
	case "in":
		return models.StatusInProgress, false
	case "post":
		return models.StatusFinal, false
	default:
		return models.StatusScheduled, false
	}
}

func teamRef(t models.EventTeam) models.TeamRef {
	name := t.DisplayName
	if name == "" {
		name = t.Location
	}
	return models.TeamRef{
		ID:        t.ID,
		Name:      name,
		ShortName: t.ShortDisplayName,
		Location:  t.Location,
	}
}
