// Package leaderboard aggregates team standings into a per-person ranking.
package leaderboard

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/omarshaarawi/draftboard/internal/models"
	"github.com/omarshaarawi/draftboard/internal/standings"
)

// Build joins picks to standings and ranks people by the mean win percentage
// of their drafted teams. A pick whose team has no standing counts as 0-0 with
// a 0 win percentage and is flagged NoData. Each team weighs the same in the
// mean regardless of games played. People with equal averages keep the order
// in which they first appear in picks.
func Build(picks []models.DraftPick, rows []models.Standing) models.Leaderboard {
	idx := standings.Index(rows)

	var people []string
	details := make(map[string]*models.PersonDetail)

	for _, p := range picks {
		d, ok := details[p.Person]
		if !ok {
			d = &models.PersonDetail{Person: p.Person}
			details[p.Person] = d
			people = append(people, p.Person)
		}
		d.Teams = append(d.Teams, line(p, idx))
	}

	lb := models.Leaderboard{
		Rows:    make([]models.LeaderboardRow, 0, len(people)),
		Details: make([]models.PersonDetail, 0, len(people)),
	}

	for _, person := range people {
		d := details[person]
		d.Totals = totals(d.Teams)
		lb.Rows = append(lb.Rows, models.LeaderboardRow{
			Person:    person,
			AvgWinPct: d.Totals.WinPct,
			Wins:      d.Totals.Wins,
			Losses:    d.Totals.Losses,
			Teams:     len(d.Teams),
		})
	}

	sort.SliceStable(lb.Rows, func(i, j int) bool {
		return lb.Rows[i].AvgWinPct > lb.Rows[j].AvgWinPct
	})

	for i := range lb.Rows {
		lb.Rows[i].Rank = i + 1
		lb.Details = append(lb.Details, *details[lb.Rows[i].Person])
	}

	return lb
}

func line(p models.DraftPick, idx map[string]models.Standing) models.TeamLine {
	s, ok := idx[p.Team.Key]
	if !ok {
		return models.TeamLine{
			Team:    p.Team.Name,
			TeamKey: p.Team.Key,
			NoData:  true,
		}
	}
	return models.TeamLine{
		Team:     p.Team.Name,
		TeamKey:  p.Team.Key,
		Wins:     s.Wins,
		Losses:   s.Losses,
		WinPct:   s.WinPct,
		Streak:   s.Streak,
		NextGame: s.NextGame,
	}
}

func totals(lines []models.TeamLine) models.TeamLine {
	t := models.TeamLine{Team: "Total"}
	if len(lines) == 0 {
		return t
	}

	var sum float64
	for _, l := range lines {
		t.Wins += l.Wins
		t.Losses += l.Losses
		sum += l.WinPct
	}
	t.WinPct = sum / float64(len(lines))
	return t
}

// Filter narrows the leaderboard to one person. An exact case-insensitive name
// wins; otherwise the closest fuzzy match is used.
func Filter(lb models.Leaderboard, query string) (models.PersonDetail, models.LeaderboardRow, bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return models.PersonDetail{}, models.LeaderboardRow{}, false
	}

	i := find(lb, query)
	if i < 0 {
		return models.PersonDetail{}, models.LeaderboardRow{}, false
	}
	return lb.Details[i], lb.Rows[i], true
}

func find(lb models.Leaderboard, query string) int {
	names := make([]string, len(lb.Rows))
	for i, r := range lb.Rows {
		if strings.EqualFold(r.Person, query) {
			return i
		}
		names[i] = r.Person
	}

	ranks := fuzzy.RankFindNormalizedFold(query, names)
	if len(ranks) == 0 {
		return -1
	}
	sort.Sort(ranks)
	return ranks[0].OriginalIndex
}
