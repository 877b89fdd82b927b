// Package standings turns a set of game records into per-team win/loss
// records, streaks and next scheduled games.
package standings

import (
	"sort"
	"time"

	"github.com/omarshaarawi/draftboard/internal/models"
)

// table is an arena of standings addressed by team key. Rows are kept in the
// order their team first appears in the input.
type table struct {
	index map[string]int
	rows  []models.Standing
}

func newTable(size int) *table {
	return &table{
		index: make(map[string]int, size),
		rows:  make([]models.Standing, 0, size),
	}
}

func (t *table) add(team models.TeamRef) int {
	i, ok := t.index[team.Key]
	if !ok {
		i = len(t.rows)
		t.index[team.Key] = i
		t.rows = append(t.rows, models.Standing{TeamKey: team.Key, Team: team.Name})
	}
	return i
}

// Compute derives one Standing per team appearing in games. Records, streaks
// and next games do not depend on the order of games; rows follow the order in
// which teams first appear.
func Compute(games []models.Game, now time.Time) []models.Standing {
	t := newTable(len(games) * 2)

	for _, g := range games {
		home := t.add(g.Home)
		away := t.add(g.Away)

		winner, _, ok := g.Result()
		if !ok {
			continue
		}
		if winner.Key == g.Home.Key {
			t.rows[home].Wins++
			t.rows[away].Losses++
		} else {
			t.rows[away].Wins++
			t.rows[home].Losses++
		}
	}

	for i := range t.rows {
		t.rows[i].WinPct = WinPct(t.rows[i].Wins, t.rows[i].Losses)
	}

	applyStreaks(t, chronological(games))
	applyNextGames(t, games, now)

	return t.rows
}

// WinPct is wins/(wins+losses), or 0 when the team has no decided games.
func WinPct(wins, losses int) float64 {
	if wins+losses == 0 {
		return 0
	}
	return float64(wins) / float64(wins+losses)
}

// chronological returns the games that count toward streaks, oldest first:
// every decided game plus every final game without a winner. Games at the
// same instant are ordered by id so the result does not depend on input order.
func chronological(games []models.Game) []models.Game {
	played := make([]models.Game, 0, len(games))
	for _, g := range games {
		if g.Decided() || g.Status == models.StatusFinal {
			played = append(played, g)
		}
	}

	sort.SliceStable(played, func(i, j int) bool {
		if !played[i].Scheduled.Equal(played[j].Scheduled) {
			return played[i].Scheduled.Before(played[j].Scheduled)
		}
		return played[i].ID < played[j].ID
	})

	return played
}

// applyStreaks walks played games oldest first, extending a team's run when
// the result repeats and restarting it otherwise. A final game that is tied or
// missing a score clears both teams' runs. The value left after the walk is
// the run ending at each team's latest game.
func applyStreaks(t *table, played []models.Game) {
	for _, g := range played {
		winner, loser, ok := g.Result()
		if !ok {
			t.rows[t.index[g.Home.Key]].Streak = models.Streak{}
			t.rows[t.index[g.Away.Key]].Streak = models.Streak{}
			continue
		}
		extend(&t.rows[t.index[winner.Key]].Streak, models.StreakWin)
		extend(&t.rows[t.index[loser.Key]].Streak, models.StreakLoss)
	}
}

func extend(s *models.Streak, result models.StreakResult) {
	if s.Result == result {
		s.Length++
		return
	}
	s.Result = result
	s.Length = 1
}

func applyNextGames(t *table, games []models.Game, now time.Time) {
	for _, g := range games {
		if g.Status != models.StatusScheduled || !g.Scheduled.After(now) {
			continue
		}
		setNext(&t.rows[t.index[g.Home.Key]], g, g.Away, true)
		setNext(&t.rows[t.index[g.Away.Key]], g, g.Home, false)
	}
}

func setNext(s *models.Standing, g models.Game, opponent models.TeamRef, home bool) {
	if s.NextGame != nil {
		if s.NextGame.Time.Before(g.Scheduled) {
			return
		}
		if s.NextGame.Time.Equal(g.Scheduled) && s.NextGame.GameID <= g.ID {
			return
		}
	}
	s.NextGame = &models.NextGame{
		GameID:   g.ID,
		Opponent: opponent.Name,
		Time:     g.Scheduled,
		Home:     home,
	}
}

// Index returns a lookup of standings by team key.
func Index(standings []models.Standing) map[string]models.Standing {
	idx := make(map[string]models.Standing, len(standings))
	for _, s := range standings {
		idx[s.TeamKey] = s
	}
	return idx
}
