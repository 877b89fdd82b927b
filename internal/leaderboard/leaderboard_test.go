package leaderboard

import (
	"reflect"
	"testing"

	"github.com/omarshaarawi/draftboard/internal/models"
)

func pick(person, team string) models.DraftPick {
	return models.DraftPick{Person: person, Team: models.TeamIdentity{Key: team, Name: team}}
}

func standing(team string, wins, losses int, streak models.Streak) models.Standing {
	s := models.Standing{TeamKey: team, Team: team, Wins: wins, Losses: losses, Streak: streak}
	if wins+losses > 0 {
		s.WinPct = float64(wins) / float64(wins+losses)
	}
	return s
}

func TestBuild_Averages(t *testing.T) {
	picks := []models.DraftPick{pick("A", "X"), pick("A", "Y")}
	rows := []models.Standing{
		standing("X", 2, 0, models.Streak{Result: models.StreakWin, Length: 2}),
		standing("Y", 1, 1, models.Streak{Result: models.StreakLoss, Length: 1}),
	}

	lb := Build(picks, rows)

	if len(lb.Rows) != 1 {
		t.Fatalf("want 1 row, got %d", len(lb.Rows))
	}
	row := lb.Rows[0]
	if row.AvgWinPct != 0.75 || row.Wins != 3 || row.Losses != 1 || row.Teams != 2 || row.Rank != 1 {
		t.Errorf("unexpected row: %+v", row)
	}

	d := lb.Details[0]
	if d.Totals.Team != "Total" || d.Totals.Wins != 3 || d.Totals.Losses != 1 || d.Totals.WinPct != 0.75 {
		t.Errorf("unexpected totals: %+v", d.Totals)
	}
	if d.Teams[0].Streak.String() != "W2" || d.Teams[1].Streak.String() != "L1" {
		t.Errorf("unexpected streaks: %s %s", d.Teams[0].Streak, d.Teams[1].Streak)
	}
}

func TestBuild_MissingStandingCountsAsZero(t *testing.T) {
	picks := []models.DraftPick{pick("A", "X"), pick("A", "Ghost"), pick("B", "Z")}
	rows := []models.Standing{
		standing("X", 3, 1, models.Streak{Result: models.StreakWin, Length: 1}),
		standing("Z", 0, 0, models.Streak{}),
	}

	lb := Build(picks, rows)

	if lb.Rows[0].Person != "A" || lb.Rows[0].AvgWinPct != 0.375 {
		t.Errorf("A should average (0.75+0)/2, got %+v", lb.Rows[0])
	}

	ghost := lb.Details[0].Teams[1]
	if !ghost.NoData || ghost.Wins != 0 || ghost.Losses != 0 || ghost.WinPct != 0 || ghost.Streak.String() != "N/A" {
		t.Errorf("unexpected line for missing team: %+v", ghost)
	}

	z := lb.Details[1].Teams[0]
	if z.NoData {
		t.Error("team with a standing but no decided games must not be NoData")
	}
	if z.Streak.String() != "N/A" || z.WinPct != 0 {
		t.Errorf("unexpected line for winless team: %+v", z)
	}
}

func TestBuild_SortAndTies(t *testing.T) {
	picks := []models.DraftPick{
		pick("Cat", "C1"),
		pick("Ann", "A1"),
		pick("Bob", "B1"),
		pick("Dan", "D1"),
		pick("Ann", "A2"),
	}
	rows := []models.Standing{
		standing("C1", 1, 1, models.Streak{}),
		standing("A1", 1, 0, models.Streak{}),
		standing("A2", 0, 1, models.Streak{}),
		standing("B1", 3, 0, models.Streak{}),
		standing("D1", 2, 2, models.Streak{}),
	}

	lb := Build(picks, rows)

	var order []string
	for _, r := range lb.Rows {
		order = append(order, r.Person)
	}
	// Cat, Ann and Dan all average 0.5 and keep roster order
	want := []string{"Bob", "Cat", "Ann", "Dan"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("want %v, got %v", want, order)
	}

	for i, r := range lb.Rows {
		if r.Rank != i+1 {
			t.Errorf("%s: want rank %d, got %d", r.Person, i+1, r.Rank)
		}
		if lb.Details[i].Person != r.Person {
			t.Errorf("detail %d is %s, row is %s", i, lb.Details[i].Person, r.Person)
		}
	}
}

func TestBuild_RowCountMatchesPeople(t *testing.T) {
	picks := []models.DraftPick{
		pick("A", "1"), pick("B", "2"), pick("A", "3"), pick("C", "4"), pick("B", "5"), pick("A", "6"),
	}

	lb := Build(picks, nil)

	if len(lb.Rows) != 3 {
		t.Fatalf("want 3 rows, got %d", len(lb.Rows))
	}
	var teams int
	for _, r := range lb.Rows {
		teams += r.Teams
	}
	if teams != len(picks) {
		t.Errorf("team count %d does not match %d picks", teams, len(picks))
	}
}

func TestBuild_Deterministic(t *testing.T) {
	picks := []models.DraftPick{pick("A", "X"), pick("B", "Y")}
	rows := []models.Standing{standing("X", 1, 1, models.Streak{}), standing("Y", 1, 1, models.Streak{})}

	if !reflect.DeepEqual(Build(picks, rows), Build(picks, rows)) {
		t.Error("same input produced different leaderboards")
	}
}

func TestFilter(t *testing.T) {
	picks := []models.DraftPick{pick("Logan", "X"), pick("Nick", "Y"), pick("Nico", "Z")}
	lb := Build(picks, nil)

	tests := []struct {
		query string
		want  string
		ok    bool
	}{
		{"nick", "Nick", true},
		{"NICO", "Nico", true},
		{"lgn", "Logan", true},
		{"zzz", "", false},
		{" ", "", false},
	}

	for _, tt := range tests {
		d, row, ok := Filter(lb, tt.query)
		if ok != tt.ok {
			t.Errorf("%q: want ok=%v, got %v", tt.query, tt.ok, ok)
			continue
		}
		if ok && (d.Person != tt.want || row.Person != tt.want) {
			t.Errorf("%q: want %s, got %s/%s", tt.query, tt.want, d.Person, row.Person)
		}
	}
}
