package models

import (
	"encoding/json"
	"fmt"
	"time"
)

type GameStatus int

const (
	StatusScheduled GameStatus = iota
	StatusInProgress
	StatusFinal
)

func (s GameStatus) String() string {
	switch s {
	case StatusInProgress:
		return "in-progress"
	case StatusFinal:
		return "final"
	default:
		return "scheduled"
	}
}

func (s GameStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// TeamRef is one side of a game as reported by the feed. Key is filled in by
// identity resolution and is what standings are grouped on.
type TeamRef struct {
	Key       string `json:"key"`
	ID        string `json:"espnId,omitempty"`
	Name      string `json:"name"`
	ShortName string `json:"-"`
	Location  string `json:"-"`
}

type Game struct {
	ID        string     `json:"id"`
	Home      TeamRef    `json:"home"`
	Away      TeamRef    `json:"away"`
	HomeScore *int       `json:"homeScore,omitempty"`
	AwayScore *int       `json:"awayScore,omitempty"`
	Scheduled time.Time  `json:"scheduled"`
	Status    GameStatus `json:"status"`
}

// Decided reports whether both scores are present and unequal.
func (g Game) Decided() bool {
	return g.HomeScore != nil && g.AwayScore != nil && *g.HomeScore != *g.AwayScore
}

// Result returns the winner and loser of a decided game.
func (g Game) Result() (winner, loser TeamRef, ok bool) {
	if !g.Decided() {
		return TeamRef{}, TeamRef{}, false
	}
	if *g.HomeScore > *g.AwayScore {
		return g.Home, g.Away, true
	}
	return g.Away, g.Home, true
}

// TeamIdentity is a roster team: its canonical display name, the identity key
// derived from it and the optional ESPN team id.
type TeamIdentity struct {
	Key     string   `json:"key"`
	Name    string   `json:"name"`
	ESPNID  string   `json:"espnId,omitempty"`
	Aliases []string `json:"aliases,omitempty"`
}

type DraftPick struct {
	Team   TeamIdentity `json:"team"`
	Person string       `json:"person"`
}

type StreakResult byte

const (
	StreakNone StreakResult = 0
	StreakWin  StreakResult = 'W'
	StreakLoss StreakResult = 'L'
)

type Streak struct {
	Result StreakResult
	Length int
}

func (s Streak) String() string {
	if s.Result == StreakNone || s.Length == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%c%d", s.Result, s.Length)
}

func (s Streak) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

type NextGame struct {
	GameID   string    `json:"gameId"`
	Opponent string    `json:"opponent"`
	Time     time.Time `json:"time"`
	Home     bool      `json:"home"`
}

type Standing struct {
	TeamKey  string    `json:"teamKey"`
	Team     string    `json:"team"`
	Wins     int       `json:"wins"`
	Losses   int       `json:"losses"`
	WinPct   float64   `json:"winPct"`
	Streak   Streak    `json:"streak"`
	NextGame *NextGame `json:"nextGame,omitempty"`
}

// TeamLine is one drafted team on a person's detail view. NoData marks a pick
// whose team never appeared in the feed, as opposed to a team that appeared
// but has no decided games yet.
type TeamLine struct {
	Team     string    `json:"team"`
	TeamKey  string    `json:"teamKey,omitempty"`
	Wins     int       `json:"wins"`
	Losses   int       `json:"losses"`
	WinPct   float64   `json:"winPct"`
	Streak   Streak    `json:"streak"`
	NextGame *NextGame `json:"nextGame,omitempty"`
	NoData   bool      `json:"noData,omitempty"`
}

type LeaderboardRow struct {
	Rank      int     `json:"rank"`
	Person    string  `json:"person"`
	AvgWinPct float64 `json:"avgWinPct"`
	Wins      int     `json:"wins"`
	Losses    int     `json:"losses"`
	Teams     int     `json:"teams"`
}

type PersonDetail struct {
	Person string     `json:"person"`
	Teams  []TeamLine `json:"teams"`
	Totals TeamLine   `json:"totals"`
}

// Leaderboard holds the ranked rows and, in the same order, each person's
// per-team breakdown.
type Leaderboard struct {
	Rows    []LeaderboardRow `json:"rows"`
	Details []PersonDetail   `json:"details"`
}

type UnmatchedTeam struct {
	Team        string   `json:"team"`
	Person      string   `json:"person"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Snapshot is everything derived from one successful feed poll.
type Snapshot struct {
	ID          string          `json:"id"`
	FetchedAt   time.Time       `json:"fetchedAt"`
	Games       []Game          `json:"-"`
	Standings   []Standing      `json:"standings"`
	Leaderboard Leaderboard     `json:"leaderboard"`
	Skipped     int             `json:"skipped"`
	Failed      []string        `json:"failed,omitempty"`
	Unmatched   []UnmatchedTeam `json:"unmatched,omitempty"`
}
