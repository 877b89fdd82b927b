package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/omarshaarawi/draftboard/internal/models"
)

func (s *DraftService) GetLeaderboard(ctx context.Context) (string, error) {
	view, err := s.Current(ctx)
	if err != nil {
		return "", fmt.Errorf("error fetching leaderboard: %w", err)
	}
	return s.formatLeaderboard(view), nil
}

func (s *DraftService) RefreshLeaderboard(ctx context.Context) (string, error) {
	view, err := s.Refresh(ctx)
	if err != nil {
		return "", fmt.Errorf("error refreshing leaderboard: %w", err)
	}
	return s.formatLeaderboard(view), nil
}

func (s *DraftService) GetPerson(ctx context.Context, query string) (string, error) {
	detail, row, view, err := s.Person(ctx, query)
	if errors.Is(err, ErrUnknownPerson) {
		return fmt.Sprintf("🔍 No drafter matching '%s'. Drafters: %s",
			escape(query), escape(strings.Join(s.People(), ", "))), nil
	}
	if err != nil {
		return "", fmt.Errorf("error fetching drafter: %w", err)
	}
	return s.formatPerson(view, detail, row), nil
}

func (s *DraftService) GetStandings(ctx context.Context) (string, error) {
	view, err := s.Current(ctx)
	if err != nil {
		return "", fmt.Errorf("error fetching standings: %w", err)
	}
	return s.formatStandings(view), nil
}

func (s *DraftService) GetIssues(ctx context.Context) (string, error) {
	view, err := s.Current(ctx)
	if err != nil {
		return "", fmt.Errorf("error fetching data quality report: %w", err)
	}
	return s.formatIssues(view), nil
}

func (s *DraftService) formatLeaderboard(view View) string {
	var sb strings.Builder
	sb.WriteString("🏀 *CBB Draft Leaderboard*\n\n")

	sb.WriteString("```\n")
	sb.WriteString(fmt.Sprintf("%-3s %-10s %6s %7s\n", "#", "Drafter", "Avg", "W-L"))
	for _, row := range view.Snapshot.Leaderboard.Rows {
		sb.WriteString(fmt.Sprintf("%-3s %-10s %6s %7s\n",
			fmt.Sprintf("%d.", row.Rank),
			row.Person,
			pct(row.AvgWinPct),
			record(row.Wins, row.Losses)))
	}
	sb.WriteString("```\n")

	s.writeFooter(&sb, view)
	return sb.String()
}

func (s *DraftService) formatPerson(view View, detail models.PersonDetail, row models.LeaderboardRow) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 *%s's Teams* (#%d)\n\n", escape(detail.Person), row.Rank))

	sb.WriteString("```\n")
	sb.WriteString(fmt.Sprintf("%-16s %7s %6s %5s  %s\n", "Team", "W-L", "Pct", "Strk", "Next"))
	missing := false
	for _, line := range detail.Teams {
		name := line.Team
		if line.NoData {
			name += "*"
			missing = true
		}
		sb.WriteString(fmt.Sprintf("%-16s %7s %6s %5s  %s\n",
			name,
			record(line.Wins, line.Losses),
			pct(line.WinPct),
			line.Streak,
			s.nextGame(line.NextGame)))
	}
	sb.WriteString(fmt.Sprintf("%-16s %7s %6s\n",
		detail.Totals.Team,
		record(detail.Totals.Wins, detail.Totals.Losses),
		pct(detail.Totals.WinPct)))
	sb.WriteString("```\n")

	if missing {
		sb.WriteString("\\* not found in the feed, counted as 0-0\n")
	}

	s.writeFooter(&sb, view)
	return sb.String()
}

func (s *DraftService) formatStandings(view View) string {
	owners := make(map[string]string)
	var lines []models.TeamLine
	for _, d := range view.Snapshot.Leaderboard.Details {
		for _, l := range d.Teams {
			owners[l.TeamKey] = d.Person
			lines = append(lines, l)
		}
	}
	sort.SliceStable(lines, func(i, j int) bool {
		if lines[i].WinPct != lines[j].WinPct {
			return lines[i].WinPct > lines[j].WinPct
		}
		return lines[i].Wins > lines[j].Wins
	})

	var sb strings.Builder
	sb.WriteString("📊 *Drafted Team Standings*\n\n")
	sb.WriteString("```\n")
	sb.WriteString(fmt.Sprintf("%-16s %-8s %7s %6s %5s\n", "Team", "Drafter", "W-L", "Pct", "Strk"))
	for _, l := range lines {
		sb.WriteString(fmt.Sprintf("%-16s %-8s %7s %6s %5s\n",
			l.Team, owners[l.TeamKey], record(l.Wins, l.Losses), pct(l.WinPct), l.Streak))
	}
	sb.WriteString("```\n")

	s.writeFooter(&sb, view)
	return sb.String()
}

func (s *DraftService) formatIssues(view View) string {
	snap := view.Snapshot

	var sb strings.Builder
	sb.WriteString("🩺 *Data Quality*\n\n")

	if len(snap.Unmatched) == 0 && snap.Skipped == 0 && len(snap.Failed) == 0 && !view.Stale {
		sb.WriteString("Every drafted team was found in the feed.\n")
		s.writeFooter(&sb, view)
		return sb.String()
	}

	if len(snap.Unmatched) > 0 {
		sb.WriteString(fmt.Sprintf("*Not found in feed (%d):*\n", len(snap.Unmatched)))
		for _, u := range snap.Unmatched {
			sb.WriteString(fmt.Sprintf("  • %s (%s)", escape(u.Team), escape(u.Person)))
			if len(u.Suggestions) > 0 {
				sb.WriteString(fmt.Sprintf(" - did you mean %s?", escape(strings.Join(u.Suggestions, ", "))))
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	if snap.Skipped > 0 {
		sb.WriteString(fmt.Sprintf("Skipped %d unreadable game records.\n", snap.Skipped))
	}
	if len(snap.Failed) > 0 {
		sb.WriteString(fmt.Sprintf("Schedules failed for team ids: %s\n", strings.Join(snap.Failed, ", ")))
	}

	s.writeFooter(&sb, view)
	return sb.String()
}

func (s *DraftService) writeFooter(sb *strings.Builder, view View) {
	now := s.clock.Now()
	fetched := view.Snapshot.FetchedAt
	sb.WriteString(fmt.Sprintf("\n_Last updated: %s (%s)_",
		fetched.In(s.location).Format("2006-01-02 15:04 MST"),
		humanize.RelTime(fetched, now, "ago", "from now")))

	if view.Stale {
		sb.WriteString("\n⚠️ Feed unavailable, showing the last good data.")
	}
	if len(view.Snapshot.Failed) > 0 {
		sb.WriteString(fmt.Sprintf("\n⚠️ Incomplete: %d team schedules could not be loaded.", len(view.Snapshot.Failed)))
	}
	if n := len(view.Snapshot.Unmatched); n > 0 {
		sb.WriteString(fmt.Sprintf("\n⚠️ %d drafted teams not found in the feed, see /issues.", n))
	}
}

func (s *DraftService) nextGame(next *models.NextGame) string {
	if next == nil {
		return "N/A"
	}
	at := "@"
	if next.Home {
		at = "vs"
	}
	return fmt.Sprintf("%s %s %s", next.Time.In(s.location).Format("01/02"), at, next.Opponent)
}

// pct renders a win percentage the way box scores do: .750, 1.000.
func pct(p float64) string {
	return strings.TrimPrefix(fmt.Sprintf("%.3f", p), "0")
}

// escape makes user or roster text safe inside a Markdown message.
func escape(text string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, text)
}

func record(wins, losses int) string {
	return fmt.Sprintf("%d-%d", wins, losses)
}

// Age reports how long ago the snapshot was fetched.
func (s *DraftService) Age(snap *models.Snapshot) time.Duration {
	return s.clock.Since(snap.FetchedAt)
}
