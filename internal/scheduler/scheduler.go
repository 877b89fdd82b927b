package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Service is what the scheduled jobs need from the draft service.
type Service interface {
	RefreshLeaderboard(ctx context.Context) (string, error)
	GetLeaderboard(ctx context.Context) (string, error)
}

type Scheduler struct {
	s            gocron.Scheduler
	draftService Service
	sendMessage  func(string) error
	refreshCron  string
	postHour     uint
	timeout      time.Duration
}

type Options struct {
	RefreshCron string
	// PostHour is the local hour of the daily leaderboard post.
	PostHour uint
	Location *time.Location
	// SendMessage posts to the league chat; nil disables the daily post.
	SendMessage func(string) error
}

func NewScheduler(draftService Service, opts Options) (*Scheduler, error) {
	location := opts.Location
	if location == nil {
		location = time.UTC
	}

	s, err := gocron.NewScheduler(
		gocron.WithLocation(location),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Scheduler{
		s:            s,
		draftService: draftService,
		sendMessage:  opts.SendMessage,
		refreshCron:  opts.RefreshCron,
		postHour:     opts.PostHour,
		timeout:      2 * time.Minute,
	}, nil
}

func (s *Scheduler) Start() error {
	_, err := s.s.NewJob(
		gocron.CronJob(s.refreshCron, false),
		gocron.NewTask(s.refresh),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create refresh job: %w", err)
	}

	if s.sendMessage != nil {
		_, err = s.s.NewJob(
			gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(s.postHour, 0, 0))),
			gocron.NewTask(s.sendLeaderboard),
		)
		if err != nil {
			return fmt.Errorf("failed to create leaderboard job: %w", err)
		}
	}

	s.s.Start()
	return nil
}

func (s *Scheduler) Stop() error {
	return s.s.Shutdown()
}

func (s *Scheduler) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.draftService.RefreshLeaderboard(ctx); err != nil {
		slog.Error("Scheduled refresh failed", "error", err)
	}
}

func (s *Scheduler) sendLeaderboard() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	board, err := s.draftService.GetLeaderboard(ctx)
	if err != nil {
		slog.Error("Failed to get leaderboard", "error", err)
		return
	}
	if err := s.sendMessage(board); err != nil {
		slog.Error("Failed to post leaderboard", "error", err)
	}
}
