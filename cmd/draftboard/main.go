package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"
	"github.com/omarshaarawi/draftboard/internal/api/espn"
	"github.com/omarshaarawi/draftboard/internal/api/feed"
	"github.com/omarshaarawi/draftboard/internal/bot"
	"github.com/omarshaarawi/draftboard/internal/config"
	"github.com/omarshaarawi/draftboard/internal/httpapi"
	"github.com/omarshaarawi/draftboard/internal/repository/memory"
	"github.com/omarshaarawi/draftboard/internal/roster"
	"github.com/omarshaarawi/draftboard/internal/scheduler"
	"github.com/omarshaarawi/draftboard/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Error running application", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file loaded", "error", err)
	}

	cfg, err := config.New()
	if err != nil {
		return err
	}
	location, err := cfg.Location()
	if err != nil {
		return err
	}

	draft, err := loadRoster(cfg.Draft.RosterFile)
	if err != nil {
		return err
	}

	teamIDs, missing := draft.ESPNIDs()
	if cfg.ESPNAPI.Mode == config.ModeSchedule && len(missing) > 0 {
		return fmt.Errorf("schedule mode needs an espn_id for every team, missing: %s", strings.Join(missing, ", "))
	}

	espnClient := espn.NewClient(cfg.ESPNAPI)
	espnAPI := espn.NewAPI(espnClient)
	gameFeed := feed.NewAPI(espnAPI, cfg.ESPNAPI.Mode, teamIDs, cfg.ESPNAPI.Workers)

	repo := memory.NewRepository()
	draftService := service.NewDraftService(gameFeed, draft, repo, clockwork.NewRealClock(), cfg.Draft.CacheTTL, location)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sendMessage func(string) error
	if cfg.TelegramBot.Token == "" {
		slog.Info("TELEGRAM_TOKEN not set, chat bot disabled")
	} else {
		telegramBot, err := bot.NewTelegramBot(cfg.TelegramBot.Token, cfg.TelegramBot.ChatID, draftService)
		if err != nil {
			return err
		}
		if cfg.TelegramBot.ChatID != 0 {
			sendMessage = telegramBot.SendMessage
		}

		go func() {
			if err := telegramBot.Start(ctx); err != nil {
				slog.Error("Error running telegram bot", "error", err)
			}
		}()
	}

	sched, err := scheduler.NewScheduler(draftService, scheduler.Options{
		RefreshCron: cfg.Draft.RefreshCron,
		PostHour:    cfg.Draft.DailyPostHour,
		Location:    location,
		SendMessage: sendMessage,
	})
	if err != nil {
		return err
	}
	if err := sched.Start(); err != nil {
		return err
	}
	defer func() {
		err := sched.Stop()
		if err != nil {
			slog.Error("Error stopping scheduler", "error", err)
		}
	}()

	server := httpapi.NewServer(cfg.Server.Port, draftService)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Error starting HTTP server", "error", err)
			stop()
		}
	}()

	slog.Info("Draft leaderboard running",
		"people", len(draft.People()),
		"teams", len(draft.Picks()),
		"mode", cfg.ESPNAPI.Mode,
		"ttl", cfg.Draft.CacheTTL,
	)

	<-ctx.Done()
	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Error shutting down HTTP server", "error", err)
	}

	return nil
}

func loadRoster(path string) (*roster.Roster, error) {
	if path == "" {
		return roster.Default()
	}
	return roster.Load(path)
}
