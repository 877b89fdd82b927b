package config

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
)

const (
	ModeScoreboard = "scoreboard"
	ModeSchedule   = "schedule"
)

type Config struct {
	TelegramBot TelegramBot
	ESPNAPI     ESPNAPI
	Draft       Draft
	Server      Server
}

type TelegramBot struct {
	Token  string `envconfig:"TELEGRAM_TOKEN"`
	ChatID int64  `envconfig:"CHAT_ID"`
}

type ESPNAPI struct {
	BaseURL string        `envconfig:"ESPN_BASE_URL" default:"https://site.api.espn.com/apis/site/v2/sports"`
	Sport   string        `envconfig:"ESPN_SPORT" default:"basketball/mens-college-basketball"`
	Timeout time.Duration `envconfig:"ESPN_TIMEOUT" default:"10s"`
	Mode    string        `envconfig:"FEED_MODE" default:"scoreboard"`
	Dates   string        `envconfig:"SCOREBOARD_DATES"`
	Groups  string        `envconfig:"SCOREBOARD_GROUPS" default:"50"`
	Limit   int           `envconfig:"SCOREBOARD_LIMIT" default:"500"`
	Workers int           `envconfig:"FEED_WORKERS" default:"8"`
	// CountLiveGames keeps the scores of games still in progress.
	CountLiveGames bool `envconfig:"COUNT_LIVE_GAMES" default:"false"`
}

type Draft struct {
	RosterFile    string        `envconfig:"ROSTER_FILE"`
	CacheTTL      time.Duration `envconfig:"CACHE_TTL" default:"10m"`
	RefreshCron   string        `envconfig:"REFRESH_CRON" default:"*/15 * * * *"`
	DailyPostHour uint          `envconfig:"DAILY_POST_HOUR" default:"9"`
	Timezone      string        `envconfig:"TIMEZONE" default:"America/Chicago"`
}

type Server struct {
	Port string `envconfig:"PORT" default:"8080"`
}

func New() (*Config, error) {
	var c Config
	err := envconfig.Process("", &c)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	switch c.ESPNAPI.Mode {
	case ModeScoreboard, ModeSchedule:
	default:
		return fmt.Errorf("FEED_MODE must be %q or %q, got %q", ModeScoreboard, ModeSchedule, c.ESPNAPI.Mode)
	}
	if c.ESPNAPI.Timeout <= 0 {
		return fmt.Errorf("ESPN_TIMEOUT must be positive")
	}
	if c.ESPNAPI.Workers <= 0 {
		return fmt.Errorf("FEED_WORKERS must be positive")
	}
	if c.Draft.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	if c.Draft.DailyPostHour > 23 {
		return fmt.Errorf("DAILY_POST_HOUR must be between 0 and 23")
	}
	if _, err := cron.ParseStandard(c.Draft.RefreshCron); err != nil {
		return fmt.Errorf("REFRESH_CRON %q: %w", c.Draft.RefreshCron, err)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location returns the timezone used for display and scheduling.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Draft.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE %q: %w", c.Draft.Timezone, err)
	}
	return loc, nil
}
