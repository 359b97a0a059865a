package config

import (
	"context"
	"flag"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v6"

	"github.com/talx-hub/gopher-points/internal/model"
)

type Config struct {
	RunAddr         string `env:"RUN_ADDRESS"      envDefault:"localhost:8080"`
	DatabaseURI     string `env:"DATABASE_URI"     envDefault:""`
	SecretKey       string `env:"SECRET_KEY"       envDefault:""`
	LogLevel        string `env:"LOG_LEVEL"        envDefault:"info"`
	Timezone        string `env:"TIMEZONE"         envDefault:""`
	LeaderboardSize int    `env:"LEADERBOARD_SIZE" envDefault:"10"`
}

// Location resolves the configured IANA timezone used for calendar-day caps
// and leaderboard windows. An empty or broken value falls back to the host
// local zone.
func (c *Config) Location(log *slog.Logger) *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.LogAttrs(context.Background(),
			slog.LevelError,
			"failed to load configured timezone, falling back to local",
			slog.String("timezone", c.Timezone),
			slog.Any(model.KeyLoggerError, err),
		)
		return time.Local
	}
	return loc
}

type Builder struct {
	cfg *Config
	log *slog.Logger
}

func NewBuilder(log *slog.Logger) *Builder {
	return &Builder{
		cfg: &Config{},
		log: log,
	}
}

func (b *Builder) FromEnv() *Builder {
	if err := env.Parse(b.cfg); err != nil {
		b.log.LogAttrs(context.Background(),
			slog.LevelError, "Failed to parse config", slog.Any(model.KeyLoggerError, err))
	}
	return b
}

func (b *Builder) FromFlags() *Builder {
	flag.StringVar(&b.cfg.RunAddr, "a", b.cfg.RunAddr, "Run address")
	flag.StringVar(&b.cfg.DatabaseURI, "d", b.cfg.DatabaseURI, "Database URI")
	flag.StringVar(&b.cfg.SecretKey, "k", b.cfg.SecretKey, "Secret key")
	flag.StringVar(&b.cfg.LogLevel, "l", b.cfg.LogLevel, "Log level")
	flag.StringVar(&b.cfg.Timezone, "tz", b.cfg.Timezone, "IANA timezone for calendar windows")
	flag.IntVar(&b.cfg.LeaderboardSize, "n", b.cfg.LeaderboardSize, "Leaderboard size")

	flag.Parse()
	return b
}

func (b *Builder) GetConfig() *Config {
	return b.cfg
}
