// Package config loads pomlet's settings. Values are layered, later sources
// winning: flag defaults, <dir>/config.yaml, POMLET_* environment variables,
// flags set on the command line.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	envPrefix = "POMLET_"
	fileName  = "config.yaml"
)

// Config holds the settings of a pomlet run.
type Config struct {
	Dir         string `koanf:"dir" validate:"required"`
	KeepBackups int    `koanf:"keep_backups" validate:"gte=1"`
	PruneEvery  int    `koanf:"prune_every" validate:"gte=1"`
	LogLevel    string `koanf:"log_level" validate:"oneof=debug info warn error"`
	History     bool   `koanf:"history"`
	Seed        uint64 `koanf:"seed"`
}

// RegisterFlags adds the configuration flags and their defaults to flags.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("dir", "", "directory holding questions.json and backups (default ~/.pomodoro)")
	flags.Int("keep-backups", 10, "number of backups kept when pruning")
	flags.Int("prune-every", 50, "prune backups after this many saves")
	flags.String("log-level", "warn", "log level: debug, info, warn or error")
	flags.Bool("history", true, "record gradings in reviews.db")
	flags.Uint64("seed", 0, "shuffle seed for the review queue, 0 for random")
}

// ResolveDir returns the directory pomlet keeps its data in when none is
// configured: the working directory when DEV=True, ~/.pomodoro otherwise.
func ResolveDir() (string, error) {
	if os.Getenv("DEV") == "True" {
		return ".", nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".pomodoro"), nil
}

// Load builds the configuration from flags, which must have been set up with
// RegisterFlags and parsed.
func Load(flags *pflag.FlagSet) (Config, error) {
	dir, err := dataDir(flags)
	if err != nil {
		return Config{}, err
	}

	k := koanf.New(".")
	if err := k.Set("dir", dir); err != nil {
		return Config{}, err
	}

	path := filepath.Join(dir, fileName)
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("failed to load %s: %w", path, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	err = k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil)
	if err != nil {
		return Config{}, fmt.Errorf("failed to load environment: %w", err)
	}

	err = k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
		return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
	}), nil)
	if err != nil {
		return Config{}, fmt.Errorf("failed to load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// dataDir picks the data directory before the rest of the configuration is
// read, since the config file lives inside it.
func dataDir(flags *pflag.FlagSet) (string, error) {
	if f := flags.Lookup("dir"); f != nil && f.Changed {
		return f.Value.String(), nil
	}
	if dir := os.Getenv(envPrefix + "DIR"); dir != "" {
		return dir, nil
	}
	return ResolveDir()
}

// Logger returns a text logger writing to w at the configured level.
func (c Config) Logger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// HistoryPath returns the location of the review history database.
func (c Config) HistoryPath() string { return filepath.Join(c.Dir, "reviews.db") }

// ReposDir returns where git sources are checked out.
func (c Config) ReposDir() string { return filepath.Join(c.Dir, "repos") }
