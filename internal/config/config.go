// Package config reads server settings from the environment, optionally seeded
// from a .env file in the working directory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr        string
	MaxClients  int
	MinPlayers  int
	AutoResolve bool
	OutboxSize  int
	LogLevel    string
	LogFile     string
	// DatabaseURL enables the turn archive when set.
	DatabaseURL string
	// OriginPatterns are extra WebSocket origins allowed besides same-origin.
	OriginPatterns []string
}

func Default() Config {
	return Config{
		Addr:        ":2567",
		MaxClients:  6,
		MinPlayers:  2,
		AutoResolve: true,
		OutboxSize:  16,
		LogLevel:    "info",
	}
}

// Load applies .env (if present) and then the process environment over Default.
// Variables already set in the environment win over .env.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}
	return FromEnv()
}

func FromEnv() (Config, error) {
	cfg := Default()

	if v := os.Getenv("ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	cfg.LogFile = os.Getenv("LOG_FILE")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.OriginPatterns = splitList(v)
	}

	var err error
	if cfg.MaxClients, err = intVar("MAX_CLIENTS", cfg.MaxClients, 1); err != nil {
		return Config{}, err
	}
	if cfg.MinPlayers, err = intVar("MIN_PLAYERS", cfg.MinPlayers, 1); err != nil {
		return Config{}, err
	}
	if cfg.OutboxSize, err = intVar("OUTBOX_SIZE", cfg.OutboxSize, 2); err != nil {
		return Config{}, err
	}
	if v := os.Getenv("AUTO_RESOLVE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("AUTO_RESOLVE: %w", err)
		}
		cfg.AutoResolve = b
	}

	if cfg.MinPlayers > cfg.MaxClients {
		return Config{}, fmt.Errorf("MIN_PLAYERS (%d) exceeds MAX_CLIENTS (%d)", cfg.MinPlayers, cfg.MaxClients)
	}
	return cfg, nil
}

func intVar(name string, def, floor int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if n < floor {
		return 0, fmt.Errorf("%s: must be at least %d, got %d", name, floor, n)
	}
	return n, nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
