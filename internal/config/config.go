// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// ErrMissingPassword is returned when SERVER_PASSWORD is not set.
var ErrMissingPassword = errors.New("SERVER_PASSWORD must be set")

// Config holds all server settings, read from environment variables.
// cmd/server imports godotenv/autoload so a local .env file is picked up.
type Config struct {
	Addr           string
	ServerPassword string
	DeckCount      int
	LogLevel       string

	// Minimum re-submission interval per connection for time-limited
	// message types.
	ChatInterval  time.Duration
	PlayInterval  time.Duration
	ReadyInterval time.Duration
}

// Load reads the configuration from the environment, applying defaults for
// everything except the shared server password.
func Load() (*Config, error) {
	password := os.Getenv("SERVER_PASSWORD")
	if password == "" {
		return nil, ErrMissingPassword
	}

	cfg := &Config{
		Addr:           ":8080",
		ServerPassword: password,
		DeckCount:      1,
		LogLevel:       envOr("LOG_LEVEL", "info"),
		ChatInterval:   10 * time.Second,
		PlayInterval:   1 * time.Second,
		ReadyInterval:  3 * time.Second,
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Addr = ":" + port
	}
	if err := envInt("DECK_COUNT", &cfg.DeckCount); err != nil {
		return nil, err
	}
	if cfg.DeckCount <= 0 {
		return nil, fmt.Errorf("DECK_COUNT must be positive, got %d", cfg.DeckCount)
	}
	for _, v := range []struct {
		key string
		dst *time.Duration
	}{
		{"THROTTLE_CHAT_MS", &cfg.ChatInterval},
		{"THROTTLE_PLAY_MS", &cfg.PlayInterval},
		{"THROTTLE_READY_MS", &cfg.ReadyInterval},
	} {
		if err := envMillis(v.key, v.dst); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func envMillis(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	ms, err := strconv.Atoi(v)
	if err != nil || ms < 0 {
		return fmt.Errorf("invalid %s: %q", key, v)
	}
	*dst = time.Duration(ms) * time.Millisecond
	return nil
}
