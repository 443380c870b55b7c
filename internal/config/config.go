// Package config loads LocalBoard settings from an optional YAML file laid
// over built-in defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full set of settings for every mode of the program.
type Config struct {
	LogLevel string `yaml:"log_level"`
	Relay    Relay  `yaml:"relay"`
	Client   Client `yaml:"client"`
	Board    Board  `yaml:"board"`
}

type Relay struct {
	Listen         string   `yaml:"listen"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	Advertise      bool     `yaml:"advertise"`
	SendBuffer     int      `yaml:"send_buffer"`
}

type Client struct {
	// URL is a share link, host:port, or ws:// URL of the relay. Empty
	// means the relay started by this process.
	URL               string        `yaml:"url"`
	ReconnectAttempts int           `yaml:"reconnect_attempts"`
	ReconnectDelay    time.Duration `yaml:"reconnect_delay"`
	ReconnectDelayMax time.Duration `yaml:"reconnect_delay_max"`
}

type Board struct {
	MinSize     float64 `yaml:"min_size"`
	PasteOffset float64 `yaml:"paste_offset"`
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		LogLevel: "info",
		Relay: Relay{
			Listen:         ":8888",
			AllowedOrigins: []string{"http://localhost:3000"},
			Advertise:      true,
			SendBuffer:     256,
		},
		Client: Client{
			ReconnectAttempts: 5,
			ReconnectDelay:    time.Second,
			ReconnectDelayMax: 5 * time.Second,
		},
		Board: Board{
			MinSize:     50,
			PasteOffset: 10,
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.Relay.Listen == "" {
		errs = append(errs, errors.New("relay.listen must be set"))
	}
	if c.Relay.SendBuffer <= 0 {
		errs = append(errs, fmt.Errorf("relay.send_buffer must be positive, got %d", c.Relay.SendBuffer))
	}
	if c.Client.ReconnectAttempts < 0 {
		errs = append(errs, fmt.Errorf("client.reconnect_attempts must not be negative, got %d", c.Client.ReconnectAttempts))
	}
	if c.Client.ReconnectDelay <= 0 || c.Client.ReconnectDelayMax < c.Client.ReconnectDelay {
		errs = append(errs, errors.New("client.reconnect_delay must be positive and at most client.reconnect_delay_max"))
	}
	if c.Board.MinSize <= 0 {
		errs = append(errs, fmt.Errorf("board.min_size must be positive, got %v", c.Board.MinSize))
	}
	return errors.Join(errs...)
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// NewLogger builds the process logger writing text records to stderr.
func (c Config) NewLogger() *slog.Logger {
	level, _ := ParseLevel(c.LogLevel)
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
