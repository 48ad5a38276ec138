// Package config loads the optional TOML configuration file and resolves
// the secrets the backend mode needs.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/amnyam666/tgdailybot/internal/constants"
	"github.com/amnyam666/tgdailybot/internal/logger"
)

// Delivery modes.
const (
	ModeLocal    = "local"
	ModeTelegram = "telegram"
)

type Config struct {
	// Mode selects reminder delivery: "local" (desktop/in-app) or "telegram".
	Mode string `toml:"mode"`
	// Store is a .json path, a SQLite path or a postgres:// URL.
	Store     string          `toml:"store"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Telegram  TelegramConfig  `toml:"telegram"`
	Log       LogConfig       `toml:"log"`
}

type SchedulerConfig struct {
	ClockIntervalSeconds int `toml:"clock_interval_seconds"`
	CheckIntervalSeconds int `toml:"check_interval_seconds"`
}

type TelegramConfig struct {
	ChatID     int64  `toml:"chat_id"`
	APIBaseURL string `toml:"api_base_url"`
	TokenFile  string `toml:"token_file"`
}

type LogConfig struct {
	Debug bool   `toml:"debug"`
	Level string `toml:"level"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Mode:  ModeLocal,
		Store: constants.DefaultStorePath,
		Scheduler: SchedulerConfig{
			ClockIntervalSeconds: int(constants.DefaultClockInterval / time.Second),
			CheckIntervalSeconds: int(constants.DefaultCheckInterval / time.Second),
		},
		Telegram: TelegramConfig{
			APIBaseURL: constants.DefaultTelegramAPI,
			TokenFile:  filepath.Join(constants.DefaultConfigDir, "bot_token.txt"),
		},
		Log: LogConfig{Level: "warn"},
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	path = ExpandPath(path)
	if _, err := os.Stat(path); err == nil {
		meta, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, 0, len(undecoded))
			for _, k := range undecoded {
				keys = append(keys, k.String())
			}
			sort.Strings(keys)
			logger.Warn("Ignoring unknown config keys", "file", path, "keys", strings.Join(keys, ", "))
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate normalizes intervals and checks mode-specific settings.
func (c *Config) Validate() error {
	c.Mode = strings.ToLower(strings.TrimSpace(c.Mode))
	if c.Mode == "" {
		c.Mode = ModeLocal
	}
	if c.Mode != ModeLocal && c.Mode != ModeTelegram {
		return fmt.Errorf("invalid mode %q (expected %q or %q)", c.Mode, ModeLocal, ModeTelegram)
	}

	if c.Scheduler.ClockIntervalSeconds <= 0 {
		c.Scheduler.ClockIntervalSeconds = int(constants.DefaultClockInterval / time.Second)
	}
	minCheck := int(constants.MinCheckInterval / time.Second)
	if c.Scheduler.CheckIntervalSeconds < minCheck {
		c.Scheduler.CheckIntervalSeconds = minCheck
	}

	if c.Telegram.APIBaseURL == "" {
		c.Telegram.APIBaseURL = constants.DefaultTelegramAPI
	}
	if c.Mode == ModeTelegram && c.Telegram.ChatID == 0 {
		return errors.New("telegram mode requires telegram.chat_id")
	}
	return nil
}

func (c Config) ClockInterval() time.Duration {
	return time.Duration(c.Scheduler.ClockIntervalSeconds) * time.Second
}

func (c Config) CheckInterval() time.Duration {
	return time.Duration(c.Scheduler.CheckIntervalSeconds) * time.Second
}

// Write stores cfg as TOML at path, creating parent directories.
func Write(path string, cfg Config) error {
	path = ExpandPath(path)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
