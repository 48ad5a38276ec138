package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/amnyam666/tgdailybot/internal/constants"
	"github.com/amnyam666/tgdailybot/internal/keyring"
)

// Secret sources, in lookup order.
const (
	SourceEnv     = "environment"
	SourceKeyring = "keyring"
	SourceFile    = "file"
)

var (
	ErrNoBotToken          = errors.New("telegram bot token not configured")
	ErrPlaceholderBotToken = errors.New("bot token file still contains the placeholder")

	getenv           = os.Getenv
	keyringBotToken  = keyring.GetBotToken
	keyringDBConnStr = keyring.GetConnectionString
)

// ResolveBotToken finds the Telegram bot token: environment, then OS keyring,
// then the token file. It returns the token and where it came from.
func (c Config) ResolveBotToken() (string, string, error) {
	if token := strings.TrimSpace(getenv(constants.EnvBotToken)); token != "" {
		return token, SourceEnv, nil
	}

	token, err := keyringBotToken()
	if err == nil && strings.TrimSpace(token) != "" {
		return strings.TrimSpace(token), SourceKeyring, nil
	}
	if err != nil && !errors.Is(err, keyring.ErrNotFound) && !errors.Is(err, keyring.ErrKeyringUnavailable) {
		return "", "", err
	}

	if c.Telegram.TokenFile == "" {
		return "", "", ErrNoBotToken
	}
	token, err = ReadTokenFile(ExpandPath(c.Telegram.TokenFile))
	if err != nil {
		return "", "", err
	}
	return token, SourceFile, nil
}

// ReadTokenFile reads a bot token file and rejects empty or placeholder content.
func ReadTokenFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: create %s containing the bot token, set %s, or run '%s token set'",
				ErrNoBotToken, path, constants.EnvBotToken, constants.AppName)
		}
		return "", fmt.Errorf("failed to read token file: %w", err)
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("%w: %s is empty", ErrNoBotToken, path)
	}
	if token == constants.BotTokenPlaceholder {
		return "", fmt.Errorf("%w: %s", ErrPlaceholderBotToken, path)
	}
	return token, nil
}

// ResolveStore returns the store location, preferring a connection string from
// the environment or keyring when the configured store is PostgreSQL without one.
func (c Config) ResolveStore(override string) string {
	if override != "" {
		return override
	}
	if conn := strings.TrimSpace(getenv(constants.EnvDBConnection)); conn != "" {
		return conn
	}
	if c.Store == "postgres" || c.Store == "postgresql" {
		if conn, err := keyringDBConnStr(); err == nil && conn != "" {
			return conn
		}
	}
	return c.Store
}
