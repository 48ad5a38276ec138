package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/amnyam666/tgdailybot/internal/constants"
)

var (
	// ErrNotFound is returned when no secret is stored under the requested key
	ErrNotFound = errors.New("credentials not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

func get(user string) (string, error) {
	value, err := keyring.Get(constants.AppName, user)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return value, nil
}

func set(user, what, value string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", what)
	}
	if err := keyring.Set(constants.AppName, user, value); err != nil {
		return fmt.Errorf("failed to store %s in keyring: %w", what, err)
	}
	return nil
}

func del(user, what string) error {
	if err := keyring.Delete(constants.AppName, user); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete %s from keyring: %w", what, err)
	}
	return nil
}

// GetBotToken returns the Telegram bot token stored in the OS keyring.
func GetBotToken() (string, error) {
	return get(constants.KeyringBotTokenUser)
}

func SetBotToken(token string) error {
	return set(constants.KeyringBotTokenUser, "bot token", token)
}

func DeleteBotToken() error {
	return del(constants.KeyringBotTokenUser, "bot token")
}

// GetConnectionString returns the database connection string stored in the OS keyring.
func GetConnectionString() (string, error) {
	return get(constants.KeyringDBConnUser)
}

func SetConnectionString(connStr string) error {
	return set(constants.KeyringDBConnUser, "connection string", connStr)
}

func DeleteConnectionString() error {
	return del(constants.KeyringDBConnUser, "connection string")
}

// IsAvailable checks if the OS keyring is available on the current system.
// This is a best-effort check.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
