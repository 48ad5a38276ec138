package system

import (
	"bufio"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/amnyam666/tgdailybot/internal/cli"
	"github.com/amnyam666/tgdailybot/internal/keyring"
)

var tokenPattern = regexp.MustCompile(`^\d+:[A-Za-z0-9_-]{20,}$`)

// TokenSetCmd stores the Telegram bot token in the OS keyring
type TokenSetCmd struct {
	Token string `arg:"" optional:"" help:"Bot token from @BotFather. Read from stdin when omitted."`
}

func (cmd *TokenSetCmd) Run(ctx *cli.Context) error {
	token := strings.TrimSpace(cmd.Token)
	if token == "" {
		ctx.Printf("Bot token: ")
		line, err := bufio.NewReader(ctx.Input()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("failed to read token: %w", err)
		}
		token = strings.TrimSpace(line)
	}
	if !tokenPattern.MatchString(token) {
		return errors.New("that does not look like a bot token (expected <id>:<secret>)")
	}

	if err := keyring.SetBotToken(token); err != nil {
		return fmt.Errorf("failed to store bot token in keyring: %w", err)
	}

	ctx.Println("✓ Bot token stored in OS keyring")
	return nil
}

// TokenClearCmd removes the Telegram bot token from the OS keyring
type TokenClearCmd struct{}

func (cmd *TokenClearCmd) Run(ctx *cli.Context) error {
	if err := keyring.DeleteBotToken(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no bot token found in keyring")
		}
		return fmt.Errorf("failed to delete bot token from keyring: %w", err)
	}

	ctx.Println("✓ Bot token deleted from OS keyring")
	return nil
}

// TokenStatusCmd reports where the bot token would be read from
type TokenStatusCmd struct{}

func (cmd *TokenStatusCmd) Run(ctx *cli.Context) error {
	if keyring.IsAvailable() {
		ctx.Println("✓ OS keyring is available")
	} else {
		ctx.Println("❌ OS keyring is not available on this system")
	}

	token, source, err := ctx.Config.ResolveBotToken()
	if err != nil {
		ctx.Printf("❌ Bot token: %v\n", err)
		return err
	}
	ctx.Printf("✓ Bot token from %s: %s\n", source, maskToken(token))
	return nil
}

// maskToken keeps the bot id and hides the secret part
func maskToken(token string) string {
	if idx := strings.Index(token, ":"); idx != -1 {
		return token[:idx] + ":****"
	}
	return "****"
}

// DBSetCmd stores a PostgreSQL connection string in the OS keyring
type DBSetCmd struct {
	ConnectionString string `arg:"" help:"PostgreSQL connection string to store in keyring"`
}

func (cmd *DBSetCmd) Run(ctx *cli.Context) error {
	if !strings.HasPrefix(cmd.ConnectionString, "postgres://") &&
		!strings.HasPrefix(cmd.ConnectionString, "postgresql://") {
		return errors.New("connection string must be a postgres:// or postgresql:// URL")
	}

	if err := keyring.SetConnectionString(cmd.ConnectionString); err != nil {
		return fmt.Errorf("failed to store connection string in keyring: %w", err)
	}

	ctx.Printf("✓ Connection string stored in OS keyring: %s\n", maskPassword(cmd.ConnectionString))
	ctx.Println("  Set store = \"postgres\" in the config file to use it")
	return nil
}

// DBClearCmd removes the PostgreSQL connection string from the OS keyring
type DBClearCmd struct{}

func (cmd *DBClearCmd) Run(ctx *cli.Context) error {
	if err := keyring.DeleteConnectionString(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no connection string found in keyring")
		}
		return fmt.Errorf("failed to delete connection string from keyring: %w", err)
	}

	ctx.Println("✓ Connection string deleted from OS keyring")
	return nil
}

// maskPassword masks passwords in connection strings for display
func maskPassword(connStr string) string {
	idx := strings.Index(connStr, "://")
	if idx == -1 {
		return connStr
	}
	remaining := connStr[idx+3:]
	// the last @ separates user info from host
	atIdx := strings.LastIndex(remaining, "@")
	if atIdx == -1 {
		return connStr
	}
	userInfo := remaining[:atIdx]
	if colonIdx := strings.Index(userInfo, ":"); colonIdx != -1 {
		return connStr[:idx+3] + userInfo[:colonIdx] + ":****" + connStr[idx+3+atIdx:]
	}
	return connStr
}
