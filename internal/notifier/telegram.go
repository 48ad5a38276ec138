package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/amnyam666/tgdailybot/internal/constants"
	"github.com/amnyam666/tgdailybot/internal/logger"
)

// Telegram delivers reminders as Telegram bot messages to one chat.
type Telegram struct {
	BaseURL string
	Token   string
	ChatID  int64
	client  *http.Client
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func NewTelegram(baseURL, token string, chatID int64) *Telegram {
	if baseURL == "" {
		baseURL = constants.DefaultTelegramAPI
	}
	return &Telegram{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		ChatID:  chatID,
		client:  &http.Client{Timeout: constants.TelegramSendTimeout},
	}
}

// Message renders the chat text for a reminder.
func Message(r Reminder) string {
	return fmt.Sprintf("Напоминание о задаче\n\nЗадача: %s\nДата: %s (%s)", r.Task.Text, r.When, r.Zone)
}

// Send implements Sink. It returns true only when Telegram answers ok.
func (t *Telegram) Send(ctx context.Context, r Reminder) bool {
	if err := t.SendText(ctx, Message(r)); err != nil {
		logger.Error("Failed to send Telegram message", "task", r.Task.ID, "chat", t.ChatID, "error", err)
		return false
	}
	logger.Info("Reminder sent to Telegram", "task", r.Task.ID)
	return true
}

// SendText posts text to the configured chat.
func (t *Telegram) SendText(ctx context.Context, text string) error {
	form := url.Values{}
	form.Set("chat_id", strconv.FormatInt(t.ChatID, 10))
	form.Set("text", text)

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.BaseURL, t.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := t.client.Do(req)
	if err != nil {
		// the request URL carries the token
		if uerr, ok := err.(*url.Error); ok {
			return fmt.Errorf("telegram request failed: %w", uerr.Err)
		}
		return fmt.Errorf("telegram request failed: %w", err)
	}
	defer res.Body.Close()

	var body sendMessageResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return fmt.Errorf("decoding telegram response (status %d): %w", res.StatusCode, err)
	}
	if !body.OK {
		return fmt.Errorf("telegram rejected message (status %d): %s", res.StatusCode, body.Description)
	}
	return nil
}
