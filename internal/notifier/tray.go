package notifier

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/amnyam666/tgdailybot/internal/constants"
)

var (
	userConfigDirFunc = os.UserConfigDir
	findProcessFunc   = ps.FindProcess
)

// Tray talks to the desktop tray companion over its local webhook.
type Tray struct {
	client *http.Client
}

// WebhookPayload is the body posted to the tray companion.
type WebhookPayload struct {
	Title      string `json:"title"`
	Text       string `json:"text"`
	Tag        string `json:"tag,omitempty"`
	DurationMs uint32 `json:"duration_ms"`
}

type traySettings struct {
	Settings struct {
		LockfileDir          *string `json:"lockfile_dir"`
		NotificationsEnabled *bool   `json:"notifications_enabled"`
	} `json:"settings"`
}

func NewTray() *Tray {
	return &Tray{client: &http.Client{Timeout: 5 * time.Second}}
}

// Permission reports Denied when the tray has notifications switched off and
// Unavailable when no live tray process owns the lockfile.
func (t *Tray) Permission() Permission {
	settings := readTraySettings()
	if settings.Settings.NotificationsEnabled != nil && !*settings.Settings.NotificationsEnabled {
		return Denied
	}

	dir, err := GetTrayAppConfigDir()
	if err != nil {
		return Unavailable
	}
	if _, _, err := findAndValidateTrayProcess(filepath.Join(dir, constants.NotifierLockfileName)); err != nil {
		return Unavailable
	}
	return Granted
}

func (t *Tray) Notify(title, body, tag string) error {
	dir, err := GetTrayAppConfigDir()
	if err != nil {
		return err
	}

	port, secret, err := findAndValidateTrayProcess(filepath.Join(dir, constants.NotifierLockfileName))
	if err != nil {
		return err
	}

	payload := WebhookPayload{
		Title:      title,
		Text:       body,
		Tag:        tag,
		DurationMs: constants.NotificationDurationMs,
	}
	return t.send(port, secret, payload)
}

func trayConfigDir() (string, error) {
	configDir, err := userConfigDirFunc()
	if err != nil {
		return "", fmt.Errorf("failed to get user config dir: %w", err)
	}
	return filepath.Join(configDir, constants.TrayAppIdentifier), nil
}

func readTraySettings() traySettings {
	var store traySettings
	dir, err := trayConfigDir()
	if err != nil {
		return store
	}
	data, err := os.ReadFile(filepath.Join(dir, "settings.json"))
	if err != nil {
		return store
	}
	_ = json.Unmarshal(data, &store)
	return store
}

// GetTrayAppConfigDir returns the directory holding the tray lockfile.
func GetTrayAppConfigDir() (string, error) {
	dir, err := trayConfigDir()
	if err != nil {
		return "", err
	}

	store := readTraySettings()
	if store.Settings.LockfileDir != nil && *store.Settings.LockfileDir != "" {
		return *store.Settings.LockfileDir, nil
	}
	return dir, nil
}

func findAndValidateTrayProcess(lockfilePath string) (string, string, error) {
	content, err := os.ReadFile(lockfilePath)
	if err != nil {
		return "", "", errors.New("tgdaily-tray is not running")
	}

	parts := strings.Split(strings.TrimSpace(string(content)), "|")
	if len(parts) != 3 {
		return "", "", errors.New("lockfile is malformed")
	}

	port := parts[0]
	if strings.TrimSpace(port) == "" {
		return "", "", errors.New("port in lockfile is empty")
	}
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return "", "", errors.New("invalid port number in lockfile")
	}
	if portNum < 1 || portNum > 65535 {
		return "", "", fmt.Errorf("port number %d is outside valid range (1-65535)", portNum)
	}

	pid, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", "", errors.New("invalid process ID in lockfile")
	}
	secret := parts[2]
	if strings.TrimSpace(secret) == "" {
		return "", "", errors.New("secret in lockfile is empty")
	}

	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return "", "", errors.New("tgdaily-tray process not running")
	}

	if !strings.HasPrefix(process.Executable(), constants.TrayExecutablePrefix) {
		return "", "", fmt.Errorf("process with PID %d is not tgdaily-tray (is %s)", pid, process.Executable())
	}

	return port, secret, nil
}

func (t *Tray) send(port string, secret string, payload WebhookPayload) error {
	return postWebhook(t.client, fmt.Sprintf("http://127.0.0.1:%s", port), secret, payload)
}

func postWebhook(client *http.Client, url, secret string, payload WebhookPayload) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tgdaily-Secret", secret)

	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}

	body, _ := io.ReadAll(res.Body)
	return fmt.Errorf("notification failed with status %d: %s", res.StatusCode, string(body))
}
