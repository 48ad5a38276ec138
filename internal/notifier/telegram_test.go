package notifier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/amnyam666/tgdailybot/internal/models"
)

func TestMessage(t *testing.T) {
	got := Message(Reminder{
		Task: models.Task{Text: "Позвонить маме"},
		When: "01.06.2025 09:30",
		Zone: "Europe/Moscow",
	})
	want := "Напоминание о задаче\n\nЗадача: Позвонить маме\nДата: 01.06.2025 09:30 (Europe/Moscow)"
	if got != want {
		t.Errorf("Message() = %q, want %q", got, want)
	}
}

func TestTelegramSend(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   bool
	}{
		{name: "ok response", status: http.StatusOK, body: `{"ok":true,"result":{}}`, want: true},
		{name: "not ok", status: http.StatusBadRequest, body: `{"ok":false,"description":"chat not found"}`, want: false},
		{name: "garbage body", status: http.StatusBadGateway, body: `<html>`, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var path, chatID, text string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				path = r.URL.Path
				if err := r.ParseForm(); err != nil {
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				chatID = r.PostForm.Get("chat_id")
				text = r.PostForm.Get("text")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			tg := NewTelegram(server.URL+"/", "123:abc", 987654)
			got := tg.Send(context.Background(), Reminder{
				Task: models.Task{ID: "t1", Text: "pay rent"},
				When: "01.06.2025 09:30",
				Zone: "Europe/Moscow",
			})
			if got != tt.want {
				t.Errorf("Send() = %v, want %v", got, tt.want)
			}
			if path != "/bot123:abc/sendMessage" {
				t.Errorf("path = %q", path)
			}
			if chatID != "987654" {
				t.Errorf("chat_id = %q", chatID)
			}
			if !strings.Contains(text, "Задача: pay rent") {
				t.Errorf("text = %q", text)
			}
		})
	}
}

func TestTelegramSendUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	tg := NewTelegram(url, "secret-token", 1)
	err := tg.SendText(context.Background(), "hi")
	if err == nil {
		t.Fatal("expected error for closed server")
	}
	if strings.Contains(err.Error(), "secret-token") {
		t.Errorf("error leaks token: %v", err)
	}
}
