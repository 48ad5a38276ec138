// Package notifier delivers fired reminders. Local mode goes through a
// Dispatcher (system notification, then in-app toast); backend mode hands
// reminders to a chat sink.
package notifier

import (
	"context"
	"fmt"

	"github.com/amnyam666/tgdailybot/internal/logger"
	"github.com/amnyam666/tgdailybot/internal/models"
)

// Permission is the state of the platform notification capability.
type Permission int

const (
	Unavailable Permission = iota
	Denied
	Granted
)

func (p Permission) String() string {
	switch p {
	case Granted:
		return "granted"
	case Denied:
		return "denied"
	default:
		return "unavailable"
	}
}

// Channel names the route a reminder took.
type Channel string

const (
	ChannelNone   Channel = ""
	ChannelSystem Channel = "system"
	ChannelInApp  Channel = "in-app"
	ChannelChat   Channel = "chat"
)

// SystemNotifier is the platform notification capability.
type SystemNotifier interface {
	Permission() Permission
	Notify(title, body, tag string) error
}

// Toaster shows a transient in-app message. It cannot fail.
type Toaster interface {
	Toast(title, body string)
}

// Reminder is one fired reminder handed to a Sink.
type Reminder struct {
	Task models.Task
	// When is the reminder instant rendered in Zone.
	When string
	Zone string
}

// Sink delivers reminders for the scheduler. Send reports whether the
// reminder reached the user; undelivered reminders are retried next pass.
type Sink interface {
	Send(ctx context.Context, r Reminder) bool
}

// Title is the heading used for every reminder.
const Title = "Task reminder"

// Body renders the notification text for a task.
func Body(text, when string) string {
	if when == "" {
		return text
	}
	return fmt.Sprintf("%s\n%s", text, when)
}

// Dispatcher tries the system notifier and falls back to the toaster.
type Dispatcher struct {
	System SystemNotifier
	Toast  Toaster
}

// NewDispatcher returns a dispatcher. system may be nil.
func NewDispatcher(system SystemNotifier, toast Toaster) *Dispatcher {
	return &Dispatcher{System: system, Toast: toast}
}

// Dispatch shows the reminder for task and returns the channel used.
// It never fails: any system-channel problem downgrades to the toaster.
func (d *Dispatcher) Dispatch(task models.Task, when string) Channel {
	body := Body(task.Text, when)

	if d.System != nil {
		perm := d.System.Permission()
		if perm == Granted {
			err := d.System.Notify(Title, body, task.ID)
			if err == nil {
				return ChannelSystem
			}
			logger.Debug("System notification failed, using in-app toast", "task", task.ID, "error", err)
		} else {
			logger.Debug("System notifications not usable", "permission", perm.String())
		}
	}

	if d.Toast != nil {
		d.Toast.Toast(Title, body)
	}
	return ChannelInApp
}

// Send implements Sink. Local delivery always succeeds.
func (d *Dispatcher) Send(_ context.Context, r Reminder) bool {
	when := r.When
	if r.Zone != "" {
		when = fmt.Sprintf("%s (%s)", r.When, r.Zone)
	}
	ch := d.Dispatch(r.Task, when)
	logger.Info("Reminder dispatched", "task", r.Task.ID, "channel", string(ch))
	return true
}
