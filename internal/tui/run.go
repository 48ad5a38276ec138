package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/amnyam666/tgdailybot/internal/notifier"
	"github.com/amnyam666/tgdailybot/internal/scheduler"
	"github.com/amnyam666/tgdailybot/internal/storage"
)

// SinkFactory builds the reminder sink; toast receives in-app reminders.
type SinkFactory func(toast notifier.Toaster) (notifier.Sink, error)

// Run starts the TUI with a scheduler feeding it clock ticks, refreshes and
// in-app toasts. It returns when the user quits. With opts.ClockOnly set the
// TUI never checks reminders and newSink is not called.
func Run(ctx context.Context, store storage.Provider, newSink SinkFactory, opts scheduler.Options) error {
	store = storage.NewLocked(store)
	if opts.Now == nil {
		opts.Now = time.Now
	}

	// p is assigned before the scheduler starts, so callbacks always see it.
	var p *tea.Program
	var sink notifier.Sink
	if !opts.ClockOnly {
		var err error
		sink, err = newSink(notifier.ToasterFunc(func(title, body string) {
			p.Send(ToastMsg{Title: title, Body: body})
		}))
		if err != nil {
			return err
		}
	}
	opts.OnClock = func(t time.Time) { p.Send(ClockMsg(t)) }
	opts.OnRefresh = func() { p.Send(RefreshMsg{}) }
	sched := scheduler.New(store, sink, opts)

	model := NewModel(store, opts.Now)
	if !opts.ClockOnly {
		model = model.WithChecker(sched)
	}
	p = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	sched.Start(ctx)
	defer sched.Stop()

	_, err := p.Run()
	return err
}
