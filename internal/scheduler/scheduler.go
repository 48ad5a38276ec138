// Package scheduler runs the reminder poll loop: a clock tick for display
// and a slower check tick that fires due reminders.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amnyam666/tgdailybot/internal/constants"
	"github.com/amnyam666/tgdailybot/internal/logger"
	"github.com/amnyam666/tgdailybot/internal/models"
	"github.com/amnyam666/tgdailybot/internal/notifier"
	"github.com/amnyam666/tgdailybot/internal/reminder"
	"github.com/amnyam666/tgdailybot/internal/zone"
)

// Store is the part of storage.Provider the loop needs. The loop writes
// nothing but notified marks, so edits made while a pass is sending survive.
type Store interface {
	GetSettings() (models.Settings, error)
	GetAllTasks() ([]models.Task, error)
	MarkNotified([]models.NotifiedMark) (int, error)
}

type State int

const (
	Idle State = iota
	Checking
)

func (s State) String() string {
	if s == Checking {
		return "checking"
	}
	return "idle"
}

type Options struct {
	ClockInterval time.Duration
	CheckInterval time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
	// OnClock receives every clock tick. It must not mutate tasks.
	OnClock func(time.Time)
	// OnRefresh runs once after a pass that changed tasks.
	OnRefresh func()
	// DryRun reports due reminders without sending or persisting.
	DryRun bool
	// ClockOnly stops Run from checking reminders, for when another
	// process owns delivery.
	ClockOnly bool
}

// Result summarizes one check pass.
type Result struct {
	// Skipped is set when another pass was already running.
	Skipped bool
	// Disabled is set when notifications are switched off.
	Disabled bool
	Due      []notifier.Reminder
	Sent     int
	Failed   int
	// Stale counts delivered reminders whose task changed or vanished
	// before the pass could mark it.
	Stale int
}

type Scheduler struct {
	store Store
	sink  notifier.Sink
	opts  Options

	checkMu sync.Mutex

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	done   chan struct{}
}

func New(store Store, sink notifier.Sink, opts Options) *Scheduler {
	if opts.ClockInterval <= 0 {
		opts.ClockInterval = constants.DefaultClockInterval
	}
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = constants.DefaultCheckInterval
	}
	if opts.CheckInterval < constants.MinCheckInterval {
		opts.CheckInterval = constants.MinCheckInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Scheduler{store: store, sink: sink, opts: opts}
}

// State reports whether a check pass is in progress.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Scheduler) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Check runs one pass over the task set. A call made while another pass is
// running returns immediately with Skipped set.
func (s *Scheduler) Check(ctx context.Context) (Result, error) {
	if !s.checkMu.TryLock() {
		return Result{Skipped: true}, nil
	}
	defer s.checkMu.Unlock()

	s.setState(Checking)
	defer s.setState(Idle)

	settings, err := s.store.GetSettings()
	if err != nil {
		return Result{}, fmt.Errorf("failed to get settings: %w", err)
	}
	if !settings.NotificationsEnabled {
		return Result{Disabled: true}, nil
	}

	tasks, err := s.store.GetAllTasks()
	if err != nil {
		return Result{}, fmt.Errorf("failed to get tasks: %w", err)
	}

	now := s.opts.Now().UnixMilli()
	lead := settings.NotifyBeforeMinutes
	tz := zone.Resolve(settings.Timezone)

	var res Result
	var marks []models.NotifiedMark
	for i := range tasks {
		if len(res.Due) >= constants.MaxDueRemindersBatch {
			logger.Warn("Due reminder batch limit reached", "limit", constants.MaxDueRemindersBatch)
			break
		}
		if ctx.Err() != nil {
			break
		}

		task := tasks[i]
		if !reminder.ShouldFire(task, now, lead) {
			continue
		}

		r := notifier.Reminder{
			Task: task,
			When: zone.FormatDisplay(*task.ReminderAtMs, tz),
			Zone: tz,
		}
		res.Due = append(res.Due, r)
		if s.opts.DryRun {
			continue
		}

		if !s.sink.Send(ctx, r) {
			res.Failed++
			continue
		}
		reminder.MarkFired(&task, lead)
		marks = append(marks, models.NotifiedMark{
			TaskID:       task.ID,
			ReminderAtMs: *task.ReminderAtMs,
			TriggerMs:    *task.NotifiedForMs,
		})
		res.Sent++
	}

	if len(marks) == 0 {
		return res, nil
	}

	applied, err := s.store.MarkNotified(marks)
	if err != nil {
		return res, fmt.Errorf("failed to persist notified tasks: %w", err)
	}
	if res.Stale = len(marks) - applied; res.Stale > 0 {
		logger.Info("Tasks changed while their reminders were sent", "stale", res.Stale)
	}
	if s.opts.OnRefresh != nil {
		s.opts.OnRefresh()
	}
	return res, nil
}

// Run drives both timers until ctx is cancelled. A check runs immediately so
// reminders missed while the process was down fire on startup. With
// ClockOnly set no check ever runs; the check tick only calls OnRefresh so
// the owner sees what the delivering process wrote.
func (s *Scheduler) Run(ctx context.Context) {
	clock := time.NewTicker(s.opts.ClockInterval)
	defer clock.Stop()
	check := time.NewTicker(s.opts.CheckInterval)
	defer check.Stop()

	if !s.opts.ClockOnly {
		s.runCheck(ctx)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-clock.C:
			if s.opts.OnClock != nil {
				s.opts.OnClock(t)
			}
		case <-check.C:
			if !s.opts.ClockOnly {
				s.runCheck(ctx)
			} else if s.opts.OnRefresh != nil {
				s.opts.OnRefresh()
			}
		}
	}
}

func (s *Scheduler) runCheck(ctx context.Context) {
	res, err := s.Check(ctx)
	if err != nil {
		logger.Error("Reminder check failed", "error", err)
		return
	}
	if res.Sent > 0 || res.Failed > 0 {
		logger.Info("Reminder check", "due", len(res.Due), "sent", res.Sent, "failed", res.Failed)
	}
}

// Start runs the loop in a goroutine. Calling Start twice is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go func(done chan struct{}) {
		defer close(done)
		s.Run(ctx)
	}(s.done)
}

// Stop cancels the loop started by Start and waits for it to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
