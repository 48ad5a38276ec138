package storage

import (
	"sync"

	"github.com/amnyam666/tgdailybot/internal/models"
)

// Locked serializes every call to the wrapped provider. Use it when a
// background loop and a UI share one store.
type Locked struct {
	mu sync.Mutex
	p  Provider
}

func NewLocked(p Provider) *Locked {
	return &Locked{p: p}
}

func (l *Locked) Init() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.p.Init()
}

func (l *Locked) Load() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.p.Load()
}

func (l *Locked) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.p.Close()
}

func (l *Locked) GetSettings() (models.Settings, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.p.GetSettings()
}

func (l *Locked) SaveSettings(s models.Settings) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.p.SaveSettings(s)
}

func (l *Locked) AddTask(t models.Task) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.p.AddTask(t)
}

func (l *Locked) GetTask(id string) (models.Task, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.p.GetTask(id)
}

func (l *Locked) GetAllTasks() ([]models.Task, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.p.GetAllTasks()
}

func (l *Locked) UpdateTask(t models.Task) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.p.UpdateTask(t)
}

func (l *Locked) SaveTasks(tasks []models.Task) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.p.SaveTasks(tasks)
}

func (l *Locked) DeleteTask(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.p.DeleteTask(id)
}

func (l *Locked) GetConfigPath() string {
	return l.p.GetConfigPath()
}

func (l *Locked) UpdateSettings(s models.Settings, resetNotified bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.p.UpdateSettings(s, resetNotified)
}

func (l *Locked) MarkNotified(marks []models.NotifiedMark) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.p.MarkNotified(marks)
}
