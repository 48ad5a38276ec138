package tasklist

import (
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/amnyam666/tgdailybot/internal/models"
	"github.com/amnyam666/tgdailybot/internal/reminder"
)

type Item struct {
	Task models.Task
	Zone string
	Lead int
}

func (i Item) Title() string {
	if i.Task.Done {
		return "[x] " + i.Task.Text
	}
	return "[ ] " + i.Task.Text
}

func (i Item) Description() string {
	when := reminder.Describe(i.Task, i.Zone, i.Lead)
	if when == "" {
		return "no reminder"
	}
	if i.Task.NotifiedForMs != nil {
		return "🔔 " + when + " (sent)"
	}
	return "⏰ " + when
}

func (i Item) FilterValue() string { return i.Task.Text }

type Model struct {
	list list.Model
}

func New(width, height int) Model {
	l := list.New(nil, list.NewDefaultDelegate(), width, height)
	l.Title = "Tasks"
	l.SetShowTitle(false)
	l.SetShowHelp(false) // help is rendered by the parent model
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	return Model{list: l}
}

// SetTasks replaces the items, rendering reminders in zone with lead minutes.
func (m *Model) SetTasks(tasks []models.Task, zone string, lead int) {
	items := make([]list.Item, len(tasks))
	for i, t := range tasks {
		items[i] = Item{Task: t, Zone: zone, Lead: lead}
	}
	m.list.SetItems(items)
}

// Selected returns the highlighted task.
func (m Model) Selected() (models.Task, bool) {
	if i, ok := m.list.SelectedItem().(Item); ok {
		return i.Task, true
	}
	return models.Task{}, false
}

func (m Model) Len() int {
	return len(m.list.Items())
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return "\n  No tasks yet.\n  Press 'a' to add one."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
