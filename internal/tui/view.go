package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/amnyam666/tgdailybot/internal/constants"
	"github.com/amnyam666/tgdailybot/internal/zone"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case StateEditing, StateEditSettings:
		content = docStyle.Render(m.viewForm())
	case StateConfirmDelete:
		content = m.viewConfirmDelete()
	default:
		content = docStyle.Render(m.taskList.View())
	}

	parts := []string{m.viewHeader()}
	if m.toast != "" {
		parts = append(parts, toastStyle.Render("🔔 "+m.toast))
	}
	parts = append(parts, content)
	if m.status != "" {
		parts = append(parts, mutedStyle.Render("  "+m.status))
	}
	parts = append(parts, m.help.View(m))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) viewHeader() string {
	tz := m.settings.Timezone
	local := m.clock.In(zone.Location(tz)).Format("02.01.2006 15:04:05")
	reminders := "reminders on"
	if !m.settings.NotificationsEnabled {
		reminders = "reminders off"
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		headerStyle.Render(constants.AppName),
		clockStyle.Render(local+"  "+zone.Label(tz, m.clock)+"  "+reminders),
	)
}

func (m Model) viewForm() string {
	if m.form == nil {
		return ""
	}
	view := m.form.View()
	if m.formError != "" {
		view = lipgloss.JoinVertical(lipgloss.Left, view, errorStyle.Render(m.formError))
	}
	return lipgloss.JoinVertical(lipgloss.Left, view, mutedStyle.Render("esc to cancel"))
}

func (m Model) viewConfirmDelete() string {
	return lipgloss.Place(m.width, max(m.height-4, 5),
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			dangerStyle.Render("Are you sure you want to delete this task?"),
			"",
			"[y] Yes",
			"[n] No",
		),
	)
}
