package notifier

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	toastTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	toastBoxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)
)

// WriterToaster prints toasts as a bordered box. Used by the CLI watch loop.
type WriterToaster struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterToaster(w io.Writer) *WriterToaster {
	return &WriterToaster{w: w}
}

func (t *WriterToaster) Toast(title, body string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	box := toastBoxStyle.Render(toastTitleStyle.Render(title) + "\n" + body)
	fmt.Fprintln(t.w, box)
}

// ToasterFunc adapts a function to the Toaster interface.
type ToasterFunc func(title, body string)

func (f ToasterFunc) Toast(title, body string) { f(title, body) }
