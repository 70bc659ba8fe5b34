// Package tui provides the live terminal view of the schedule lifecycle.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/vleiria/ponto/internal/client"
	"github.com/vleiria/ponto/internal/models"
)

var (
	primaryColor = lipgloss.Color("#7C3AED")
	successColor = lipgloss.Color("#10B981")
	warningColor = lipgloss.Color("#F59E0B")
	errorColor   = lipgloss.Color("#EF4444")
	mutedColor   = lipgloss.Color("#6B7280")
	cyanColor    = lipgloss.Color("#06B6D4")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(cyanColor)

	rowStyle = lipgloss.NewStyle().
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	statusStyles = map[models.TaskStatus]lipgloss.Style{
		models.StatusCreated:   lipgloss.NewStyle().Foreground(mutedColor),
		models.StatusConsulted: lipgloss.NewStyle().Foreground(cyanColor),
		models.StatusScheduled: lipgloss.NewStyle().Foreground(warningColor),
		models.StatusExecuting: lipgloss.NewStyle().Foreground(primaryColor).Bold(true),
		models.StatusSuccess:   lipgloss.NewStyle().Foreground(successColor).Bold(true),
		models.StatusFailure:   lipgloss.NewStyle().Foreground(errorColor).Bold(true),
	}
)

const pollInterval = 2 * time.Second

// Watch is the live monitor model. It polls the backend for the most recent
// records and re-renders on every fetch.
type Watch struct {
	client  *client.Client
	tasks   []models.TaskRecord
	spinner spinner.Model
	err     error
	loaded  bool
	limit   int
}

// NewWatch creates the monitor for the given backend client.
func NewWatch(c *client.Client, limit int) *Watch {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(primaryColor)
	return &Watch{client: c, spinner: sp, limit: limit}
}

type tasksFetchedMsg struct {
	tasks []models.TaskRecord
}

type errMsg struct {
	err error
}

type tickMsg time.Time

func (w *Watch) fetchTasks() tea.Cmd {
	return func() tea.Msg {
		tasks, err := w.client.ListarUltimas(w.limit)
		if err != nil {
			return errMsg{err}
		}
		return tasksFetchedMsg{tasks}
	}
}

func (w *Watch) tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (w *Watch) Init() tea.Cmd {
	return tea.Batch(w.spinner.Tick, w.fetchTasks())
}

func (w *Watch) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return w, tea.Quit
		case "r":
			return w, w.fetchTasks()
		}

	case tasksFetchedMsg:
		w.tasks = msg.tasks
		w.err = nil
		w.loaded = true
		// Schedule the next poll only after the current fetch completes.
		return w, w.tickCmd()

	case errMsg:
		w.err = msg.err
		w.loaded = true
		return w, w.tickCmd()

	case tickMsg:
		return w, w.fetchTasks()

	case spinner.TickMsg:
		var cmd tea.Cmd
		w.spinner, cmd = w.spinner.Update(msg)
		return w, cmd
	}

	return w, nil
}

func (w *Watch) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("ponto · schedule monitor"))
	b.WriteString("\n\n")

	if !w.loaded {
		b.WriteString(fmt.Sprintf("  %s loading...\n", w.spinner.View()))
		return b.String()
	}

	if w.err != nil {
		b.WriteString(lipgloss.NewStyle().Foreground(errorColor).Render("  backend unreachable: " + w.err.Error()))
		b.WriteString("\n\n")
	}

	if len(w.tasks) == 0 {
		b.WriteString(helpStyle.Render("  no records yet"))
		b.WriteString("\n")
	} else {
		b.WriteString(headerStyle.Render(fmt.Sprintf("  %-12s %-7s %-12s %-20s %s",
			"DATE", "TIME", "STATUS", "REQUESTED", "MESSAGE")))
		b.WriteString("\n")
		for _, task := range w.tasks {
			b.WriteString(rowStyle.Render(w.renderRow(task)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("  r refresh · q quit"))
	b.WriteString("\n")
	return b.String()
}

func (w *Watch) renderRow(task models.TaskRecord) string {
	status := statusStyles[task.Status].Render(string(task.Status))
	requested := ""
	if !task.RequestedAt.IsZero() {
		requested = task.RequestedAt.Local().Format("02/01 15:04:05")
	}
	message := task.SuccessMessage
	if len(message) > 40 {
		message = message[:37] + "..."
	}
	done := " "
	if task.CompletedOK {
		done = lipgloss.NewStyle().Foreground(successColor).Render("✓")
	}
	return fmt.Sprintf(" %-12s %s:%-4s %-22s %-20s %s %s",
		task.ExecutionDate, task.Hour, task.Minute, status, requested, done, message)
}

// Run starts the monitor and blocks until the user quits.
func Run(c *client.Client, limit int) error {
	p := tea.NewProgram(NewWatch(c, limit))
	_, err := p.Run()
	return err
}
