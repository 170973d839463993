package ui

import (
	"context"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type doneMsg struct{}

type spinnerModel struct {
	spin  spinner.Model
	label string
	done  bool
}

func newSpinnerModel(label string, style lipgloss.Style) spinnerModel {
	spin := spinner.New()
	spin.Spinner = spinner.MiniDot
	spin.Style = style
	return spinnerModel{spin: spin, label: label}
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spin.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	return m.spin.View() + " " + m.label
}

// Spin runs fn while a spinner labelled label animates on out. When enabled
// is false fn simply runs. The spinner line is cleared before Spin returns.
func Spin(ctx context.Context, out io.Writer, enabled bool, styles Styles, label string, fn func(context.Context) error) error {
	if !enabled {
		return fn(ctx)
	}

	program := tea.NewProgram(
		newSpinnerModel(label, styles.Spinner),
		tea.WithContext(ctx),
		tea.WithInput(nil),
		tea.WithOutput(out),
		tea.WithoutSignalHandler(),
	)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		_, _ = program.Run()
	}()

	err := fn(ctx)
	program.Send(doneMsg{})
	<-finished
	return err
}
