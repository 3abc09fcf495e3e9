package ui

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrInterrupted is returned when the user presses ctrl+c during a spin.
var ErrInterrupted = errors.New("interrupted")

type spinnerModel[T any] struct {
	spinner spinner.Model
	message string
	done    bool
	data    T
	err     error
	work    func() (T, error)
}

type workDoneMsg[T any] struct {
	data T
	err  error
}

func newSpinnerModel[T any](message string, work func() (T, error)) spinnerModel[T] {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorCyan)
	return spinnerModel[T]{
		spinner: s,
		message: message,
		work:    work,
	}
}

func (m spinnerModel[T]) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.doWork())
}

func (m spinnerModel[T]) doWork() tea.Cmd {
	return func() tea.Msg {
		data, err := m.work()
		return workDoneMsg[T]{data: data, err: err}
	}
}

func (m spinnerModel[T]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.done = true
			m.err = ErrInterrupted
			return m, tea.Quit
		}

	case workDoneMsg[T]:
		m.done = true
		m.data = msg.data
		m.err = msg.err
		return m, tea.Quit

	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m spinnerModel[T]) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s %s", m.spinner.View(), DimStyle.Render(m.message))
}

// Spin runs work while a spinner with message is drawn on stderr, and
// returns what work returned. Stdout stays clean for command output.
func Spin[T any](message string, work func() (T, error)) (T, error) {
	p := tea.NewProgram(newSpinnerModel(message, work), tea.WithOutput(os.Stderr))

	final, err := p.Run()
	if err != nil {
		var zero T
		return zero, err
	}

	m := final.(spinnerModel[T])
	return m.data, m.err
}
