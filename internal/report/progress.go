package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// doneMsg tells the spinner the work has finished.
type doneMsg struct{}

// spinnerModel implements tea.Model for a single status line.
type spinnerModel struct {
	spinner spinner.Model
	title   string
	start   time.Time
	styles  styles
	done    bool
}

func newSpinnerModel(title string, t Theme) spinnerModel {
	s := newStyles(t)
	return spinnerModel{
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(s.spin)),
		title:   title,
		start:   time.Now(),
		styles:  s,
	}
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	elapsed := time.Since(m.start).Truncate(time.Second)
	return fmt.Sprintf("%s %s %s\n", m.spinner.View(), m.styles.text.Render(m.title), m.styles.dim.Render(elapsed.String()))
}

// RunWithSpinner runs fn while a spinner is drawn on out. The spinner stops
// when fn returns or ctx is cancelled; fn's result is always awaited.
func RunWithSpinner[T any](ctx context.Context, out io.Writer, title string, t Theme, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newSpinnerModel(title, t),
		tea.WithContext(ctx),
		tea.WithInput(nil),
		tea.WithOutput(out),
		tea.WithoutSignalHandler(),
	)

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := fn(ctx)
		done <- outcome{v, err}
		p.Send(doneMsg{})
	}()

	// A display failure does not invalidate the work.
	_, _ = p.Run()
	res := <-done
	return res.value, res.err
}
