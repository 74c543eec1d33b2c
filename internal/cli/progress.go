package cli

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/excalift/excalift/pkg/report"
)

// progressUI is a live migration progress view, rendered with bubbletea on
// stderr so stdout stays clean for piping. Use it only when stderr is a
// terminal; isTerminal decides that.
type progressUI struct {
	prog *tea.Program
	done chan struct{}
}

type pageMsg report.PageResult

type finishMsg struct{}

type frameMsg time.Time

type progressModel struct {
	message   string
	frames    []string
	frame     int
	processed int
	modified  int
	errored   int
	lastTitle string
}

func tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (m progressModel) Init() tea.Cmd {
	return tick()
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		m.frame = (m.frame + 1) % len(m.frames)
		return m, tick()
	case pageMsg:
		m.processed++
		m.lastTitle = msg.PageTitle
		switch msg.Status {
		case report.StatusModified:
			m.modified++
		case report.StatusError:
			m.errored++
		}
		return m, nil
	case finishMsg:
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m progressModel) View() string {
	line := styleIconSpinner.Render(m.frames[m.frame]) + " " + StyleDim.Render(m.message)
	line += StyleDim.Render(fmt.Sprintf("  %d processed · %d modified", m.processed, m.modified))
	if m.errored > 0 {
		line += " " + StyleWarning.Render(fmt.Sprintf("· %d errors", m.errored))
	}
	if m.lastTitle != "" {
		line += "\n  " + StyleDim.Render(m.lastTitle)
	}
	return line + "\n"
}

// newProgressUI starts the view in its own goroutine.
func newProgressUI(message string) *progressUI {
	model := progressModel{
		message: message,
		frames:  []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
	}
	u := &progressUI{
		prog: tea.NewProgram(model, tea.WithOutput(os.Stderr)),
		done: make(chan struct{}),
	}
	go func() {
		defer close(u.done)
		_, _ = u.prog.Run()
	}()
	return u
}

// Page feeds one page outcome into the view. Safe to call from the
// migration goroutine.
func (u *progressUI) Page(r report.PageResult) {
	u.prog.Send(pageMsg(r))
}

// Finish stops the view and waits for the terminal to be restored.
func (u *progressUI) Finish() {
	u.prog.Send(finishMsg{})
	<-u.done
}

// isTerminal reports whether f is attached to a character device.
func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}
