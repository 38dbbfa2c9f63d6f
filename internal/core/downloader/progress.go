package downloader

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guiyumin/igget/internal/core/i18n"
)

var (
	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	infoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	doneStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// saveState is shared between the copy goroutine and the UI
type saveState struct {
	mu        sync.RWMutex
	current   int64
	total     int64
	speed     float64
	done      bool
	err       error
	startTime time.Time
	endTime   time.Time
}

func (s *saveState) add(n int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current += n
	if elapsed := time.Since(s.startTime).Seconds(); elapsed > 0 {
		s.speed = float64(s.current) / elapsed
	}
}

func (s *saveState) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endTime = time.Now()
	if elapsed := s.endTime.Sub(s.startTime).Seconds(); elapsed > 0 {
		s.speed = float64(s.current) / elapsed
	}
	s.err = err
	s.done = true
}

func (s *saveState) get() (current, total int64, speed float64, done bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.total, s.speed, s.done, s.err
}

func (s *saveState) elapsed() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.endTime.IsZero() {
		return time.Since(s.startTime)
	}
	return s.endTime.Sub(s.startTime)
}

// countingWriter reports every write to the shared state
type countingWriter struct {
	w     io.Writer
	state *saveState
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.state.add(int64(n))
	return n, err
}

type tickMsg time.Time

// saveModel is the Bubble Tea model for download progress
type saveModel struct {
	progress progress.Model
	spinner  spinner.Model
	t        *i18n.Translations

	output string
	state  *saveState
}

func newSaveModel(output, lang string, state *saveState) saveModel {
	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(50),
	)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return saveModel{
		progress: p,
		spinner:  s,
		t:        i18n.T(lang),
		output:   output,
		state:    state,
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m saveModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

func (m saveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case tickMsg:
		current, total, _, done, _ := m.state.get()
		if done {
			return m, tea.Quit
		}
		cmds := []tea.Cmd{tickCmd()}
		if total > 0 {
			cmds = append(cmds, m.progress.SetPercent(float64(current)/float64(total)))
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m saveModel) View() string {
	current, total, speed, done, err := m.state.get()

	if err != nil {
		return fmt.Sprintf("\n  %s %s: %v\n\n", errStyle.Render("✗"), m.t.Download.Failed, err)
	}

	if done {
		displayPath := m.output
		if absPath, err := filepath.Abs(displayPath); err == nil {
			displayPath = absPath
		}
		return fmt.Sprintf("\n  %s %s\n  %s: %s (%s)\n  %s: %s  |  %s: %s/s\n\n",
			doneStyle.Render("✓"),
			m.t.Download.Completed,
			m.t.Download.FileSaved,
			displayPath,
			formatBytes(current),
			m.t.Download.Elapsed,
			formatDuration(m.state.elapsed()),
			m.t.Download.AvgSpeed,
			formatBytes(int64(speed)),
		)
	}

	s := fmt.Sprintf("\n  %s %s: %s\n\n", m.spinner.View(), m.t.Download.Downloading, infoStyle.Render(filepath.Base(m.output)))
	s += fmt.Sprintf("  %s\n\n", m.progress.View())

	if total > 0 {
		s += fmt.Sprintf("  %s: %.1f%%  |  %s/%s  |  %s: %s/s  |  %s: %s\n",
			m.t.Download.Progress,
			float64(current)/float64(total)*100,
			formatBytes(current),
			formatBytes(total),
			m.t.Download.Speed,
			formatBytes(int64(speed)),
			m.t.Download.ETA,
			calculateETA(total-current, speed),
		)
	} else {
		s += fmt.Sprintf("  %s  |  %s: %s/s\n", formatBytes(current), m.t.Download.Speed, formatBytes(int64(speed)))
	}

	s += "\n" + helpStyle.Render("  "+m.t.Download.CancelHint) + "\n"
	return s
}

func calculateETA(remaining int64, speed float64) string {
	if speed <= 0 {
		return "??:??"
	}
	return formatDuration(time.Duration(float64(remaining)/speed) * time.Second)
}

// RunSaveTUI copies the asset to output while showing a progress display.
// The asset is closed.
func RunSaveTUI(asset *Asset, output, lang string) error {
	state := &saveState{total: asset.Size, startTime: time.Now()}

	file, err := os.Create(output)
	if err != nil {
		asset.Close()
		return fmt.Errorf("failed to create output file: %w", err)
	}

	go func() {
		_, err := io.Copy(&countingWriter{w: file, state: state}, asset.Body)
		if closeErr := file.Close(); err == nil {
			err = closeErr
		}
		state.finish(err)
	}()

	if _, err := tea.NewProgram(newSaveModel(output, lang, state)).Run(); err != nil {
		asset.Close()
		return err
	}

	// quitting early (q / ctrl+c) aborts the transfer
	_, _, _, done, copyErr := state.get()
	asset.Close()
	if !done {
		return fmt.Errorf("download cancelled")
	}
	return copyErr
}
