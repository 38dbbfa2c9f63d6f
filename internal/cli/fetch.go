package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/guiyumin/igget/internal/core/config"
	"github.com/guiyumin/igget/internal/core/extractor"
	"github.com/guiyumin/igget/internal/core/i18n"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	fetchJSON       bool
	fetchStrategies []string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <instagram-url>",
	Short: "Resolve an Instagram post, reel or story into media URLs",
	Long: `Resolve an Instagram URL into its caption, author and media URLs.

Strategies are tried in order until one succeeds.

Examples:
  igget fetch https://www.instagram.com/p/ABC123/
  igget fetch https://www.instagram.com/reel/ABC123/ --json
  igget fetch https://instagr.am/p/ABC123 --strategies embed,oembed`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().BoolVar(&fetchJSON, "json", false, "print the result as JSON")
	fetchCmd.Flags().StringSliceVar(&fetchStrategies, "strategies", nil, "strategy order override (page, embed, graphql, api, oembed)")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(fetchStrategies) > 0 {
		cfg.Instagram.Strategies = fetchStrategies
	}
	t := i18n.T(cfg.Language)

	result, err := resolve(cmd.Context(), cfg, args[0], !fetchJSON)
	if err != nil {
		return err
	}

	if fetchJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printResult(t, result)
	return nil
}

// resolve runs the extraction pipeline for rawURL. A spinner is shown when
// interactive is set and stdout is a terminal.
func resolve(parent context.Context, cfg *config.Config, rawURL string, interactive bool) (*extractor.Result, error) {
	t := i18n.T(cfg.Language)

	ex, err := extractor.New(cfg.ExtractorOptions(), logAttempt)
	if err != nil {
		return nil, err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()
	if cfg.Server.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Server.RequestTimeout)
		defer cancel()
	}

	var result *extractor.Result
	if interactive && !verboseFlag && isTerminal() {
		result, err = runFetchWithSpinner(ctx, ex, rawURL, cfg.Language)
	} else {
		result, err = ex.Extract(ctx, rawURL)
	}
	if err != nil {
		return nil, fetchError(t, err)
	}
	return result, nil
}

// fetchError maps pipeline errors onto the localized messages
func fetchError(t *i18n.Translations, err error) error {
	switch {
	case errors.Is(err, extractor.ErrNotRecognized):
		return errors.New(t.Errors.InvalidURL)
	case errors.Is(err, extractor.ErrExhausted):
		return errors.New(t.Errors.FetchFailed)
	case errors.Is(err, context.DeadlineExceeded):
		return errors.New(t.Errors.Timeout)
	}
	return err
}

func logAttempt(ctx context.Context, ev extractor.AttemptEvent) {
	attrs := []any{"strategy", ev.Strategy, "outcome", ev.Outcome, "latency", ev.Latency.Round(time.Millisecond)}
	if ev.Status > 0 {
		attrs = append(attrs, "status", ev.Status)
	}
	if ev.Err != nil {
		slog.DebugContext(ctx, "attempt failed", append(attrs, "error", ev.Err)...)
		return
	}
	slog.DebugContext(ctx, "attempt succeeded", attrs...)
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func printResult(t *i18n.Translations, r *extractor.Result) {
	bold := color.New(color.Bold)
	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)

	bold.Printf("%s: ", t.Fetch.Type)
	green.Println(r.Type)
	if r.Shortcode != "" {
		bold.Printf("%s: ", t.Fetch.Shortcode)
		fmt.Println(r.Shortcode)
	}
	bold.Printf("%s: ", t.Fetch.Author)
	fmt.Println(r.Author)
	if r.Caption != "" {
		bold.Printf("%s: ", t.Fetch.Caption)
		fmt.Println(truncate(r.Caption, 200))
	}
	if r.Thumbnail != "" {
		bold.Printf("%s: ", t.Fetch.Thumbnail)
		fmt.Println(r.Thumbnail)
	}

	fmt.Println()
	bold.Printf("%s (%d):\n", t.Fetch.Media, len(r.Media))
	for i, m := range r.Media {
		cyan.Printf("  [%d] %s\n", i+1, m.Kind)
		fmt.Printf("      %s\n", m.URL)
	}
}

// truncate flattens s to one line of at most n terminal cells
func truncate(s string, n int) string {
	return runewidth.Truncate(strings.ReplaceAll(s, "\n", " "), n, "...")
}

var (
	fetchInfoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	fetchDoneStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	fetchErrStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// fetchState holds the background resolve outcome
type fetchState struct {
	mu     sync.RWMutex
	done   bool
	err    error
	result *extractor.Result
}

func (s *fetchState) finish(result *extractor.Result, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = true
	s.result = result
	s.err = err
}

func (s *fetchState) get() (bool, *extractor.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.done, s.result, s.err
}

type fetchTickMsg time.Time

type fetchModel struct {
	spinner spinner.Model
	t       *i18n.Translations
	url     string
	state   *fetchState
}

func newFetchModel(url, lang string, state *fetchState) fetchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return fetchModel{
		spinner: s,
		t:       i18n.T(lang),
		url:     url,
		state:   state,
	}
}

func fetchTickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return fetchTickMsg(t)
	})
}

func (m fetchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, fetchTickCmd())
}

func (m fetchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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

	case fetchTickMsg:
		if done, _, _ := m.state.get(); done {
			return m, tea.Quit
		}
		return m, fetchTickCmd()
	}

	return m, nil
}

func (m fetchModel) View() string {
	done, result, err := m.state.get()

	if err != nil {
		return fmt.Sprintf("\n  %s %v\n\n", fetchErrStyle.Render("✗"), fetchError(m.t, err))
	}
	if done && result != nil {
		return fmt.Sprintf("\n  %s %s (%s, %d)\n\n",
			fetchDoneStyle.Render("✓"),
			fetchInfoStyle.Render(result.Shortcode),
			result.Type,
			len(result.Media),
		)
	}
	return fmt.Sprintf("\n  %s %s: %s\n\n",
		m.spinner.View(),
		m.t.Fetch.Resolving,
		fetchInfoStyle.Render(m.url),
	)
}

// runFetchWithSpinner resolves in the background while showing a spinner
func runFetchWithSpinner(ctx context.Context, ex *extractor.InstagramExtractor, url, lang string) (*extractor.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	state := &fetchState{}
	go func() {
		state.finish(ex.Extract(ctx, url))
	}()

	if _, err := tea.NewProgram(newFetchModel(url, lang, state)).Run(); err != nil {
		return nil, err
	}

	done, result, err := state.get()
	if !done {
		return nil, fmt.Errorf("fetch cancelled")
	}
	return result, err
}
