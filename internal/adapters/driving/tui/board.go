// Package tui provides an interactive leaderboard view following the
// Elm architecture. It renders ranked model entries immediately and
// fills in bootstrap confidence intervals as replicate chunks complete,
// refreshing automatically when the results database changes.
package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"

	"github.com/proofbench/proofbench-cli/internal/core/domain"
	"github.com/proofbench/proofbench-cli/internal/core/ports/driven"
	"github.com/proofbench/proofbench-cli/internal/core/ports/driving"
	"github.com/proofbench/proofbench-cli/internal/logger"
)

// Ensure Board implements tea.Model.
var _ tea.Model = (*Board)(nil)

// Config wires the board to the core services.
type Config struct {
	// Leaderboard builds ranked entries.
	Leaderboard driving.LeaderboardService

	// Bootstrap streams interval estimates. Optional; without it no
	// intervals are shown.
	Bootstrap driving.BootstrapService

	// Results provides per-model artifacts for resampling.
	Results driven.ResultStore

	// Replicates is the bootstrap replicate count per model.
	Replicates int

	// Shots filters entries to one shot count; nil means all.
	Shots *int

	// WatchPath is the results database file to watch for changes.
	// Empty disables watching.
	WatchPath string
}

// row is one model's display state.
type row struct {
	entry     domain.LeaderboardEntry
	interval  *domain.Interval
	completed int
	total     int
}

// Board is the leaderboard TUI model.
type Board struct {
	cfg    Config
	styles *Styles

	spinner  spinner.Model
	progress progress.Model

	rows    []row
	loading bool
	err     error

	width int

	// updates carries interval estimates from bootstrap goroutines into
	// the Elm loop.
	updates chan IntervalProgress
	watcher *fsnotify.Watcher

	ctx    context.Context
	cancel context.CancelFunc

	// generation invalidates bootstrap goroutines from before a reload.
	mu         sync.Mutex
	generation int
}

// NewBoard creates the leaderboard board.
func NewBoard(cfg Config) *Board {
	ctx, cancel := context.WithCancel(context.Background())

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Board{
		cfg:      cfg,
		styles:   DefaultStyles(),
		spinner:  sp,
		progress: progress.New(progress.WithDefaultGradient()),
		loading:  true,
		updates:  make(chan IntervalProgress, 16),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Init starts loading entries and watching for changes.
func (b *Board) Init() tea.Cmd {
	cmds := []tea.Cmd{b.spinner.Tick, b.loadEntries(), b.waitForUpdate()}
	if cmd := b.watchResults(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
func (b *Board) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			b.shutdown()
			return b, tea.Quit
		case "r":
			return b, b.reload()
		}

	case tea.WindowSizeMsg:
		b.width = msg.Width

	case spinner.TickMsg:
		var cmd tea.Cmd
		b.spinner, cmd = b.spinner.Update(msg)
		return b, cmd

	case EntriesLoaded:
		b.loading = false
		b.err = msg.Err
		b.rows = make([]row, len(msg.Entries))
		for i, e := range msg.Entries {
			b.rows[i] = row{entry: e, interval: e.Interval}
		}
		if msg.Err == nil {
			b.startBootstraps(msg.Entries)
		}
		return b, nil

	case IntervalProgress:
		for i := range b.rows {
			if b.rows[i].entry.ModelID != msg.ModelID {
				continue
			}
			iv := msg.Estimate.Interval
			b.rows[i].interval = &iv
			b.rows[i].completed = msg.Estimate.Completed
			b.rows[i].total = msg.Estimate.Total
		}
		return b, b.waitForUpdate()

	case ResultsChanged:
		cmds := []tea.Cmd{b.reload()}
		if cmd := b.nextWatchEvent(); cmd != nil {
			cmds = append(cmds, cmd)
		}
		return b, tea.Batch(cmds...)
	}

	return b, nil
}

// View renders the board.
func (b *Board) View() string {
	var sb strings.Builder
	sb.WriteString(b.styles.Title.Render("Proofbench Leaderboard"))
	sb.WriteString("\n\n")

	if b.err != nil {
		sb.WriteString(b.styles.Error.Render(fmt.Sprintf("Error: %v", b.err)))
		sb.WriteString("\n")
		return sb.String()
	}

	if b.loading {
		sb.WriteString(fmt.Sprintf("%s Building leaderboard...\n", b.spinner.View()))
		return sb.String()
	}

	if len(b.rows) == 0 {
		sb.WriteString(b.styles.Muted.Render("No evaluation results yet."))
		sb.WriteString("\n")
		return sb.String()
	}

	header := fmt.Sprintf("%-4s %-28s %-9s %-9s %-9s %-17s %s",
		"#", "Model", "Precision", "Recall", "F1", "95% CI", "Shots")
	sb.WriteString(b.styles.Header.Render(header))
	sb.WriteString("\n")

	for i, r := range b.rows {
		style := b.styles.Normal
		if i == 0 {
			style = b.styles.Leader
		}
		sb.WriteString(style.Render(b.renderRow(i+1, r)))
		sb.WriteString("\n")
	}

	if pending, total := b.pendingReplicates(); total > 0 {
		sb.WriteString("\n")
		ratio := float64(total-pending) / float64(total)
		sb.WriteString(b.progress.ViewAs(ratio))
		sb.WriteString(b.styles.Muted.Render(
			fmt.Sprintf("  bootstrap %d/%d replicates", total-pending, total)))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(b.styles.Muted.Render("r refresh · q quit"))
	sb.WriteString("\n")
	return sb.String()
}

// renderRow formats one ranked entry.
func (b *Board) renderRow(rank int, r row) string {
	m := r.entry.Metrics
	ci := "-"
	if r.interval != nil {
		down, up := r.interval.Offsets(m.F1)
		ci = fmt.Sprintf("+%.3f/-%.3f", up, down)
	} else if r.total > 0 && r.completed < r.total {
		ci = fmt.Sprintf("%s %d%%", b.spinner.View(), 100*r.completed/r.total)
	}

	name := r.entry.DisplayName
	if len(name) > 28 {
		name = name[:25] + "..."
	}

	return fmt.Sprintf("%-4d %-28s %-9.4f %-9.4f %-9.4f %-17s %d",
		rank, name, m.Precision, m.Recall, m.F1, ci, r.entry.Shots)
}

// pendingReplicates sums outstanding bootstrap work across rows.
func (b *Board) pendingReplicates() (pending, total int) {
	for _, r := range b.rows {
		if r.total == 0 {
			continue
		}
		total += r.total
		pending += r.total - r.completed
	}
	return pending, total
}

// loadEntries builds the board without intervals; those stream in
// afterwards.
func (b *Board) loadEntries() tea.Cmd {
	return func() tea.Msg {
		entries, err := b.cfg.Leaderboard.Build(b.ctx, driving.LeaderboardOptions{
			Shots: b.cfg.Shots,
		})
		return EntriesLoaded{Entries: entries, Err: err}
	}
}

// reload invalidates in-flight bootstraps and rebuilds the board.
func (b *Board) reload() tea.Cmd {
	b.mu.Lock()
	b.generation++
	b.mu.Unlock()
	b.loading = true
	return tea.Batch(b.spinner.Tick, b.loadEntries())
}

// startBootstraps launches one resampling stream per entry.
func (b *Board) startBootstraps(entries []domain.LeaderboardEntry) {
	if b.cfg.Bootstrap == nil || b.cfg.Results == nil || b.cfg.Replicates <= 0 {
		return
	}

	b.mu.Lock()
	generation := b.generation
	b.mu.Unlock()

	for _, entry := range entries {
		go func(modelID string) {
			files, err := b.cfg.Results.ListByModel(b.ctx, modelID)
			if err != nil {
				logger.Warn("Bootstrap skipped for %s: %v", modelID, err)
				return
			}

			groups := make(map[string][]domain.FileResult)
			for _, f := range files {
				groups[f.FileID] = append(groups[f.FileID], f)
			}

			for est := range b.cfg.Bootstrap.Stream(b.ctx, groups, b.cfg.Replicates) {
				b.mu.Lock()
				stale := generation != b.generation
				b.mu.Unlock()
				if stale {
					return
				}

				select {
				case b.updates <- IntervalProgress{ModelID: modelID, Estimate: est}:
				case <-b.ctx.Done():
					return
				}
			}
		}(entry.ModelID)
	}
}

// waitForUpdate relays the next bootstrap estimate into the Elm loop.
func (b *Board) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		select {
		case update := <-b.updates:
			return update
		case <-b.ctx.Done():
			return nil
		}
	}
}

// watchResults starts an fsnotify watcher on the results database and
// returns the command waiting for its first event.
func (b *Board) watchResults() tea.Cmd {
	if b.cfg.WatchPath == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("Results watcher unavailable: %v", err)
		return nil
	}
	// Watch the directory: SQLite swaps WAL files around the database
	// file itself.
	if err := watcher.Add(filepath.Dir(b.cfg.WatchPath)); err != nil {
		logger.Warn("Cannot watch %s: %v", b.cfg.WatchPath, err)
		watcher.Close()
		return nil
	}
	b.watcher = watcher
	return b.nextWatchEvent()
}

// nextWatchEvent waits for the next write to the results database.
func (b *Board) nextWatchEvent() tea.Cmd {
	if b.watcher == nil {
		return nil
	}
	return func() tea.Msg {
		for {
			select {
			case event, ok := <-b.watcher.Events:
				if !ok {
					return nil
				}
				if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
					continue
				}
				if filepath.Base(event.Name) != filepath.Base(b.cfg.WatchPath) {
					continue
				}
				return ResultsChanged{}
			case <-b.ctx.Done():
				return nil
			}
		}
	}
}

// shutdown stops background work.
func (b *Board) shutdown() {
	b.cancel()
	if b.watcher != nil {
		b.watcher.Close()
	}
}

// Run starts the board in its own bubbletea program.
func Run(cfg Config) error {
	p := tea.NewProgram(NewBoard(cfg), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("leaderboard view: %w", err)
	}
	return nil
}
