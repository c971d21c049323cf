package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jamesainslie/boost/pkg/boost/logging"
	"github.com/jamesainslie/boost/pkg/boost/types"
)

// Sampler is the part of an optimizer the monitor reads. Calls are never
// concurrent.
type Sampler interface {
	FindTarget(ctx context.Context) bool
	Snapshot(ctx context.Context) (types.ProcessSnapshot, error)
}

// Options configures the monitor.
type Options struct {
	Sampler  Sampler
	Interval time.Duration
	Title    string

	// Record, when set, is called with every snapshot of a running target.
	Record func(types.ProcessSnapshot) error

	// Logs holds recent entries for the log pane and Updates signals new
	// ones. Both are optional.
	Logs    *logging.LogBuffer
	Updates <-chan logging.LogEntry
}

// historySize is how many samples the sparklines show.
const historySize = 48

// Model is the Bubble Tea model of the live monitor.
type Model struct {
	opts     Options
	ctx      context.Context
	cancel   context.CancelFunc
	gate     *sampleGate
	keys     keyMap
	help     help.Model
	spinner  spinner.Model
	interval time.Duration

	bound      bool
	snap       types.ProcessSnapshot
	hasSnap    bool
	samples    int
	recorded   int
	peakMem    uint64
	peakCPU    float64
	cpuHistory []float64
	memHistory []float64
	err        error
	recordErr  error

	// gen invalidates ticks scheduled before the latest sample.
	gen      int
	inflight bool
	refind   bool
	paused   bool

	logs   logPane
	width  int
	height int
}

// NewModel returns a monitor over opts.Sampler. A non-positive interval
// falls back to two seconds.
func NewModel(opts Options) Model {
	ctx, cancel := context.WithCancel(context.Background())

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(accentColor)

	interval := opts.Interval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if opts.Title == "" {
		opts.Title = "Boost Monitor"
	}

	return Model{
		opts:     opts,
		ctx:      ctx,
		cancel:   cancel,
		gate:     &sampleGate{},
		keys:     newKeyMap(),
		help:     help.New(),
		spinner:  s,
		interval: interval,
		logs:     logPane{level: logging.LevelInfo},
		width:    80,
		height:   24,
		inflight: true,
	}
}

type tickMsg struct{ gen int }

type sampleMsg struct {
	snap      types.ProcessSnapshot
	bound     bool
	err       error
	recordErr error
}

type logMsg struct{ ok bool }

// IntervalMsg changes the sampling interval, e.g. after a config reload.
type IntervalMsg time.Duration

// Init starts the first sample.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.sample(true), m.listenLogs())
}

// sampleGate tracks sample commands running on Bubble Tea goroutines so
// Close can wait for them. No sample starts once the gate is closed.
type sampleGate struct {
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func (g *sampleGate) enter() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return false
	}
	g.wg.Add(1)
	return true
}

func (g *sampleGate) leave() { g.wg.Done() }

func (g *sampleGate) close() {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
	g.wg.Wait()
}

// sample finds the target when asked to, then snapshots it.
func (m Model) sample(find bool) tea.Cmd {
	s, ctx, record, gate := m.opts.Sampler, m.ctx, m.opts.Record, m.gate
	return func() tea.Msg {
		if !gate.enter() {
			return nil
		}
		defer gate.leave()

		if find && !s.FindTarget(ctx) {
			return sampleMsg{}
		}
		snap, err := s.Snapshot(ctx)
		if err != nil {
			return sampleMsg{err: err}
		}
		msg := sampleMsg{snap: snap, bound: snap.Running}
		if record != nil && snap.Running {
			msg.recordErr = record(snap)
		}
		return msg
	}
}

func (m Model) tick() tea.Cmd {
	gen := m.gen
	return tea.Tick(m.interval, func(time.Time) tea.Msg { return tickMsg{gen: gen} })
}

func (m Model) listenLogs() tea.Cmd {
	if m.opts.Updates == nil {
		return nil
	}
	ch := m.opts.Updates
	return func() tea.Msg {
		_, ok := <-ch
		return logMsg{ok: ok}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case sampleMsg:
		m.inflight = false
		m.apply(msg)
		if m.refind {
			m.refind = false
			m.inflight = true
			return m, m.sample(true)
		}
		m.gen++
		return m, m.tick()

	case tickMsg:
		if msg.gen != m.gen || m.paused || m.inflight {
			return m, nil
		}
		m.inflight = true
		return m, m.sample(!m.bound)

	case IntervalMsg:
		if d := time.Duration(msg); d > 0 {
			m.interval = d
		}
		return m, nil

	case logMsg:
		if !msg.ok {
			return m, nil
		}
		return m, m.listenLogs()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// apply folds a sample into the model.
func (m *Model) apply(msg sampleMsg) {
	m.err = nil
	if msg.err != nil && !errors.Is(msg.err, types.ErrNoHandle) {
		m.err = msg.err
	}
	m.bound = msg.bound

	if !msg.bound {
		if m.hasSnap {
			m.snap.Running = false
		}
		return
	}

	m.snap = msg.snap
	m.hasSnap = true
	m.samples++
	m.peakMem = max(m.peakMem, msg.snap.MemoryBytes)
	m.peakCPU = max(m.peakCPU, msg.snap.CPUPercent)
	m.cpuHistory = pushHistory(m.cpuHistory, msg.snap.CPUPercent)
	m.memHistory = pushHistory(m.memHistory, float64(msg.snap.MemoryBytes))

	m.recordErr = msg.recordErr
	if m.opts.Record != nil && msg.recordErr == nil {
		m.recorded++
	}
}

func pushHistory(h []float64, v float64) []float64 {
	h = append(h, v)
	if len(h) > historySize {
		h = h[len(h)-historySize:]
	}
	return h
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Pause):
		m.paused = !m.paused
		if !m.paused && !m.inflight {
			m.inflight = true
			return m, m.sample(!m.bound)
		}

	case key.Matches(msg, m.keys.Refind):
		if m.inflight {
			m.refind = true
			return m, nil
		}
		m.inflight = true
		return m, m.sample(true)

	case key.Matches(msg, m.keys.Logs):
		m.logs.open = !m.logs.open
		m.logs.offset = 0

	case key.Matches(msg, m.keys.Filter) && m.logs.open:
		if lvl, err := logging.ParseLevel(levelForKey(msg.String())); err == nil {
			m.logs.level = lvl
			m.logs.offset = 0
		}

	case key.Matches(msg, m.keys.LogUp) && m.logs.open:
		m.logs.offset++

	case key.Matches(msg, m.keys.LogDown) && m.logs.open:
		if m.logs.offset > 0 {
			m.logs.offset--
		}

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func levelForKey(k string) string {
	switch k {
	case "1":
		return "debug"
	case "2":
		return "info"
	case "3":
		return "warn"
	default:
		return "error"
	}
}

// View renders the monitor.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.opts.Title))
	b.WriteString("  ")
	b.WriteString(m.statusLine())
	b.WriteString("\n\n")

	if m.hasSnap {
		b.WriteString(m.metrics())
	} else {
		b.WriteString(mutedTextStyle.Render("No samples yet"))
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorTextStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	}
	if m.recordErr != nil {
		b.WriteString(warningTextStyle.Render("Recording failed: " + m.recordErr.Error()))
		b.WriteString("\n")
	}

	inner := max(20, m.width-4)
	if m.logs.open {
		b.WriteString("\n")
		b.WriteString(m.logs.render(m.logEntries(), inner, m.logRows()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	return outerBoxStyle.Width(inner + 2).Render(b.String())
}

func (m Model) statusLine() string {
	switch {
	case m.paused:
		return warningTextStyle.Render("❚❚ paused")
	case m.bound:
		return successTextStyle.Render("● " + m.snap.ProcessDescriptor.String())
	case m.hasSnap:
		return warningTextStyle.Render("○ "+m.snap.Name+" exited, ") + m.spinner.View() + mutedTextStyle.Render(" waiting for it to restart")
	default:
		return m.spinner.View() + mutedTextStyle.Render(" Waiting for the game to start")
	}
}

func (m Model) metrics() string {
	row := func(label, value string) string {
		return labelStyle.Render(label) + value + "\n"
	}

	var b strings.Builder
	b.WriteString(row("Memory", valueStyle.Render(m.snap.HumanMemory())+mutedTextStyle.Render("  peak "+types.FormatBytes(m.peakMem))))
	b.WriteString(row("", sparkStyle.Render(sparkline(m.memHistory, 0))))
	b.WriteString(row("CPU", valueStyle.Render(fmt.Sprintf("%.1f%%", m.snap.CPUPercent))+mutedTextStyle.Render(fmt.Sprintf("  peak %.1f%%", m.peakCPU))))
	b.WriteString(row("", sparkStyle.Render(sparkline(m.cpuHistory, 100))))

	samples := fmt.Sprintf("%d", m.samples)
	if m.opts.Record != nil {
		samples += fmt.Sprintf(" (%d recorded)", m.recorded)
	}
	b.WriteString(row("Samples", samples))
	b.WriteString(row("Interval", m.interval.String()))
	b.WriteString(row("Updated", m.snap.SampledAt.Format("15:04:05")))
	return b.String()
}

func (m Model) logEntries() []logging.LogEntry {
	if m.opts.Logs == nil {
		return nil
	}
	return m.opts.Logs.Entries()
}

// logRows is the log pane height left after the fixed sections.
func (m Model) logRows() int {
	return max(3, m.height-18)
}

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// sparkline draws values scaled to ceiling, or to the largest value when
// ceiling is 0.
func sparkline(values []float64, ceiling float64) string {
	if len(values) == 0 {
		return ""
	}
	if ceiling <= 0 {
		for _, v := range values {
			ceiling = max(ceiling, v)
		}
	}
	if ceiling <= 0 {
		return strings.Repeat(string(sparkRunes[0]), len(values))
	}

	out := make([]rune, len(values))
	top := len(sparkRunes) - 1
	for i, v := range values {
		idx := int(v / ceiling * float64(top))
		out[i] = sparkRunes[min(max(idx, 0), top)]
	}
	return string(out)
}

// Close cancels sampling and waits for a sample still in flight, so the
// sampler and recorder can be closed safely afterwards.
func (m Model) Close() {
	m.cancel()
	m.gate.close()
}
