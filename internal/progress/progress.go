// Package progress relays the engine's JSONL event stream into a
// human-readable view, adapted from the original Python implementation's
// log_output package (log_processor.py / output_to_terminal_with_escape_codes.py
// / output_to_graph_view.py), rewritten idiomatically since Go has no
// equivalent of that package's curses-like terminal redraw primitives.
package progress

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/boz/go-throttle"
	"github.com/jesseduffield/asciigraph"

	"github.com/aabtop/respire-go/pkg/i18n"
	"github.com/aabtop/respire-go/pkg/utils"
)

// Event mirrors the wire shape internal/engine's emitter writes.
type Event struct {
	Type string `json:"type"`

	ID      int      `json:"id,omitempty"`
	Command string   `json:"command,omitempty"`
	Inputs  []string `json:"inputs,omitempty"`
	Outputs []string `json:"outputs,omitempty"`

	SoftOuts []string `json:"soft_outs,omitempty"`
	Stdout   string   `json:"stdout,omitempty"`
	Stderr   string   `json:"stderr,omitempty"`
	Stdin    string   `json:"stdin,omitempty"`

	Path string `json:"path,omitempty"`

	DryRun *bool `json:"dry_run,omitempty"`

	Error string `json:"error,omitempty"`
}

// Options configures how Relay renders the event stream.
type Options struct {
	Verbose         bool
	GraphView       bool
	Color           bool
	RefreshInterval time.Duration
	Tr              i18n.TranslationSet
	StatusColors    map[string]string
}

type commandStatus int

const (
	statusPending commandStatus = iota
	statusRunning
	statusDone
	statusFailed
)

func (s commandStatus) label(tr i18n.TranslationSet) string {
	switch s {
	case statusRunning:
		return tr.RunningStatus
	case statusDone:
		return tr.DoneStatus
	case statusFailed:
		return tr.FailedStatus
	default:
		return tr.PendingStatus
	}
}

// monitor accumulates the state a Relay render needs: one row per command
// plus counts for the completed/total progress summary.
type monitor struct {
	opts Options

	createEvents map[int]Event
	statuses     map[int]commandStatus
	order        []int

	totalDiscovered int
	completed       int
	failed          int

	history []float64
}

func newMonitor(opts Options) *monitor {
	return &monitor{
		opts:         opts,
		createEvents: map[int]Event{},
		statuses:     map[int]commandStatus{},
	}
}

// Relay reads newline-delimited Event JSON from r and writes a rendering
// of build progress to w until r is exhausted or ctx-like early return is
// triggered by a read error. It returns the last SignalRespireError
// message seen, if any, so the caller can set the process exit code.
func Relay(r io.Reader, w io.Writer, opts Options) (string, error) {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = 100 * time.Millisecond
	}

	m := newMonitor(opts)
	var lastErr string

	redraw := func() { m.render(w) }
	t := throttle.ThrottleFunc(opts.RefreshInterval, true, redraw)
	defer t.Stop()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var ev Event
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			continue
		}

		if opts.Verbose {
			fmt.Fprintln(w, line)
		}

		switch ev.Type {
		case "CreateSystemCommandNode", "CreateRegistryNode":
			m.createEvents[ev.ID] = ev
			m.statuses[ev.ID] = statusPending
			m.order = append(m.order, ev.ID)
		case "ExecutingCommand":
			if ev.DryRun != nil && *ev.DryRun {
				m.totalDiscovered++
				continue
			}
			m.statuses[ev.ID] = statusRunning
			t.Trigger()
		case "ProcessingComplete":
			if ev.Error != "" {
				m.statuses[ev.ID] = statusFailed
				m.failed++
			} else {
				m.statuses[ev.ID] = statusDone
				m.completed++
			}
			m.history = append(m.history, float64(m.completed))
			t.Trigger()
		case "SignalRespireError":
			lastErr = ev.Error
			t.Trigger()
		}
	}
	if err := scanner.Err(); err != nil {
		return lastErr, err
	}

	t.Stop()
	m.render(w)
	return lastErr, nil
}

func (m *monitor) render(w io.Writer) {
	if m.opts.GraphView && len(m.history) > 1 {
		fmt.Fprintln(w, asciigraph.Plot(m.history, asciigraph.Height(10), asciigraph.Caption("commands completed")))
	}

	rows := make([][]string, 0, len(m.order)+1)
	for _, id := range m.order {
		status := m.statuses[id]
		label := status.label(m.opts.Tr)
		if m.opts.Color {
			label = utils.ColoredString(label, utils.GetColorAttribute(m.statusColorName(status)))
		}
		rows = append(rows, []string{fmt.Sprintf("%d:", id), m.summary(m.createEvents[id]), label})
	}

	if len(rows) == 0 {
		return
	}

	table, err := utils.RenderTable(rows)
	if err != nil {
		return
	}
	fmt.Fprintln(w, table)
	fmt.Fprintf(w, "[%d / %d]\n", m.completed, m.totalDiscovered)
}

func (m *monitor) summary(ev Event) string {
	switch ev.Type {
	case "CreateRegistryNode":
		return ev.Path
	default:
		return utils.SafeTruncate(ev.Command, 80)
	}
}

func (m *monitor) statusColorName(status commandStatus) string {
	names := m.opts.StatusColors
	switch status {
	case statusRunning:
		return lookup(names, "running", "yellow")
	case statusDone:
		return lookup(names, "done", "green")
	case statusFailed:
		return lookup(names, "failed", "red")
	default:
		return lookup(names, "pending", "default")
	}
}

func lookup(m map[string]string, key, fallback string) string {
	if m == nil {
		return fallback
	}
	if v, ok := m[key]; ok && v != "" {
		return v
	}
	return fallback
}
