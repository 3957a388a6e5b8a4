package engine

import (
	"encoding/json"
	"io"
	"sync"
)

// event is the line-delimited JSON object the engine emits on stdout,
// spec §4.E "Event stream". Fields are a union of every defined event's
// fields; omitempty keeps each line down to the kind that's relevant.
type event struct {
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

func boolPtr(b bool) *bool { return &b }

// emitter writes events as JSONL. Commands run concurrently, so writes
// are serialized with a mutex to keep lines from interleaving.
type emitter struct {
	mu  sync.Mutex
	w   io.Writer
	enc *json.Encoder
}

func newEmitter(w io.Writer) *emitter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &emitter{w: w, enc: enc}
}

func (em *emitter) emit(ev event) {
	// Event ordering on stdout is the UI's only signal; a marshal error
	// here would mean a bug in this package, not a user-facing condition,
	// so best-effort write and move on rather than failing the build.
	em.mu.Lock()
	defer em.mu.Unlock()
	_ = em.enc.Encode(ev)
}

func (e *Engine) emit(ev event) {
	if e.emitter != nil {
		e.emitter.emit(ev)
	}
}

func (e *Engine) signalError(err error) {
	e.emit(event{Type: "SignalRespireError", Error: err.Error()})
}

// announceDiscoveryLocked emits the dry_run:true ExecutingCommand event
// the first time a command is created, so progress UIs can count total
// work (spec §4.E "Dry-run enumeration"). Must be called with e.mu held.
func (e *Engine) announceDiscoveryLocked(cmd *commandNode) {
	if cmd.dryRunAnnounced {
		return
	}
	cmd.dryRunAnnounced = true
	e.emit(event{Type: "ExecutingCommand", ID: cmd.id, DryRun: boolPtr(true)})
}
