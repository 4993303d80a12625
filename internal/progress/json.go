package progress

import (
	"encoding/json"
	"io"
	"os"
	"sync"
)

// JSONReporter emits one NDJSON event per line, suitable for scripting.
type JSONReporter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONReporter builds a reporter writing to out (default os.Stdout).
func NewJSONReporter(out io.Writer) *JSONReporter {
	if out == nil {
		out = os.Stdout
	}
	return &JSONReporter{enc: json.NewEncoder(out)}
}

type jsonEvent struct {
	Event          string   `json:"event"`
	Job            string   `json:"job"`
	Index          int      `json:"index"`
	Jobs           int      `json:"jobs"`
	Percent        *float64 `json:"percent,omitempty"`
	ElapsedSeconds float64  `json:"elapsed_seconds,omitempty"`
	TotalSeconds   float64  `json:"total_seconds,omitempty"`
	Status         string   `json:"status,omitempty"`
	Error          string   `json:"error,omitempty"`
}

func (r *JSONReporter) Attach(name string, index, total int) Task {
	return &jsonTask{reporter: r, name: name, index: index, jobs: total}
}

func (r *JSONReporter) Done() error { return nil }

func (r *JSONReporter) emit(ev jsonEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.enc.Encode(ev)
}

type jsonTask struct {
	reporter *JSONReporter
	name     string
	index    int
	jobs     int
}

func (t *jsonTask) event(kind string, s Snapshot) jsonEvent {
	ev := jsonEvent{
		Event:          kind,
		Job:            t.name,
		Index:          t.index,
		Jobs:           t.jobs,
		ElapsedSeconds: s.Elapsed.Seconds(),
		TotalSeconds:   s.Total.Seconds(),
	}
	if fraction, ok := s.Fraction(); ok {
		percent := fraction * 100
		ev.Percent = &percent
	}
	return ev
}

func (t *jsonTask) Start(s Snapshot) {
	t.reporter.emit(t.event("started", s))
}

func (t *jsonTask) Update(s Snapshot) {
	t.reporter.emit(t.event("progress", s))
}

func (t *jsonTask) Finish(err error) {
	ev := jsonEvent{Event: "finished", Job: t.name, Index: t.index, Jobs: t.jobs, Status: "completed"}
	if err != nil {
		ev.Status = "failed"
		ev.Error = err.Error()
	}
	t.reporter.emit(ev)
}
