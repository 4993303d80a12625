package progress

import "time"

// Snapshot is one observation of a job's merge progress.
type Snapshot struct {
	Elapsed time.Duration
	// Total is the probed duration of all chapters. Zero means the probe
	// failed and progress can only be shown as raw elapsed time.
	Total time.Duration
}

// Fraction returns progress in [0,1] when the total duration is known.
func (s Snapshot) Fraction() (float64, bool) {
	if s.Total <= 0 {
		return 0, false
	}
	fraction := s.Elapsed.Seconds() / s.Total.Seconds()
	if fraction > 1 {
		fraction = 1
	}
	return fraction, true
}

// Task receives the event stream for a single merge job, in order:
// Start once, Update zero or more times, Finish once.
type Task interface {
	Start(s Snapshot)
	Update(s Snapshot)
	Finish(err error)
}

// Reporter renders the progress of a whole run.
type Reporter interface {
	// Attach registers a job before any merging starts. index is the
	// zero-based scheduling position, total the overall job count.
	Attach(name string, index, total int) Task

	// Done flushes output after every attached task has finished.
	Done() error
}

// NewNop returns a reporter that discards everything.
func NewNop() Reporter { return nopReporter{} }

type nopReporter struct{}

func (nopReporter) Attach(string, int, int) Task { return nopTask{} }
func (nopReporter) Done() error                  { return nil }

type nopTask struct{}

func (nopTask) Start(Snapshot)  {}
func (nopTask) Update(Snapshot) {}
func (nopTask) Finish(error)    {}
