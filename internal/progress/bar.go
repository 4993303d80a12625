package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// BarReporter renders one aggregate terminal bar across all merge jobs,
// measured in probed output seconds. When the writer is not a terminal it
// degrades to plain per-job lines.
type BarReporter struct {
	mu          sync.Mutex
	out         io.Writer
	interactive bool
	bar         *progressbar.ProgressBar
	totalJobs   int
	finished    int
	failed      int
}

// NewBarReporter builds a bar reporter writing to out (default os.Stderr).
func NewBarReporter(out io.Writer) *BarReporter {
	if out == nil {
		out = os.Stderr
	}
	interactive := false
	if f, ok := out.(*os.File); ok {
		interactive = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &BarReporter{out: out, interactive: interactive}
}

func (r *BarReporter) Attach(name string, index, total int) Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.totalJobs = total
	return &barTask{reporter: r, name: name, index: index}
}

func (r *BarReporter) Done() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bar != nil {
		if err := r.bar.Finish(); err != nil {
			return err
		}
		fmt.Fprintln(r.out)
	}
	return nil
}

// ensureBar lazily creates the aggregate bar; callers hold r.mu.
func (r *BarReporter) ensureBar() *progressbar.ProgressBar {
	if r.bar == nil {
		r.bar = progressbar.NewOptions64(0,
			progressbar.OptionSetWriter(r.out),
			progressbar.OptionSetDescription(r.describeLocked()),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetRenderBlankState(true),
			progressbar.OptionThrottle(100*time.Millisecond),
		)
	}
	return r.bar
}

func (r *BarReporter) describeLocked() string {
	return fmt.Sprintf("merging %d/%d", r.finished, r.totalJobs)
}

type barTask struct {
	reporter *BarReporter
	name     string
	index    int
	last     time.Duration
	total    time.Duration
}

func (t *barTask) Start(s Snapshot) {
	r := t.reporter
	r.mu.Lock()
	defer r.mu.Unlock()
	t.total = s.Total
	if !r.interactive {
		fmt.Fprintf(r.out, "[%d/%d] %s: merging\n", t.index+1, r.totalJobs, t.name)
		return
	}
	bar := r.ensureBar()
	if s.Total > 0 {
		bar.ChangeMax64(bar.GetMax64() + s.Total.Microseconds())
	}
}

func (t *barTask) Update(s Snapshot) {
	r := t.reporter
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.interactive || r.bar == nil || t.total <= 0 {
		return
	}
	elapsed := min(s.Elapsed, t.total)
	if delta := elapsed - t.last; delta > 0 {
		_ = r.bar.Add64(delta.Microseconds())
		t.last = elapsed
	}
}

func (t *barTask) Finish(err error) {
	r := t.reporter
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished++
	if err != nil {
		r.failed++
	}
	if !r.interactive {
		status := "completed"
		if err != nil {
			status = fmt.Sprintf("failed: %v", err)
		}
		fmt.Fprintf(r.out, "[%d/%d] %s: %s\n", t.index+1, r.totalJobs, t.name, status)
		return
	}
	bar := r.ensureBar()
	if t.total > 0 && t.last < t.total {
		// Account the remainder so the aggregate bar lands on 100% even when
		// ffmpeg's last sample undershot or the job failed midway.
		_ = bar.Add64((t.total - t.last).Microseconds())
		t.last = t.total
	}
	bar.Describe(r.describeLocked())
}
