package processor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gopromerge/internal/ffmpeg"
	"gopromerge/internal/grouping"
	"gopromerge/internal/progress"
	"gopromerge/internal/recording"
)

// fakeClient simulates the external toolchain without spawning processes.
type fakeClient struct {
	mu              sync.Mutex
	chapterDuration time.Duration
	probeErr        error
	failOutputs     map[string]bool
	mergeDelay      time.Duration
	writeOutput     bool

	running    atomic.Int32
	maxRunning atomic.Int32
}

func (f *fakeClient) Probe(ctx context.Context, path string) (time.Duration, error) {
	if f.probeErr != nil {
		return 0, f.probeErr
	}
	return f.chapterDuration, nil
}

func (f *fakeClient) Merge(ctx context.Context, req ffmpeg.MergeRequest, progressFn func(ffmpeg.ProgressUpdate)) error {
	current := f.running.Add(1)
	for {
		observed := f.maxRunning.Load()
		if current <= observed || f.maxRunning.CompareAndSwap(observed, current) {
			break
		}
	}
	defer f.running.Add(-1)

	if f.mergeDelay > 0 {
		select {
		case <-time.After(f.mergeDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if progressFn != nil {
		progressFn(ffmpeg.ProgressUpdate{Elapsed: f.chapterDuration * time.Duration(len(req.Chapters))})
	}

	f.mu.Lock()
	fail := f.failOutputs[filepath.Base(req.OutputPath)]
	f.mu.Unlock()
	if f.writeOutput {
		if err := os.WriteFile(req.OutputPath, []byte("merged"), 0o644); err != nil {
			return err
		}
	}
	if fail {
		return &ffmpeg.CommandError{Op: "ffmpeg concat", Err: errors.New("exit status 1"), Log: "Invalid data found when processing input"}
	}
	return nil
}

// recordingReporter captures the event stream for assertions.
type recordingReporter struct {
	mu     sync.Mutex
	starts map[string]progress.Snapshot
	polls  map[string][]progress.Snapshot
	errs   map[string]error
}

func newRecordingReporter() *recordingReporter {
	return &recordingReporter{
		starts: make(map[string]progress.Snapshot),
		polls:  make(map[string][]progress.Snapshot),
		errs:   make(map[string]error),
	}
}

func (r *recordingReporter) Attach(name string, index, total int) progress.Task {
	return &recordingTask{reporter: r, name: name}
}

func (r *recordingReporter) Done() error { return nil }

type recordingTask struct {
	reporter *recordingReporter
	name     string
}

func (t *recordingTask) Start(s progress.Snapshot) {
	t.reporter.mu.Lock()
	defer t.reporter.mu.Unlock()
	t.reporter.starts[t.name] = s
}

func (t *recordingTask) Update(s progress.Snapshot) {
	t.reporter.mu.Lock()
	defer t.reporter.mu.Unlock()
	t.reporter.polls[t.name] = append(t.reporter.polls[t.name], s)
}

func (t *recordingTask) Finish(err error) {
	t.reporter.mu.Lock()
	defer t.reporter.mu.Unlock()
	t.reporter.errs[t.name] = err
}

func makeJobs(t *testing.T, outputDir string, groups ...string) []*grouping.MergeJob {
	t.Helper()
	var recs []recording.Recording
	for _, group := range groups {
		for _, chapter := range []string{"01", "02"} {
			name := "GH" + chapter + group + ".MP4"
			rec, err := recording.Parse(name)
			if err != nil {
				t.Fatalf("Parse(%q): %v", name, err)
			}
			rec.SourcePath = filepath.Join("/videos", name)
			recs = append(recs, rec)
		}
	}
	jobs, invalid := grouping.Assemble(recs, outputDir)
	if len(invalid) != 0 {
		t.Fatalf("unexpected classification errors: %v", invalid)
	}
	return jobs
}

func TestNewValidation(t *testing.T) {
	if _, err := New(nil, Options{}); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("nil client: got %v", err)
	}
	if _, err := New(&fakeClient{}, Options{Workers: -3}); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("negative workers: got %v", err)
	}
	proc, err := New(&fakeClient{}, Options{})
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	if proc.workers < 1 {
		t.Fatalf("default workers = %d", proc.workers)
	}
}

func TestRunRespectsParallelism(t *testing.T) {
	client := &fakeClient{chapterDuration: time.Second, mergeDelay: 30 * time.Millisecond}
	proc, err := New(client, Options{Workers: 2})
	if err != nil {
		t.Fatal(err)
	}

	jobs := makeJobs(t, t.TempDir(), "0301", "0302", "0303", "0304", "0305")
	report := proc.Run(context.Background(), jobs)

	if report.Completed != 5 || report.Failed != 0 {
		t.Fatalf("completed=%d failed=%d, want 5/0", report.Completed, report.Failed)
	}
	if max := client.maxRunning.Load(); max > 2 {
		t.Fatalf("observed %d concurrent merges, cap is 2", max)
	}
	for _, job := range jobs {
		if job.Status != grouping.StatusCompleted {
			t.Errorf("job %s status = %q", job.GroupID, job.Status)
		}
	}
}

func TestRunIsolatesFailures(t *testing.T) {
	outputDir := t.TempDir()
	logDir := t.TempDir()
	client := &fakeClient{
		chapterDuration: time.Second,
		writeOutput:     true,
		failOutputs:     map[string]bool{"GH000302.MP4": true},
	}
	reporter := newRecordingReporter()
	proc, err := New(client, Options{Workers: 1, Reporter: reporter, LogDir: logDir})
	if err != nil {
		t.Fatal(err)
	}

	jobs := makeJobs(t, outputDir, "0301", "0302", "0303")
	report := proc.Run(context.Background(), jobs)

	if report.Completed != 2 || report.Failed != 1 {
		t.Fatalf("completed=%d failed=%d, want 2/1", report.Completed, report.Failed)
	}
	if !report.HasFailures() {
		t.Fatal("HasFailures() = false")
	}

	var failed JobResult
	for _, result := range report.Results {
		if result.Job.OutputName == "GH000302.MP4" {
			failed = result
		}
	}
	if failed.Err == nil {
		t.Fatal("failing job carries no error")
	}
	if !strings.Contains(failed.Diagnostic, "Invalid data found") {
		t.Errorf("diagnostic = %q", failed.Diagnostic)
	}
	if failed.LogPath == "" {
		t.Fatal("no diagnostic log written")
	}
	data, readErr := os.ReadFile(failed.LogPath)
	if readErr != nil {
		t.Fatalf("read diagnostic log: %v", readErr)
	}
	if !strings.Contains(string(data), "Invalid data found") {
		t.Errorf("diagnostic log content = %q", data)
	}
	if reporter.errs["GH000302.MP4"] == nil {
		t.Error("reporter did not observe the failure")
	}
	if reporter.errs["GH000303.MP4"] != nil {
		t.Error("sibling job reported an error")
	}
}

func TestRunDiscardsPartialOutputWhenConfigured(t *testing.T) {
	outputDir := t.TempDir()
	client := &fakeClient{
		chapterDuration: time.Second,
		writeOutput:     true,
		failOutputs:     map[string]bool{"GH000302.MP4": true},
	}
	proc, err := New(client, Options{Workers: 1, KeepPartialOutput: false})
	if err != nil {
		t.Fatal(err)
	}

	jobs := makeJobs(t, outputDir, "0301", "0302")
	proc.Run(context.Background(), jobs)

	if _, statErr := os.Stat(filepath.Join(outputDir, "GH000302.MP4")); !errors.Is(statErr, os.ErrNotExist) {
		t.Errorf("partial output still present: %v", statErr)
	}
	if _, statErr := os.Stat(filepath.Join(outputDir, "GH000301.MP4")); statErr != nil {
		t.Errorf("completed output removed: %v", statErr)
	}
}

func TestRunKeepsPartialOutputByDefaultPolicy(t *testing.T) {
	outputDir := t.TempDir()
	client := &fakeClient{
		chapterDuration: time.Second,
		writeOutput:     true,
		failOutputs:     map[string]bool{"GH000301.MP4": true},
	}
	proc, err := New(client, Options{Workers: 1, KeepPartialOutput: true})
	if err != nil {
		t.Fatal(err)
	}

	proc.Run(context.Background(), makeJobs(t, outputDir, "0301"))

	if _, statErr := os.Stat(filepath.Join(outputDir, "GH000301.MP4")); statErr != nil {
		t.Errorf("partial output was removed despite keep policy: %v", statErr)
	}
}

func TestRunProbeFailureDegradesProgress(t *testing.T) {
	client := &fakeClient{probeErr: errors.New("moov atom not found")}
	reporter := newRecordingReporter()
	proc, err := New(client, Options{Workers: 1, Reporter: reporter})
	if err != nil {
		t.Fatal(err)
	}

	jobs := makeJobs(t, t.TempDir(), "0301")
	report := proc.Run(context.Background(), jobs)

	// Inspection failure does not block the merge.
	if report.Completed != 1 {
		t.Fatalf("completed=%d, want 1", report.Completed)
	}
	start, ok := reporter.starts["GH000301.MP4"]
	if !ok {
		t.Fatal("no start event observed")
	}
	if start.Total != 0 {
		t.Errorf("start total = %v, want 0 (raw elapsed mode)", start.Total)
	}
}

func TestRunNormalizesProgress(t *testing.T) {
	client := &fakeClient{chapterDuration: 30 * time.Second}
	reporter := newRecordingReporter()
	proc, err := New(client, Options{Workers: 1, Reporter: reporter})
	if err != nil {
		t.Fatal(err)
	}

	proc.Run(context.Background(), makeJobs(t, t.TempDir(), "0301"))

	start := reporter.starts["GH000301.MP4"]
	if start.Total != time.Minute {
		t.Fatalf("start total = %v, want 1m (two 30s chapters)", start.Total)
	}
	polls := reporter.polls["GH000301.MP4"]
	if len(polls) == 0 {
		t.Fatal("no progress updates observed")
	}
	if fraction, ok := polls[len(polls)-1].Fraction(); !ok || fraction != 1 {
		t.Errorf("final fraction = %v, %v", fraction, ok)
	}
}

func TestRunCancelledContextLeavesJobsPending(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := &fakeClient{chapterDuration: time.Second}
	proc, err := New(client, Options{Workers: 2})
	if err != nil {
		t.Fatal(err)
	}

	jobs := makeJobs(t, t.TempDir(), "0301", "0302")
	report := proc.Run(ctx, jobs)

	if report.Aborted != 2 || report.Completed != 0 {
		t.Fatalf("aborted=%d completed=%d, want 2/0", report.Aborted, report.Completed)
	}
	for _, job := range jobs {
		if job.Status != grouping.StatusPending {
			t.Errorf("job %s status = %q, want pending", job.GroupID, job.Status)
		}
	}
	if !report.HasFailures() {
		t.Error("aborted run must count as failed overall")
	}
}

func TestRunEmptyJobList(t *testing.T) {
	proc, err := New(&fakeClient{}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	report := proc.Run(context.Background(), nil)
	if report.HasFailures() || len(report.Results) != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
}
