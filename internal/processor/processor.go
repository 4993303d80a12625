package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"gopromerge/internal/ffmpeg"
	"gopromerge/internal/grouping"
	"gopromerge/internal/logging"
	"gopromerge/internal/progress"
)

// ErrConfiguration marks processor construction failures; nothing has been
// scheduled when it is returned.
var ErrConfiguration = errors.New("configuration error")

// eventBuffer sizes the reporter event channel. Progress samples beyond the
// buffer are dropped, terminal events always get through.
const eventBuffer = 256

// Options configures a Processor.
type Options struct {
	// Workers caps concurrently running jobs. Zero means the host's
	// available CPUs.
	Workers int
	// Logger defaults to a no-op logger.
	Logger *slog.Logger
	// Reporter receives progress events; defaults to the no-op reporter.
	Reporter progress.Reporter
	// LogDir is where per-job diagnostic logs are written on failure.
	// Empty disables diagnostic files.
	LogDir string
	// KeepPartialOutput leaves a half-written output file in place when its
	// merge fails or is cancelled.
	KeepPartialOutput bool
	// RunID tags the run in logs and the final report.
	RunID string
}

// Processor runs merge jobs against the external media toolchain.
type Processor struct {
	client      ffmpeg.Client
	workers     int
	logger      *slog.Logger
	reporter    progress.Reporter
	logDir      string
	keepPartial bool
	runID       string
}

// New validates the options and builds a Processor.
func New(client ffmpeg.Client, opts Options) (*Processor, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: nil merge client", ErrConfiguration)
	}
	workers := opts.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}
	if workers < 1 {
		return nil, fmt.Errorf("%w: parallelism must be a positive integer, got %d", ErrConfiguration, opts.Workers)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	reporter := opts.Reporter
	if reporter == nil {
		reporter = progress.NewNop()
	}
	return &Processor{
		client:      client,
		workers:     workers,
		logger:      logger,
		reporter:    reporter,
		logDir:      opts.LogDir,
		keepPartial: opts.KeepPartialOutput,
		runID:       opts.RunID,
	}, nil
}

type eventKind int

const (
	eventStarted eventKind = iota
	eventProgress
	eventFinished
)

type event struct {
	index    int
	kind     eventKind
	snapshot progress.Snapshot
	err      error
}

// Run drives every job to a terminal state and returns the aggregate report.
// Cancelling the context kills running ffmpeg processes and leaves not yet
// admitted jobs pending; completed outputs are always retained.
func (p *Processor) Run(ctx context.Context, jobs []*grouping.MergeJob) *Report {
	report := &Report{RunID: p.runID, Results: make([]JobResult, len(jobs))}
	if len(jobs) == 0 {
		return report
	}

	tasks := make([]progress.Task, len(jobs))
	for i, job := range jobs {
		tasks[i] = p.reporter.Attach(job.OutputName, i, len(jobs))
	}

	events := make(chan event, eventBuffer)
	var aggregator sync.WaitGroup
	aggregator.Add(1)
	go func() {
		defer aggregator.Done()
		for ev := range events {
			switch ev.kind {
			case eventStarted:
				tasks[ev.index].Start(ev.snapshot)
			case eventProgress:
				tasks[ev.index].Update(ev.snapshot)
			case eventFinished:
				tasks[ev.index].Finish(ev.err)
			}
		}
	}()

	queue := make(chan int)
	var workers sync.WaitGroup
	for w := 0; w < min(p.workers, len(jobs)); w++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for idx := range queue {
				report.Results[idx] = p.runJob(ctx, jobs[idx], idx, events)
			}
		}()
	}
	for idx := range jobs {
		queue <- idx
	}
	close(queue)
	workers.Wait()
	close(events)
	aggregator.Wait()

	report.tally()
	return report
}

func (p *Processor) runJob(ctx context.Context, job *grouping.MergeJob, idx int, events chan<- event) JobResult {
	result := JobResult{Job: job}
	if ctx.Err() != nil {
		// Never started; the job stays pending.
		result.Err = ctx.Err()
		return result
	}

	job.Status = grouping.StatusRunning
	logger := p.logger.With(
		logging.String("group", job.GroupID),
		logging.String("output", job.OutputName),
	)

	total := p.probeTotal(ctx, job, logger)
	publish(events, event{index: idx, kind: eventStarted, snapshot: progress.Snapshot{Total: total}})
	logger.Info("merge started",
		logging.Int("chapters", len(job.Chapters)),
		logging.Duration("expected_duration", total),
	)

	started := time.Now()
	err := p.client.Merge(ctx, ffmpeg.MergeRequest{
		Chapters:   job.ChapterPaths(),
		OutputPath: job.OutputPath,
	}, func(update ffmpeg.ProgressUpdate) {
		publish(events, event{index: idx, kind: eventProgress, snapshot: progress.Snapshot{
			Elapsed: update.Elapsed,
			Total:   total,
		}})
	})
	result.Elapsed = time.Since(started)

	if err != nil {
		job.Status = grouping.StatusFailed
		result.Err = err
		var cmdErr *ffmpeg.CommandError
		if errors.As(err, &cmdErr) {
			result.Diagnostic = cmdErr.Log
		}
		result.LogPath = p.writeDiagnostic(job, result, logger)
		p.discardPartialOutput(job, logger)
		logger.Error("merge failed", logging.Error(err), logging.Duration("took", result.Elapsed))
	} else {
		job.Status = grouping.StatusCompleted
		if info, statErr := os.Stat(job.OutputPath); statErr == nil {
			result.OutputBytes = info.Size()
		}
		logger.Info("merge completed", logging.Duration("took", result.Elapsed))
	}

	publish(events, event{index: idx, kind: eventFinished, err: result.Err})
	return result
}

// probeTotal sums the chapter durations so progress can be normalized. Any
// probe failure degrades the whole job to raw-elapsed progress; the merge
// still proceeds.
func (p *Processor) probeTotal(ctx context.Context, job *grouping.MergeJob, logger *slog.Logger) time.Duration {
	var total time.Duration
	for _, chapter := range job.Chapters {
		duration, err := p.client.Probe(ctx, chapter.SourcePath)
		if err != nil {
			logger.Warn("duration probe failed; progress degrades to raw elapsed time",
				logging.String("chapter", chapter.Name()),
				logging.Error(err),
			)
			return 0
		}
		total += duration
	}
	return total
}

func (p *Processor) writeDiagnostic(job *grouping.MergeJob, result JobResult, logger *slog.Logger) string {
	if p.logDir == "" {
		return ""
	}
	text := result.Diagnostic
	if text == "" && result.Err != nil {
		text = result.Err.Error()
	}
	path := filepath.Join(p.logDir, job.OutputName+".log")
	if err := os.WriteFile(path, []byte(text+"\n"), 0o644); err != nil {
		logger.Warn("failed to write diagnostic log", logging.Error(err))
		return ""
	}
	return path
}

func (p *Processor) discardPartialOutput(job *grouping.MergeJob, logger *slog.Logger) {
	if p.keepPartial {
		return
	}
	if err := os.Remove(job.OutputPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("failed to remove partial output", logging.Error(err))
		return
	}
	logger.Debug("removed partial output", logging.String("path", job.OutputPath))
}

// publish forwards an event without ever stalling a worker: progress samples
// are droppable, start/finish events are not.
func publish(events chan<- event, ev event) {
	if ev.kind == eventProgress {
		select {
		case events <- ev:
		default:
		}
		return
	}
	events <- ev
}
