package processor

import (
	"time"

	"gopromerge/internal/grouping"
)

// JobResult is the terminal record of one merge job.
type JobResult struct {
	Job *grouping.MergeJob
	Err error
	// Diagnostic is the captured ffmpeg log of a failed merge.
	Diagnostic string
	// LogPath points at the diagnostic file written for a failure, when a
	// log directory was configured.
	LogPath string
	// OutputBytes is the size of the merged file on success.
	OutputBytes int64
	// Elapsed is the wall time the merge took.
	Elapsed time.Duration
}

// Report aggregates a whole run. Nothing in it is persisted; it exists only
// to render the summary and decide the exit code.
type Report struct {
	RunID     string
	Results   []JobResult
	Completed int
	Failed    int
	// Aborted counts jobs left pending by a cancelled run.
	Aborted int
}

func (r *Report) tally() {
	for _, result := range r.Results {
		switch result.Job.Status {
		case grouping.StatusCompleted:
			r.Completed++
		case grouping.StatusFailed:
			r.Failed++
		default:
			r.Aborted++
		}
	}
}

// HasFailures reports whether any job failed or was aborted.
func (r *Report) HasFailures() bool {
	return r.Failed > 0 || r.Aborted > 0
}
