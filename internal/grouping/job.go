package grouping

import (
	"path/filepath"

	"gopromerge/internal/recording"
)

// Status tracks a merge job through its lifecycle. Terminal statuses are
// final; the processor never restarts a job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// mergedChapterMarker replaces the chapter field in the output filename.
const mergedChapterMarker = "00"

// MergeJob is one output recording to be produced from an ordered,
// gap-free chapter sequence sharing a group id.
type MergeJob struct {
	GroupID    string
	Chapters   []recording.Recording
	OutputName string
	OutputPath string
	Status     Status
}

// ChapterPaths returns the source paths of the chapters in merge order.
func (j *MergeJob) ChapterPaths() []string {
	paths := make([]string, len(j.Chapters))
	for i, chapter := range j.Chapters {
		paths[i] = chapter.SourcePath
	}
	return paths
}

// outputName derives the merged filename for a cluster: the chapter field is
// replaced with the merged marker, everything else is kept.
func outputName(fp recording.Fingerprint) string {
	return fp.Encoding.String() + mergedChapterMarker + fp.Group.String() + "." + fp.Extension
}

func newMergeJob(chapters []recording.Recording, outputDir string) *MergeJob {
	name := outputName(chapters[0].Fingerprint)
	return &MergeJob{
		GroupID:    chapters[0].Fingerprint.Group.String(),
		Chapters:   chapters,
		OutputName: name,
		OutputPath: filepath.Join(outputDir, name),
		Status:     StatusPending,
	}
}
