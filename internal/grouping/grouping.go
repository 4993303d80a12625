package grouping

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopromerge/internal/recording"
)

// Cluster validation failures.
var (
	ErrChapterGap      = errors.New("chapter sequence has gaps")
	ErrChapterDup      = errors.New("duplicate chapter number")
	ErrMixedExtensions = errors.New("chapters mix file extensions")
	ErrMixedEncodings  = errors.New("chapters mix camera prefixes")
	ErrOutputCollision = errors.New("output path already claimed by another group")
)

// ClassificationError reports why one group could not become a merge job.
type ClassificationError struct {
	GroupID string
	Reason  error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("group %s: %v", e.GroupID, e.Reason)
}

func (e *ClassificationError) Unwrap() error { return e.Reason }

// Scan reads a directory (non-recursive) and classifies every regular file.
// Names that do not match the chaptered scheme are returned as skipped; only
// the directory read itself can fail.
func Scan(dir string) (recordings []recording.Recording, skipped []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("read input directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		rec, parseErr := recording.Parse(name)
		if parseErr != nil {
			skipped = append(skipped, name)
			continue
		}
		rec.SourcePath = filepath.Join(dir, name)
		recordings = append(recordings, rec)
	}
	return recordings, skipped, nil
}

// Assemble clusters recordings by group id, validates each cluster, and
// returns one merge job per valid cluster plus the per-group failures.
// Jobs come back sorted by group id so scheduling order is deterministic.
func Assemble(recordings []recording.Recording, outputDir string) ([]*MergeJob, []*ClassificationError) {
	clusters := make(map[string][]recording.Recording)
	for _, rec := range recordings {
		key := rec.Fingerprint.Group.String()
		clusters[key] = append(clusters[key], rec)
	}

	groupIDs := make([]string, 0, len(clusters))
	for id := range clusters {
		groupIDs = append(groupIDs, id)
	}
	sort.Strings(groupIDs)

	var (
		jobs    []*MergeJob
		invalid []*ClassificationError
		claimed = make(map[string]string) // output path -> group id
	)
	for _, id := range groupIDs {
		chapters := clusters[id]
		sort.Slice(chapters, func(i, j int) bool {
			return chapters[i].Chapter.Value() < chapters[j].Chapter.Value()
		})

		if err := validateCluster(chapters); err != nil {
			invalid = append(invalid, &ClassificationError{GroupID: id, Reason: err})
			continue
		}

		job := newMergeJob(chapters, outputDir)
		// Defensive: distinct group ids cannot normally collide on an output
		// name, but never risk a silent overwrite.
		if owner, ok := claimed[job.OutputPath]; ok {
			invalid = append(invalid, &ClassificationError{
				GroupID: id,
				Reason:  fmt.Errorf("%w (group %s)", ErrOutputCollision, owner),
			})
			continue
		}
		claimed[job.OutputPath] = id
		jobs = append(jobs, job)
	}
	return jobs, invalid
}

// validateCluster checks a chapter-sorted cluster: contiguous 1..N chapter
// numbers and homogeneous extension and camera prefix. A lone chapter 1 is a
// valid, degenerate group.
func validateCluster(chapters []recording.Recording) error {
	first := chapters[0]
	for i, chapter := range chapters {
		switch got := chapter.Chapter.Value(); {
		case got == i: // sorted, so equal values are adjacent
			return fmt.Errorf("%w: chapter %s appears twice", ErrChapterDup, chapter.Chapter)
		case got != i+1:
			return fmt.Errorf("%w: want chapter %02d, have %s", ErrChapterGap, i+1, chapter.Chapter)
		}
		if chapter.Fingerprint.Encoding != first.Fingerprint.Encoding {
			return fmt.Errorf("%w: %s vs %s", ErrMixedEncodings,
				first.Fingerprint.Encoding, chapter.Fingerprint.Encoding)
		}
		if !strings.EqualFold(chapter.Fingerprint.Extension, first.Fingerprint.Extension) {
			return fmt.Errorf("%w: %q vs %q", ErrMixedExtensions,
				first.Fingerprint.Extension, chapter.Fingerprint.Extension)
		}
	}
	return nil
}
