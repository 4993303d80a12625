package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var commandContext = exec.CommandContext

// ProgressUpdate is one sample of merge progress, expressed as elapsed
// output duration.
type ProgressUpdate struct {
	Elapsed time.Duration
}

// MergeRequest describes one stream-copy concatenation.
type MergeRequest struct {
	// Chapters are the input paths in validated chapter order.
	Chapters []string
	// OutputPath is the destination; an existing file is overwritten.
	OutputPath string
}

// Client is the boundary to the external media toolchain.
type Client interface {
	// Probe returns the container duration of a single input file.
	Probe(ctx context.Context, path string) (time.Duration, error)
	// Merge concatenates the request's chapters into the output path without
	// re-encoding, streaming progress samples to the callback when non-nil.
	Merge(ctx context.Context, req MergeRequest, progress func(ProgressUpdate)) error
}

// CommandError carries the diagnostic log captured from a failed ffmpeg or
// ffprobe invocation.
type CommandError struct {
	Op  string
	Err error
	Log string
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Op, e.Err)
	if log := strings.TrimSpace(e.Log); log != "" {
		msg += ": " + log
	}
	return msg
}

func (e *CommandError) Unwrap() error { return e.Err }

// Option configures the CLI client.
type Option func(*CLI)

// WithFFmpeg overrides the ffmpeg binary.
func WithFFmpeg(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.ffmpeg = binary
		}
	}
}

// WithFFprobe overrides the ffprobe binary.
func WithFFprobe(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.ffprobe = binary
		}
	}
}

// WithManifestDir overrides where concat manifests are written.
func WithManifestDir(dir string) Option {
	return func(c *CLI) {
		if dir != "" {
			c.manifestDir = dir
		}
	}
}

// CLI shells out to ffmpeg and ffprobe.
type CLI struct {
	ffmpeg      string
	ffprobe     string
	manifestDir string
}

// NewCLI constructs a client with default binary names resolved from PATH.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{ffmpeg: "ffmpeg", ffprobe: "ffprobe", manifestDir: os.TempDir()}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Probe runs ffprobe and decodes the container duration from its JSON
// output.
func (c *CLI) Probe(ctx context.Context, path string) (time.Duration, error) {
	if strings.TrimSpace(path) == "" {
		return 0, errors.New("probe: empty path")
	}
	cmd := commandContext(ctx, c.ffprobe, "-v", "error", "-hide_banner", "-show_format", "-of", "json", "--", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return 0, &CommandError{Op: "ffprobe " + filepath.Base(path), Err: err, Log: string(output)}
	}

	var payload struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(output, &payload); err != nil {
		return 0, fmt.Errorf("ffprobe parse: %w", err)
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(payload.Format.Duration), 64)
	if err != nil || seconds < 0 {
		return 0, fmt.Errorf("ffprobe parse: bad duration %q", payload.Format.Duration)
	}
	return time.Duration(math.Round(seconds * float64(time.Second))), nil
}

// Merge writes the concat manifest and runs the stream-copy concatenation.
// See https://trac.ffmpeg.org/wiki/Concatenate (concat demuxer).
func (c *CLI) Merge(ctx context.Context, req MergeRequest, progress func(ProgressUpdate)) error {
	if len(req.Chapters) == 0 {
		return errors.New("merge: no chapters")
	}
	if strings.TrimSpace(req.OutputPath) == "" {
		return errors.New("merge: empty output path")
	}

	manifest, err := c.writeManifest(req.Chapters)
	if err != nil {
		return err
	}
	defer os.Remove(manifest)

	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-y",
		"-i", manifest,
		"-c", "copy",
		"-loglevel", "error",
		"-progress", "pipe:1",
		req.OutputPath,
	}
	cmd := commandContext(ctx, c.ffmpeg, args...)

	var diagnostics bytes.Buffer
	cmd.Stderr = &diagnostics
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("merge: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return &CommandError{Op: "start ffmpeg", Err: err}
	}

	scanErr := scanProgress(stdout, func(elapsed time.Duration) {
		if progress != nil {
			progress(ProgressUpdate{Elapsed: elapsed})
		}
	})

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &CommandError{Op: "ffmpeg concat", Err: err, Log: diagnostics.String()}
	}
	if scanErr != nil {
		return fmt.Errorf("merge: read ffmpeg progress: %w", scanErr)
	}
	return nil
}

// writeManifest produces a uniquely named concat-demuxer input list. Single
// quotes in paths are escaped the way the demuxer expects.
func (c *CLI) writeManifest(chapters []string) (string, error) {
	var buf bytes.Buffer
	for _, path := range chapters {
		fmt.Fprintf(&buf, "file '%s'\n", strings.ReplaceAll(path, "'", `'\''`))
	}
	path := filepath.Join(c.manifestDir, "gopromerge-"+uuid.NewString()+".txt")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("merge: write concat manifest: %w", err)
	}
	return path, nil
}

var _ Client = (*CLI)(nil)
