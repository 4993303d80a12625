package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewCLIOptions(t *testing.T) {
	cli := NewCLI(WithFFmpeg("/opt/ffmpeg"), WithFFprobe("/opt/ffprobe"), WithManifestDir("/tmp/manifests"))
	if cli.ffmpeg != "/opt/ffmpeg" || cli.ffprobe != "/opt/ffprobe" || cli.manifestDir != "/tmp/manifests" {
		t.Fatalf("options not applied: %+v", cli)
	}
}

func TestProbeRequiresPath(t *testing.T) {
	if _, err := NewCLI().Probe(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestMergeRequiresInputs(t *testing.T) {
	cli := NewCLI()
	if err := cli.Merge(context.Background(), MergeRequest{OutputPath: "/out.mp4"}, nil); err == nil {
		t.Fatal("expected error when chapter list is empty")
	}
	if err := cli.Merge(context.Background(), MergeRequest{Chapters: []string{"a.mp4"}}, nil); err == nil {
		t.Fatal("expected error when output path is empty")
	}
}

func TestWriteManifestEscapesQuotes(t *testing.T) {
	cli := NewCLI(WithManifestDir(t.TempDir()))
	path, err := cli.writeManifest([]string{"/videos/GH010307.MP4", "/videos/it's here/GH020307.MP4"})
	if err != nil {
		t.Fatalf("writeManifest: %v", err)
	}
	defer os.Remove(path)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "file '/videos/GH010307.MP4'\nfile '/videos/it'\\''s here/GH020307.MP4'\n"
	if string(data) != want {
		t.Fatalf("manifest = %q, want %q", data, want)
	}
}

func TestProbeSuccess(t *testing.T) {
	setHelperCommand(t, "probe")

	duration, err := NewCLI().Probe(context.Background(), "/videos/GH010307.MP4")
	if err != nil {
		t.Fatalf("Probe returned error: %v", err)
	}
	want := 5*time.Second + 449002*time.Microsecond
	if duration != want {
		t.Fatalf("duration = %v, want %v", duration, want)
	}
}

func TestProbeFailureCarriesLog(t *testing.T) {
	setHelperCommand(t, "probe-fail")

	_, err := NewCLI().Probe(context.Background(), "/videos/broken.MP4")
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("error = %v, want *CommandError", err)
	}
	if !strings.Contains(cmdErr.Log, "moov atom not found") {
		t.Fatalf("diagnostic log = %q", cmdErr.Log)
	}
}

func TestMergeStreamsProgress(t *testing.T) {
	setHelperCommand(t, "merge")

	dir := t.TempDir()
	cli := NewCLI(WithManifestDir(dir))
	var samples []time.Duration
	err := cli.Merge(context.Background(), MergeRequest{
		Chapters:   []string{"/videos/GH010307.MP4", "/videos/GH020307.MP4"},
		OutputPath: filepath.Join(dir, "GH000307.MP4"),
	}, func(update ProgressUpdate) {
		samples = append(samples, update.Elapsed)
	})
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	if len(samples) == 0 {
		t.Fatal("expected progress samples")
	}
	if last := samples[len(samples)-1]; last != 10*time.Second {
		t.Fatalf("final sample = %v, want 10s", last)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "gopromerge-") {
			t.Fatalf("concat manifest %q was not cleaned up", entry.Name())
		}
	}
}

func TestMergeFailureCarriesLog(t *testing.T) {
	setHelperCommand(t, "merge-fail")

	cli := NewCLI(WithManifestDir(t.TempDir()))
	err := cli.Merge(context.Background(), MergeRequest{
		Chapters:   []string{"/videos/GH010307.MP4"},
		OutputPath: "/out/GH000307.MP4",
	}, nil)
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("error = %v, want *CommandError", err)
	}
	if !strings.Contains(cmdErr.Log, "Invalid data found") {
		t.Fatalf("diagnostic log = %q", cmdErr.Log)
	}
}

func setHelperCommand(t *testing.T, mode string) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", fmt.Sprintf("FFMPEG_HELPER_MODE=%s", mode))
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	switch os.Getenv("FFMPEG_HELPER_MODE") {
	case "probe":
		fmt.Println(`{"format":{"filename":"GH010307.MP4","duration":"5.449002"}}`)
		os.Exit(0)
	case "probe-fail":
		fmt.Fprintln(os.Stderr, "moov atom not found")
		os.Exit(1)
	case "merge":
		fmt.Println("frame=100")
		fmt.Println("out_time=00:00:04.000000")
		fmt.Println("progress=continue")
		fmt.Println("out_time=00:00:10.000000")
		fmt.Println("progress=end")
		os.Exit(0)
	case "merge-fail":
		fmt.Fprintln(os.Stderr, "Invalid data found when processing input")
		os.Exit(1)
	default:
		os.Exit(0)
	}
}
