package deps

import (
	"testing"

	"gopromerge/internal/config"
)

func TestCheckBinaries(t *testing.T) {
	statuses := CheckBinaries([]Requirement{
		{Name: "Shell", Command: "sh"},
		{Name: "Ghost", Command: "definitely-not-a-binary-42"},
		{Name: "Blank", Command: "   "},
	})
	if len(statuses) != 3 {
		t.Fatalf("got %d statuses, want 3", len(statuses))
	}
	if !statuses[0].Available {
		t.Errorf("sh should resolve: %+v", statuses[0])
	}
	if statuses[1].Available || statuses[1].Detail == "" {
		t.Errorf("missing binary misreported: %+v", statuses[1])
	}
	if statuses[2].Available || statuses[2].Detail != "command not configured" {
		t.Errorf("blank command misreported: %+v", statuses[2])
	}
}

func TestMissing(t *testing.T) {
	if err := Missing([]Status{{Name: "FFmpeg", Available: true}}); err != nil {
		t.Fatalf("all available: %v", err)
	}
	err := Missing([]Status{
		{Name: "FFmpeg", Available: true},
		{Name: "FFprobe", Available: false, Detail: `binary "ffprobe" not found`},
	})
	if err == nil {
		t.Fatal("expected error for missing requirement")
	}
}

func TestDefaultUsesConfiguredBinaries(t *testing.T) {
	cfg := config.Default()
	cfg.Tools.FFmpeg = "/opt/ffmpeg/bin/ffmpeg"
	requirements := Default(&cfg)
	if len(requirements) != 2 {
		t.Fatalf("got %d requirements", len(requirements))
	}
	if requirements[0].Command != "/opt/ffmpeg/bin/ffmpeg" {
		t.Errorf("ffmpeg command = %q", requirements[0].Command)
	}
	if requirements[1].Command != "ffprobe" {
		t.Errorf("ffprobe command = %q", requirements[1].Command)
	}
}
