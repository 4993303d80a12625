package ffmpeg

import (
	"strings"
	"testing"
	"time"
)

func TestParseOutTime(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"00:06:49.00", 6*time.Minute + 49*time.Second},
		{"00:06:49.100", 6*time.Minute + 49*time.Second + 100*time.Microsecond},
		{"01:06:49.100", time.Hour + 6*time.Minute + 49*time.Second + 100*time.Microsecond},
		{"02:06:49.100", 2*time.Hour + 6*time.Minute + 49*time.Second + 100*time.Microsecond},
		{"00:00:00.000", 0},
		{"N/A", 0},
		{"garbage", 0},
		{"-00:00:01.000", time.Second}, // negative fields clamp to zero
	}
	for _, tc := range cases {
		if got := parseOutTime(tc.in); got != tc.want {
			t.Errorf("parseOutTime(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestScanProgress(t *testing.T) {
	stream := strings.Join([]string{
		"frame=100",
		"out_time_us=1000000",
		"out_time=00:00:01.000000",
		"progress=continue",
		"out_time_us=2500000",
		"out_time=00:00:02.500000",
		"progress=end",
	}, "\n")

	var samples []time.Duration
	if err := scanProgress(strings.NewReader(stream), func(elapsed time.Duration) {
		samples = append(samples, elapsed)
	}); err != nil {
		t.Fatalf("scanProgress: %v", err)
	}

	want := []time.Duration{
		time.Second, time.Second,
		2500 * time.Millisecond, 2500 * time.Millisecond,
	}
	if len(samples) != len(want) {
		t.Fatalf("got %d samples (%v), want %d", len(samples), samples, len(want))
	}
	for i, s := range samples {
		if s != want[i] {
			t.Errorf("sample[%d] = %v, want %v", i, s, want[i])
		}
	}
}

func TestScanProgressIgnoresJunk(t *testing.T) {
	stream := "no separator line\nout_time_us=notanumber\nout_time=N/A\n"
	calls := 0
	if err := scanProgress(strings.NewReader(stream), func(elapsed time.Duration) {
		calls++
		if elapsed != 0 {
			t.Errorf("junk sample produced %v", elapsed)
		}
	}); err != nil {
		t.Fatalf("scanProgress: %v", err)
	}
	// Only the N/A out_time reaches the callback, as a zero sample.
	if calls != 1 {
		t.Errorf("callback ran %d times, want 1", calls)
	}
}
