package ffmpeg

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"
)

// scanProgress consumes the key=value stream ffmpeg writes under
// `-progress pipe:1` and invokes the callback for every out_time sample.
// Malformed samples are treated as zero rather than errors; ffmpeg emits the
// occasional `out_time=N/A` before the first packet is muxed.
func scanProgress(r io.Reader, sample func(elapsed time.Duration)) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), "=")
		if !ok {
			continue
		}
		switch key {
		case "out_time_us", "out_time_ms": // out_time_ms is microseconds too
			if us, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil && us >= 0 {
				sample(time.Duration(us) * time.Microsecond)
			}
		case "out_time":
			sample(parseOutTime(value))
		}
	}
	return scanner.Err()
}

// parseOutTime parses ffmpeg's HH:MM:SS.micros timestamps. Anything
// unparsable contributes zero.
func parseOutTime(value string) time.Duration {
	clock, frac, _ := strings.Cut(strings.TrimSpace(value), ".")
	parts := strings.Split(clock, ":")
	if len(parts) != 3 {
		return 0
	}
	hours := parseClockField(parts[0])
	minutes := parseClockField(parts[1])
	seconds := parseClockField(parts[2])
	micros := parseClockField(frac)
	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(micros)*time.Microsecond
}

func parseClockField(field string) int64 {
	n, err := strconv.ParseInt(field, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
