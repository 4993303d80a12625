package config

import "runtime"

const (
	defaultFFmpegBinary  = "ffmpeg"
	defaultFFprobeBinary = "ffprobe"
	defaultReporter      = "progressbar"
	defaultLogDir        = "~/.local/share/gopromerge/logs"
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
	// Partial outputs of failed merges are kept for inspection unless the
	// user opts into cleanup.
	defaultKeepPartialOutput = true
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Merge: Merge{
			Parallel:          runtime.NumCPU(),
			Reporter:          defaultReporter,
			KeepPartialOutput: defaultKeepPartialOutput,
		},
		Tools: Tools{
			FFmpeg:  defaultFFmpegBinary,
			FFprobe: defaultFFprobeBinary,
		},
		Paths: Paths{
			LogDir: defaultLogDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
