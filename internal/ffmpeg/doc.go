// Package ffmpeg drives the external ffmpeg/ffprobe binaries that perform
// duration probing and stream-copy concatenation.
//
// The Client interface is the process boundary the merge processor depends
// on; tests substitute it with in-memory fakes so no transcoding binary is
// required in the suite.
package ffmpeg
