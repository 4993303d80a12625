package recording

import (
	"fmt"
	"strings"
)

// Encoding identifies the codec family encoded in the two-letter camera
// prefix of a chaptered GoPro filename.
type Encoding int

const (
	// EncodingAVC covers the GH prefix (H.264 recordings).
	EncodingAVC Encoding = iota
	// EncodingHEVC covers the GX prefix (H.265 recordings).
	EncodingHEVC
)

// String returns the filename prefix for the encoding.
func (e Encoding) String() string {
	switch e {
	case EncodingAVC:
		return "GH"
	case EncodingHEVC:
		return "GX"
	default:
		return "??"
	}
}

// ParseEncoding matches the camera prefix at the start of a filename stem.
// The match is case-sensitive; cameras always write upper-case prefixes.
func ParseEncoding(stem string) (Encoding, error) {
	switch {
	case strings.HasPrefix(stem, EncodingAVC.String()):
		return EncodingAVC, nil
	case strings.HasPrefix(stem, EncodingHEVC.String()):
		return EncodingHEVC, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownEncoding, stem)
	}
}
