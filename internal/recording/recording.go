package recording

import (
	"errors"
	"fmt"
	"strings"
)

// Parse failure reasons. Callers treat any of these as "not a merge
// candidate"; none of them is fatal to a run.
var (
	ErrInvalidName     = errors.New("not a chaptered recording filename")
	ErrUnknownEncoding = errors.New("unsupported camera prefix")
	ErrChapterZero     = errors.New("chapter number 00 marks merged output, not a source chapter")
	ErrGroupZero       = errors.New("group number 0000 is reserved")
)

const stemLength = 8

// Fingerprint identifies the recording session a chapter belongs to. Two
// chapters with equal fingerprints are parts of the same recording.
type Fingerprint struct {
	Encoding  Encoding
	Group     Identifier
	Extension string
}

// Recording is one chapter file, classified from its filename. It is built
// once from a directory snapshot and never mutated afterwards.
type Recording struct {
	Fingerprint Fingerprint
	Chapter     Identifier

	// SourcePath is the on-disk location of the chapter, filled in by the
	// directory scanner. Parse itself only sees the bare name.
	SourcePath string
}

// Parse classifies a bare filename (no path component). Only exact matches of
// the chaptered scheme succeed; there is no fuzzy matching.
func Parse(name string) (Recording, error) {
	dot := strings.LastIndexByte(name, '.')
	if dot <= 0 || dot == len(name)-1 {
		return Recording{}, fmt.Errorf("%w: %q has no extension", ErrInvalidName, name)
	}
	stem, ext := name[:dot], name[dot+1:]
	if len(stem) != stemLength {
		return Recording{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	encoding, err := ParseEncoding(stem)
	if err != nil {
		return Recording{}, err
	}

	chapter, err := ParseIdentifier(stem[2:4])
	if err != nil {
		return Recording{}, err
	}
	if chapter.Value() == 0 {
		return Recording{}, fmt.Errorf("%w: %q", ErrChapterZero, name)
	}

	group, err := ParseIdentifier(stem[4:stemLength])
	if err != nil {
		return Recording{}, err
	}
	if group.Value() == 0 {
		return Recording{}, fmt.Errorf("%w: %q", ErrGroupZero, name)
	}

	return Recording{
		Fingerprint: Fingerprint{
			Encoding:  encoding,
			Group:     group,
			Extension: ext,
		},
		Chapter: chapter,
	}, nil
}

// Name reconstructs the filename the recording was parsed from.
func (r Recording) Name() string {
	return fmt.Sprintf("%s%s%s.%s", r.Fingerprint.Encoding, r.Chapter, r.Fingerprint.Group, r.Fingerprint.Extension)
}

func (r Recording) String() string { return r.Name() }
