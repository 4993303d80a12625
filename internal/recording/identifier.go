package recording

import (
	"fmt"
	"strconv"
)

// Identifier is a zero-padded numeric field extracted from a filename. The
// original representation is kept alongside the numeric value so formatting a
// parsed name reproduces the input byte for byte.
type Identifier struct {
	value int
	repr  string
}

// ParseIdentifier parses a purely numeric, non-empty field.
func ParseIdentifier(field string) (Identifier, error) {
	if field == "" {
		return Identifier{}, fmt.Errorf("%w: empty identifier", ErrInvalidName)
	}
	for _, r := range field {
		if r < '0' || r > '9' {
			return Identifier{}, fmt.Errorf("%w: identifier %q is not numeric", ErrInvalidName, field)
		}
	}
	value, err := strconv.Atoi(field)
	if err != nil {
		return Identifier{}, fmt.Errorf("%w: identifier %q: %v", ErrInvalidName, field, err)
	}
	return Identifier{value: value, repr: field}, nil
}

// Value returns the numeric value of the identifier.
func (id Identifier) Value() int { return id.value }

// String returns the zero-padded representation as it appeared in the
// filename.
func (id Identifier) String() string { return id.repr }
