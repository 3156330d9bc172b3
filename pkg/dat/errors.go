package dat

import (
	"errors"
	"fmt"
)

var (
	ErrTruncated              = errors.New("dat: truncated buffer")
	ErrSectionIndexOutOfRange = errors.New("dat: section index out of range")
	ErrOffsetOutOfBounds      = errors.New("dat: offset out of bounds")
	ErrRelocationInconsistent = errors.New("dat: relocation inconsistent")
)

// FormatError reports a structural problem with one monster file.
// Kind is one of the Err* sentinels of this package, so callers can test it
// with errors.Is and recover the detail with errors.As.
type FormatError struct {
	Kind   error
	Detail string
}

func (e *FormatError) Error() string {
	if e.Detail == "" {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Detail
}

func (e *FormatError) Unwrap() error {
	return e.Kind
}

// Errorf builds a FormatError of the given kind.
func Errorf(kind error, format string, args ...any) error {
	return &FormatError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}
