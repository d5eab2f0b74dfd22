package parser

import (
	"errors"
	"fmt"
	"io"
)

var (
	ErrBadMagic    = errors.New("bad magic number")
	ErrTruncated   = errors.New("truncated frame")
	ErrUnsupported = errors.New("unsupported field combination")
)

// DecodeError reports a frame that could not be decoded. Kind is one of
// the sentinel errors above and is matched by errors.Is.
type DecodeError struct {
	Format string
	Kind   error
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Format, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Format, e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// BadMagic builds a DecodeError for an unexpected frame delimiter.
func BadMagic(format string, got []byte) error {
	return &DecodeError{Format: format, Kind: ErrBadMagic, Err: fmt.Errorf("got % x", got)}
}

// Unsupported builds a DecodeError for a field combination the decoder
// cannot represent.
func Unsupported(format, msg string, args ...any) error {
	return &DecodeError{Format: format, Kind: ErrUnsupported, Err: fmt.Errorf(msg, args...)}
}

// Truncated converts a read error that happened after the first byte of a
// frame into a DecodeError. io.EOF means the stream ended mid-frame, so it
// is reported as io.ErrUnexpectedEOF. Other I/O errors pass through.
func Truncated(format string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &DecodeError{Format: format, Kind: ErrTruncated, Err: io.ErrUnexpectedEOF}
	}
	return err
}

// IsEOF reports whether err is the clean end-of-stream signal.
func IsEOF(err error) bool {
	return err == io.EOF
}
