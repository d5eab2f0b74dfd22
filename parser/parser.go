// Package parser defines the contract every sonar wire-format decoder
// satisfies, and the helpers shared by the format packages.
//
// A Decoder reads exactly one self-delimited frame from a stream. It
// returns io.EOF when the stream ends exactly on a frame boundary, and a
// *DecodeError for anything else that goes wrong, so callers can tell a
// finished file from a corrupt one.
package parser

import (
	"bytes"
	"io"

	"github.com/0xRadioAc7iv/go-sonarlocker/model"
)

// MaxFrameSize bounds the declared payload size of a single frame.
const MaxFrameSize = 64 << 20

// eagerReadLimit is the largest payload allocated before any bytes arrive.
const eagerReadLimit = 1 << 20

// Frame is one decoded frame of any format.
type Frame interface {
	// TypeCode is the format-specific numeric type of the frame.
	TypeCode() int

	// Records converts the frame to canonical records. Most frames yield
	// exactly one record; a multi-channel sonar packet yields one ping per
	// channel. Unmodeled frames yield a single *model.Unknown.
	Records() []model.Record
}

// Decoder decodes one frame of a specific wire format.
type Decoder interface {
	Name() string
	Decode(r io.Reader) (Frame, error)
}

// ReadMagic reads len(magic) bytes and checks them. It returns io.EOF only
// when no byte at all could be read.
func ReadMagic(r io.Reader, format string, magic []byte) error {
	buf := make([]byte, len(magic))
	n, err := io.ReadFull(r, buf)
	if err != nil {
		if err == io.EOF && n == 0 {
			return io.EOF
		}
		return Truncated(format, err)
	}
	if !bytes.Equal(buf, magic) {
		return BadMagic(format, buf)
	}
	return nil
}

// ReadPayload reads exactly size bytes. Sizes up to a small limit are
// allocated up front; larger ones grow with the data actually read so a
// corrupt size field on a short stream cannot force a huge allocation.
func ReadPayload(r io.Reader, format string, size int64) ([]byte, error) {
	if size < 0 || size > MaxFrameSize {
		return nil, Unsupported(format, "declared payload size %d out of range", size)
	}

	if size <= eagerReadLimit {
		buf := make([]byte, size)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, Truncated(format, err)
		}
		return buf, nil
	}

	var buf bytes.Buffer
	n, err := io.CopyN(&buf, r, size)
	if n < size {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return nil, Truncated(format, err)
	}
	return buf.Bytes(), nil
}

// Discard skips n bytes of the stream.
func Discard(r io.Reader, format string, n int64) error {
	if n <= 0 {
		return nil
	}
	copied, err := io.CopyN(io.Discard, r, n)
	if copied < n {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return Truncated(format, err)
	}
	return nil
}
