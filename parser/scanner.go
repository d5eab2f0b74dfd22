package parser

import (
	"bufio"
	"io"
	"iter"

	"github.com/0xRadioAc7iv/go-sonarlocker/model"
)

const scannerBufferSize = 64 * 1024

// Scanner reads consecutive frames from a stream and remembers the byte
// offset at which each one started.
//
//	s := parser.NewScanner(f, jsf.Decoder{})
//	for s.Next() {
//	    fmt.Println(s.Offset(), s.Frame().TypeCode())
//	}
//	if err := s.Err(); err != nil { ... }
type Scanner struct {
	dec    Decoder
	src    *countingReader
	frame  Frame
	offset int64
	err    error
	done   bool
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// NewScanner returns a Scanner that starts at the current position of r,
// which is reported as offset 0.
func NewScanner(r io.Reader, dec Decoder) *Scanner {
	return NewScannerAt(r, dec, 0)
}

// NewScannerAt is NewScanner for a reader already positioned at base.
func NewScannerAt(r io.Reader, dec Decoder, base int64) *Scanner {
	return &Scanner{
		dec: dec,
		src: &countingReader{r: bufio.NewReaderSize(r, scannerBufferSize), n: base},
	}
}

// Next decodes the next frame. It returns false at the end of the stream
// or on the first error.
func (s *Scanner) Next() bool {
	if s.done {
		return false
	}

	s.offset = s.src.n
	frame, err := s.dec.Decode(s.src)
	if err != nil {
		s.done = true
		s.frame = nil
		if !IsEOF(err) {
			s.err = err
		}
		return false
	}

	s.frame = frame
	return true
}

// Frame returns the frame decoded by the last call to Next.
func (s *Scanner) Frame() Frame { return s.frame }

// Offset returns the byte offset at which the current frame starts.
func (s *Scanner) Offset() int64 { return s.offset }

// Err returns the first non-EOF error encountered.
func (s *Scanner) Err() error { return s.err }

// All ranges over the remaining frames keyed by their offsets. Check Err
// once the loop is done.
func (s *Scanner) All() iter.Seq2[int64, Frame] {
	return func(yield func(int64, Frame) bool) {
		for s.Next() {
			if !yield(s.offset, s.frame) {
				return
			}
		}
	}
}

// ReadRecords decodes a whole stream into canonical records.
func ReadRecords(r io.Reader, dec Decoder) ([]model.Record, error) {
	var recs []model.Record

	s := NewScanner(r, dec)
	for s.Next() {
		recs = append(recs, s.Frame().Records()...)
	}
	return recs, s.Err()
}

// CountFrames returns the number of frames in a stream.
func CountFrames(r io.Reader, dec Decoder) (int, error) {
	n := 0

	s := NewScanner(r, dec)
	for s.Next() {
		n++
	}
	return n, s.Err()
}
