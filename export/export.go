// Package export converts decoded pings into Parquet files.
package export

import (
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/0xRadioAc7iv/go-sonarlocker/model"
	"github.com/0xRadioAc7iv/go-sonarlocker/parser"
)

// PingRow is one ping as stored in a Parquet file. Samples of every width
// are widened to float32.
type PingRow struct {
	Source           string    `parquet:"source"`
	Timestamp        int64     `parquet:"timestamp"` // unix nanoseconds
	Frequency        float64   `parquet:"frequency"`
	SamplingInterval float64   `parquet:"sampling_interval"`
	Channel          string    `parquet:"channel,enum"`
	Data             []float32 `parquet:"data,list"`
}

// Writer buffers ping rows and writes them as a Parquet file.
type Writer struct {
	w    *parquet.GenericWriter[PingRow]
	rows []PingRow
	n    int
}

// rows buffered before a write to the underlying file
const batchSize = 256

// NewWriter writes to w. With compress set the column chunks are zstd
// compressed.
func NewWriter(w io.Writer, compress bool) *Writer {
	var opts []parquet.WriterOption
	if compress {
		opts = append(opts, parquet.Compression(&parquet.Zstd))
	}
	return &Writer{w: parquet.NewGenericWriter[PingRow](w, opts...)}
}

// WriteRecords appends every ping in recs and skips the other kinds. It
// returns how many rows were added.
func (w *Writer) WriteRecords(recs []model.Record) (int, error) {
	added := 0
	for _, rec := range recs {
		row, ok := Row(rec)
		if !ok {
			continue
		}
		w.rows = append(w.rows, row)
		added++

		if len(w.rows) == batchSize {
			if err := w.flush(); err != nil {
				return added, err
			}
		}
	}
	return added, nil
}

// Rows returns the number of rows added so far.
func (w *Writer) Rows() int { return w.n + len(w.rows) }

func (w *Writer) flush() error {
	if len(w.rows) == 0 {
		return nil
	}
	n, err := w.w.Write(w.rows)
	w.n += n
	w.rows = w.rows[:0]
	if err != nil {
		return fmt.Errorf("write parquet rows: %w", err)
	}
	return nil
}

// Close flushes the buffered rows and writes the file footer. It does not
// close the underlying writer.
func (w *Writer) Close() error {
	if err := w.flush(); err != nil {
		w.w.Close()
		return err
	}
	return w.w.Close()
}

// Row converts a ping record. ok is false for every other kind.
func Row(rec model.Record) (row PingRow, ok bool) {
	switch p := rec.(type) {
	case *model.Ping[uint8]:
		return pingRow(p.Float32()), true
	case *model.Ping[uint16]:
		return pingRow(p.Float32()), true
	case *model.Ping[uint32]:
		return pingRow(p.Float32()), true
	case *model.Ping[float32]:
		return pingRow(p), true
	default:
		return PingRow{}, false
	}
}

func pingRow(p *model.Ping[float32]) PingRow {
	return PingRow{
		Source:           p.Source,
		Timestamp:        p.Timestamp.UnixNano(),
		Frequency:        p.Frequency,
		SamplingInterval: p.SamplingInterval,
		Channel:          p.Channel.String(),
		Data:             p.Data,
	}
}

// File decodes the sonar file at src with dec and writes its pings to dst.
// It returns the number of pings written.
func File(src string, dec parser.Decoder, dst io.Writer, compress bool) (int, error) {
	f, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	w := NewWriter(dst, compress)

	s := parser.NewScanner(f, dec)
	for _, frame := range s.All() {
		if _, err := w.WriteRecords(frame.Records()); err != nil {
			w.Close()
			return w.Rows(), err
		}
	}
	if err := s.Err(); err != nil {
		w.Close()
		return w.Rows(), fmt.Errorf("decode %s: %w", src, err)
	}

	return w.Rows(), w.Close()
}
