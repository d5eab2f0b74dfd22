package main

import (
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/0xRadioAc7iv/go-sonarlocker/model"
	"github.com/0xRadioAc7iv/go-sonarlocker/parser"
)

// scan calls fn for every record of the file at path.
func scan(path string, dec parser.Decoder, fn func(off int64, rec model.Record)) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	s := parser.NewScanner(f, dec)
	for off, frame := range s.All() {
		for _, rec := range frame.Records() {
			fn(off, rec)
		}
	}
	return s.Err()
}

// count writes the number of records of each kind, one "<n>\t<kind>" line
// per kind present.
func count(w io.Writer, path string, dec parser.Decoder) error {
	counts := make(map[model.Kind]int)
	if err := scan(path, dec, func(_ int64, rec model.Record) {
		counts[rec.Kind()]++
	}); err != nil {
		return err
	}

	for _, kind := range append(slices.Clone(model.Kinds), model.KindUnknown) {
		if n := counts[kind]; n > 0 {
			if _, err := fmt.Fprintf(w, "%d\t%s\n", n, kind); err != nil {
				return err
			}
		}
	}
	return nil
}

// list writes one line per record: the offset of its frame and the record.
func list(w io.Writer, path string, dec parser.Decoder) error {
	var werr error
	err := scan(path, dec, func(off int64, rec model.Record) {
		if werr == nil {
			_, werr = fmt.Fprintf(w, "%d\t%s\n", off, rec)
		}
	})
	if err != nil {
		return err
	}
	return werr
}

type summary struct {
	start, end time.Time
	pings      map[model.Channel]int
	lengths    []int
	intervals  []float64
}

func (s *summary) see(t time.Time) {
	if s.start.IsZero() || t.Before(s.start) {
		s.start = t
	}
	if t.After(s.end) {
		s.end = t
	}
}

func (s *summary) add(rec model.Record) {
	switch r := rec.(type) {
	case *model.Ping[uint8]:
		s.ping(r.Timestamp, r.Channel, r.Len(), r.SamplingInterval)
	case *model.Ping[uint16]:
		s.ping(r.Timestamp, r.Channel, r.Len(), r.SamplingInterval)
	case *model.Ping[uint32]:
		s.ping(r.Timestamp, r.Channel, r.Len(), r.SamplingInterval)
	case *model.Ping[float32]:
		s.ping(r.Timestamp, r.Channel, r.Len(), r.SamplingInterval)
	case *model.Position:
		s.see(r.Timestamp)
	case *model.Orientation:
		s.see(r.Timestamp)
	case *model.Course:
		s.see(r.Timestamp)
	}
}

func (s *summary) ping(t time.Time, ch model.Channel, n int, interval float64) {
	s.see(t)
	s.pings[ch]++
	if !slices.Contains(s.lengths, n) {
		s.lengths = append(s.lengths, n)
	}
	if !slices.Contains(s.intervals, interval) {
		s.intervals = append(s.intervals, interval)
	}
}

// info writes the time span of the file, ping counts per channel, and the
// distinct trace lengths and sampling intervals.
func info(w io.Writer, path string, dec parser.Decoder) error {
	s := &summary{pings: make(map[model.Channel]int)}
	if err := scan(path, dec, func(_ int64, rec model.Record) {
		s.add(rec)
	}); err != nil {
		return err
	}

	slices.Sort(s.lengths)
	slices.Sort(s.intervals)

	fmt.Fprintf(w, "File: %s\n", path)
	fmt.Fprintf(w, "Format: %s\n", dec.Name())
	fmt.Fprintf(w, "Start date: %s\n", s.start.Format(time.RFC3339Nano))
	fmt.Fprintf(w, "End date: %s\n", s.end.Format(time.RFC3339Nano))
	fmt.Fprintf(w, "Number of port channel pings: %d\n", s.pings[model.Port])
	fmt.Fprintf(w, "Number of starboard channel pings: %d\n", s.pings[model.Starboard])
	fmt.Fprintf(w, "Number of other channel pings: %d\n", s.pings[model.Other])
	fmt.Fprintln(w, "Unique lengths of pings:")
	for _, n := range s.lengths {
		fmt.Fprintf(w, "\t%d\n", n)
	}
	fmt.Fprintln(w, "Unique sampling intervals:")
	for _, v := range s.intervals {
		fmt.Fprintf(w, "\t%g\n", v)
	}
	_, err := fmt.Fprintln(w)
	return err
}
