package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/0xRadioAc7iv/go-sonarlocker/internal/lock"
	"github.com/0xRadioAc7iv/go-sonarlocker/model"
	"github.com/0xRadioAc7iv/go-sonarlocker/parser"
	"github.com/0xRadioAc7iv/go-sonarlocker/parser/jsf"

	// registered decoders for ForPath
	_ "github.com/0xRadioAc7iv/go-sonarlocker/parser/imagenex"
	_ "github.com/0xRadioAc7iv/go-sonarlocker/parser/xtf"
)

var (
	ErrKeyNotFound = errors.New("key not found")
	ErrClosed      = errors.New("locker is closed")

	// ErrStale means the frame at an indexed location no longer holds the
	// key, usually because the file changed after the index was built.
	ErrStale = errors.New("index entry is stale")
)

// Locker indexes every record of a directory of sonar files by key and
// serves point and range queries against that index.
//
// The index is built once by Open and never changes afterwards. All
// methods are safe for concurrent use.
type Locker struct {
	path  string
	files []*dataFile
	index *keyDir

	byPath map[string]*dataFile

	logger  log.Logger
	metrics *Metrics

	fromHints  bool
	collisions int

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// dataFile is an indexed file and its handle, opened once and shared by
// every query.
type dataFile struct {
	path    string
	f       *os.File
	size    int64
	modTime time.Time
	dec     parser.Decoder
}

// Open indexes every file in dir.
//
// Files are decoded concurrently. The first file that cannot be read or
// decoded aborts the build, and its error is returned wrapped with the
// file's path. Sub-directories are not descended into.
func Open(ctx context.Context, dir string, opts ...Option) (*Locker, error) {
	o := defaultOptions()
	o.apply(opts)

	l := &Locker{
		path:    dir,
		byPath:  make(map[string]*dataFile),
		logger:  log.With(o.logger, "component", "locker", "dir", dir),
		metrics: o.metrics,
	}

	if err := l.openFiles(o); err != nil {
		l.closeFiles()
		return nil, err
	}

	if o.hintFile != "" {
		kd, err := l.loadHints(o.hintFile)
		if err == nil {
			l.index = kd
			l.fromHints = true
			l.metrics.HintLoads.WithLabelValues("hit").Inc()
			level.Info(l.logger).Log("msg", "index loaded from hint file", "hint_file", o.hintFile, "entries", kd.len())
			return l, nil
		}

		result := "stale"
		if errors.Is(err, os.ErrNotExist) {
			result = "missing"
		}
		l.metrics.HintLoads.WithLabelValues(result).Inc()
		level.Debug(l.logger).Log("msg", "hint file not used", "hint_file", o.hintFile, "err", err)
	}

	kd, err := l.build(ctx, o.workers)
	if err != nil {
		l.closeFiles()
		return nil, err
	}
	l.index = kd

	if o.hintFile != "" {
		if err := l.saveHints(o.hintFile); err != nil {
			if errors.Is(err, lock.ErrLocked) {
				level.Info(l.logger).Log("msg", "hint file is being written by another process", "hint_file", o.hintFile)
			} else {
				level.Warn(l.logger).Log("msg", "failed to write hint file", "hint_file", o.hintFile, "err", err)
			}
		}
	}

	return l, nil
}

func (l *Locker) openFiles(o *options) error {
	entries, err := os.ReadDir(l.path)
	if err != nil {
		return fmt.Errorf("read directory: %w", err)
	}

	// os.ReadDir sorts by name
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		path := filepath.Join(l.path, entry.Name())
		if o.hintFile != "" && isHintArtifact(path, o.hintFile) {
			continue
		}

		df, err := openDataFile(path, o.decoder)
		if err != nil {
			return err
		}
		l.files = append(l.files, df)
		l.byPath[path] = df
	}

	return nil
}

func openDataFile(path string, dec parser.Decoder) (*dataFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	if dec == nil {
		var ok bool
		if dec, ok = parser.ForPath(path); !ok {
			dec = jsf.Decoder{}
		}
	}

	return &dataFile{
		path:    path,
		f:       f,
		size:    fi.Size(),
		modTime: fi.ModTime(),
		dec:     dec,
	}, nil
}

func isHintArtifact(path, hintFile string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	hint, err := filepath.Abs(hintFile)
	if err != nil {
		return false
	}
	return abs == hint || abs == hint+lock.Suffix || abs == hint+tempFileExt
}

// Get returns the record stored under k. It reads exactly one frame from
// disk.
func (l *Locker) Get(k model.Key) (model.Record, error) {
	if l.closed.Load() {
		return nil, ErrClosed
	}

	loc, ok := l.index.get(k)
	if !ok {
		l.metrics.Gets.WithLabelValues("miss").Inc()
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, k)
	}

	rec, err := l.readRecord(k, loc)
	if err != nil {
		l.metrics.Gets.WithLabelValues("error").Inc()
		return nil, err
	}

	l.metrics.Gets.WithLabelValues("hit").Inc()
	return rec, nil
}

func (l *Locker) readRecord(k model.Key, loc Location) (model.Record, error) {
	df := l.byPath[loc.Path]

	// a section reader has its own position, so concurrent reads of one
	// handle do not interfere
	r := io.NewSectionReader(df.f, loc.Offset, df.size-loc.Offset)
	frame, err := df.dec.Decode(r)
	if err != nil {
		if parser.IsEOF(err) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("read %s at offset %d: %w", loc.Path, loc.Offset, err)
	}

	for _, rec := range frame.Records() {
		if rk, ok := rec.Key(); ok && rk.Equal(k) {
			return rec, nil
		}
	}
	return nil, fmt.Errorf("%w: %s at offset %d does not hold %s", ErrStale, loc.Path, loc.Offset, k)
}

// Iter ranges over every entry in key order.
func (l *Locker) Iter() iter.Seq2[model.Key, Location] {
	return func(yield func(model.Key, Location) bool) {
		l.index.tree.Ascend(func(e keyDirEntry) bool {
			return yield(e.key, e.loc)
		})
	}
}

// Range ranges over the entries with from <= key < to, in key order.
func (l *Locker) Range(from, to model.Key) iter.Seq2[model.Key, Location] {
	return func(yield func(model.Key, Location) bool) {
		l.index.tree.AscendRange(keyDirEntry{key: from}, keyDirEntry{key: to}, func(e keyDirEntry) bool {
			return yield(e.key, e.loc)
		})
	}
}

// Span ranges over the entries of one kind with t0 <= time < t1, on every
// channel.
func (l *Locker) Span(kind model.Kind, t0, t1 time.Time) iter.Seq2[model.Key, Location] {
	return l.Range(model.NewKey(kind, t0, model.ChannelMin), model.NewKey(kind, t1, model.ChannelMin))
}

// Len returns the number of indexed keys.
func (l *Locker) Len() int { return l.index.len() }

// First returns the smallest entry. ok is false when the index is empty.
func (l *Locker) First() (k model.Key, loc Location, ok bool) {
	e, ok := l.index.tree.Min()
	return e.key, e.loc, ok
}

// Last returns the largest entry. ok is false when the index is empty.
func (l *Locker) Last() (k model.Key, loc Location, ok bool) {
	e, ok := l.index.tree.Max()
	return e.key, e.loc, ok
}

// Path returns the directory the locker was opened on.
func (l *Locker) Path() string { return l.path }

// Files lists the indexed files in name order.
func (l *Locker) Files() []string {
	paths := make([]string, len(l.files))
	for i, df := range l.files {
		paths[i] = df.path
	}
	return paths
}

// Stats summarizes an opened locker.
type Stats struct {
	Files      int
	Entries    int
	ByKind     map[model.Kind]int
	Collisions int
	FromHints  bool
}

func (l *Locker) Stats() Stats {
	s := Stats{
		Files:      len(l.files),
		Entries:    l.Len(),
		ByKind:     make(map[model.Kind]int),
		Collisions: l.collisions,
		FromHints:  l.fromHints,
	}
	for k := range l.Iter() {
		s.ByKind[k.Kind]++
	}
	return s
}

// Kinds lists the kinds present in the index, in key order.
func (l *Locker) Kinds() []model.Kind {
	var kinds []model.Kind
	for _, kind := range model.Kinds {
		l.index.tree.AscendGreaterOrEqual(keyDirEntry{key: model.Key{Kind: kind}}, func(e keyDirEntry) bool {
			if e.key.Kind == kind {
				kinds = append(kinds, kind)
			}
			return false
		})
	}
	return kinds
}

// Close releases every file handle. Further queries return ErrClosed.
func (l *Locker) Close() error {
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		l.closeErr = l.closeFiles()
	})
	return l.closeErr
}

func (l *Locker) closeFiles() error {
	var errs []error
	for _, df := range l.files {
		if err := df.f.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", df.path, err))
		}
	}
	return errors.Join(errs...)
}
