package core

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-kit/log/level"
	"golang.org/x/sync/errgroup"

	"github.com/0xRadioAc7iv/go-sonarlocker/model"
	"github.com/0xRadioAc7iv/go-sonarlocker/parser"
)

// pair is what a decode worker hands to the aggregator.
type pair struct {
	key model.Key
	loc Location
}

// build decodes every file with a bounded pool of workers. Workers only
// decode; a single aggregator goroutine owns the index and inserts every
// pair it receives.
func (l *Locker) build(ctx context.Context, workers int) (*keyDir, error) {
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	pairs := make(chan pair, pairBufferSize)
	kd := newKeyDir()
	collisions := 0

	aggregated := make(chan struct{})
	go func() {
		defer close(aggregated)
		for p := range pairs {
			if kd.insert(p.key, p.loc) {
				collisions++
				l.metrics.KeyCollisions.Inc()
				level.Debug(l.logger).Log("msg", "key collision", "key", p.key, "path", p.loc.Path, "offset", p.loc.Offset)
			}
		}
	}()

	for _, df := range l.files {
		g.Go(func() error {
			return l.indexFile(ctx, df, pairs)
		})
	}

	err := g.Wait()
	close(pairs)
	<-aggregated

	if err != nil {
		return nil, err
	}

	l.collisions = collisions
	elapsed := time.Since(start)
	l.metrics.BuildDuration.Observe(elapsed.Seconds())
	if collisions > 0 {
		level.Warn(l.logger).Log("msg", "duplicate keys found, kept the earliest location of each", "collisions", collisions)
	}
	level.Info(l.logger).Log("msg", "index built", "files", len(l.files), "entries", kd.len(), "duration", elapsed)

	return kd, nil
}

// indexFile decodes one file from the start and sends a pair for every
// keyed record in it.
func (l *Locker) indexFile(ctx context.Context, df *dataFile, pairs chan<- pair) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	counts := make(map[model.Kind]int)

	s := parser.NewScanner(io.NewSectionReader(df.f, 0, df.size), df.dec)
	for off, frame := range s.All() {
		for _, rec := range frame.Records() {
			k, ok := rec.Key()
			if !ok {
				continue
			}
			counts[k.Kind]++

			select {
			case pairs <- pair{key: k, loc: Location{Path: df.path, Offset: off}}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	if err := s.Err(); err != nil {
		l.metrics.DecodeErrors.WithLabelValues(df.dec.Name()).Inc()
		level.Error(l.logger).Log("msg", "failed to decode file", "path", df.path, "err", err)
		return fmt.Errorf("index %s: %w", df.path, err)
	}

	l.metrics.FilesIndexed.Inc()
	for kind, n := range counts {
		l.metrics.RecordsIndexed.WithLabelValues(string(kind)).Add(float64(n))
	}
	level.Debug(l.logger).Log("msg", "file indexed", "path", df.path, "format", df.dec.Name())

	return nil
}
