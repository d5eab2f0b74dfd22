package core

import (
	"runtime"

	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/0xRadioAc7iv/go-sonarlocker/parser"
)

type options struct {
	decoder  parser.Decoder
	workers  int
	logger   log.Logger
	metrics  *Metrics
	hintFile string
}

// Option configures Open.
type Option func(*options)

// WithDecoder decodes every file with dec instead of choosing a decoder
// from each file's extension.
func WithDecoder(dec parser.Decoder) Option {
	return func(o *options) {
		o.decoder = dec
	}
}

// WithWorkers sets how many files are decoded at once. Values below one
// are ignored.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

func WithLogger(l log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithHintFile loads the index from path when it still describes the
// directory, and rewrites it after building the index otherwise. The
// hint file should live outside the indexed directory.
func WithHintFile(path string) Option {
	return func(o *options) {
		o.hintFile = path
	}
}

func defaultOptions() *options {
	return &options{
		workers: runtime.GOMAXPROCS(0),
		logger:  log.NewNopLogger(),
	}
}

func (o *options) apply(opts []Option) {
	for _, opt := range opts {
		opt(o)
	}
	if o.metrics == nil {
		o.metrics = NewMetrics(prometheus.NewRegistry())
	}
}
