// Command sdw inspects and converts single sonar data files.
//
//	sdw [flags] count <file>
//	sdw [flags] list <file>
//	sdw [flags] info <file>
//	sdw [flags] export <file> <out.parquet>
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/0xRadioAc7iv/go-sonarlocker/export"
	"github.com/0xRadioAc7iv/go-sonarlocker/parser"
	"github.com/0xRadioAc7iv/go-sonarlocker/parser/jsf"

	_ "github.com/0xRadioAc7iv/go-sonarlocker/parser/imagenex"
	_ "github.com/0xRadioAc7iv/go-sonarlocker/parser/xtf"
)

func main() {
	var (
		format   string
		output   string
		compress bool
	)

	flag.StringVar(&format, "format", "", "Input format ("+strings.Join(parser.Names(), ", ")+"); chosen from the file extension when empty")
	flag.StringVar(&output, "o", "", "Write count, list and info output to this file instead of stdout")
	flag.BoolVar(&compress, "compress", false, "Compress exported Parquet files with zstd")
	flag.Usage = usage
	flag.Parse()

	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)

	args := flag.Args()
	if len(args) < 2 {
		usage()
		os.Exit(2)
	}
	cmd, path := args[0], args[1]

	dec, err := decoderFor(path, format)
	if err != nil {
		level.Error(logger).Log("msg", "failed to choose a decoder", "err", err)
		os.Exit(1)
	}

	if cmd == "export" {
		if len(args) != 3 {
			usage()
			os.Exit(2)
		}
		if err := runExport(path, args[2], dec, compress, logger); err != nil {
			level.Error(logger).Log("msg", "export failed", "path", path, "err", err)
			os.Exit(1)
		}
		return
	}

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			level.Error(logger).Log("msg", "failed to create output", "path", output, "err", err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}

	switch cmd {
	case "count":
		err = count(w, path, dec)
	case "list":
		err = list(w, path, dec)
	case "info":
		err = info(w, path, dec)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		level.Error(logger).Log("msg", cmd+" failed", "path", path, "err", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: sdw [flags] count|list|info <file>\n       sdw [flags] export <file> <out.parquet>\n\nflags:\n")
	flag.PrintDefaults()
}

// decoderFor returns the named decoder, or the one registered for the
// file's extension. Unrecognized extensions are read as JSF.
func decoderFor(path, format string) (parser.Decoder, error) {
	if format != "" {
		return parser.Lookup(format)
	}
	if dec, ok := parser.ForPath(path); ok {
		return dec, nil
	}
	return jsf.Decoder{}, nil
}

func runExport(src, dst string, dec parser.Decoder, compress bool, logger log.Logger) error {
	f, err := os.Create(dst)
	if err != nil {
		return err
	}

	n, err := export.File(src, dec, f, compress)
	if err != nil {
		f.Close()
		os.Remove(dst)
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	level.Info(logger).Log("msg", "exported pings", "src", src, "dst", dst, "pings", n)
	return nil
}
