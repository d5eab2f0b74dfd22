package utils

import (
	"errors"
	"flag"
	"strings"

	"github.com/kballard/go-shellquote"
)

// HandleCLIInputs builds the server configuration. Values come from the
// YAML file named by -config when given, and any flag set explicitly on
// the command line wins over the file.
func HandleCLIInputs() (*Config, error) {
	def := DefaultConfig()

	configPath := flag.String("config", "", "YAML config file")
	directoryPath := flag.String("dir", def.Dir, "Directory of sonar files to index")
	hintFile := flag.String("hint-file", "", "Hint file used to skip rebuilding an unchanged index")
	port := flag.Int("port", def.Port, "Port to use for the TCP Server")
	metricsPort := flag.Int("metrics-port", def.MetricsPort, "Port to expose Prometheus metrics (0 disables)")
	workers := flag.Int("workers", 0, "Files decoded at once (0 uses GOMAXPROCS)")
	logLevel := flag.String("log-level", def.LogLevel, "Log level: debug, info, warn or error")
	flag.Parse()

	cfg := def
	if *configPath != "" {
		var err error
		if cfg, err = LoadConfig(*configPath); err != nil {
			return nil, err
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "dir":
			cfg.Dir = *directoryPath
		case "hint-file":
			cfg.HintFile = *hintFile
		case "port":
			cfg.Port = *port
		case "metrics-port":
			cfg.MetricsPort = *metricsPort
		case "workers":
			cfg.Workers = *workers
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})

	return cfg, cfg.Validate()
}

// SplitStringIntoCommandAndArguments splits a CLI line with shell quoting
// rules. The first word is the command and the second the key; the rest
// are joined by single spaces into the value.
func SplitStringIntoCommandAndArguments(line string) (cmd, key, value string, err error) {
	words, err := shellquote.Split(line)
	if err != nil {
		return "", "", "", err
	}
	if len(words) == 0 {
		return "", "", "", errors.New("empty command")
	}

	cmd = words[0]
	if len(words) > 1 {
		key = words[1]
	}
	if len(words) > 2 {
		value = strings.Join(words[2:], " ")
	}

	return cmd, key, value, nil
}
