// Command sdw-server indexes a directory of sonar files and serves point
// and range queries over TCP.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/0xRadioAc7iv/go-sonarlocker/core"
	"github.com/0xRadioAc7iv/go-sonarlocker/internal/server"
	"github.com/0xRadioAc7iv/go-sonarlocker/internal/utils"

	_ "github.com/0xRadioAc7iv/go-sonarlocker/parser/imagenex"
	_ "github.com/0xRadioAc7iv/go-sonarlocker/parser/jsf"
	_ "github.com/0xRadioAc7iv/go-sonarlocker/parser/xtf"
)

func main() {
	cfg, err := utils.HandleCLIInputs()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	logger := utils.NewLogger(cfg.LogLevel)
	logger = log.With(logger, "caller", log.DefaultCaller)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := core.NewMetrics(reg)

	var metricsServer *http.Server
	if cfg.MetricsPort != 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		metricsServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.MetricsPort),
			Handler: mux,
		}

		go func() {
			level.Info(logger).Log("msg", "starting metrics server", "addr", metricsServer.Addr)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				level.Error(logger).Log("msg", "metrics server failed", "err", err)
				os.Exit(1)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := []core.Option{
		core.WithLogger(logger),
		core.WithMetrics(metrics),
		core.WithWorkers(cfg.Workers),
	}
	if cfg.HintFile != "" {
		opts = append(opts, core.WithHintFile(cfg.HintFile))
	}

	locker, err := core.Open(ctx, cfg.Dir, opts...)
	if err != nil {
		level.Error(logger).Log("msg", "failed to open locker", "dir", cfg.Dir, "err", err)
		os.Exit(1)
	}
	defer locker.Close()

	stats := locker.Stats()
	level.Info(logger).Log("msg", "locker opened", "dir", cfg.Dir, "files", stats.Files, "entries", stats.Entries, "from_hints", stats.FromHints)

	done := make(chan error, 1)
	go func() {
		done <- server.Start(ctx, cfg.Port, log.With(logger, "component", "server"), locker.HandleConn)
	}()

	go func() {
		utils.ListenForProcessInterruptOrKill(logger)
		cancel()
	}()

	if err := <-done; err != nil {
		level.Error(logger).Log("msg", "server stopped abruptly", "err", err)
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(context.Background()); err != nil {
			level.Warn(logger).Log("msg", "metrics server shutdown", "err", err)
		}
	}
	level.Info(logger).Log("msg", "shutdown complete")
}
