package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ristryder/gse/containers/matroska"
	"github.com/ristryder/gse/internal/config"
	"golang.org/x/sync/errgroup"
)

func serveMetrics(ctx context.Context, port uint16, registry *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	slog.Debug("Serving metrics", slog.Int("port", int(port)))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "failed to serve metrics")
	}

	return nil
}

func run(ctx context.Context, cfg *config.Config, input string) error {
	metrics := matroska.NewMetrics()
	registry := prometheus.NewRegistry()
	registry.MustRegister(metrics)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wg, ctx := errgroup.WithContext(ctx)

	if cfg.Prometheus != nil && cfg.Prometheus.Enabled {
		wg.Go(func() error {
			return serveMetrics(ctx, cfg.Prometheus.Port, registry)
		})
	}

	wg.Go(func() error {
		// Stops the metrics server once extraction is done
		defer cancel()

		options := matroska.MatroskaFileOptions{
			ChunkSize: cfg.ChunkSize,
			Logger:    slog.Default(),
			Metrics:   metrics,
		}

		result, err := extract(ctx, cfg, input, options)
		if err != nil {
			return err
		}

		return result.write(ctx, cfg, outputBaseName(input))
	})

	return wg.Wait()
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [-config path] <file | url | ->\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	cfg := config.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.ReadConfig(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	if err := cfg.PopulateFromEnvironment(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	})))

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid config", slog.Any("error", err))
		os.Exit(1)
	}

	// Exit on SIGINT or SIGTERM
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		abort := make(chan os.Signal, 1)
		signal.Notify(abort, syscall.SIGINT, syscall.SIGTERM)
		caught := 0
		for {
			<-abort
			caught++
			if caught == 1 {
				slog.Info("Caught signal, exiting gracefully")
				cancel()
			} else {
				slog.Info("Caught signal, exiting now")
				os.Exit(1)
			}
		}
	}()

	if err := run(ctx, cfg, flag.Arg(0)); err != nil {
		slog.Error("Program was unsuccessful", slog.Any("error", err))
		os.Exit(1)
	}
}
