package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/streamcap/streamcapd/internal/cleanup"
	"github.com/streamcap/streamcapd/internal/config"
	"github.com/streamcap/streamcapd/internal/http/rest"
	"github.com/streamcap/streamcapd/internal/logctx"
	"github.com/streamcap/streamcapd/internal/monitor"
	"github.com/streamcap/streamcapd/internal/notify"
	"github.com/streamcap/streamcapd/internal/platform"
	"github.com/streamcap/streamcapd/internal/recording"
	"github.com/streamcap/streamcapd/internal/storage/sqlite"
	"github.com/streamcap/streamcapd/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const version = "0.1.0"

func main() {
	var (
		envFile  string
		logLevel string
	)

	pflag.StringVar(&envFile, "env-file", "", "load environment variables from this file")
	pflag.StringVar(&logLevel, "log-level", "", "override LOG_LEVEL")
	pflag.Parse()

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			slog.Error("failed to load env file", "file", envFile, "err", err)
			os.Exit(1)
		}
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("config error", "err", err)
		os.Exit(1)
	}

	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logger := slog.New(logctx.NewTraceHandler(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}),
	))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	slog.Info("stream capture daemon starting...", "version", version, "log_level", cfg.LogLevel)

	if err := run(logctx.WithLogger(ctx, logger), cfg); err != nil {
		slog.Error("fatal error", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := logctx.LoggerFromContext(ctx)

	// =========================================================================
	// Start Telemetry
	tel, err := telemetry.New(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "streamcapd",
		ServiceVersion: version,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown telemetry", "err", err)
		}
	}()

	// =========================================================================
	// Start Database
	database, err := sqlite.InitDB(cfg.DBPath)
	if err != nil {
		logger.Error("DB error", "err", err)

		return err
	}
	defer database.Close()

	captures := sqlite.NewInstrumentedCaptureRepository(database, tel)

	// =========================================================================
	// Start Monitor
	checker, err := platform.NewLiveChecker("")
	if err != nil {
		return fmt.Errorf("failed to build live checker: %w", err)
	}

	gate := notify.NewGate(cfg.PushSettings(), cfg.BuildChannels()...)

	mon := monitor.New(monitor.Config{
		OutputDir:    cfg.OutputDir,
		PollInterval: cfg.PollInterval,
		StopTimeout:  cfg.StopTimeout,
		FFmpegBinary: cfg.FFmpegBinary,
	}, checker, gate, captures, tel)

	recordings, err := recording.LoadFile(cfg.RecordingsFile)
	if err != nil {
		return fmt.Errorf("failed to load recordings: %w", err)
	}

	for _, rec := range recordings {
		if err := mon.Add(rec); err != nil {
			return fmt.Errorf("failed to register recording: %w", err)
		}
	}

	go mon.Run(ctx)

	logger.Info("monitoring streams...",
		"recordings", len(recordings),
		"channels", len(gate.Channels()),
		"output_dir", cfg.OutputDir,
		"poll_interval", cfg.PollInterval.String(),
		"retention", cfg.KeepCapturedFor.String(),
	)

	// =========================================================================
	// Start Cleanup
	setupCleanup(ctx, captures, cfg)

	// =========================================================================
	// Start API Service

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	server := setupServer(ctx, mon, captures, tel, cfg)

	go func() {
		logger.Info("Initializing API support", "host", cfg.Web.BindAddress)
		serverErrors <- server.ListenAndServe()
	}()

	// =========================================================================
	// Wait for shutdown
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("start shutdown")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to gracefully shutdown the server", "err", err)

			if err = server.Close(); err != nil {
				return fmt.Errorf("could not stop server gracefully: %w", err)
			}
		}

		return nil
	}
}

// setupServer prepares the handlers and services to create the http rest server.
func setupServer(ctx context.Context, mon *monitor.Monitor, captures *sqlite.InstrumentedCaptureRepository, tel *telemetry.Telemetry, cfg *config.Config) *http.Server {
	handler := rest.NewRecordingsHandler(cfg.Web.Username, cfg.Web.Password, mon, captures)

	r := chi.NewRouter()
	r.Use(telemetry.RequestID)
	r.Use(telemetry.HTTPLogging)
	r.Use(telemetry.NewHTTPMiddleware(tel).Middleware)

	r.Mount("/", handler.Routes())
	r.Method(http.MethodGet, "/metrics", tel.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &http.Server{
		Addr:         cfg.Web.BindAddress,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		Handler:      otelhttp.NewHandler(r, "streamcapd"),
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}
}

func setupCleanup(ctx context.Context, captures *sqlite.InstrumentedCaptureRepository, cfg *config.Config) {
	logger := logctx.LoggerFromContext(ctx)

	go func() {
		cleanupTicker := time.NewTicker(cfg.CleanupInterval)
		defer cleanupTicker.Stop()

		for {
			select {
			case <-ctx.Done():
				logger.Info("cleanup goroutine shutting down.")

				return
			case <-cleanupTicker.C:
				tracked, err := captures.GetCaptures()
				if err != nil {
					logger.Error("failed to get tracked captures for cleanup", "err", err)

					continue
				}

				if err := cleanup.DeleteExpiredCaptures(ctx, tracked, cfg.KeepCapturedFor); err != nil {
					logger.Error("failed to delete expired capture files", "err", err)
				}
			}
		}
	}()
}
