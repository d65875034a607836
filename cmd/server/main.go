package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openchlsystem/aitrainerS3/internal/config"
	"github.com/openchlsystem/aitrainerS3/internal/metrics"
	"github.com/openchlsystem/aitrainerS3/internal/pipeline"
	"github.com/openchlsystem/aitrainerS3/internal/segment"
	"github.com/openchlsystem/aitrainerS3/internal/server"
	"github.com/openchlsystem/aitrainerS3/internal/store"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "audio-annotation-service"
	serviceVersion    = "1.0.0"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger based on configuration
	logger := initLogger(cfg.Logging)

	// Log service startup
	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", *configPath),
	)

	// Log configuration summary
	logger.Info("Configuration loaded",
		slog.Int("http_port", cfg.HTTP.Port),
		slog.String("bind_address", cfg.HTTP.Address),
		slog.String("database_path", cfg.Database.Path),
		slog.String("web_root", cfg.Storage.WebRoot),
		slog.Int("sample_rate", cfg.Segmenter.SampleRate),
		slog.Int("min_chunk_length_ms", cfg.Segmenter.MinChunkLengthMS),
		slog.Int("max_chunk_length_ms", cfg.Segmenter.MaxChunkLengthMS),
		slog.Int("evaluation_quorum", cfg.Evaluation.Quorum),
		slog.Float64("badness_threshold", cfg.Evaluation.BadnessThreshold),
		slog.String("pipeline_base_url", cfg.Pipeline.BaseURL),
		slog.String("log_level", cfg.Logging.Level),
	)

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Prometheus metrics
	appMetrics := metrics.NewMetrics()
	logger.Info("Prometheus metrics initialized")

	// Open the annotation store
	st, err := store.Open(cfg.Database.Path, logger)
	if err != nil {
		logger.Error("Failed to open store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Store opened", slog.String("path", cfg.Database.Path))

	// Create the GPU pipeline trigger client
	pipelineClient, err := pipeline.NewClient(cfg.Pipeline, logger)
	if err != nil {
		logger.Error("Failed to create pipeline client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Pipeline client initialized",
		slog.String("base_url", cfg.Pipeline.BaseURL),
		slog.Duration("timeout", cfg.Pipeline.GetTimeoutDuration()),
	)

	// Create the segmentation manager
	mapper := pipeline.PathMapper{
		WebRoot: cfg.Storage.WebRoot,
		GPURoot: cfg.Storage.GPURoot,
	}
	segmentMgr := segment.NewManager(cfg.Segmenter, mapper, st, appMetrics, logger)
	logger.Info("Segmentation manager initialized",
		slog.Duration("min_chunk", cfg.Segmenter.GetMinChunkDuration()),
		slog.Duration("max_chunk", cfg.Segmenter.GetMaxChunkDuration()),
		slog.Int("save_workers", cfg.Segmenter.SaveWorkers),
	)

	// Initialize and start the HTTP API server
	httpServer := server.NewHTTPServer(cfg, logger, st, pipelineClient, segmentMgr, appMetrics)
	if err := httpServer.Start(); err != nil {
		logger.Error("Failed to start HTTP server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Service started successfully, waiting for signals...",
		slog.String("http_address", fmt.Sprintf("%s:%d", cfg.HTTP.Address, cfg.HTTP.Port)),
	)

	// Wait for shutdown signal
	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("Context cancelled, shutting down")
	}

	logger.Info("Starting graceful shutdown...")

	// Stop HTTP server first (stop accepting new requests)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
	}

	// Close the store last so in-flight handlers finish their writes
	if err := st.Close(); err != nil {
		logger.Error("Error closing store", slog.String("error", err.Error()))
	}

	// Final statistics
	pipelineStats := pipelineClient.GetStats()
	segmentStats := segmentMgr.GetStats()
	logger.Info("Final service statistics",
		slog.Uint64("pipeline_triggers", pipelineStats.TotalTriggers),
		slog.Uint64("pipeline_accepted", pipelineStats.Accepted),
		slog.Uint64("segmentation_jobs", segmentStats.JobsCompleted),
		slog.Uint64("chunks_written", segmentStats.ChunksWritten),
	)

	logger.Info("Service stopped")
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	// Parse log level
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo // default fallback
	}

	// Configure handler options
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	// Determine output destination
	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "stdout", "":
		output = os.Stdout
	default:
		// Assume it's a file path
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stdout\n", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}

	// Create handler based on format
	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	case "text", "":
		handler = slog.NewTextHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
