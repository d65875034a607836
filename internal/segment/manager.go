package segment

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/openchlsystem/aitrainerS3/internal/audio"
	"github.com/openchlsystem/aitrainerS3/internal/config"
	"github.com/openchlsystem/aitrainerS3/internal/metrics"
	"github.com/openchlsystem/aitrainerS3/internal/pipeline"
	"github.com/openchlsystem/aitrainerS3/internal/store"
)

// Job describes one recording to segment. SourcePath is the recording's
// stage-relative path on the storage share; Prefix names the output chunk
// files.
type Job struct {
	ProjectID  uint
	SourcePath string
	Prefix     string
	CreatedBy  string
}

// Result summarizes one completed segmentation job
type Result struct {
	SourcePath string
	ChunkCount int
	ChunkPaths []string
	Elapsed    time.Duration
}

// Manager runs segmentation jobs: decode, resample to the analysis rate,
// detect speech spans, and write one chunk file per span. Chunk files are
// written in parallel across a bounded worker pool; database inserts go
// through the store's insert-or-get path so replayed jobs never duplicate
// records.
type Manager struct {
	cfg     config.SegmenterConfig
	mapper  pipeline.PathMapper
	store   *store.Store
	metrics *metrics.Metrics
	logger  *slog.Logger

	// Statistics
	jobsCompleted uint64
	jobsFailed    uint64
	chunksWritten uint64
	mu            sync.RWMutex
}

// NewManager creates a segmentation manager
func NewManager(cfg config.SegmenterConfig, mapper pipeline.PathMapper, st *store.Store, m *metrics.Metrics, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		cfg:     cfg,
		mapper:  mapper,
		store:   st,
		metrics: m,
		logger:  logger,
	}
}

// segmenterConfig translates the yaml section into the analysis parameters
func (m *Manager) segmenterConfig() audio.SegmenterConfig {
	return audio.SegmenterConfig{
		SampleRate:       m.cfg.SampleRate,
		MinChunkLengthMS: m.cfg.MinChunkLengthMS,
		MaxChunkLengthMS: m.cfg.MaxChunkLengthMS,
		FrameLengthMS:    m.cfg.FrameLengthMS,
		OverlapMS:        m.cfg.OverlapMS,
	}
}

// Run segments one recording end to end and returns the job summary.
// The context bounds the whole job; a cancelled context stops chunk
// writes between files, not mid-file.
func (m *Manager) Run(ctx context.Context, job Job) (*Result, error) {
	start := time.Now()

	result, err := m.run(ctx, job)
	if err != nil {
		m.recordFailure()
		if m.metrics != nil {
			m.metrics.RecordSegmentationError()
		}
		m.logger.Error("Segmentation job failed",
			slog.String("source", job.SourcePath),
			slog.String("error", err.Error()))
		return nil, err
	}

	result.Elapsed = time.Since(start)
	m.recordSuccess()
	if m.metrics != nil {
		m.metrics.RecordSegmentation(result.Elapsed.Seconds())
	}

	m.logger.Info("Segmentation job completed",
		slog.String("source", job.SourcePath),
		slog.Int("chunks", result.ChunkCount),
		slog.Duration("elapsed", result.Elapsed))

	return result, nil
}

func (m *Manager) run(ctx context.Context, job Job) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if job.SourcePath == "" {
		return nil, fmt.Errorf("source path cannot be empty")
	}
	if job.Prefix == "" {
		job.Prefix = strings.TrimSuffix(filepath.Base(job.SourcePath), filepath.Ext(job.SourcePath))
	}

	samples, sourceRate, err := audio.ReadWAVMono(m.mapper.WebPath(job.SourcePath))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", job.SourcePath, err)
	}

	if sourceRate != m.cfg.SampleRate {
		samples = audio.Resample(samples, sourceRate, m.cfg.SampleRate)
	}

	spans := audio.SegmentSignal(samples, m.segmenterConfig())

	m.logger.Debug("Speech spans detected",
		slog.String("source", job.SourcePath),
		slog.Int("spans", len(spans)),
		slog.Float64("duration", audio.Duration(len(samples), m.cfg.SampleRate)))

	if err := os.MkdirAll(m.mapper.WebPath(pipeline.ChunksDir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create chunks directory: %w", err)
	}

	paths, err := m.writeChunks(ctx, job, samples, spans)
	if err != nil {
		return nil, err
	}

	return &Result{
		SourcePath: job.SourcePath,
		ChunkCount: len(paths),
		ChunkPaths: paths,
	}, nil
}

// writeChunks materializes one file per span over the worker pool and
// records each file in the store. Store inserts happen on the worker
// goroutines; the insert-or-get path keeps them safe to run concurrently.
func (m *Manager) writeChunks(ctx context.Context, job Job, samples []float64, spans []audio.Span) ([]string, error) {
	workers := m.cfg.SaveWorkers
	if workers <= 0 {
		workers = 1
	}

	type task struct {
		index int
		span  audio.Span
	}

	tasks := make(chan task)
	paths := make([]string, len(spans))
	errs := make([]error, len(spans))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for tk := range tasks {
				paths[tk.index], errs[tk.index] = m.writeChunk(job, samples, tk.span, tk.index)
			}
		}()
	}

	feed := func() error {
		defer close(tasks)
		for i, span := range spans {
			select {
			case tasks <- task{index: i, span: span}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	}
	feedErr := feed()
	wg.Wait()

	if feedErr != nil {
		return nil, feedErr
	}
	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i, err)
		}
	}

	written := make([]string, 0, len(spans))
	for _, p := range paths {
		if p != "" {
			written = append(written, p)
		}
	}
	return written, nil
}

// writeChunk writes one span to disk and records it
func (m *Manager) writeChunk(job Job, samples []float64, span audio.Span, index int) (string, error) {
	name := fmt.Sprintf("%s_chunk_%04d.%s", job.Prefix, index, m.cfg.OutputFormat)
	relative := pipeline.ChunkPath(name)

	clip := samples[span.Start:span.End]
	if err := audio.WriteWAVMono(m.mapper.WebPath(relative), clip, m.cfg.SampleRate); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", relative, err)
	}

	duration := audio.Duration(len(clip), m.cfg.SampleRate)
	_, created, err := m.store.CreateChunk(store.NewChunk{
		ProjectID: job.ProjectID,
		Path:      relative,
		Duration:  duration,
		CreatedBy: job.CreatedBy,
	})
	if err != nil {
		return "", err
	}

	if created {
		m.addChunkWritten()
		if m.metrics != nil {
			m.metrics.RecordChunkGenerated(duration)
		}
	}

	return relative, nil
}

// Stats summarizes manager activity since startup
type Stats struct {
	JobsCompleted uint64 `json:"jobs_completed"`
	JobsFailed    uint64 `json:"jobs_failed"`
	ChunksWritten uint64 `json:"chunks_written"`
}

// GetStats returns segmentation statistics since startup
func (m *Manager) GetStats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Stats{
		JobsCompleted: m.jobsCompleted,
		JobsFailed:    m.jobsFailed,
		ChunksWritten: m.chunksWritten,
	}
}

func (m *Manager) recordSuccess() {
	m.mu.Lock()
	m.jobsCompleted++
	m.mu.Unlock()
}

func (m *Manager) recordFailure() {
	m.mu.Lock()
	m.jobsFailed++
	m.mu.Unlock()
}

func (m *Manager) addChunkWritten() {
	m.mu.Lock()
	m.chunksWritten++
	m.mu.Unlock()
}
