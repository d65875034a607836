package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/openchlsystem/aitrainerS3/internal/config"
)

// Client notifies the GPU collaborator that a recording is ready for the
// next processing stage. Triggers are fire-and-forget: any 2xx response
// means the request was accepted for asynchronous processing, and callers
// advance state flags only on acceptance. A failed trigger is logged and
// reported, never fatal.
type Client struct {
	baseURL        string
	preprocessPath string
	diarizePath    string
	chunkPath      string
	noiseReduction float64
	normalize      bool
	httpClient     *http.Client
	logger         *slog.Logger

	// Statistics
	totalTriggers  uint64
	acceptedCount  uint64
	failedCount    uint64
	mu             sync.RWMutex
}

// ClientStats summarizes trigger outcomes since startup
type ClientStats struct {
	TotalTriggers uint64  `json:"total_triggers"`
	Accepted      uint64  `json:"accepted"`
	Failed        uint64  `json:"failed"`
	AcceptRate    float64 `json:"accept_rate"`
}

// PreprocessRequest asks the collaborator to noise-reduce and normalize a
// raw recording. AudioPath is absolute on the collaborator's mount.
type PreprocessRequest struct {
	AudioPath      string  `json:"audio_path"`
	NoiseReduction float64 `json:"noise_reduction"`
	Normalize      bool    `json:"normalize"`
	ProjectID      string  `json:"project_id"`
}

// DiarizeRequest asks the collaborator to speaker-separate an approved
// cleaned recording.
type DiarizeRequest struct {
	AudioPath string `json:"audio_path"`
	ProjectID string `json:"project_id"`
}

// ChunkRequest asks the collaborator to run its own chunking over a
// diarized recording.
type ChunkRequest struct {
	AudioPath string `json:"audio_path"`
	ProjectID string `json:"project_id"`
}

// NewClient creates a trigger client from the pipeline configuration
func NewClient(cfg config.PipelineConfig, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("pipeline base URL cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := &http.Client{
		Timeout: cfg.GetTimeoutDuration(),
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &Client{
		baseURL:        cfg.BaseURL,
		preprocessPath: cfg.PreprocessPath,
		diarizePath:    cfg.DiarizePath,
		chunkPath:      cfg.ChunkPath,
		noiseReduction: cfg.NoiseReduction,
		normalize:      cfg.Normalize,
		httpClient:     httpClient,
		logger:         logger,
	}, nil
}

// NotifyPreprocess requests noise reduction for a raw recording
func (c *Client) NotifyPreprocess(ctx context.Context, audioPath, projectID string) error {
	return c.trigger(ctx, "preprocess", c.preprocessPath, PreprocessRequest{
		AudioPath:      audioPath,
		NoiseReduction: c.noiseReduction,
		Normalize:      c.normalize,
		ProjectID:      projectID,
	})
}

// NotifyDiarize requests speaker separation for a cleaned recording
func (c *Client) NotifyDiarize(ctx context.Context, audioPath, projectID string) error {
	return c.trigger(ctx, "diarize", c.diarizePath, DiarizeRequest{
		AudioPath: audioPath,
		ProjectID: projectID,
	})
}

// NotifyChunk requests collaborator-side chunking for a diarized recording
func (c *Client) NotifyChunk(ctx context.Context, audioPath, projectID string) error {
	return c.trigger(ctx, "chunk", c.chunkPath, ChunkRequest{
		AudioPath: audioPath,
		ProjectID: projectID,
	})
}

// trigger posts one stage request and classifies the outcome by HTTP
// status alone; response bodies are drained and discarded.
func (c *Client) trigger(ctx context.Context, stage, path string, payload any) error {
	c.incrementTotal()

	body, err := json.Marshal(payload)
	if err != nil {
		c.incrementFailed()
		return fmt.Errorf("failed to encode %s request: %w", stage, err)
	}

	url := c.baseURL + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		c.incrementFailed()
		return fmt.Errorf("failed to create %s request: %w", stage, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.incrementFailed()
		c.logger.Error("Pipeline trigger failed",
			"stage", stage,
			"url", url,
			"error", err)
		return fmt.Errorf("%s trigger failed: %w", stage, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.incrementFailed()
		c.logger.Error("Pipeline trigger rejected",
			"stage", stage,
			"url", url,
			"status", resp.StatusCode)
		return fmt.Errorf("%s trigger rejected with status %d", stage, resp.StatusCode)
	}

	c.incrementAccepted()
	c.logger.Info("Pipeline trigger accepted",
		"stage", stage,
		"status", resp.StatusCode)

	return nil
}

// GetStats returns trigger statistics since startup
func (c *Client) GetStats() ClientStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := ClientStats{
		TotalTriggers: c.totalTriggers,
		Accepted:      c.acceptedCount,
		Failed:        c.failedCount,
	}
	if stats.TotalTriggers > 0 {
		stats.AcceptRate = float64(stats.Accepted) / float64(stats.TotalTriggers)
	}
	return stats
}

func (c *Client) incrementTotal() {
	c.mu.Lock()
	c.totalTriggers++
	c.mu.Unlock()
}

func (c *Client) incrementAccepted() {
	c.mu.Lock()
	c.acceptedCount++
	c.mu.Unlock()
}

func (c *Client) incrementFailed() {
	c.mu.Lock()
	c.failedCount++
	c.mu.Unlock()
}
