package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete service configuration
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Storage    StorageConfig    `yaml:"storage"`
	Segmenter  SegmenterConfig  `yaml:"segmenter"`
	Evaluation EvaluationConfig `yaml:"evaluation"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// HTTPConfig contains HTTP API server configuration
type HTTPConfig struct {
	Port    int    `yaml:"port"`
	Address string `yaml:"address"`
}

// DatabaseConfig contains persistence configuration
type DatabaseConfig struct {
	Path string `yaml:"path"` // SQLite database file path
}

// StorageConfig describes the shared audio filesystem root. The web tier
// and the GPU tier mount the same files under different absolute prefixes;
// only relative names are stored in the database.
type StorageConfig struct {
	WebRoot string `yaml:"web_root"`
	GPURoot string `yaml:"gpu_root"`
}

// SegmenterConfig contains silence-detection chunking parameters
type SegmenterConfig struct {
	SampleRate       int    `yaml:"sample_rate"` // analysis rate, Hz
	MinChunkLengthMS int    `yaml:"min_chunk_length_ms"`
	MaxChunkLengthMS int    `yaml:"max_chunk_length_ms"`
	FrameLengthMS    int    `yaml:"frame_length_ms"`
	OverlapMS        int    `yaml:"overlap_ms"`
	OutputFormat     string `yaml:"output_format"`
	SaveWorkers      int    `yaml:"save_workers"`
}

// EvaluationConfig contains readiness-gating parameters. Quorum size and
// the badness cutoff varied across deployments, so both are configurable
// rather than hardcoded.
type EvaluationConfig struct {
	Quorum           int     `yaml:"quorum"`
	BadnessThreshold float64 `yaml:"badness_threshold"`
	SchemaVersion    int     `yaml:"schema_version"`
}

// PipelineConfig contains the remote GPU collaborator configuration
type PipelineConfig struct {
	BaseURL        string  `yaml:"base_url"`
	PreprocessPath string  `yaml:"preprocess_path"`
	DiarizePath    string  `yaml:"diarize_path"`
	ChunkPath      string  `yaml:"chunk_path"`
	Timeout        int     `yaml:"timeout"` // seconds
	NoiseReduction float64 `yaml:"noise_reduction"`
	Normalize      bool    `yaml:"normalize"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// applyDefaults fills unset fields with documented defaults
func (c *Config) applyDefaults() {
	if c.Segmenter.SampleRate == 0 {
		c.Segmenter.SampleRate = 16000
	}
	if c.Segmenter.MinChunkLengthMS == 0 {
		c.Segmenter.MinChunkLengthMS = 3000
	}
	if c.Segmenter.MaxChunkLengthMS == 0 {
		c.Segmenter.MaxChunkLengthMS = 7000
	}
	if c.Segmenter.FrameLengthMS == 0 {
		c.Segmenter.FrameLengthMS = 30
	}
	if c.Segmenter.OverlapMS == 0 {
		c.Segmenter.OverlapMS = 2000
	}
	if c.Segmenter.OutputFormat == "" {
		c.Segmenter.OutputFormat = "wav"
	}
	if c.Segmenter.SaveWorkers == 0 {
		c.Segmenter.SaveWorkers = 4
	}
	if c.Evaluation.Quorum == 0 {
		c.Evaluation.Quorum = 3
	}
	if c.Evaluation.BadnessThreshold == 0 {
		c.Evaluation.BadnessThreshold = 0.3
	}
	if c.Evaluation.SchemaVersion == 0 {
		c.Evaluation.SchemaVersion = 2
	}
	if c.Pipeline.PreprocessPath == "" {
		c.Pipeline.PreprocessPath = "/audio/preprocess/"
	}
	if c.Pipeline.DiarizePath == "" {
		c.Pipeline.DiarizePath = "/audio/diarize/"
	}
	if c.Pipeline.ChunkPath == "" {
		c.Pipeline.ChunkPath = "/audio/chunk/"
	}
	if c.Pipeline.Timeout == 0 {
		c.Pipeline.Timeout = 10
	}
	if c.Pipeline.NoiseReduction == 0 {
		c.Pipeline.NoiseReduction = 0.3
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http config: %w", err)
	}

	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database config: %w", err)
	}

	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage config: %w", err)
	}

	if err := c.Segmenter.Validate(); err != nil {
		return fmt.Errorf("segmenter config: %w", err)
	}

	if err := c.Evaluation.Validate(); err != nil {
		return fmt.Errorf("evaluation config: %w", err)
	}

	if err := c.Pipeline.Validate(); err != nil {
		return fmt.Errorf("pipeline config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates HTTP configuration
func (h *HTTPConfig) Validate() error {
	if h.Port < 1 || h.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", h.Port)
	}

	if h.Address == "" {
		return fmt.Errorf("address cannot be empty")
	}

	return nil
}

// Validate validates database configuration
func (d *DatabaseConfig) Validate() error {
	if d.Path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	return nil
}

// Validate validates storage configuration
func (s *StorageConfig) Validate() error {
	if s.WebRoot == "" {
		return fmt.Errorf("web_root cannot be empty")
	}

	if s.GPURoot == "" {
		return fmt.Errorf("gpu_root cannot be empty")
	}

	if !filepath.IsAbs(s.WebRoot) {
		return fmt.Errorf("web_root must be an absolute path, got %s", s.WebRoot)
	}

	if !filepath.IsAbs(s.GPURoot) {
		return fmt.Errorf("gpu_root must be an absolute path, got %s", s.GPURoot)
	}

	return nil
}

// Validate validates segmenter configuration
func (s *SegmenterConfig) Validate() error {
	if s.SampleRate != 16000 {
		return fmt.Errorf("sample_rate must be 16000 Hz for silence analysis, got %d", s.SampleRate)
	}

	if s.FrameLengthMS < 1 {
		return fmt.Errorf("frame_length_ms must be at least 1, got %d", s.FrameLengthMS)
	}

	if s.MinChunkLengthMS <= 0 {
		return fmt.Errorf("min_chunk_length_ms must be positive, got %d", s.MinChunkLengthMS)
	}

	if s.MaxChunkLengthMS <= s.MinChunkLengthMS {
		return fmt.Errorf("max_chunk_length_ms (%d) must be greater than min_chunk_length_ms (%d)",
			s.MaxChunkLengthMS, s.MinChunkLengthMS)
	}

	if s.OverlapMS < 0 {
		return fmt.Errorf("overlap_ms cannot be negative, got %d", s.OverlapMS)
	}

	if s.OutputFormat != "wav" {
		return fmt.Errorf("output_format must be 'wav', got '%s'", s.OutputFormat)
	}

	if s.SaveWorkers < 1 {
		return fmt.Errorf("save_workers must be at least 1, got %d", s.SaveWorkers)
	}

	return nil
}

// Validate validates evaluation configuration
func (e *EvaluationConfig) Validate() error {
	if e.Quorum < 1 {
		return fmt.Errorf("quorum must be at least 1, got %d", e.Quorum)
	}

	if e.BadnessThreshold <= 0 || e.BadnessThreshold > 1 {
		return fmt.Errorf("badness_threshold must be in (0, 1], got %f", e.BadnessThreshold)
	}

	if e.SchemaVersion < 1 || e.SchemaVersion > 2 {
		return fmt.Errorf("schema_version must be 1 or 2, got %d", e.SchemaVersion)
	}

	return nil
}

// Validate validates pipeline configuration
func (p *PipelineConfig) Validate() error {
	if p.BaseURL == "" {
		return fmt.Errorf("base_url cannot be empty")
	}

	if p.Timeout < 1 {
		return fmt.Errorf("timeout must be at least 1 second, got %d", p.Timeout)
	}

	if p.NoiseReduction < 0 || p.NoiseReduction > 1 {
		return fmt.Errorf("noise_reduction must be between 0 and 1, got %f", p.NoiseReduction)
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	return nil
}

// GetTimeoutDuration returns the pipeline trigger timeout as a time.Duration
func (p *PipelineConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(p.Timeout) * time.Second
}

// GetMinChunkDuration returns the minimum chunk length as a time.Duration
func (s *SegmenterConfig) GetMinChunkDuration() time.Duration {
	return time.Duration(s.MinChunkLengthMS) * time.Millisecond
}

// GetMaxChunkDuration returns the maximum chunk length as a time.Duration
func (s *SegmenterConfig) GetMaxChunkDuration() time.Duration {
	return time.Duration(s.MaxChunkLengthMS) * time.Millisecond
}
