package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openchlsystem/aitrainerS3/internal/config"
	"github.com/openchlsystem/aitrainerS3/internal/eval"
	"github.com/openchlsystem/aitrainerS3/internal/metrics"
	"github.com/openchlsystem/aitrainerS3/internal/pipeline"
	"github.com/openchlsystem/aitrainerS3/internal/segment"
	"github.com/openchlsystem/aitrainerS3/internal/store"
)

// evaluatorHeader carries the requesting evaluator's identity for the
// per-chunk evaluated_by_user marker.
const evaluatorHeader = "X-Evaluator"

// HTTPServer provides the annotation web API
type HTTPServer struct {
	server    *http.Server
	logger    *slog.Logger
	config    *config.Config
	store     *store.Store
	pipeline  *pipeline.Client
	segmenter *segment.Manager
	metrics   *metrics.Metrics
	mapper    pipeline.PathMapper
	gate      eval.Gate

	startTime time.Time
}

// NewHTTPServer creates the annotation API server
func NewHTTPServer(cfg *config.Config, logger *slog.Logger,
	st *store.Store, pc *pipeline.Client, sm *segment.Manager, m *metrics.Metrics) *HTTPServer {

	h := &HTTPServer{
		logger:    logger,
		config:    cfg,
		store:     st,
		pipeline:  pc,
		segmenter: sm,
		metrics:   m,
		mapper: pipeline.PathMapper{
			WebRoot: cfg.Storage.WebRoot,
			GPURoot: cfg.Storage.GPURoot,
		},
		gate: eval.Gate{
			Quorum:           cfg.Evaluation.Quorum,
			BadnessThreshold: cfg.Evaluation.BadnessThreshold,
		},
		startTime: time.Now(),
	}

	mux := http.NewServeMux()
	h.setupRoutes(mux)

	h.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Address, cfg.HTTP.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return h
}

// setupRoutes configures the API routes
func (h *HTTPServer) setupRoutes(mux *http.ServeMux) {
	// Annotation workflow
	mux.HandleFunc("/api/evaluations", h.withMetrics("/api/evaluations", h.handleEvaluations))
	mux.HandleFunc("/api/evaluations/flag-totals", h.withMetrics("/api/evaluations/flag-totals", h.handleFlagTotals))
	mux.HandleFunc("/api/chunks/categories", h.withMetrics("/api/chunks/categories", h.handleCategories))
	mux.HandleFunc("/api/chunks/ready", h.withMetrics("/api/chunks/ready", h.handleReady))
	mux.HandleFunc("/api/chunks/statistics", h.withMetrics("/api/chunks/statistics", h.handleStatistics))
	mux.HandleFunc("/api/chunks/", h.withMetrics("/api/chunks/{id}", h.handleChunkDetail))
	mux.HandleFunc("/api/leaderboard", h.withMetrics("/api/leaderboard", h.handleLeaderboard))

	// Audio lifecycle
	mux.HandleFunc("/api/projects", h.withMetrics("/api/projects", h.handleProjects))
	mux.HandleFunc("/api/audio", h.withMetrics("/api/audio", h.handleAudio))
	mux.HandleFunc("/api/audio/cleaned", h.withMetrics("/api/audio/cleaned", h.handleCleanedAudio))
	mux.HandleFunc("/api/audio/", h.withMetrics("/api/audio/{id}", h.handleAudioDetail))
	mux.HandleFunc("/api/diarizations", h.withMetrics("/api/diarizations", h.handleDiarizations))

	// Monitoring
	mux.HandleFunc("/health", h.withMetrics("/health", h.handleHealth))
	mux.HandleFunc("/config", h.withMetrics("/config", h.handleConfig))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/", h.withMetrics("/", h.handleRoot))
}

// withMetrics wraps an HTTP handler with metrics collection
func (h *HTTPServer) withMetrics(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		ww := &responseWriter{ResponseWriter: w, statusCode: 200}
		handler(ww, r)

		duration := time.Since(startTime).Seconds()
		statusCode := fmt.Sprintf("%d", ww.statusCode)
		h.metrics.RecordHTTPRequest(r.Method, endpoint, statusCode, duration)

		if ww.statusCode >= 400 {
			errorType := "client_error"
			if ww.statusCode >= 500 {
				errorType = "server_error"
			}
			h.metrics.RecordHTTPError(r.Method, endpoint, errorType)
		}
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start starts the HTTP server
func (h *HTTPServer) Start() error {
	h.logger.Info("Starting annotation API server",
		slog.String("address", h.server.Addr))

	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.logger.Error("HTTP server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Stop gracefully stops the HTTP server
func (h *HTTPServer) Stop(ctx context.Context) error {
	h.logger.Info("Stopping annotation API server...")
	return h.server.Shutdown(ctx)
}

// writeJSON writes a JSON response with the given status
func (h *HTTPServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", slog.String("error", err.Error()))
	}
}

// writeError maps store errors onto HTTP statuses
func (h *HTTPServer) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrValidation):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", slog.String("error", err.Error()))
	}

	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// evaluationRequest is the POST /api/evaluations body
type evaluationRequest struct {
	ChunkID       string     `json:"chunk_id"`
	EvaluatedBy   string     `json:"evaluated_by"`
	SchemaVersion int        `json:"schema_version"`
	Flags         eval.Flags `json:"flags"`
	Notes         string     `json:"notes"`
	StartedAt     time.Time  `json:"started_at"`
	EndedAt       time.Time  `json:"ended_at"`
}

// handleEvaluations implements POST /api/evaluations
func (h *HTTPServer) handleEvaluations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req evaluationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if req.SchemaVersion == 0 {
		req.SchemaVersion = h.config.Evaluation.SchemaVersion
	}

	row, created, err := h.store.UpsertEvaluation(store.EvaluationSubmission{
		ChunkUID:      req.ChunkID,
		EvaluatedBy:   req.EvaluatedBy,
		SchemaVersion: req.SchemaVersion,
		Flags:         req.Flags,
		Notes:         req.Notes,
		StartedAt:     req.StartedAt,
		EndedAt:       req.EndedAt,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.metrics.RecordEvaluation(created, row.DefectCount)

	agg, err := h.store.ChunkAggregate(req.ChunkID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	h.writeJSON(w, status, map[string]any{
		"evaluation": row,
		"created":    created,
		"aggregate":  agg,
		"ready":      h.gate.Ready(agg),
	})
}

// handleCategories implements GET /api/chunks/categories
func (h *HTTPServer) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	categories, err := h.store.CategorizedChunks(
		r.URL.Query().Get("project_id"),
		r.Header.Get(evaluatorHeader))
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, categories)
}

// handleReady implements GET /api/chunks/ready
func (h *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ready, err := h.store.ReadyForTranscription(r.URL.Query().Get("project_id"), h.gate)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"count":  len(ready),
		"chunks": ready,
	})
}

// handleStatistics implements GET /api/chunks/statistics
func (h *HTTPServer) handleStatistics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats, err := h.store.Statistics(r.URL.Query().Get("project_id"), h.gate)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, stats)
}

// handleFlagTotals implements GET /api/evaluations/flag-totals
func (h *HTTPServer) handleFlagTotals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	totals, err := h.store.FlagTotals(r.URL.Query().Get("project_id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, totals)
}

// handleLeaderboard implements GET /api/leaderboard
func (h *HTTPServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	entries, err := h.store.Leaderboard(r.URL.Query().Get("project_id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(entries),
		"entries": entries,
	})
}

// handleChunkDetail implements /api/chunks/{id} and
// POST /api/chunks/{id}/transcription.
func (h *HTTPServer) handleChunkDetail(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/chunks/")
	if rest == "" {
		http.NotFound(w, r)
		return
	}

	if chunkID, ok := strings.CutSuffix(rest, "/transcription"); ok {
		h.handleTranscription(w, r, chunkID)
		return
	}

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	chunk, err := h.store.GetChunk(rest)
	if err != nil {
		h.writeError(w, err)
		return
	}
	agg, err := h.store.ChunkAggregate(chunk.UniqueID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response := map[string]any{
		"chunk": chunk,
		"ready": h.gate.Ready(agg),
	}
	if agg.HasScore() {
		response["aggregate"] = agg
	}
	h.writeJSON(w, http.StatusOK, response)
}

// transcriptionRequest is the POST /api/chunks/{id}/transcription body
type transcriptionRequest struct {
	Text      string `json:"text"`
	UpdatedBy string `json:"updated_by"`
}

func (h *HTTPServer) handleTranscription(w http.ResponseWriter, r *http.Request, chunkID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req transcriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	chunk, err := h.store.AttachTranscription(chunkID, req.Text, req.UpdatedBy)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, chunk)
}

// projectRequest is the POST /api/projects body
type projectRequest struct {
	Name      string `json:"name"`
	CreatedBy string `json:"created_by"`
}

// handleProjects implements POST /api/projects
func (h *HTTPServer) handleProjects(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	project, err := h.store.CreateProject(req.Name, req.CreatedBy)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, project)
}

// audioRequest is the POST /api/audio body
type audioRequest struct {
	ProjectID string  `json:"project_id"`
	AudioID   string  `json:"audio_id"`
	Path      string  `json:"path"`
	FileSize  int64   `json:"file_size"`
	Duration  float64 `json:"duration"`
	CreatedBy string  `json:"created_by"`
}

// handleAudio implements POST /api/audio: register a raw recording and
// hand it to the GPU collaborator for preprocessing. The processed flag
// advances only when the collaborator accepts; a failed trigger leaves
// the record registered and retriable.
func (h *HTTPServer) handleAudio(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req audioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if req.Path == "" && req.AudioID != "" {
		req.Path = pipeline.RawPath(req.AudioID + ".wav")
	}

	audio, err := h.store.CreateSourceAudio(store.NewSourceAudio{
		ProjectUID: req.ProjectID,
		AudioID:    req.AudioID,
		Path:       req.Path,
		FileSize:   req.FileSize,
		Duration:   req.Duration,
		CreatedBy:  req.CreatedBy,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	accepted := false
	triggerErr := h.pipeline.NotifyPreprocess(r.Context(), h.mapper.GPUPath(audio.Path), req.ProjectID)
	h.metrics.RecordPipelineTrigger("preprocess", triggerErr == nil)
	if triggerErr == nil {
		accepted = true
		if audio, err = h.store.MarkSourceProcessed(audio.UniqueID, req.CreatedBy); err != nil {
			h.writeError(w, err)
			return
		}
	}

	h.writeJSON(w, http.StatusCreated, map[string]any{
		"audio":               audio,
		"preprocess_accepted": accepted,
	})
}

// cleanedAudioRequest is the POST /api/audio/cleaned body, reported by
// the GPU collaborator when noise reduction finishes.
type cleanedAudioRequest struct {
	SourceAudioID string  `json:"source_audio_id"`
	Path          string  `json:"path"`
	FileSize      int64   `json:"file_size"`
	Duration      float64 `json:"duration"`
	CreatedBy     string  `json:"created_by"`
}

// handleCleanedAudio implements POST /api/audio/cleaned
func (h *HTTPServer) handleCleanedAudio(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req cleanedAudioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	cleaned, err := h.store.CreateCleanedAudio(store.NewCleanedAudio{
		SourceAudioUID: req.SourceAudioID,
		Path:           req.Path,
		FileSize:       req.FileSize,
		Duration:       req.Duration,
		CreatedBy:      req.CreatedBy,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, cleaned)
}

// approveRequest is the POST /api/audio/{id}/approve body
type approveRequest struct {
	UpdatedBy string `json:"updated_by"`
	ProjectID string `json:"project_id"`
}

// handleAudioDetail implements POST /api/audio/{id}/approve: reviewer
// sign-off on a cleaned recording, followed by the diarize handoff.
func (h *HTTPServer) handleAudioDetail(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/audio/")
	cleanedID, ok := strings.CutSuffix(rest, "/approve")
	if !ok || cleanedID == "" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req approveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	cleaned, err := h.store.ApproveCleanedAudio(cleanedID, req.UpdatedBy)
	if err != nil {
		h.writeError(w, err)
		return
	}

	triggerErr := h.pipeline.NotifyDiarize(r.Context(), h.mapper.GPUPath(cleaned.Path), req.ProjectID)
	h.metrics.RecordPipelineTrigger("diarize", triggerErr == nil)

	h.writeJSON(w, http.StatusOK, map[string]any{
		"cleaned_audio":    cleaned,
		"diarize_accepted": triggerErr == nil,
	})
}

// diarizationRequest is the POST /api/diarizations body
type diarizationRequest struct {
	CleanedAudioID string `json:"cleaned_audio_id"`
	ProjectID      string `json:"project_id"`
	Path           string `json:"path"`
	SpeakerCount   int    `json:"speaker_count"`
	CreatedBy      string `json:"created_by"`
	// SegmentLocally runs this service's own segmenter over the diarized
	// recording instead of handing chunking to the collaborator.
	SegmentLocally bool `json:"segment_locally"`
}

// handleDiarizations implements POST /api/diarizations: record a
// diarization result and kick off chunking, either remotely or through
// the local segmenter.
func (h *HTTPServer) handleDiarizations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req diarizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	diarized, err := h.store.CreateDiarizedAudio(store.NewDiarizedAudio{
		CleanedAudioUID: req.CleanedAudioID,
		Path:            req.Path,
		SpeakerCount:    req.SpeakerCount,
		CreatedBy:       req.CreatedBy,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	response := map[string]any{"diarized_audio": diarized}

	if req.SegmentLocally {
		result, err := h.segmenter.Run(r.Context(), segment.Job{
			ProjectID:  diarized.ProjectID,
			SourcePath: diarized.Path,
			CreatedBy:  req.CreatedBy,
		})
		if err != nil {
			h.writeError(w, err)
			return
		}
		response["chunks_created"] = result.ChunkCount
		response["chunk_paths"] = result.ChunkPaths
	} else {
		triggerErr := h.pipeline.NotifyChunk(r.Context(), h.mapper.GPUPath(diarized.Path), req.ProjectID)
		h.metrics.RecordPipelineTrigger("chunk", triggerErr == nil)
		response["chunk_accepted"] = triggerErr == nil
	}

	h.writeJSON(w, http.StatusCreated, response)
}

// handleHealth implements GET /health
func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(h.startTime).String(),
		"service": map[string]any{
			"name":    "audio-annotation-service",
			"version": "1.0.0",
		},
		"components": map[string]any{
			"pipeline":  h.pipeline.GetStats(),
			"segmenter": h.segmenter.GetStats(),
		},
	})
}

// handleConfig implements GET /config with the effective configuration
func (h *HTTPServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"http": map[string]any{
			"port":    h.config.HTTP.Port,
			"address": h.config.HTTP.Address,
		},
		"segmenter": map[string]any{
			"sample_rate":         h.config.Segmenter.SampleRate,
			"min_chunk_length_ms": h.config.Segmenter.MinChunkLengthMS,
			"max_chunk_length_ms": h.config.Segmenter.MaxChunkLengthMS,
			"frame_length_ms":     h.config.Segmenter.FrameLengthMS,
			"overlap_ms":          h.config.Segmenter.OverlapMS,
			"output_format":       h.config.Segmenter.OutputFormat,
			"save_workers":        h.config.Segmenter.SaveWorkers,
		},
		"evaluation": map[string]any{
			"quorum":            h.config.Evaluation.Quorum,
			"badness_threshold": h.config.Evaluation.BadnessThreshold,
			"schema_version":    h.config.Evaluation.SchemaVersion,
		},
		"pipeline": map[string]any{
			"base_url":        h.config.Pipeline.BaseURL,
			"timeout":         h.config.Pipeline.Timeout,
			"noise_reduction": h.config.Pipeline.NoiseReduction,
			"normalize":       h.config.Pipeline.Normalize,
		},
		"logging": map[string]any{
			"level":  h.config.Logging.Level,
			"format": h.config.Logging.Format,
		},
	})
}

// handleRoot implements GET / with API documentation
func (h *HTTPServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"service": "Audio Annotation Service",
		"version": "1.0.0",
		"endpoints": map[string]any{
			"GET /":                               "API documentation",
			"GET /health":                         "Service health check",
			"GET /config":                         "Effective configuration",
			"GET /metrics":                        "Prometheus metrics",
			"POST /api/projects":                  "Create a project",
			"POST /api/audio":                     "Register a raw recording and request preprocessing",
			"POST /api/audio/cleaned":             "Record a cleaned recording",
			"POST /api/audio/{id}/approve":        "Approve a cleaned recording and request diarization",
			"POST /api/diarizations":              "Record a diarization result and request chunking",
			"GET /api/chunks/{id}":                "Chunk detail with quality aggregate",
			"POST /api/chunks/{id}/transcription": "Attach ground-truth transcription text",
			"GET /api/chunks/categories":          "Chunks bucketed by evaluation count",
			"GET /api/chunks/ready":               "Chunks ready for transcription",
			"GET /api/chunks/statistics":          "Corpus completion statistics",
			"POST /api/evaluations":               "Submit or replace a chunk evaluation",
			"GET /api/evaluations/flag-totals":    "Per-flag defect sums",
			"GET /api/leaderboard":                "Evaluator productivity",
		},
		"timestamp": time.Now().UTC(),
	})
}
