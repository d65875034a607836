package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openchlsystem/aitrainerS3/internal/config"
	"github.com/openchlsystem/aitrainerS3/internal/eval"
	"github.com/openchlsystem/aitrainerS3/internal/metrics"
	"github.com/openchlsystem/aitrainerS3/internal/pipeline"
	"github.com/openchlsystem/aitrainerS3/internal/segment"
	"github.com/openchlsystem/aitrainerS3/internal/store"
)

// promauto registers against the default registry, so the metrics struct
// is created once for the whole test binary.
var testMetrics = metrics.NewMetrics()

type testEnv struct {
	server  *HTTPServer
	store   *store.Store
	project *store.Project
	gpu     *httptest.Server
}

// newTestEnv wires a server against a temp database and a stub GPU
// collaborator answering every trigger with the given status.
func newTestEnv(t *testing.T, gpuStatus int) *testEnv {
	t.Helper()

	root := t.TempDir()

	gpu := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(gpuStatus)
	}))
	t.Cleanup(gpu.Close)

	cfg := &config.Config{}
	cfg.HTTP.Port = 8080
	cfg.HTTP.Address = "127.0.0.1"
	cfg.Storage.WebRoot = root
	cfg.Storage.GPURoot = "/mnt/gpu"
	cfg.Segmenter = config.SegmenterConfig{
		SampleRate:       16000,
		MinChunkLengthMS: 3000,
		MaxChunkLengthMS: 7000,
		FrameLengthMS:    30,
		OverlapMS:        2000,
		OutputFormat:     "wav",
		SaveWorkers:      2,
	}
	cfg.Evaluation = config.EvaluationConfig{
		Quorum:           3,
		BadnessThreshold: 0.3,
		SchemaVersion:    eval.SchemaV2,
	}
	cfg.Pipeline = config.PipelineConfig{
		BaseURL:        gpu.URL,
		PreprocessPath: "/audio/preprocess/",
		DiarizePath:    "/audio/diarize/",
		ChunkPath:      "/audio/chunk/",
		Timeout:        5,
		NoiseReduction: 0.3,
		Normalize:      true,
	}

	st, err := store.Open(filepath.Join(root, "test.db"), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	project, err := st.CreateProject("test-corpus", "admin")
	require.NoError(t, err)

	pc, err := pipeline.NewClient(cfg.Pipeline, slog.Default())
	require.NoError(t, err)

	mapper := pipeline.PathMapper{WebRoot: root, GPURoot: cfg.Storage.GPURoot}
	sm := segment.NewManager(cfg.Segmenter, mapper, st, nil, slog.Default())

	return &testEnv{
		server:  NewHTTPServer(cfg, slog.Default(), st, pc, sm, testMetrics),
		store:   st,
		project: project,
		gpu:     gpu,
	}
}

func (e *testEnv) request(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	e.server.server.Handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var v map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func seedChunk(t *testing.T, e *testEnv, path string) *store.AudioChunk {
	t.Helper()
	chunk, _, err := e.store.CreateChunk(store.NewChunk{
		ProjectID: e.project.ID,
		Path:      path,
		Duration:  4.0,
	})
	require.NoError(t, err)
	return chunk
}

func TestSubmitEvaluation(t *testing.T) {
	e := newTestEnv(t, http.StatusAccepted)
	chunk := seedChunk(t, e, "chunks/call_chunk_0000.wav")

	body := map[string]any{
		"chunk_id":     chunk.UniqueID,
		"evaluated_by": "alice",
		"flags":        map[string]bool{"not_clear": true},
		"notes":        "muffled opening",
	}

	rec := e.request(t, http.MethodPost, "/api/evaluations", body, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decode(t, rec)
	assert.Equal(t, true, resp["created"])
	evaluation := resp["evaluation"].(map[string]any)
	assert.Equal(t, "alice", evaluation["evaluated_by"])
	assert.Equal(t, float64(1), evaluation["defect_count"])
	// schema version defaults from configuration
	assert.Equal(t, float64(eval.SchemaV2), evaluation["schema_version"])

	// resubmission replaces in place and reports 200
	body["flags"] = map[string]bool{}
	rec = e.request(t, http.MethodPost, "/api/evaluations", body, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decode(t, rec)
	assert.Equal(t, false, resp["created"])
	aggregate := resp["aggregate"].(map[string]any)
	assert.Equal(t, float64(1), aggregate["evaluation_count"])
	assert.Equal(t, float64(0), aggregate["total_defect_sum"])
}

func TestSubmitEvaluationErrors(t *testing.T) {
	e := newTestEnv(t, http.StatusAccepted)

	rec := e.request(t, http.MethodPost, "/api/evaluations", map[string]any{
		"chunk_id":     "no-such-chunk",
		"evaluated_by": "alice",
	}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	chunk := seedChunk(t, e, "chunks/call_chunk_0000.wav")
	rec = e.request(t, http.MethodPost, "/api/evaluations", map[string]any{
		"chunk_id": chunk.UniqueID,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing evaluator identity")

	req := httptest.NewRequest(http.MethodPost, "/api/evaluations", bytes.NewBufferString("{not json"))
	rec2 := httptest.NewRecorder()
	e.server.server.Handler.ServeHTTP(rec2, req)
	assert.Equal(t, http.StatusBadRequest, rec2.Code)

	rec = e.request(t, http.MethodGet, "/api/evaluations", nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCategoriesEndpoint(t *testing.T) {
	e := newTestEnv(t, http.StatusAccepted)
	chunk := seedChunk(t, e, "chunks/call_chunk_0000.wav")
	seedChunk(t, e, "chunks/call_chunk_0001.wav")

	e.request(t, http.MethodPost, "/api/evaluations", map[string]any{
		"chunk_id":     chunk.UniqueID,
		"evaluated_by": "alice",
	}, nil)

	rec := e.request(t, http.MethodGet, "/api/chunks/categories", nil,
		map[string]string{"X-Evaluator": "alice"})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode(t, rec)
	assert.Len(t, resp["not_evaluated"], 1)
	one := resp["one_evaluation"].([]any)
	require.Len(t, one, 1)
	assert.Equal(t, true, one[0].(map[string]any)["evaluated_by_user"])

	// unknown project is a 404, not an empty listing
	rec = e.request(t, http.MethodGet, "/api/chunks/categories?project_id=nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReadyEndpoint(t *testing.T) {
	e := newTestEnv(t, http.StatusAccepted)
	chunk := seedChunk(t, e, "chunks/call_chunk_0000.wav")

	for _, evaluator := range []string{"alice", "bob", "carol"} {
		rec := e.request(t, http.MethodPost, "/api/evaluations", map[string]any{
			"chunk_id":     chunk.UniqueID,
			"evaluated_by": evaluator,
		}, nil)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := e.request(t, http.MethodGet, "/api/chunks/ready", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, float64(1), resp["count"])
}

func TestStatisticsEndpoint(t *testing.T) {
	e := newTestEnv(t, http.StatusAccepted)
	seedChunk(t, e, "chunks/call_chunk_0000.wav")

	rec := e.request(t, http.MethodGet,
		fmt.Sprintf("/api/chunks/statistics?project_id=%s", e.project.UniqueID), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, float64(1), resp["total_chunks"])
	assert.Equal(t, float64(1), resp["not_evaluated"])
}

func TestLeaderboardAndFlagTotals(t *testing.T) {
	e := newTestEnv(t, http.StatusAccepted)
	chunk := seedChunk(t, e, "chunks/call_chunk_0000.wav")

	e.request(t, http.MethodPost, "/api/evaluations", map[string]any{
		"chunk_id":     chunk.UniqueID,
		"evaluated_by": "alice",
		"flags":        map[string]bool{"background_noise": true},
	}, nil)

	rec := e.request(t, http.MethodGet, "/api/leaderboard", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, float64(1), resp["count"])

	rec = e.request(t, http.MethodGet, "/api/evaluations/flag-totals", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	totals := decode(t, rec)
	assert.Equal(t, float64(1), totals["background_noise"])
}

func TestChunkDetailAndTranscription(t *testing.T) {
	e := newTestEnv(t, http.StatusAccepted)
	chunk := seedChunk(t, e, "chunks/call_chunk_0000.wav")

	rec := e.request(t, http.MethodGet, "/api/chunks/"+chunk.UniqueID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, false, resp["ready"])
	assert.NotContains(t, resp, "aggregate", "no aggregate before the first evaluation")

	rec = e.request(t, http.MethodPost, "/api/chunks/"+chunk.UniqueID+"/transcription", map[string]any{
		"text":       "habari yako",
		"updated_by": "alice",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode(t, rec)
	assert.Equal(t, "habari yako", updated["feature_text"])

	rec = e.request(t, http.MethodGet, "/api/chunks/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAudioRegistrationTriggersPreprocess(t *testing.T) {
	e := newTestEnv(t, http.StatusAccepted)

	rec := e.request(t, http.MethodPost, "/api/audio", map[string]any{
		"project_id": e.project.UniqueID,
		"audio_id":   "case-0001",
		"file_size":  128000,
		"duration":   42.0,
		"created_by": "uploader",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decode(t, rec)
	assert.Equal(t, true, resp["preprocess_accepted"])
	audio := resp["audio"].(map[string]any)
	assert.Equal(t, true, audio["is_processed"])
	assert.Equal(t, "raw/case-0001.wav", audio["path"])
}

func TestAudioRegistrationSurvivesTriggerFailure(t *testing.T) {
	e := newTestEnv(t, http.StatusInternalServerError)

	rec := e.request(t, http.MethodPost, "/api/audio", map[string]any{
		"project_id": e.project.UniqueID,
		"audio_id":   "case-0002",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	resp := decode(t, rec)
	assert.Equal(t, false, resp["preprocess_accepted"])
	audio := resp["audio"].(map[string]any)
	assert.Equal(t, false, audio["is_processed"], "failed handoff leaves the record retriable")

	// the recording is registered despite the failed trigger
	pending, err := e.store.UnprocessedSourceAudio(e.project.UniqueID)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestCleanedAudioApprovalFlow(t *testing.T) {
	e := newTestEnv(t, http.StatusAccepted)

	source, err := e.store.CreateSourceAudio(store.NewSourceAudio{
		ProjectUID: e.project.UniqueID,
		AudioID:    "case-0001",
		Path:       "raw/case-0001.wav",
	})
	require.NoError(t, err)

	rec := e.request(t, http.MethodPost, "/api/audio/cleaned", map[string]any{
		"source_audio_id": source.UniqueID,
		"path":            "processed/case-0001.wav",
		"created_by":      "gpu-tier",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	cleaned := decode(t, rec)
	cleanedID := cleaned["unique_id"].(string)

	rec = e.request(t, http.MethodPost, "/api/audio/"+cleanedID+"/approve", map[string]any{
		"updated_by": "reviewer",
		"project_id": e.project.UniqueID,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, true, resp["diarize_accepted"])
	assert.Equal(t, true, resp["cleaned_audio"].(map[string]any)["is_approved"])

	rec = e.request(t, http.MethodPost, "/api/diarizations", map[string]any{
		"cleaned_audio_id": cleanedID,
		"project_id":       e.project.UniqueID,
		"path":             "diarized/case-0001.wav",
		"speaker_count":    2,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	resp = decode(t, rec)
	assert.Equal(t, true, resp["chunk_accepted"])

	rec = e.request(t, http.MethodPost, "/api/audio/missing/approve", map[string]any{}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMonitoringEndpoints(t *testing.T) {
	e := newTestEnv(t, http.StatusAccepted)

	rec := e.request(t, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode(t, rec)["status"])

	rec = e.request(t, http.MethodGet, "/config", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cfg := decode(t, rec)
	evaluation := cfg["evaluation"].(map[string]any)
	assert.Equal(t, float64(3), evaluation["quorum"])

	rec = e.request(t, http.MethodGet, "/", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode(t, rec), "endpoints")

	rec = e.request(t, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
