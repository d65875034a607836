package segment

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openchlsystem/aitrainerS3/internal/audio"
	"github.com/openchlsystem/aitrainerS3/internal/config"
	"github.com/openchlsystem/aitrainerS3/internal/eval"
	"github.com/openchlsystem/aitrainerS3/internal/pipeline"
	"github.com/openchlsystem/aitrainerS3/internal/store"
)

func evalGate() eval.Gate {
	return eval.Gate{Quorum: 3, BadnessThreshold: 0.3}
}

const (
	testSampleRate  = 16000
	testFrameLength = 480 // 30ms at 16kHz
)

func testConfig() config.SegmenterConfig {
	return config.SegmenterConfig{
		SampleRate:       testSampleRate,
		MinChunkLengthMS: 3000,
		MaxChunkLengthMS: 7000,
		FrameLengthMS:    30,
		OverlapMS:        2000,
		OutputFormat:     "wav",
		SaveWorkers:      4,
	}
}

// buildSignal returns numFrames of silence with the listed frames replaced
// by a high-energy, high-ZCR alternation. Sparse hot frames is what the
// per-segment adaptive thresholds classify as speech.
func buildSignal(numFrames int, hotFrames []int) []float64 {
	samples := make([]float64, numFrames*testFrameLength)
	for _, f := range hotFrames {
		for i := 0; i < testFrameLength; i++ {
			if i%2 == 0 {
				samples[f*testFrameLength+i] = 1.0
			} else {
				samples[f*testFrameLength+i] = -1.0
			}
		}
	}
	return samples
}

func newTestManager(t *testing.T) (*Manager, *store.Store, pipeline.PathMapper, *store.Project) {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "diarized"), 0o755))

	st, err := store.Open(filepath.Join(root, "test.db"), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	project, err := st.CreateProject("test-corpus", "tester")
	require.NoError(t, err)

	mapper := pipeline.PathMapper{WebRoot: root, GPURoot: "/mnt/gpu"}
	mgr := NewManager(testConfig(), mapper, st, nil, slog.Default())

	return mgr, st, mapper, project
}

func writeRecording(t *testing.T, mapper pipeline.PathMapper, relative string, samples []float64) {
	t.Helper()
	require.NoError(t, audio.WriteWAVMono(mapper.WebPath(relative), samples, testSampleRate))
}

func TestRunSegmentsRecording(t *testing.T) {
	mgr, st, mapper, project := newTestManager(t)

	// one isolated burst of sparse speech in an otherwise silent recording
	samples := buildSignal(500, []int{110, 140, 170, 200, 215})
	source := pipeline.DiarizedPath("case-0001.wav")
	writeRecording(t, mapper, source, samples)

	result, err := mgr.Run(context.Background(), Job{
		ProjectID:  project.ID,
		SourcePath: source,
		Prefix:     "case-0001",
		CreatedBy:  "segmenter",
	})
	require.NoError(t, err)
	require.Equal(t, 1, result.ChunkCount)
	assert.Equal(t, "chunks/case-0001_chunk_0000.wav", result.ChunkPaths[0])

	// the chunk file holds the detected span, overlap included
	clip, rate, err := audio.ReadWAVMono(mapper.WebPath(result.ChunkPaths[0]))
	require.NoError(t, err)
	assert.Equal(t, testSampleRate, rate)
	assert.Equal(t, 136160-52800, len(clip))

	// and the store has exactly one matching record
	categories, err := st.CategorizedChunks(project.UniqueID, "")
	require.NoError(t, err)
	require.Len(t, categories.NotEvaluated, 1)
	assert.Equal(t, result.ChunkPaths[0], categories.NotEvaluated[0].Path)
	assert.InDelta(t, float64(136160-52800)/testSampleRate, categories.NotEvaluated[0].Duration, 1e-9)

	stats := mgr.GetStats()
	assert.Equal(t, uint64(1), stats.JobsCompleted)
	assert.Equal(t, uint64(1), stats.ChunksWritten)
}

func TestRunDefaultsPrefixFromSource(t *testing.T) {
	mgr, _, mapper, project := newTestManager(t)

	samples := buildSignal(500, []int{110, 140, 170, 200, 215})
	source := pipeline.DiarizedPath("case-0042.wav")
	writeRecording(t, mapper, source, samples)

	result, err := mgr.Run(context.Background(), Job{
		ProjectID:  project.ID,
		SourcePath: source,
	})
	require.NoError(t, err)
	require.Len(t, result.ChunkPaths, 1)
	assert.Equal(t, "chunks/case-0042_chunk_0000.wav", result.ChunkPaths[0])
}

func TestRunSilentRecordingYieldsNoChunks(t *testing.T) {
	mgr, _, mapper, project := newTestManager(t)

	source := pipeline.DiarizedPath("silent.wav")
	writeRecording(t, mapper, source, buildSignal(200, nil))

	result, err := mgr.Run(context.Background(), Job{
		ProjectID:  project.ID,
		SourcePath: source,
	})
	require.NoError(t, err)
	assert.Zero(t, result.ChunkCount)
}

func TestRunIsIdempotent(t *testing.T) {
	mgr, st, mapper, project := newTestManager(t)

	samples := buildSignal(500, []int{110, 140, 170, 200, 215})
	source := pipeline.DiarizedPath("case-0001.wav")
	writeRecording(t, mapper, source, samples)

	job := Job{ProjectID: project.ID, SourcePath: source, Prefix: "case-0001"}

	_, err := mgr.Run(context.Background(), job)
	require.NoError(t, err)
	_, err = mgr.Run(context.Background(), job)
	require.NoError(t, err)

	stats, err := st.Statistics(project.UniqueID, evalGate())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalChunks, "replayed job must not duplicate records")
}

func TestRunMissingSource(t *testing.T) {
	mgr, _, _, project := newTestManager(t)

	_, err := mgr.Run(context.Background(), Job{
		ProjectID:  project.ID,
		SourcePath: pipeline.DiarizedPath("missing.wav"),
	})
	require.Error(t, err)

	stats := mgr.GetStats()
	assert.Equal(t, uint64(1), stats.JobsFailed)
}

func TestRunCancelledContext(t *testing.T) {
	mgr, _, mapper, project := newTestManager(t)

	samples := buildSignal(500, []int{110, 140, 170, 200, 215})
	source := pipeline.DiarizedPath("case-0001.wav")
	writeRecording(t, mapper, source, samples)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := mgr.Run(ctx, Job{ProjectID: project.ID, SourcePath: source})
	require.ErrorIs(t, err, context.Canceled)
}
