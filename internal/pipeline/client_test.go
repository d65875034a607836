package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openchlsystem/aitrainerS3/internal/config"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	client, err := NewClient(config.PipelineConfig{
		BaseURL:        "http://gpu.example.com",
		PreprocessPath: "/audio/preprocess/",
		DiarizePath:    "/audio/diarize/",
		ChunkPath:      "/audio/chunk/",
		Timeout:        5,
		NoiseReduction: 0.3,
		Normalize:      true,
	}, nil)
	require.NoError(t, err)

	httpmock.ActivateNonDefault(client.httpClient)
	t.Cleanup(httpmock.DeactivateAndReset)

	return client
}

func TestNotifyPreprocessPayload(t *testing.T) {
	client := newTestClient(t)

	var got PreprocessRequest
	httpmock.RegisterResponder(http.MethodPost, "http://gpu.example.com/audio/preprocess/",
		func(req *http.Request) (*http.Response, error) {
			require.NoError(t, json.NewDecoder(req.Body).Decode(&got))
			assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
			return httpmock.NewStringResponse(http.StatusAccepted, `{"status":"queued"}`), nil
		})

	err := client.NotifyPreprocess(context.Background(), "/mnt/gpu/raw/case-0001.wav", "proj-1")
	require.NoError(t, err)

	assert.Equal(t, "/mnt/gpu/raw/case-0001.wav", got.AudioPath)
	assert.Equal(t, 0.3, got.NoiseReduction)
	assert.True(t, got.Normalize)
	assert.Equal(t, "proj-1", got.ProjectID)
}

func TestNotifyAcceptsAny2xx(t *testing.T) {
	client := newTestClient(t)

	for _, status := range []int{http.StatusOK, http.StatusCreated, http.StatusAccepted} {
		httpmock.Reset()
		httpmock.RegisterResponder(http.MethodPost, "http://gpu.example.com/audio/diarize/",
			httpmock.NewStringResponder(status, ""))

		err := client.NotifyDiarize(context.Background(), "/mnt/gpu/processed/case-0001.wav", "proj-1")
		assert.NoError(t, err, "status %d must count as acceptance", status)
	}
}

func TestNotifyRejectedStatus(t *testing.T) {
	client := newTestClient(t)

	httpmock.RegisterResponder(http.MethodPost, "http://gpu.example.com/audio/chunk/",
		httpmock.NewStringResponder(http.StatusInternalServerError, "busy"))

	err := client.NotifyChunk(context.Background(), "/mnt/gpu/diarized/case-0001", "proj-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestNotifyConnectionFailure(t *testing.T) {
	client := newTestClient(t)

	// no responder registered: httpmock returns a connection error

	err := client.NotifyPreprocess(context.Background(), "/mnt/gpu/raw/case-0001.wav", "proj-1")
	require.Error(t, err)
}

func TestClientStats(t *testing.T) {
	client := newTestClient(t)

	httpmock.RegisterResponder(http.MethodPost, "http://gpu.example.com/audio/preprocess/",
		httpmock.NewStringResponder(http.StatusAccepted, ""))
	httpmock.RegisterResponder(http.MethodPost, "http://gpu.example.com/audio/diarize/",
		httpmock.NewStringResponder(http.StatusBadGateway, ""))

	require.NoError(t, client.NotifyPreprocess(context.Background(), "/a", "p"))
	require.NoError(t, client.NotifyPreprocess(context.Background(), "/b", "p"))
	require.Error(t, client.NotifyDiarize(context.Background(), "/c", "p"))

	stats := client.GetStats()
	assert.Equal(t, uint64(3), stats.TotalTriggers)
	assert.Equal(t, uint64(2), stats.Accepted)
	assert.Equal(t, uint64(1), stats.Failed)
	assert.InDelta(t, 2.0/3.0, stats.AcceptRate, 1e-9)
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(config.PipelineConfig{}, nil)
	require.Error(t, err)
}

func TestPathMapper(t *testing.T) {
	mapper := PathMapper{WebRoot: "/srv/audio", GPURoot: "/mnt/share/audio"}

	relative := RawPath("case-0001.wav")
	assert.Equal(t, "raw/case-0001.wav", relative)
	assert.Equal(t, "/srv/audio/raw/case-0001.wav", mapper.WebPath(relative))
	assert.Equal(t, "/mnt/share/audio/raw/case-0001.wav", mapper.GPUPath(relative))

	assert.Equal(t, "processed/x.wav", ProcessedPath("x.wav"))
	assert.Equal(t, "diarized/x", DiarizedPath("x"))
	assert.Equal(t, "chunks/call_chunk_0001.wav", ChunkPath("call_chunk_0001.wav"))
}
