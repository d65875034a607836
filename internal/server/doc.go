// Package server implements the HTTP API for the annotation pipeline.
// It exposes the audio lifecycle operations (registration, approval,
// diarization results), the crowdsourced evaluation workflow (submission,
// category listings, the transcription-readiness queue), and the
// monitoring endpoints, with per-endpoint Prometheus instrumentation.
package server
