// Package eval implements evaluation aggregation and readiness gating for
// audio chunks. It turns repeated, potentially conflicting human judgments
// of a chunk into a single quality score and a transcription-eligibility
// decision, with a versioned defect-flag schema so historical scores remain
// reproducible.
package eval
