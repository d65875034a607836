// Package segment turns diarized recordings into evaluable chunks.
//
// A segmentation job decodes a recording from the storage share,
// resamples it to the configured analysis rate, runs adaptive silence
// detection to find speech spans, and writes one chunk file per span
// under chunks/ with a zero-padded sequence suffix. Chunk files are
// written concurrently across a bounded worker pool, and every written
// file is registered in the store through its insert-or-get path, so
// re-running a job after a crash converges instead of duplicating
// records.
package segment
