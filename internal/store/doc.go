// Package store persists the annotation pipeline's records: projects,
// audio at each lifecycle stage (raw, cleaned, diarized), chunks, and
// evaluations.
//
// The store owns the two invariants the rest of the system leans on:
// at most one evaluation row per (chunk, evaluator) pair, enforced by a
// composite unique index and a conditional insert-or-update, and
// insert-or-get chunk creation keyed by path so concurrent segmenter
// workers never duplicate a chunk record.
//
// Quality aggregates (score, category, readiness) are never stored; they
// are recomputed from the evaluation rows at read time so a resubmitted
// evaluation is reflected immediately.
//
// All lookups key on opaque unique ids rather than database row ids.
// Listing operations accept an optional project unique id; an unknown
// project yields ErrNotFound rather than an empty result.
package store
