// Package pipeline handles the handoff to the remote GPU collaborator
// that performs the heavy audio processing stages: noise reduction,
// diarization, and collaborator-side chunking.
//
// The handoff is a fire-and-forget JSON POST per stage. A 2xx response
// means the work was accepted for asynchronous processing; the
// collaborator reports results back later through the web API. Trigger
// failures are logged and surfaced to the caller but never abort the
// request that caused them, and state flags (such as a recording's
// processed marker) are advanced only after acceptance, so failed
// handoffs stay retriable.
//
// The package also owns path translation between the two tiers, which
// mount the same storage share at different absolute roots.
package pipeline
