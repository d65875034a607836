package eval

import "fmt"

// Schema versions of the defect flag set. The flag set changed across
// annotation campaigns, so the divisor used for scoring is always taken
// from the schema a given evaluation was submitted under.
const (
	// SchemaV1 is the original seven-flag set (dual speaker, speaker
	// overlap, background noise, prolonged silence, abnormal speech rate,
	// echo, incomplete sentence).
	SchemaV1 = 1
	// SchemaV2 is the current six-flag set.
	SchemaV2 = 2
)

// schemaSizes maps a schema version to its flag count N
var schemaSizes = map[int]int{
	SchemaV1: 7,
	SchemaV2: 6,
}

// SchemaSize returns the number of defect flags N in the given schema
func SchemaSize(version int) (int, error) {
	n, ok := schemaSizes[version]
	if !ok {
		return 0, fmt.Errorf("unknown flag schema version %d", version)
	}
	return n, nil
}

// Flags is the current (v2) defect flag set for one evaluation of a chunk.
// Every flag marks a quality problem, so an all-false record is a clean
// evaluation.
type Flags struct {
	NotClear         bool `json:"not_clear"`
	SpeakerOverlap   bool `json:"speaker_overlap"`
	DualSpeaker      bool `json:"dual_speaker"`
	BackgroundNoise  bool `json:"background_noise"`
	ProlongedSilence bool `json:"prolonged_silence"`
	IncompleteWord   bool `json:"incomplete_word"`
}

// Raised returns the number of raised defect flags
func (f Flags) Raised() int {
	count := 0
	for _, b := range []bool{
		f.NotClear, f.SpeakerOverlap, f.DualSpeaker,
		f.BackgroundNoise, f.ProlongedSilence, f.IncompleteWord,
	} {
		if b {
			count++
		}
	}
	return count
}

// FlagTotals accumulates per-flag raise counts across many evaluations,
// used for the corpus dashboard.
type FlagTotals struct {
	NotClear         int `json:"not_clear"`
	SpeakerOverlap   int `json:"speaker_overlap"`
	DualSpeaker      int `json:"dual_speaker"`
	BackgroundNoise  int `json:"background_noise"`
	ProlongedSilence int `json:"prolonged_silence"`
	IncompleteWord   int `json:"incomplete_word"`
}

// Add accumulates one evaluation's flags into the totals
func (t *FlagTotals) Add(f Flags) {
	if f.NotClear {
		t.NotClear++
	}
	if f.SpeakerOverlap {
		t.SpeakerOverlap++
	}
	if f.DualSpeaker {
		t.DualSpeaker++
	}
	if f.BackgroundNoise {
		t.BackgroundNoise++
	}
	if f.ProlongedSilence {
		t.ProlongedSilence++
	}
	if f.IncompleteWord {
		t.IncompleteWord++
	}
}
