package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/openchlsystem/aitrainerS3/internal/eval"
)

// EvaluationSubmission is one reviewer's judgment of a chunk as received
// from the API surface.
type EvaluationSubmission struct {
	ChunkUID      string
	EvaluatedBy   string
	SchemaVersion int
	Flags         eval.Flags
	Notes         string
	StartedAt     time.Time
	EndedAt       time.Time
}

// Validate rejects structurally invalid submissions before any write
func (sub *EvaluationSubmission) Validate() error {
	if sub.ChunkUID == "" {
		return fmt.Errorf("%w: chunk id is required", ErrValidation)
	}
	if sub.EvaluatedBy == "" {
		return fmt.Errorf("%w: evaluator identity is required", ErrValidation)
	}
	if _, err := eval.SchemaSize(sub.SchemaVersion); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if !sub.EndedAt.IsZero() && !sub.StartedAt.IsZero() && sub.EndedAt.Before(sub.StartedAt) {
		return fmt.Errorf("%w: evaluation end precedes start", ErrValidation)
	}
	return nil
}

// UpsertEvaluation records a reviewer's judgment of a chunk. At most one
// evaluation exists per (chunk, evaluator) pair: a resubmission replaces
// the previous values in place through a conditional insert-or-update, not
// a read-then-write race. Returns the stored row and whether it was newly
// created.
func (s *Store) UpsertEvaluation(sub EvaluationSubmission) (*Evaluation, bool, error) {
	if err := sub.Validate(); err != nil {
		return nil, false, err
	}

	var chunk AudioChunk
	err := s.db.Where("unique_id = ?", sub.ChunkUID).First(&chunk).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("%w: chunk %s", ErrNotFound, sub.ChunkUID)
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load chunk %s: %w", sub.ChunkUID, err)
	}

	var duration float64
	if !sub.StartedAt.IsZero() && !sub.EndedAt.IsZero() {
		duration = sub.EndedAt.Sub(sub.StartedAt).Seconds()
	}

	record := Evaluation{
		ChunkID:          chunk.ID,
		ProjectID:        chunk.ProjectID,
		EvaluatedBy:      sub.EvaluatedBy,
		SchemaVersion:    sub.SchemaVersion,
		NotClear:         sub.Flags.NotClear,
		SpeakerOverlap:   sub.Flags.SpeakerOverlap,
		DualSpeaker:      sub.Flags.DualSpeaker,
		BackgroundNoise:  sub.Flags.BackgroundNoise,
		ProlongedSilence: sub.Flags.ProlongedSilence,
		IncompleteWord:   sub.Flags.IncompleteWord,
		DefectCount:      sub.Flags.Raised(),
		Notes:            sub.Notes,
		StartedAt:        sub.StartedAt,
		EndedAt:          sub.EndedAt,
		DurationSeconds:  duration,
	}

	var created bool
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&Evaluation{}).
			Where("chunk_id = ? AND evaluated_by = ?", chunk.ID, sub.EvaluatedBy).
			Count(&existing).Error; err != nil {
			return err
		}
		created = existing == 0

		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "chunk_id"}, {Name: "evaluated_by"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"schema_version",
				"not_clear", "speaker_overlap", "dual_speaker",
				"background_noise", "prolonged_silence", "incomplete_word",
				"defect_count", "notes",
				"started_at", "ended_at", "duration_seconds",
				"updated_at",
			}),
		}).Create(&record).Error
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to upsert evaluation for chunk %s: %w", sub.ChunkUID, err)
	}

	var stored Evaluation
	if err := s.db.Where("chunk_id = ? AND evaluated_by = ?", chunk.ID, sub.EvaluatedBy).
		First(&stored).Error; err != nil {
		return nil, false, fmt.Errorf("failed to reload evaluation: %w", err)
	}

	return &stored, created, nil
}

// ChunkEvaluations returns all evaluation rows for one chunk
func (s *Store) ChunkEvaluations(chunkUID string) ([]Evaluation, error) {
	var chunk AudioChunk
	err := s.db.Where("unique_id = ?", chunkUID).First(&chunk).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: chunk %s", ErrNotFound, chunkUID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load chunk %s: %w", chunkUID, err)
	}

	var rows []Evaluation
	if err := s.db.Where("chunk_id = ?", chunk.ID).Order("evaluated_by").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load evaluations for chunk %s: %w", chunkUID, err)
	}

	return rows, nil
}

// ChunkAggregate recomputes the derived quality view for one chunk from
// its current evaluation rows.
func (s *Store) ChunkAggregate(chunkUID string) (eval.Aggregate, error) {
	rows, err := s.ChunkEvaluations(chunkUID)
	if err != nil {
		return eval.Aggregate{}, err
	}
	return eval.ComputeAggregate(toEvalRows(rows))
}

// toEvalRows converts stored evaluation rows into the aggregator's input
func toEvalRows(rows []Evaluation) []eval.Evaluation {
	out := make([]eval.Evaluation, len(rows))
	for i := range rows {
		out[i] = eval.Evaluation{
			EvaluatorID:   rows[i].EvaluatedBy,
			SchemaVersion: rows[i].SchemaVersion,
			DefectCount:   rows[i].DefectCount,
			Flags: eval.Flags{
				NotClear:         rows[i].NotClear,
				SpeakerOverlap:   rows[i].SpeakerOverlap,
				DualSpeaker:      rows[i].DualSpeaker,
				BackgroundNoise:  rows[i].BackgroundNoise,
				ProlongedSilence: rows[i].ProlongedSilence,
				IncompleteWord:   rows[i].IncompleteWord,
			},
		}
	}
	return out
}

// LeaderboardEntry is one evaluator's productivity row. Row count equals
// distinct chunks evaluated because of the per-pair upsert invariant.
type LeaderboardEntry struct {
	EvaluatedBy     string `json:"evaluated_by"`
	EvaluationsDone int    `json:"evaluations_done"`
}

// Leaderboard groups all evaluation rows by evaluator with row counts.
// Ordering is by count descending for presentation stability; consumers
// may re-sort.
func (s *Store) Leaderboard(projectUID string) ([]LeaderboardEntry, error) {
	projectID, err := s.resolveScope(projectUID)
	if err != nil {
		return nil, err
	}

	var entries []LeaderboardEntry
	q := scoped(s.db.Model(&Evaluation{}), projectID).
		Select("evaluated_by, COUNT(*) AS evaluations_done").
		Group("evaluated_by").
		Order("evaluations_done DESC")
	if err := q.Scan(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to build leaderboard: %w", err)
	}

	return entries, nil
}

// FlagTotals sums each defect flag across all evaluations in scope for
// the corpus dashboard.
func (s *Store) FlagTotals(projectUID string) (eval.FlagTotals, error) {
	projectID, err := s.resolveScope(projectUID)
	if err != nil {
		return eval.FlagTotals{}, err
	}

	var rows []Evaluation
	if err := scoped(s.db, projectID).Find(&rows).Error; err != nil {
		return eval.FlagTotals{}, fmt.Errorf("failed to load evaluations: %w", err)
	}

	var totals eval.FlagTotals
	for _, row := range rows {
		totals.Add(eval.Flags{
			NotClear:         row.NotClear,
			SpeakerOverlap:   row.SpeakerOverlap,
			DualSpeaker:      row.DualSpeaker,
			BackgroundNoise:  row.BackgroundNoise,
			ProlongedSilence: row.ProlongedSilence,
			IncompleteWord:   row.IncompleteWord,
		})
	}

	return totals, nil
}
