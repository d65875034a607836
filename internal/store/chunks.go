package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/openchlsystem/aitrainerS3/internal/eval"
)

// ChunkSummary is the per-chunk view returned by category and readiness
// listings. Score is nil while the chunk has no evaluations.
// EvaluatedByUser is relative to the requesting evaluator and is computed
// from that evaluator's own rows, never from the anonymous count.
type ChunkSummary struct {
	UniqueID        string   `json:"unique_id"`
	Path            string   `json:"path"`
	Duration        float64  `json:"duration"`
	Gender          string   `json:"gender"`
	Locale          string   `json:"locale"`
	EvaluationCount int      `json:"evaluation_count"`
	Score           *float64 `json:"score"`
	EvaluatedByUser bool     `json:"evaluated_by_user"`
}

// ChunkCategories partitions the chunks in scope by evaluation count.
// The three explicit buckets plus ThreeOrMore cover every chunk exactly
// once; ReadyForTranscription is a separate gate over ThreeOrMore.
type ChunkCategories struct {
	NotEvaluated   []ChunkSummary `json:"not_evaluated"`
	OneEvaluation  []ChunkSummary `json:"one_evaluation"`
	TwoEvaluations []ChunkSummary `json:"two_evaluations"`
	ThreeOrMore    []ChunkSummary `json:"three_or_more"`
}

// ChunkStatistics is the corpus-wide completion view
type ChunkStatistics struct {
	TotalChunks              int     `json:"total_chunks"`
	NotEvaluated             int     `json:"not_evaluated"`
	OneEvaluation            int     `json:"one_evaluation"`
	TwoEvaluations           int     `json:"two_evaluations"`
	ThreeOrMoreEvaluations   int     `json:"three_or_more_evaluations"`
	ReadyForTranscription    int     `json:"ready_for_transcription"`
	EvaluationCompletionRate float64 `json:"evaluation_completion_rate"`
	TranscribedChunks        int     `json:"transcribed_chunks"`
}

// NewChunk describes a chunk to be recorded after its file is written
type NewChunk struct {
	ProjectID uint
	Path      string
	Duration  float64
	Gender    string
	Locale    string
	CreatedBy string
}

// CreateChunk records a materialized chunk file, insert-or-get keyed by
// the relative path so concurrent saves of the same physical file cannot
// produce duplicate rows. Returns the stored row and whether it was newly
// created.
func (s *Store) CreateChunk(nc NewChunk) (*AudioChunk, bool, error) {
	if nc.ProjectID == 0 {
		return nil, false, fmt.Errorf("%w: project scope is required for chunk creation", ErrValidation)
	}
	if nc.Path == "" {
		return nil, false, fmt.Errorf("%w: chunk path cannot be empty", ErrValidation)
	}

	if nc.Gender == "" {
		nc.Gender = GenderNotSure
	}
	if nc.Locale == "" {
		nc.Locale = LocaleBoth
	}

	chunk := AudioChunk{
		ProjectID: nc.ProjectID,
		Path:      nc.Path,
		Duration:  nc.Duration,
		Gender:    nc.Gender,
		Locale:    nc.Locale,
		CreatedBy: nc.CreatedBy,
	}

	result := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "path"}},
		DoNothing: true,
	}).Create(&chunk)
	if result.Error != nil {
		return nil, false, fmt.Errorf("failed to create chunk %s: %w", nc.Path, result.Error)
	}
	created := result.RowsAffected > 0

	var stored AudioChunk
	if err := s.db.Where("path = ?", nc.Path).First(&stored).Error; err != nil {
		return nil, false, fmt.Errorf("failed to reload chunk %s: %w", nc.Path, err)
	}

	return &stored, created, nil
}

// GetChunk looks up a chunk by its opaque unique id
func (s *Store) GetChunk(uniqueID string) (*AudioChunk, error) {
	var chunk AudioChunk
	err := s.db.Where("unique_id = ?", uniqueID).First(&chunk).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: chunk %s", ErrNotFound, uniqueID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load chunk %s: %w", uniqueID, err)
	}
	return &chunk, nil
}

// AttachTranscription stores ground-truth transcription text on a chunk
func (s *Store) AttachTranscription(chunkUID, text, updatedBy string) (*AudioChunk, error) {
	chunk, err := s.GetChunk(chunkUID)
	if err != nil {
		return nil, err
	}

	chunk.FeatureText = text
	chunk.UpdatedBy = updatedBy
	if err := s.db.Model(chunk).Updates(map[string]any{
		"feature_text": text,
		"updated_by":   updatedBy,
		"updated_at":   now(),
	}).Error; err != nil {
		return nil, fmt.Errorf("failed to attach transcription to chunk %s: %w", chunkUID, err)
	}

	return chunk, nil
}

// chunkAggregates loads all chunks in scope together with their evaluation
// aggregates, recomputed from the evaluation rows at read time.
func (s *Store) chunkAggregates(projectID *uint) ([]AudioChunk, map[uint]eval.Aggregate, error) {
	var chunks []AudioChunk
	if err := scoped(s.db, projectID).Order("id").Find(&chunks).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to load chunks: %w", err)
	}

	var evaluations []Evaluation
	if err := scoped(s.db, projectID).Find(&evaluations).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to load evaluations: %w", err)
	}

	byChunk := make(map[uint][]Evaluation)
	for _, row := range evaluations {
		byChunk[row.ChunkID] = append(byChunk[row.ChunkID], row)
	}

	aggregates := make(map[uint]eval.Aggregate, len(byChunk))
	for chunkID, rows := range byChunk {
		agg, err := eval.ComputeAggregate(toEvalRows(rows))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to aggregate chunk %d: %w", chunkID, err)
		}
		aggregates[chunkID] = agg
	}

	return chunks, aggregates, nil
}

// evaluatedSet returns the chunk ids the evaluator has already judged
func (s *Store) evaluatedSet(projectID *uint, evaluatorID string) (map[uint]bool, error) {
	set := make(map[uint]bool)
	if evaluatorID == "" {
		return set, nil
	}

	var ids []uint
	q := scoped(s.db.Model(&Evaluation{}), projectID).
		Where("evaluated_by = ?", evaluatorID).
		Pluck("chunk_id", &ids)
	if q.Error != nil {
		return nil, fmt.Errorf("failed to load evaluator history: %w", q.Error)
	}

	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func summarize(chunk *AudioChunk, agg eval.Aggregate, evaluatedByUser bool) ChunkSummary {
	summary := ChunkSummary{
		UniqueID:        chunk.UniqueID,
		Path:            chunk.Path,
		Duration:        chunk.Duration,
		Gender:          chunk.Gender,
		Locale:          chunk.Locale,
		EvaluationCount: agg.EvaluationCount,
		EvaluatedByUser: evaluatedByUser,
	}
	if agg.HasScore() {
		score := agg.Score
		summary.Score = &score
	}
	return summary
}

// CategorizedChunks partitions all chunks in scope into the evaluation
// count buckets. The evaluatorID drives the per-chunk EvaluatedByUser
// marker for "skip chunks I've already done" clients; it may be empty.
func (s *Store) CategorizedChunks(projectUID, evaluatorID string) (*ChunkCategories, error) {
	projectID, err := s.resolveScope(projectUID)
	if err != nil {
		return nil, err
	}

	chunks, aggregates, err := s.chunkAggregates(projectID)
	if err != nil {
		return nil, err
	}

	mine, err := s.evaluatedSet(projectID, evaluatorID)
	if err != nil {
		return nil, err
	}

	categories := &ChunkCategories{
		NotEvaluated:   []ChunkSummary{},
		OneEvaluation:  []ChunkSummary{},
		TwoEvaluations: []ChunkSummary{},
		ThreeOrMore:    []ChunkSummary{},
	}

	for i := range chunks {
		agg := aggregates[chunks[i].ID]
		summary := summarize(&chunks[i], agg, mine[chunks[i].ID])

		switch eval.Categorize(agg.EvaluationCount) {
		case eval.CategoryNotEvaluated:
			categories.NotEvaluated = append(categories.NotEvaluated, summary)
		case eval.CategoryOneEvaluation:
			categories.OneEvaluation = append(categories.OneEvaluation, summary)
		case eval.CategoryTwoEvaluations:
			categories.TwoEvaluations = append(categories.TwoEvaluations, summary)
		case eval.CategoryThreeOrMore:
			categories.ThreeOrMore = append(categories.ThreeOrMore, summary)
		}
	}

	return categories, nil
}

// ReadyForTranscription lists the chunks in scope that pass the readiness
// gate: quorum met and score below the badness threshold. Chunks past
// quorum with a bad score stay out of the queue but remain visible in the
// category listing and statistics.
func (s *Store) ReadyForTranscription(projectUID string, gate eval.Gate) ([]ChunkSummary, error) {
	projectID, err := s.resolveScope(projectUID)
	if err != nil {
		return nil, err
	}

	chunks, aggregates, err := s.chunkAggregates(projectID)
	if err != nil {
		return nil, err
	}

	ready := []ChunkSummary{}
	for i := range chunks {
		agg := aggregates[chunks[i].ID]
		if gate.Ready(agg) {
			ready = append(ready, summarize(&chunks[i], agg, false))
		}
	}

	return ready, nil
}

// Statistics computes the corpus completion view for the scope
func (s *Store) Statistics(projectUID string, gate eval.Gate) (*ChunkStatistics, error) {
	projectID, err := s.resolveScope(projectUID)
	if err != nil {
		return nil, err
	}

	chunks, aggregates, err := s.chunkAggregates(projectID)
	if err != nil {
		return nil, err
	}

	stats := &ChunkStatistics{TotalChunks: len(chunks)}
	for i := range chunks {
		agg := aggregates[chunks[i].ID]

		switch eval.Categorize(agg.EvaluationCount) {
		case eval.CategoryNotEvaluated:
			stats.NotEvaluated++
		case eval.CategoryOneEvaluation:
			stats.OneEvaluation++
		case eval.CategoryTwoEvaluations:
			stats.TwoEvaluations++
		case eval.CategoryThreeOrMore:
			stats.ThreeOrMoreEvaluations++
		}

		if gate.Ready(agg) {
			stats.ReadyForTranscription++
		}
		if chunks[i].FeatureText != "" {
			stats.TranscribedChunks++
		}
	}

	stats.EvaluationCompletionRate = eval.CompletionRate(stats.TotalChunks, stats.NotEvaluated)

	return stats, nil
}
