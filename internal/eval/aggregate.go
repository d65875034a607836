package eval

import (
	"fmt"
	"math"
)

// Category buckets chunks by how many distinct evaluators have judged them
type Category string

const (
	CategoryNotEvaluated   Category = "not_evaluated"
	CategoryOneEvaluation  Category = "one_evaluation"
	CategoryTwoEvaluations Category = "two_evaluations"
	CategoryThreeOrMore    Category = "three_or_more"
)

// Categorize maps a distinct-evaluator count to its category
func Categorize(evaluationCount int) Category {
	switch {
	case evaluationCount <= 0:
		return CategoryNotEvaluated
	case evaluationCount == 1:
		return CategoryOneEvaluation
	case evaluationCount == 2:
		return CategoryTwoEvaluations
	default:
		return CategoryThreeOrMore
	}
}

// Evaluation is one evaluator's judgment of a chunk as seen by the
// aggregator. DefectCount is the number of flags raised at submission time
// under SchemaVersion, so historical scores stay reproducible after the
// flag set changes.
type Evaluation struct {
	EvaluatorID   string
	SchemaVersion int
	DefectCount   int
	Flags         Flags
}

// Aggregate is the derived per-chunk view. It is recomputed from the
// evaluation rows on every read, never cached, so it is always consistent
// with the current record set. Score is NaN when EvaluationCount is zero.
type Aggregate struct {
	EvaluationCount int        `json:"evaluation_count"`
	TotalDefectSum  int        `json:"total_defect_sum"`
	FlagTotals      FlagTotals `json:"flag_totals"`
	Score           float64    `json:"score"`
}

// HasScore reports whether the score is defined
func (a Aggregate) HasScore() bool {
	return !math.IsNaN(a.Score)
}

// Aggregate computes the per-chunk quality aggregate from one chunk's
// evaluations. Input rows are expected to already be one-per-evaluator
// (the store's upsert invariant); duplicate evaluator ids are collapsed
// defensively, keeping the last row.
//
// The score is the average fraction of defect flags raised per evaluation:
// each evaluation contributes defects/N under its own schema, and the sum
// is divided by the evaluation count. For a uniform schema this equals
// total_defect_sum / (count * N).
func ComputeAggregate(evaluations []Evaluation) (Aggregate, error) {
	byEvaluator := make(map[string]Evaluation, len(evaluations))
	order := make([]string, 0, len(evaluations))
	for _, e := range evaluations {
		if _, seen := byEvaluator[e.EvaluatorID]; !seen {
			order = append(order, e.EvaluatorID)
		}
		byEvaluator[e.EvaluatorID] = e
	}

	agg := Aggregate{Score: math.NaN()}
	if len(byEvaluator) == 0 {
		return agg, nil
	}

	var fractionSum float64
	for _, id := range order {
		e := byEvaluator[id]
		n, err := SchemaSize(e.SchemaVersion)
		if err != nil {
			return Aggregate{Score: math.NaN()}, fmt.Errorf("evaluation by %s: %w", id, err)
		}
		if e.DefectCount < 0 || e.DefectCount > n {
			return Aggregate{Score: math.NaN()}, fmt.Errorf(
				"evaluation by %s: defect count %d outside [0, %d]", id, e.DefectCount, n)
		}

		agg.TotalDefectSum += e.DefectCount
		agg.FlagTotals.Add(e.Flags)
		fractionSum += float64(e.DefectCount) / float64(n)
	}

	agg.EvaluationCount = len(byEvaluator)
	agg.Score = fractionSum / float64(agg.EvaluationCount)

	return agg, nil
}

// Gate is the chunk readiness decision: a chunk is eligible for
// transcription once enough distinct evaluators agree it is clean enough.
type Gate struct {
	Quorum           int
	BadnessThreshold float64
}

// Ready reports whether an aggregate passes the readiness gate. A chunk
// with quorum met but score at or above the badness threshold is
// over-evaluated but rejected.
func (g Gate) Ready(agg Aggregate) bool {
	if agg.EvaluationCount < g.Quorum {
		return false
	}
	return agg.HasScore() && agg.Score < g.BadnessThreshold
}

// CompletionRate returns the percentage of chunks with at least one
// evaluation, or zero when there are no chunks.
func CompletionRate(totalChunks, notEvaluated int) float64 {
	if totalChunks <= 0 {
		return 0
	}
	return float64(totalChunks-notEvaluated) / float64(totalChunks) * 100
}
