package experiment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docgen/internal/job"
	"docgen/internal/scorecard"
)

func TestGenerateVariants_FromVariantConfigs(t *testing.T) {
	parent := job.Job{
		JobID:   "parent",
		Content: map[string]any{"title": "base", "export": map[string]any{"dpi": 150}},
		Experiment: &job.ExperimentConfig{
			VariantConfigs: []map[string]any{
				{"title": "variant-a"},
				{"export": map[string]any{"dpi": 300}},
			},
		},
	}

	variants := GenerateVariants(parent)
	require.Len(t, variants, 2)
	assert.Equal(t, "parent-variant-0", variants[0].JobID)
	assert.Equal(t, "variant-a", variants[0].Content["title"])
	assert.Equal(t, 150, variants[0].Content["export"].(map[string]any)["dpi"])

	assert.Equal(t, "base", variants[1].Content["title"])
	assert.Equal(t, 300, variants[1].Content["export"].(map[string]any)["dpi"])
}

func TestRun_PicksWeightedCompositeWinner(t *testing.T) {
	parent := job.Job{
		JobID:      "job-x",
		Experiment: &job.ExperimentConfig{VariantCount: 3},
	}

	type fixture struct {
		total, brand, diff float64
		passed             bool
	}
	fixtures := []fixture{
		{128, 23, 3.2, true},
		{135, 24, 2.1, true},
		{130, 22, 4.0, true},
	}

	i := 0
	run := func(ctx context.Context, j job.Job) (scorecard.Scorecard, error) {
		i++
		return scorecard.Scorecard{JobID: j.JobID}, nil
	}
	extract := func(sc scorecard.Scorecard) VariantMetrics {
		f := fixtures[variantIndexFromJobID(sc.JobID)]
		return VariantMetrics{TotalScore: f.total, BrandScore: f.brand, BrandMax: 25, VisualDiffPct: f.diff, Passed: f.passed}
	}

	summary, err := Run(context.Background(), parent, run, extract)
	require.NoError(t, err)
	assert.Equal(t, "job-x-variant-1", summary.WinnerID)
	assert.InDelta(t, 0.935, summary.Variants[1].Composite, 0.01)
	assert.Contains(t, summary.Reasoning, "job-x-variant-1")
}

func variantIndexFromJobID(id string) int {
	switch id {
	case "job-x-variant-0":
		return 0
	case "job-x-variant-1":
		return 1
	default:
		return 2
	}
}

func TestSelectWinner_TieBreakCascade(t *testing.T) {
	results := []VariantResult{
		{VariantID: "a", Composite: 0.9, Metrics: VariantMetrics{Passed: true, TotalScore: 100, BrandScore: 20, BrandMax: 25, VisualDiffPct: 5, DurationMs: 100}},
		{VariantID: "b", Composite: 0.9, Metrics: VariantMetrics{Passed: true, TotalScore: 110, BrandScore: 20, BrandMax: 25, VisualDiffPct: 5, DurationMs: 100}},
		{VariantID: "c", Composite: 0.9, Metrics: VariantMetrics{Passed: true, TotalScore: 110, BrandScore: 24, BrandMax: 25, VisualDiffPct: 2, DurationMs: 100}},
		{VariantID: "d", Composite: 0.9, Metrics: VariantMetrics{Passed: true, TotalScore: 110, BrandScore: 24, BrandMax: 25, VisualDiffPct: 1, DurationMs: 300}},
		{VariantID: "e", Composite: 0.9, Metrics: VariantMetrics{Passed: true, TotalScore: 110, BrandScore: 24, BrandMax: 25, VisualDiffPct: 1, DurationMs: 50}},
	}
	// a loses on total score; b loses to c on brand sub-score; d loses to
	// e on visual diff tie broken by duration; e is fastest among the
	// visual-diff leaders.
	winner := selectWinner(results)
	assert.Equal(t, "e", winner.VariantID)
}

func TestSelectWinner_ExcludesFailedVariantsUnlessAllFailed(t *testing.T) {
	results := []VariantResult{
		{VariantID: "winner-by-composite-but-failed", Composite: 0.99, Metrics: VariantMetrics{Passed: false, TotalScore: 149}},
		{VariantID: "passes-with-lower-composite", Composite: 0.5, Metrics: VariantMetrics{Passed: true, TotalScore: 80}},
	}
	winner := selectWinner(results)
	assert.Equal(t, "passes-with-lower-composite", winner.VariantID)
}

func TestSelectWinner_AllFailedPicksLeastFailed(t *testing.T) {
	results := []VariantResult{
		{VariantID: "worse-failure", Composite: 0.3, Metrics: VariantMetrics{Passed: false, TotalScore: 40}},
		{VariantID: "least-failed", Composite: 0.7, Metrics: VariantMetrics{Passed: false, TotalScore: 100}},
	}
	winner := selectWinner(results)
	assert.Equal(t, "least-failed", winner.VariantID)
}
