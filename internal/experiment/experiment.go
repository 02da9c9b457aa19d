// Package experiment implements the N-variant job harness: it generates
// variant Jobs, runs each one through the pipeline sequentially (never in
// parallel, since the layout-worker mutex would serialize them anyway and
// interleaved logs would be unreadable), and picks a winner by weighted
// composite score (spec.md §4.5).
package experiment

import (
	"context"
	"fmt"

	"docgen/internal/job"
	"docgen/internal/scorecard"
)

// RunFunc executes one job end to end and returns its Scorecard. Supplied
// by the caller (cmd/experiment.go builds it over a pipeline.Pipeline), so
// this package does not import pipeline.
type RunFunc func(ctx context.Context, j job.Job) (scorecard.Scorecard, error)

// DefaultWeights are the default composite-score weights (spec.md §4.5):
// total score, brand-compliance sub-score, inverted visual-diff, binary
// pass/fail.
var DefaultWeights = map[string]float64{
	"total":     0.50,
	"brand":     0.30,
	"visualDiff": 0.15,
	"passed":    0.05,
}

// VariantMetrics carries the raw per-variant numbers the composite score
// is computed from.
type VariantMetrics struct {
	TotalScore    float64 // on job.MaxOverallScore scale
	BrandScore    float64 // sub-score, same scale as TotalScore's layer it's drawn from
	BrandMax      float64
	VisualDiffPct float64 // 0-100, lower is better
	Passed        bool
	DurationMs    int64 // wall-clock time to produce and validate this variant
}

// VariantResult is one generated variant's outcome.
type VariantResult struct {
	VariantID string
	Job       job.Job
	Scorecard scorecard.Scorecard
	Metrics   VariantMetrics
	Composite float64
}

// Summary is the harness's final report.
type Summary struct {
	Variants  []VariantResult
	WinnerID  string
	Reasoning string
}

// GenerateVariants builds the variant job set from job.Experiment, either
// from explicit variantConfigs (deep-merged onto the parent job's content)
// or, absent those, variantCount copies with no overrides applied beyond
// a distinguishing jobId (spec.md §4.5).
func GenerateVariants(parent job.Job) []job.Job {
	exp := parent.Experiment
	if exp == nil {
		return nil
	}

	var variants []job.Job
	if len(exp.VariantConfigs) > 0 {
		for i, override := range exp.VariantConfigs {
			v := parent.Clone()
			v.JobID = variantJobID(parent.JobID, i)
			v.Content = deepMerge(v.Content, override)
			v.Experiment = nil
			variants = append(variants, v)
		}
		return variants
	}

	for i := 0; i < exp.VariantCount; i++ {
		v := parent.Clone()
		v.JobID = variantJobID(parent.JobID, i)
		v.Experiment = nil
		variants = append(variants, v)
	}
	return variants
}

func variantJobID(parentID string, index int) string {
	return fmt.Sprintf("%s-variant-%d", parentID, index)
}

// deepMerge overlays override onto base, recursing into nested maps and
// replacing any non-map value outright.
func deepMerge(base, override map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		if overrideMap, ok := v.(map[string]any); ok {
			if baseMap, ok := merged[k].(map[string]any); ok {
				merged[k] = deepMerge(baseMap, overrideMap)
				continue
			}
		}
		merged[k] = v
	}
	return merged
}

// Run generates variants, executes each sequentially via run, scores them,
// and returns the full Summary.
func Run(ctx context.Context, parent job.Job, run RunFunc, extractMetrics func(scorecard.Scorecard) VariantMetrics) (Summary, error) {
	variants := GenerateVariants(parent)
	if len(variants) == 0 {
		return Summary{}, fmt.Errorf("experiment: job %q declared experiment mode with no variants", parent.JobID)
	}

	weights := DefaultWeights
	if parent.Experiment.Weights != nil {
		weights = parent.Experiment.Weights
	}

	var results []VariantResult
	for _, v := range variants {
		sc, err := run(ctx, v)
		if err != nil {
			return Summary{}, fmt.Errorf("experiment: variant %q failed: %w", v.JobID, err)
		}
		metrics := extractMetrics(sc)
		results = append(results, VariantResult{
			VariantID: v.JobID,
			Job:       v,
			Scorecard: sc,
			Metrics:   metrics,
			Composite: composite(metrics, weights),
		})
	}

	winner := selectWinner(results)
	return Summary{
		Variants:  results,
		WinnerID:  winner.VariantID,
		Reasoning: reasoning(winner, results),
	}, nil
}

func composite(m VariantMetrics, weights map[string]float64) float64 {
	total := normalize(m.TotalScore, job.MaxOverallScore)
	brand := normalize(m.BrandScore, m.BrandMax)
	invertedDiff := 1 - clampPct(m.VisualDiffPct)/100
	passed := 0.0
	if m.Passed {
		passed = 1.0
	}

	return weights["total"]*total +
		weights["brand"]*brand +
		weights["visualDiff"]*invertedDiff +
		weights["passed"]*passed
}

func normalize(value, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return clamp01(value / max)
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func clampPct(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 100 {
		return 100
	}
	return f
}

// selectWinner picks the winning variant by composite score among
// passing variants, falling back to the full (failed) set only when every
// variant failed - the "least-failed" case (spec.md §4.5 step 3: failed
// variants are "excluded from winner selection unless all variants failed
// (then the least-failed is selected)").
func selectWinner(results []VariantResult) VariantResult {
	var passing []VariantResult
	for _, r := range results {
		if r.Metrics.Passed {
			passing = append(passing, r)
		}
	}
	if len(passing) > 0 {
		return bestByCascade(passing)
	}
	return bestByCascade(results)
}

// bestByCascade applies the composite score, then the deterministic
// five-level tie-break cascade on exact ties (spec.md §4.5 step 5): higher
// total score, then higher brand sub-score, then lower visual diff, then
// faster duration, then earlier variant index.
func bestByCascade(results []VariantResult) VariantResult {
	best := results[0]
	for i := 1; i < len(results); i++ {
		c := results[i]
		if isBetter(c, best) {
			best = c
		}
	}
	return best
}

func isBetter(c, best VariantResult) bool {
	if c.Composite != best.Composite {
		return c.Composite > best.Composite
	}
	if c.Metrics.TotalScore != best.Metrics.TotalScore {
		return c.Metrics.TotalScore > best.Metrics.TotalScore
	}
	cBrand := normalize(c.Metrics.BrandScore, c.Metrics.BrandMax)
	bestBrand := normalize(best.Metrics.BrandScore, best.Metrics.BrandMax)
	if cBrand != bestBrand {
		return cBrand > bestBrand
	}
	if c.Metrics.VisualDiffPct != best.Metrics.VisualDiffPct {
		return c.Metrics.VisualDiffPct < best.Metrics.VisualDiffPct
	}
	if c.Metrics.DurationMs != best.Metrics.DurationMs {
		return c.Metrics.DurationMs < best.Metrics.DurationMs
	}
	// else: keep the earlier variant (best already holds it).
	return false
}

func reasoning(winner VariantResult, all []VariantResult) string {
	runnerUp := 0.0
	for _, r := range all {
		if r.VariantID == winner.VariantID {
			continue
		}
		if r.Composite > runnerUp {
			runnerUp = r.Composite
		}
	}
	margin := winner.Composite - runnerUp
	return fmt.Sprintf(
		"%s wins with composite %.3f (total=%.1f, brand=%.1f/%.1f, visualDiff=%.1f%%, passed=%v); margin over runner-up: %.3f",
		winner.VariantID, winner.Composite,
		winner.Metrics.TotalScore, winner.Metrics.BrandScore, winner.Metrics.BrandMax,
		winner.Metrics.VisualDiffPct, winner.Metrics.Passed, margin,
	)
}
