package validation

import (
	"context"
	"time"

	"docgen/internal/artifact"
	"docgen/internal/job"
	"docgen/internal/scorecard"
	"docgen/pkg/logging"
)

// AutoFixReexecutor re-invokes the worker that produced the original
// artifact with a color-correction override applied, returning the new
// artifact to re-validate (spec.md §4.4 step 3). It is nil for workers
// that do not support auto-fix (e.g. the service-worker).
type AutoFixReexecutor func(ctx context.Context, j job.Job) (artifact.Artifact, error)

// Engine runs the ordered L0-L5 layer pipeline and aggregates the result
// into one Scorecard (spec.md §4.4).
type Engine struct {
	Layers    []Layer
	AutoFix   AutoFixReexecutor
	Threshold float64 // overall gate, on the 0-150 scale; 0 means use job.QA.Threshold
}

// defaultLayerWeight is used when a job does not override a layer's
// weight; six equally-weighted layers sum to 1.0 (spec.md §3 invariant
// "weights sum ≈ 1.0 where provided").
const defaultLayerWeight = 1.0 / 6.0

func (e Engine) Run(ctx context.Context, j job.Job, art artifact.Artifact) scorecard.Scorecard {
	start := time.Now()
	failFast := j.QA.FailFastOrDefault()
	shortCircuited := false

	var perLayer []scorecard.LayerResult
	var firstAttemptScore *float64

	for _, layer := range e.Layers {
		cfg := layerConfig(j, layer.ID())

		if !cfg.EnabledOrDefault() {
			perLayer = append(perLayer, scorecard.NewSkipped(layer.ID(), layer.MaxScore(), cfg.Weight, true))
			continue
		}

		if shortCircuited {
			perLayer = append(perLayer, scorecard.NewSkipped(layer.ID(), layer.MaxScore(), cfg.Weight, false))
			continue
		}

		result := layer.Run(ctx, Input{Job: j, Artifact: art, Config: cfg})

		if layer.ID() == "L1" && !result.Passed && j.QA.AutoFixColors && e.AutoFix != nil {
			first := result.Score
			firstAttemptScore = &first
			logging.Info("ValidationEngine", "L1 failed (score=%.1f); retrying worker with auto-fix for job %q", first, j.JobID)

			fixedArt, err := e.AutoFix(ctx, j)
			if err != nil {
				logging.Warn("ValidationEngine", "auto-fix re-execution failed for job %q: %v", j.JobID, err)
			} else {
				art = fixedArt
				result = layer.Run(ctx, Input{Job: j, Artifact: art, Config: cfg, IsRetry: true})
			}
		}

		perLayer = append(perLayer, result)

		if !result.Passed && !result.Skipped && failFast {
			shortCircuited = true
		}
	}

	overall, maxOverall := aggregate(perLayer)
	threshold := e.Threshold
	if threshold == 0 {
		threshold = j.QA.Threshold
	}

	overallPassed := overall >= threshold
	for _, lr := range perLayer {
		if !lr.Passed {
			overallPassed = false
		}
	}

	exitCode := 0
	if !overallPassed {
		exitCode = 1
	}

	return scorecard.Scorecard{
		JobID:             j.JobID,
		Overall:           overall,
		MaxOverall:        maxOverall,
		PerLayer:          perLayer,
		OverallPassed:     overallPassed,
		Verdict:           scorecard.Band(overall, maxOverall),
		DurationMs:        time.Since(start).Milliseconds(),
		ExitCode:          exitCode,
		FirstAttemptScore: firstAttemptScore,
		GeneratedAt:       time.Now(),
	}
}

func layerConfig(j job.Job, layerID string) job.LayerConfig {
	if cfg, ok := j.Layers[layerID]; ok {
		if cfg.Weight == 0 {
			cfg.Weight = defaultLayerWeight
		}
		return cfg
	}
	return job.LayerConfig{Weight: defaultLayerWeight}
}

// aggregate implements overall = Σ (score/maxScore) × weight × 150
// (spec.md §4.4 "Aggregation"). maxOverall is always job.MaxOverallScore
// since the formula already normalizes every layer onto the 0-150 scale.
func aggregate(results []scorecard.LayerResult) (overall, maxOverall float64) {
	for _, lr := range results {
		if lr.MaxScore <= 0 {
			continue
		}
		overall += (lr.Score / lr.MaxScore) * lr.Weight * job.MaxOverallScore
	}
	return overall, job.MaxOverallScore
}
