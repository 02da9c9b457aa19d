// Package validation implements the ordered L0-L5 layer pipeline that
// turns one worker Artifact into a scorecard.Scorecard: structural
// analysis, content/rubric checks, PDF quality, visual regression, AI
// vision review, and accessibility remediation (spec.md §4.4).
package validation

import (
	"context"

	"docgen/internal/artifact"
	"docgen/internal/job"
	"docgen/internal/scorecard"
)

// Input is everything a Layer needs to evaluate one artifact.
type Input struct {
	Job      job.Job
	Artifact artifact.Artifact
	Config   job.LayerConfig

	// IsRetry is true on L1's second pass after an auto-fix (spec.md
	// §4.4 step 3), so the layer can skip work it only needs to do once.
	IsRetry bool
}

// Layer is one stage of the validation pipeline.
type Layer interface {
	ID() string
	MaxScore() float64
	Run(ctx context.Context, in Input) scorecard.LayerResult
}
