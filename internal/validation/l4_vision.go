package validation

import (
	"context"
	"os"
	"time"

	"docgen/internal/scorecard"
	"docgen/pkg/logging"
)

// VisionFinding is one observation from a VisionProvider, distinct from
// scorecard.Finding because providers speak their own vocabulary before
// it is normalized.
type VisionFinding struct {
	Severity string
	Category string
	Message  string
	Page     int
}

// VisionResult is the structured response expected from a VisionProvider.
type VisionResult struct {
	Score     float64
	Findings  []VisionFinding
	PageNotes map[int]string
}

// VisionProvider submits rasterized pages to an external multimodal model
// for a rubric-guided review (spec.md §4.4).
type VisionProvider interface {
	Review(ctx context.Context, imagePaths []string, rubricPrompt string) (VisionResult, error)
}

// DryRunVisionProvider produces a synthetic score for testing without a
// network call, activated by DRY_RUN_VISION=1 (spec.md §8 scenario 4).
type DryRunVisionProvider struct {
	MinScore float64
}

func (p DryRunVisionProvider) Review(ctx context.Context, imagePaths []string, rubricPrompt string) (VisionResult, error) {
	return VisionResult{Score: p.MinScore + 0.01}, nil
}

// AIVisionReview is L4.
type AIVisionReview struct {
	Provider     VisionProvider
	RubricPrompt string
	FailOnError  bool
}

func (AIVisionReview) ID() string        { return "L4" }
func (AIVisionReview) MaxScore() float64 { return 1.0 }

// IsDryRunEnabled reports whether the DRY_RUN_VISION environment variable
// requests the synthetic provider be used instead of a real one.
func IsDryRunEnabled() bool {
	return os.Getenv("DRY_RUN_VISION") == "1"
}

func (l AIVisionReview) Run(ctx context.Context, in Input) scorecard.LayerResult {
	start := time.Now()
	minScore := in.Config.MinScore
	if minScore == 0 {
		minScore = 0.85
	}

	result, err := l.Provider.Review(ctx, in.Artifact.PreviewImages, l.RubricPrompt)
	if err != nil {
		// Retry once with a stricter prompt on malformed output.
		logging.Warn("L4AIVision", "first vision review attempt failed, retrying with strict prompt: %v", err)
		result, err = l.Provider.Review(ctx, in.Artifact.PreviewImages, l.RubricPrompt+"\nRespond with JSON only.")
	}
	if err != nil {
		passed := !(l.FailOnError || in.Job.QA.FailOnAiError)
		severity := scorecard.SeverityWarning
		findings := []scorecard.Finding{{
			Severity: severity,
			Category: "ai-provider",
			Message:  "vision provider failed after retry: " + err.Error(),
		}}
		return scorecard.LayerResult{
			LayerID: l.ID(), Score: 0, MaxScore: l.MaxScore(), Weight: in.Config.Weight,
			Passed: passed, Findings: findings, Error: err.Error(),
			DurationMs: time.Since(start).Milliseconds(),
		}
	}

	_, dryRun := l.Provider.(DryRunVisionProvider)

	findings := make([]scorecard.Finding, 0, len(result.Findings))
	for _, f := range result.Findings {
		var page *int
		if f.Page > 0 {
			p := f.Page
			page = &p
		}
		findings = append(findings, scorecard.Finding{
			Severity: scorecard.Severity(f.Severity),
			Category: f.Category,
			Message:  f.Message,
			Page:     page,
		})
	}

	return scorecard.LayerResult{
		LayerID:    l.ID(),
		Score:      result.Score,
		MaxScore:   l.MaxScore(),
		Weight:     in.Config.Weight,
		Passed:     result.Score >= minScore && !scorecard.HasCritical(findings),
		Findings:   findings,
		DryRun:     dryRun,
		DurationMs: time.Since(start).Milliseconds(),
	}
}
