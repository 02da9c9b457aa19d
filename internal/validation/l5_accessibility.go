package validation

import (
	"context"
	"time"

	"docgen/internal/scorecard"
)

// AccessibilityResult is the structured response from an
// AccessibilityProvider.
type AccessibilityResult struct {
	ComplianceScore float64
	Standard        string
	RemediatedPath  string
	Findings        []VisionFinding
}

// AccessibilityProvider checks a PDF against an accessibility standard
// and optionally produces a remediated copy (spec.md §4.4).
type AccessibilityProvider interface {
	Check(ctx context.Context, pdfPath, standard string) (AccessibilityResult, error)
}

// AccessibilityRemediation is L5.
type AccessibilityRemediation struct {
	Provider AccessibilityProvider
	Standard string
}

func (AccessibilityRemediation) ID() string        { return "L5" }
func (AccessibilityRemediation) MaxScore() float64 { return 1.0 }

func (l AccessibilityRemediation) Run(ctx context.Context, in Input) scorecard.LayerResult {
	start := time.Now()
	minScore := in.Config.MinScore
	if minScore == 0 {
		minScore = 0.8
	}

	result, err := l.Provider.Check(ctx, in.Artifact.Path, l.Standard)
	if err != nil {
		return scorecard.LayerResult{
			LayerID: l.ID(), Score: 0, MaxScore: l.MaxScore(), Weight: in.Config.Weight,
			Passed: false, Error: err.Error(),
			Findings:   []scorecard.Finding{{Severity: scorecard.SeverityWarning, Category: "accessibility", Message: err.Error()}},
			DurationMs: time.Since(start).Milliseconds(),
		}
	}

	findings := make([]scorecard.Finding, 0, len(result.Findings))
	for _, f := range result.Findings {
		findings = append(findings, scorecard.Finding{
			Severity: scorecard.Severity(f.Severity),
			Category: f.Category,
			Message:  f.Message,
		})
	}

	var artifacts []string
	if result.RemediatedPath != "" {
		artifacts = append(artifacts, result.RemediatedPath)
	}

	return scorecard.LayerResult{
		LayerID:    l.ID(),
		Score:      result.ComplianceScore,
		MaxScore:   l.MaxScore(),
		Weight:     in.Config.Weight,
		Passed:     result.ComplianceScore >= minScore && !scorecard.HasCritical(findings),
		Findings:   findings,
		Artifacts:  artifacts,
		DurationMs: time.Since(start).Milliseconds(),
	}
}
