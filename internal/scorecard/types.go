// Package scorecard defines the LayerResult and Scorecard types produced
// by the validation engine, plus the report sinks that persist them.
package scorecard

import "time"

// Severity classifies a Finding.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Finding is one specific observation emitted by a validation layer.
type Finding struct {
	Severity Severity `json:"severity"`
	Category string   `json:"category"`
	Message  string   `json:"message"`
	Page     *int     `json:"page,omitempty"`
	Locator  string   `json:"locator,omitempty"`
}

// HasCritical reports whether any finding in the slice is critical.
func HasCritical(findings []Finding) bool {
	for _, f := range findings {
		if f.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// LayerResult is the output of one validation layer.
type LayerResult struct {
	LayerID    string    `json:"layerId"`
	Score      float64   `json:"score"`
	MaxScore   float64   `json:"maxScore"`
	Weight     float64   `json:"weight"`
	Passed     bool      `json:"passed"`
	Skipped    bool      `json:"skipped"`
	Findings   []Finding `json:"findings,omitempty"`
	DurationMs int64     `json:"durationMs"`
	Artifacts  []string  `json:"artifacts,omitempty"`

	// DryRun marks a layer result produced by a synthetic provider
	// adapter rather than a real external call (spec.md §4.4 edge case).
	DryRun bool `json:"dryRun,omitempty"`

	// Error is set when the layer itself failed to execute (as opposed
	// to executing and finding the document deficient), e.g. L4's
	// malformed-JSON-twice case.
	Error string `json:"error,omitempty"`
}

// NewSkipped returns a LayerResult for a disabled or fail-fast-shortcircuited
// layer. disabledPasses controls both the reported score and whether the
// skip counts as a pass: a disabled layer always passes and keeps its full
// weight (spec.md §4.4 "disabled wins"); a layer skipped after an earlier
// fail-fast failure must report passed=false AND contribute zero score, so
// it neither masks the failure nor inflates the aggregated overall (spec.md
// §8 scenario 2: "overall = L0+L1+(zeros for L2..L5)").
func NewSkipped(layerID string, maxScore, weight float64, disabledPasses bool) LayerResult {
	score := 0.0
	if disabledPasses {
		score = maxScore
	}
	return LayerResult{
		LayerID:  layerID,
		Score:    score,
		MaxScore: maxScore,
		Weight:   weight,
		Passed:   disabledPasses,
		Skipped:  true,
	}
}

// Verdict is the informational letter grade banded from Scorecard.Overall.
type Verdict string

const (
	VerdictAPlus Verdict = "A+"
	VerdictA     Verdict = "A"
	VerdictB     Verdict = "B"
	VerdictC     Verdict = "C"
	VerdictF     Verdict = "F"
)

// VerdictBands are expressed on the 0-100 grade scale; Scorecard.Overall
// is on the 0-150 rubric scale (see job.MaxOverallScore), so banding first
// normalizes overall/150 -> 0-100 before comparing. This is the scale
// discipline spec.md §9 asks implementations to make explicit.
var verdictBandsOutOf100 = []struct {
	min     float64
	verdict Verdict
}{
	{95, VerdictAPlus},
	{90, VerdictA},
	{80, VerdictB},
	{70, VerdictC},
}

// Band converts an overall score on the 0-150 rubric scale to a Verdict.
func Band(overall, maxOverall float64) Verdict {
	if maxOverall <= 0 {
		return VerdictF
	}
	pct := (overall / maxOverall) * 100
	for _, band := range verdictBandsOutOf100 {
		if pct >= band.min {
			return band.verdict
		}
	}
	return VerdictF
}

// Scorecard is the aggregated result document for one job.
type Scorecard struct {
	JobID          string        `json:"jobId"`
	Overall        float64       `json:"overall"`
	MaxOverall     float64       `json:"maxOverall"`
	PerLayer       []LayerResult `json:"perLayer"`
	OverallPassed  bool          `json:"overallPassed"`
	Verdict        Verdict       `json:"verdict"`
	DurationMs     int64         `json:"durationMs"`
	ExitCode       int           `json:"exitCode"`

	// FirstAttemptScore is set only when the L1 auto-fix retry ran
	// (spec.md §4.4 step 3); it preserves the pre-retry L1 score.
	FirstAttemptScore *float64 `json:"firstAttemptScore,omitempty"`

	// ErrorCategory/Message are populated for infra failures (exit 3)
	// per spec.md §7, even when PerLayer is empty or partial.
	ErrorCategory string `json:"errorCategory,omitempty"`
	Message       string `json:"message,omitempty"`

	GeneratedAt time.Time `json:"generatedAt"`
}

// LayerByID returns the result for a given layer id, if present.
func (s Scorecard) LayerByID(id string) (LayerResult, bool) {
	for _, lr := range s.PerLayer {
		if lr.LayerID == id {
			return lr, true
		}
	}
	return LayerResult{}, false
}
