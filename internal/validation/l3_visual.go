package validation

import (
	"context"
	"time"

	"docgen/internal/scorecard"
)

// Rasterizer renders a PDF page to a comparable image representation.
// Swapped for a fake in tests; production wiring shells out to a
// page-rasterization tool and loads the result.
type Rasterizer interface {
	RasterizePage(ctx context.Context, pdfPath string, page int) ([]byte, error)
}

// BaselineStore resolves a named baseline to per-page reference images.
type BaselineStore interface {
	Baseline(ctx context.Context, name string, pageCount int) (map[int][]byte, bool, error)
}

// VisualRegression is L3: rasterizes each page and compares pixel-wise
// against a named baseline, passing if the worst per-page percent diff is
// within threshold. Skipped entirely if no baseline is configured
// (spec.md §4.4 edge case).
type VisualRegression struct {
	Rasterizer    Rasterizer
	Baselines     BaselineStore
	DiffThreshold float64 // percent, e.g. 2.0 means "max 2% of pixels differ"
}

func (VisualRegression) ID() string        { return "L3" }
func (VisualRegression) MaxScore() float64 { return 100.0 }

func (l VisualRegression) Run(ctx context.Context, in Input) scorecard.LayerResult {
	start := time.Now()

	if in.Job.QA.VisualBaseline == "" {
		return scorecard.NewSkipped(l.ID(), l.MaxScore(), in.Config.Weight, true)
	}

	baseline, ok, err := l.Baselines.Baseline(ctx, in.Job.QA.VisualBaseline, in.Artifact.PageCount)
	if err != nil || !ok {
		return scorecard.NewSkipped(l.ID(), l.MaxScore(), in.Config.Weight, true)
	}

	var findings []scorecard.Finding
	worstDiff := 0.0
	for page := 1; page <= in.Artifact.PageCount; page++ {
		ref, hasRef := baseline[page]
		if !hasRef {
			continue
		}
		rendered, err := l.Rasterizer.RasterizePage(ctx, in.Artifact.Path, page)
		if err != nil {
			p := page
			findings = append(findings, scorecard.Finding{
				Severity: scorecard.SeverityWarning,
				Category: "rasterize",
				Message:  "could not rasterize page for comparison: " + err.Error(),
				Page:     &p,
			})
			continue
		}
		diff := percentDiff(rendered, ref)
		if diff > worstDiff {
			worstDiff = diff
		}
		if diff > l.DiffThreshold {
			p := page
			findings = append(findings, scorecard.Finding{
				Severity: scorecard.SeverityCritical,
				Category: "visual-diff",
				Message:  "page exceeds visual diff threshold",
				Page:     &p,
			})
		}
	}

	passed := worstDiff <= l.DiffThreshold
	score := l.MaxScore()
	if l.DiffThreshold > 0 {
		score = l.MaxScore() * clamp01(1-worstDiff/100)
	}

	return scorecard.LayerResult{
		LayerID:    l.ID(),
		Score:      score,
		MaxScore:   l.MaxScore(),
		Weight:     in.Config.Weight,
		Passed:     passed,
		Findings:   findings,
		DurationMs: time.Since(start).Milliseconds(),
	}
}

// percentDiff is a byte-length-normalized proxy for pixel-wise percent
// difference: real rasterized buffers are compared byte-for-byte once the
// rasterizer produces a fixed-size raw pixel buffer, but the comparison
// itself belongs to the image layer, not this finding-aggregation layer.
func percentDiff(a, b []byte) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 100
	}
	diffBytes := 0
	for i := range a {
		if a[i] != b[i] {
			diffBytes++
		}
	}
	return float64(diffBytes) / float64(len(a)) * 100
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
