package validation

import (
	"context"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"docgen/internal/scorecard"
)

// Quality is L2: binary pass/fail structural PDF checks - pdfcpu file
// validation, page dimensions, and a font whitelist over the /BaseFont
// names found in the file. It does not check text bounds, image
// references, or whether a font is embedded.
type Quality struct {
	// WhitelistedFonts restricts which embedded font base names are
	// acceptable. Empty means no whitelist enforcement.
	WhitelistedFonts []string
	// ExpectedWidthPt/ExpectedHeightPt, when both non-zero, are the
	// required page size in points.
	ExpectedWidthPt, ExpectedHeightPt float64
}

func (Quality) ID() string        { return "L2" }
func (Quality) MaxScore() float64 { return 1.0 }

var baseFontPattern = regexp.MustCompile(`/BaseFont\s*/([A-Za-z0-9+\-,]+)`)

func (l Quality) Run(ctx context.Context, in Input) scorecard.LayerResult {
	start := time.Now()
	var findings []scorecard.Finding

	if err := api.ValidateFile(in.Artifact.Path, nil); err != nil {
		findings = append(findings, scorecard.Finding{
			Severity: scorecard.SeverityCritical,
			Category: "structure",
			Message:  "PDF failed structural validation: " + err.Error(),
		})
	}

	if l.ExpectedWidthPt > 0 && l.ExpectedHeightPt > 0 {
		dims, err := api.PageDimsFile(in.Artifact.Path)
		if err != nil {
			findings = append(findings, scorecard.Finding{
				Severity: scorecard.SeverityWarning,
				Category: "page-dims",
				Message:  "could not read page dimensions: " + err.Error(),
			})
		} else {
			for i, d := range dims {
				if !dimsMatch(d.Width, d.Height, l.ExpectedWidthPt, l.ExpectedHeightPt) {
					page := i + 1
					findings = append(findings, scorecard.Finding{
						Severity: scorecard.SeverityCritical,
						Category: "page-dims",
						Message:  "page dimensions do not match expected export size",
						Page:     &page,
					})
				}
			}
		}
	}

	if len(l.WhitelistedFonts) > 0 {
		fonts, err := embeddedFontNames(in.Artifact.Path)
		if err != nil {
			findings = append(findings, scorecard.Finding{
				Severity: scorecard.SeverityWarning,
				Category: "font",
				Message:  "could not enumerate embedded fonts: " + err.Error(),
			})
		} else {
			allowed := make(map[string]bool, len(l.WhitelistedFonts))
			for _, f := range l.WhitelistedFonts {
				allowed[f] = true
			}
			for _, f := range fonts {
				if !allowed[f] {
					findings = append(findings, scorecard.Finding{
						Severity: scorecard.SeverityCritical,
						Category: "font",
						Message:  "unembedded or non-whitelisted font: " + f,
					})
				}
			}
		}
	}

	return scorecard.LayerResult{
		LayerID:    l.ID(),
		Score:      passFailScore(findings),
		MaxScore:   l.MaxScore(),
		Weight:     in.Config.Weight,
		Passed:     !scorecard.HasCritical(findings),
		Findings:   findings,
		DurationMs: time.Since(start).Milliseconds(),
	}
}

func passFailScore(findings []scorecard.Finding) float64 {
	if scorecard.HasCritical(findings) {
		return 0
	}
	return 1
}

func dimsMatch(w, h, expectedW, expectedH float64) bool {
	const tolerance = 1.0
	return abs(w-expectedW) <= tolerance && abs(h-expectedH) <= tolerance
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// embeddedFontNames does a raw scan for /BaseFont entries. pdfcpu's font
// introspection API varies across releases; scanning the object stream
// directly is the stable path for a simple whitelist check.
func embeddedFontNames(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	matches := baseFontPattern.FindAllSubmatch(raw, -1)
	seen := make(map[string]bool)
	var names []string
	for _, m := range matches {
		name := string(m[1])
		if idx := strings.IndexByte(name, '+'); idx >= 0 {
			name = name[idx+1:]
		}
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names, nil
}
