package validation

import (
	"context"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"docgen/internal/scorecard"
)

// ContentRubric is L1: parses the PDF text layer and checks it against the
// job's content-derived rubric (required tokens, sections, page count,
// color presence/absence, image resolution), emitting a 0-150 score with
// each of the five checks worth 30 points. Fonts are not checked here.
type ContentRubric struct{}

func (ContentRubric) ID() string        { return "L1" }
func (ContentRubric) MaxScore() float64 { return 150.0 }

func (l ContentRubric) Run(ctx context.Context, in Input) scorecard.LayerResult {
	start := time.Now()
	var findings []scorecard.Finding

	text, err := extractText(in.Artifact.Path)
	if err != nil {
		findings = append(findings, scorecard.Finding{
			Severity: scorecard.SeverityCritical,
			Category: "extraction",
			Message:  "could not read PDF text layer: " + err.Error(),
		})
		return scorecard.LayerResult{
			LayerID: l.ID(), Score: 0, MaxScore: l.MaxScore(), Weight: in.Config.Weight,
			Passed: false, Findings: findings, DurationMs: time.Since(start).Milliseconds(),
		}
	}

	points := 0.0
	const maxPoints = 5.0
	each := l.MaxScore() / maxPoints

	if checkRequiredTokens(text, in.Job.Content, &findings) {
		points++
	}
	if checkRequiredSections(text, in.Job.Content, &findings) {
		points++
	}
	if checkPageCount(in.Artifact.PageCount, in.Job.Content, &findings) {
		points++
	}
	if checkColors(text, in.Job.Content, &findings) {
		points++
	}
	if checkImageResolution(string(in.Job.Export.Intent), in.Job.Content, &findings) {
		points++
	}

	score := points * each
	minScore := in.Config.MinScore
	if minScore == 0 {
		minScore = l.MaxScore() * 0.6
	}

	return scorecard.LayerResult{
		LayerID:    l.ID(),
		Score:      score,
		MaxScore:   l.MaxScore(),
		Weight:     in.Config.Weight,
		Passed:     score >= minScore && !scorecard.HasCritical(findings),
		Findings:   findings,
		DurationMs: time.Since(start).Milliseconds(),
	}
}

// extractText reads the plain-text layer of the PDF at path.
func extractText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	buf := make([]byte, 4096)
	for {
		n, err := reader.Read(buf)
		if n > 0 {
			b.Write(buf[:n])
		}
		if err != nil {
			break
		}
	}
	return b.String(), nil
}

func checkRequiredTokens(text string, content map[string]any, findings *[]scorecard.Finding) bool {
	tokens, _ := content["requiredTokens"].([]any)
	ok := true
	for _, t := range tokens {
		token, _ := t.(string)
		if token == "" {
			continue
		}
		if !strings.Contains(text, token) {
			*findings = append(*findings, scorecard.Finding{
				Severity: scorecard.SeverityCritical,
				Category: "content",
				Message:  "missing required token: " + token,
			})
			ok = false
		}
	}
	return ok
}

func checkRequiredSections(text string, content map[string]any, findings *[]scorecard.Finding) bool {
	sections, _ := content["requiredSections"].([]any)
	ok := true
	for _, s := range sections {
		section, _ := s.(string)
		if section == "" {
			continue
		}
		if !strings.Contains(text, section) {
			*findings = append(*findings, scorecard.Finding{
				Severity: scorecard.SeverityWarning,
				Category: "structure",
				Message:  "missing expected section: " + section,
			})
			ok = false
		}
	}
	return ok
}

func checkPageCount(pageCount int, content map[string]any, findings *[]scorecard.Finding) bool {
	expected, ok := content["expectedPageCount"].(float64)
	if !ok {
		return true
	}
	if pageCount != int(expected) {
		*findings = append(*findings, scorecard.Finding{
			Severity: scorecard.SeverityWarning,
			Category: "page-count",
			Message:  "page count does not match expectation",
		})
		return false
	}
	return true
}

func checkColors(text string, content map[string]any, findings *[]scorecard.Finding) bool {
	required, _ := content["requiredColor"].(string)
	forbidden, _ := content["forbiddenColor"].(string)
	ok := true
	if required != "" && !strings.Contains(text, required) {
		*findings = append(*findings, scorecard.Finding{
			Severity: scorecard.SeverityCritical,
			Category: "color",
			Message:  "required primary color not present: " + required,
		})
		ok = false
	}
	if forbidden != "" && strings.Contains(text, forbidden) {
		*findings = append(*findings, scorecard.Finding{
			Severity: scorecard.SeverityCritical,
			Category: "color",
			Message:  "forbidden color present: " + forbidden,
		})
		ok = false
	}
	return ok
}

func checkImageResolution(intent string, content map[string]any, findings *[]scorecard.Finding) bool {
	minDPI := 150.0
	if intent == "print" {
		minDPI = 300.0
	}
	images, _ := content["images"].([]any)
	ok := true
	for _, raw := range images {
		m, isMap := raw.(map[string]any)
		if !isMap {
			continue
		}
		dpi, _ := m["dpi"].(float64)
		if dpi > 0 && dpi < minDPI {
			*findings = append(*findings, scorecard.Finding{
				Severity: scorecard.SeverityWarning,
				Category: "image-resolution",
				Message:  "image resolution below minimum for export intent",
			})
			ok = false
		}
	}
	return ok
}
