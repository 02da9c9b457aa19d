package validation

import (
	"context"
	"time"

	"docgen/internal/scorecard"
)

// Structural is L0: structural analysis of the element list supplied in
// job content (content["elements"]: role plus x/y/width/height). It
// composes hierarchy, spatial-relationship, and semantic-role scores into
// one normalized 0-1 score. Rasterized pages are not analysed.
type Structural struct{}

func (Structural) ID() string        { return "L0" }
func (Structural) MaxScore() float64 { return 1.0 }

func (l Structural) Run(ctx context.Context, in Input) scorecard.LayerResult {
	start := time.Now()

	elements, _ := in.Job.Content["elements"].([]any)
	var findings []scorecard.Finding

	hierarchy := scoreHierarchy(elements)
	spatial := scoreSpatial(elements, &findings)
	semantic := scoreSemanticRoles(elements, &findings)

	score := (hierarchy + spatial + semantic) / 3.0
	minScore := in.Config.MinScore
	if minScore == 0 {
		minScore = 0.6
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

func scoreHierarchy(elements []any) float64 {
	if len(elements) == 0 {
		return 0.5
	}
	seenTitle := false
	for _, e := range elements {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		if role, _ := m["role"].(string); role == "title" {
			seenTitle = true
		}
	}
	if seenTitle {
		return 1.0
	}
	return 0.7
}

func scoreSpatial(elements []any, findings *[]scorecard.Finding) float64 {
	overlaps := 0
	for i := 0; i < len(elements); i++ {
		a, ok := elements[i].(map[string]any)
		if !ok {
			continue
		}
		for j := i + 1; j < len(elements); j++ {
			b, ok := elements[j].(map[string]any)
			if !ok {
				continue
			}
			if boxesOverlap(a, b) {
				overlaps++
			}
		}
	}
	if overlaps > 0 {
		*findings = append(*findings, scorecard.Finding{
			Severity: scorecard.SeverityWarning,
			Category: "layout",
			Message:  "overlapping elements detected",
		})
		return 0.6
	}
	return 1.0
}

func boxesOverlap(a, b map[string]any) bool {
	ax, _ := a["x"].(float64)
	ay, _ := a["y"].(float64)
	aw, _ := a["width"].(float64)
	ah, _ := a["height"].(float64)
	bx, _ := b["x"].(float64)
	by, _ := b["y"].(float64)
	bw, _ := b["width"].(float64)
	bh, _ := b["height"].(float64)
	if aw == 0 || ah == 0 || bw == 0 || bh == 0 {
		return false
	}
	return ax < bx+bw && ax+aw > bx && ay < by+bh && ay+ah > by
}

func scoreSemanticRoles(elements []any, findings *[]scorecard.Finding) float64 {
	knownRoles := map[string]bool{"title": true, "body": true, "figure": true, "caption": true, "footer": true}
	unknown := 0
	for _, e := range elements {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		role, _ := m["role"].(string)
		if role != "" && !knownRoles[role] {
			unknown++
		}
	}
	if unknown > 0 {
		*findings = append(*findings, scorecard.Finding{
			Severity: scorecard.SeverityInfo,
			Category: "semantic-role",
			Message:  "unrecognized element role present",
		})
		return 0.8
	}
	return 1.0
}
