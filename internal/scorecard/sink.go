package scorecard

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"docgen/pkg/logging"
)

// Sink persists a Scorecard to the configured report directory in both
// machine-readable (JSON) and human-readable (text) form, per spec.md §6.
type Sink struct {
	ReportDir string
}

// NewSink returns a Sink rooted at reportDir.
func NewSink(reportDir string) Sink {
	return Sink{ReportDir: reportDir}
}

// Flush writes <reportDir>/pipeline/<jobId>-scorecard.json and
// <reportDir>/pipeline/<jobId>-report.txt. It never returns an error that
// would mask the pipeline's original error: write failures are logged and
// swallowed, since a partially-written report is still strictly better
// than losing the original exit-code-determining error (spec.md §7:
// "a machine-readable scorecard written to disk even on failure").
func (s Sink) Flush(sc Scorecard) {
	dir := filepath.Join(s.ReportDir, "pipeline")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logging.Error("ScorecardSink", err, "could not create report directory %s", dir)
		return
	}

	jsonPath := filepath.Join(dir, sc.JobID+"-scorecard.json")
	data, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		logging.Error("ScorecardSink", err, "could not marshal scorecard for job %s", sc.JobID)
	} else if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		logging.Error("ScorecardSink", err, "could not write %s", jsonPath)
	}

	textPath := filepath.Join(dir, sc.JobID+"-report.txt")
	if err := os.WriteFile(textPath, []byte(Render(sc)), 0o644); err != nil {
		logging.Error("ScorecardSink", err, "could not write %s", textPath)
	}
}

// Render produces the human-readable summary written to *-report.txt. The
// run command (unless --ci) and the validate-only command also print it
// to stdout; nothing prints it to stderr.
func Render(sc Scorecard) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Job: %s\n", sc.JobID)
	if sc.ErrorCategory != "" {
		fmt.Fprintf(&b, "INFRASTRUCTURE ERROR (%s): %s\n", sc.ErrorCategory, sc.Message)
		fmt.Fprintf(&b, "exit code: %d\n", sc.ExitCode)
		return b.String()
	}

	fmt.Fprintf(&b, "Verdict: %s   Overall: %.1f/%.0f\n", sc.Verdict, sc.Overall, sc.MaxOverall)
	if sc.FirstAttemptScore != nil {
		fmt.Fprintf(&b, "L1 auto-fix retry: first attempt %.1f, final score in the L1 line below\n", *sc.FirstAttemptScore)
	}
	fmt.Fprintf(&b, "Passed: %v   exit code: %d   duration: %dms\n\n", sc.OverallPassed, sc.ExitCode, sc.DurationMs)

	for _, lr := range sc.PerLayer {
		status := "PASS"
		if lr.Skipped {
			status = "SKIPPED"
		} else if !lr.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(&b, "[%s] %-5s score=%.1f/%.1f weight=%.2f (%dms)\n", lr.LayerID, status, lr.Score, lr.MaxScore, lr.Weight, lr.DurationMs)
		for _, f := range lr.Findings {
			fmt.Fprintf(&b, "    - %-8s %-12s %s\n", f.Severity, f.Category, f.Message)
		}
		if lr.Error != "" {
			fmt.Fprintf(&b, "    ! error: %s\n", lr.Error)
		}
	}

	return b.String()
}
