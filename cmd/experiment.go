package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"docgen/internal/experiment"
	"docgen/internal/job"
	"docgen/internal/scorecard"
)

var (
	experimentJobPath   string
	experimentStrict    bool
	experimentReportDir string
)

func newExperimentCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "experiment",
		Short: "Run N variants of a job and pick a winner by weighted composite score",
		Args:  cobra.NoArgs,
		RunE:  runExperimentCmd,
	}
	c.Flags().StringVar(&experimentJobPath, "job", "", "path to the job-config file (required, mode must be \"experiment\")")
	c.Flags().BoolVar(&experimentStrict, "strict", false, "reject job-config files with unrecognized fields")
	c.Flags().StringVar(&experimentReportDir, "report-dir", "./reports", "directory to write per-variant scorecards and the summary to")
	_ = c.MarkFlagRequired("job")
	return c
}

func runExperimentCmd(cmd *cobra.Command, args []string) error {
	parent, err := job.Load(experimentJobPath, experimentStrict)
	if err != nil {
		return newExitCodeError(ExitInfraError, err)
	}
	if parent.Mode != job.ModeExperiment {
		return newExitCodeError(ExitInfraError, fmt.Errorf("job %q is not in experiment mode", parent.JobID))
	}

	runFn := func(ctx context.Context, j job.Job) (scorecard.Scorecard, error) {
		p, err := buildPipeline(ctx, j)
		if err != nil {
			return scorecard.Scorecard{}, err
		}
		sc, _ := p.Run(ctx, j)
		scorecard.NewSink(experimentReportDir).Flush(sc)
		return sc, nil
	}

	summary, err := experiment.Run(cmd.Context(), parent, runFn, extractVariantMetrics)
	if err != nil {
		return newExitCodeError(ExitInfraError, err)
	}

	fmt.Println(summary.Reasoning)
	if err := writeSummary(experimentReportDir, parent.JobID, summary); err != nil {
		return newExitCodeError(ExitInfraError, err)
	}
	return nil
}

// extractVariantMetrics pulls the composite-score inputs out of a
// variant's Scorecard: total score, the L1 content/rubric sub-score as
// the brand-compliance proxy, the L3 visual-diff layer's score as the
// visual-diff proxy, and overall pass/fail (spec.md §4.5).
func extractVariantMetrics(sc scorecard.Scorecard) experiment.VariantMetrics {
	m := experiment.VariantMetrics{TotalScore: sc.Overall, Passed: sc.OverallPassed, DurationMs: sc.DurationMs}
	if l1, ok := sc.LayerByID("L1"); ok {
		m.BrandScore = l1.Score
		m.BrandMax = l1.MaxScore
	}
	if l3, ok := sc.LayerByID("L3"); ok && l3.MaxScore > 0 {
		m.VisualDiffPct = (1 - l3.Score/l3.MaxScore) * 100
	}
	return m
}

func writeSummary(reportDir, jobID string, summary experiment.Summary) error {
	dir := filepath.Join(reportDir, "experiments")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, jobID+"-summary.json"), data, 0o644)
}
