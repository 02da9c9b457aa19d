package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"docgen/internal/artifact"
	"docgen/internal/scorecard"
	"docgen/internal/scoringconfig"
	"docgen/internal/validation"
)

var (
	validateOnlyJobPath       string
	validateOnlyArtifactPath  string
	validateOnlyStrict        bool
	validateOnlyThreshold     float64
	validateOnlyReportDir     string
)

func newValidateOnlyCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "validate-only",
		Short: "Run the validation engine against an already-produced PDF, skipping the worker",
		Args:  cobra.NoArgs,
		RunE:  runValidateOnlyCmd,
	}
	c.Flags().StringVar(&validateOnlyJobPath, "job", "", "path to the job-config file (required)")
	c.Flags().StringVar(&validateOnlyArtifactPath, "artifact", "", "path to an already-produced PDF (required)")
	c.Flags().BoolVar(&validateOnlyStrict, "strict", false, "reject job-config files with unrecognized fields")
	c.Flags().Float64Var(&validateOnlyThreshold, "threshold", 0, "override the job's qa.threshold gate")
	c.Flags().StringVar(&validateOnlyReportDir, "report-dir", "./reports", "directory to write scorecard reports to")
	_ = c.MarkFlagRequired("job")
	_ = c.MarkFlagRequired("artifact")
	return c
}

func runValidateOnlyCmd(cmd *cobra.Command, args []string) error {
	j, err := loadJob(validateOnlyJobPath, validateOnlyStrict, validateOnlyThreshold, false)
	if err != nil {
		return newExitCodeError(ExitInfraError, err)
	}

	cfg := scoringconfig.Default()
	j.Layers = cfg.ApplyTo(j.Layers)

	art := artifact.Artifact{Path: validateOnlyArtifactPath}

	engine := validation.Engine{
		Layers: []validation.Layer{
			validation.Structural{},
			validation.ContentRubric{},
			validation.Quality{},
			validation.DefaultL3(),
			validation.DefaultL4(j.DryRun),
			validation.DefaultL5(""),
		},
	}

	sc := engine.Run(cmd.Context(), j, art)
	sink := scorecard.NewSink(validateOnlyReportDir)
	sink.Flush(sc)
	fmt.Println(scorecard.Render(sc))

	if !sc.OverallPassed {
		return newExitCodeError(ExitValidationFail, fmt.Errorf("job %q failed validation (verdict %s)", j.JobID, sc.Verdict))
	}
	return nil
}
