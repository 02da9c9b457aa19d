package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"docgen/internal/artifact"
	"docgen/internal/job"
	"docgen/internal/mcpclient"
	"docgen/internal/pipeline"
	"docgen/internal/router"
	"docgen/internal/scorecard"
	"docgen/internal/scoringconfig"
	"docgen/internal/transport"
	"docgen/internal/validation"
	"docgen/internal/worker"
	"docgen/pkg/logging"
)

var (
	runJobPath        string
	runThreshold      float64
	runStrict         bool
	runCI             bool
	runDryRun         bool
	runReportDir      string
	runScoringConfig  string
	runProxyURL       string
	runApplication    string
	runServiceURL     string
	runOutputDir      string
)

func newRunCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "run",
		Short: "Run a job through the full pipeline (route, render, validate)",
		Args:  cobra.NoArgs,
		RunE:  runRunCmd,
	}
	addJobFlags(c)
	return c
}

func addJobFlags(c *cobra.Command) {
	c.Flags().StringVar(&runJobPath, "job", "", "path to the job-config file (required)")
	c.Flags().Float64Var(&runThreshold, "threshold", 0, "override the job's qa.threshold gate")
	c.Flags().BoolVar(&runStrict, "strict", false, "reject job-config files with unrecognized fields")
	c.Flags().BoolVar(&runCI, "ci", false, "CI mode: no interactive output, exit code is authoritative")
	c.Flags().BoolVar(&runDryRun, "dry-run", false, "use the synthetic vision provider and do not connect to the layout application")
	c.Flags().StringVar(&runReportDir, "report-dir", "./reports", "directory to write scorecard reports to")
	c.Flags().StringVar(&runScoringConfig, "scoring-config", "", "path to a scoring-config YAML file (optional)")
	c.Flags().StringVar(&runProxyURL, "proxy-url", "ws://localhost:8088/ws", "MCP proxy WebSocket URL for the layout-worker")
	c.Flags().StringVar(&runApplication, "application", "indesign", "layout application name to register as")
	c.Flags().StringVar(&runServiceURL, "service-url", "http://localhost:8089", "base URL of the HTTPS rendering service")
	c.Flags().StringVar(&runOutputDir, "output-dir", "./output", "directory worker output PDFs are written to")
	_ = c.MarkFlagRequired("job")
}

func runRunCmd(cmd *cobra.Command, args []string) error {
	j, err := loadJob(runJobPath, runStrict, runThreshold, runDryRun)
	if err != nil {
		return newExitCodeError(ExitInfraError, err)
	}

	p, err := buildPipeline(cmd.Context(), j)
	if err != nil {
		return newExitCodeError(ExitInfraError, err)
	}

	sc, exitCode := p.Run(cmd.Context(), j)
	sink := scorecard.NewSink(runReportDir)
	sink.Flush(sc)

	if !runCI {
		fmt.Println(scorecard.Render(sc))
	}

	if exitCode != ExitOK {
		return newExitCodeError(exitCode, fmt.Errorf("job %q finished with verdict %s (exit %d)", j.JobID, sc.Verdict, exitCode))
	}
	return nil
}

func loadJob(path string, strict bool, thresholdOverride float64, dryRun bool) (job.Job, error) {
	j, err := job.Load(path, strict)
	if err != nil {
		return job.Job{}, err
	}
	if thresholdOverride > 0 {
		j.QA.Threshold = thresholdOverride
	}
	if dryRun {
		j.DryRun = true
	}
	return j, nil
}

// buildPipeline assembles a Pipeline wired to real workers and validation
// layers for the current process. The layout-worker connection is
// attempted but its absence is not fatal: jobs that route to the
// service-worker can still run.
func buildPipeline(ctx context.Context, j job.Job) (pipeline.Pipeline, error) {
	cfg := scoringconfig.Default()
	if runScoringConfig != "" {
		loaded, err := scoringconfig.Load(runScoringConfig)
		if err != nil {
			return pipeline.Pipeline{}, err
		}
		cfg = loaded
	}
	j.Layers = cfg.ApplyTo(j.Layers)

	serviceWorker := worker.NewServiceWorker(runServiceURL, runOutputDir)

	var layoutWorker worker.Worker
	if !j.DryRun {
		connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		session, err := transport.Connect(connectCtx, runProxyURL, runApplication)
		if err != nil {
			logging.Warn("Pipeline", "layout application unavailable, jobs requiring it will fail to route: %v", err)
		} else {
			client := mcpclient.New(session, runApplication, 0)
			layoutWorker = worker.NewLayoutWorker(client, runOutputDir, 0)
		}
	}

	workers := pipeline.NewWorkers(layoutWorker, serviceWorker)
	r := router.New(workers, "service-worker", router.DefaultRules()...)

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
	if w, _, err := r.Route(j); err == nil && w.Name() == "layout-worker" {
		engine.AutoFix = autoFixReexecutor(workers)
	}

	return pipeline.Pipeline{Router: r, Engine: engine}, nil
}

// autoFixReexecutor builds the closure the validation engine uses to
// re-invoke the layout-worker with a color-correction override after an
// L1 failure (spec.md §4.4 step 3). Only the layout-worker supports this;
// jobs produced by the service-worker are never retried this way.
func autoFixReexecutor(workers map[string]worker.Worker) validation.AutoFixReexecutor {
	layoutWorker, ok := workers["layout-worker"]
	if !ok {
		return nil
	}
	return func(ctx context.Context, j job.Job) (artifact.Artifact, error) {
		fixJob := j.Clone()
		if fixJob.Content == nil {
			fixJob.Content = make(map[string]any, 1)
		}
		fixJob.Content["colorFix"] = true
		return layoutWorker.Execute(ctx, fixJob)
	}
}
