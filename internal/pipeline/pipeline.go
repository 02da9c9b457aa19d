// Package pipeline is the top-level orchestration: Job -> Router -> Worker
// -> Artifact -> Validation Engine -> Scorecard -> exit code. It is the
// single place cmd/ needs to call into (spec.md §3 data-flow diagram).
package pipeline

import (
	"context"
	"errors"
	"time"

	"docgen/internal/artifact"
	"docgen/internal/job"
	"docgen/internal/router"
	"docgen/internal/scorecard"
	"docgen/internal/transport"
	"docgen/internal/validation"
	"docgen/internal/worker"
	"docgen/pkg/logging"
)

// Exit codes (spec.md §7).
const (
	ExitOK             = 0
	ExitValidationFail = 1
	ExitInfraError     = 3
)

// Pipeline wires a Router and a validation Engine together.
type Pipeline struct {
	Router router.Router
	Engine validation.Engine
}

// Run executes one job end to end, always returning a Scorecard (even for
// infra failures, per spec.md §7: "a machine-readable scorecard written to
// disk even on failure") alongside the process exit code to use.
func (p Pipeline) Run(ctx context.Context, j job.Job) (scorecard.Scorecard, int) {
	start := time.Now()

	if j.DryRun {
		logging.Info("Pipeline", "dry-run: job %q uses the synthetic vision provider; the selected worker still runs", j.JobID)
	}

	w, reason, err := p.Router.Route(j)
	if err != nil {
		return failureScorecard(j, "configuration", err, ExitInfraError, start), ExitInfraError
	}
	logging.Info("Pipeline", "job %q routed to %q: %s", j.JobID, w.Name(), reason)

	// A worker only returns an error when it could not hand back a usable
	// artifact at all; validation failures are always expressed through
	// the Scorecard, never as an error. But §7 still splits that failure
	// two ways: a Script/Application rejection from the remote host
	// (ScriptError, NoDocument, PresetUnknown, FrameNotFound) means the
	// job itself was bad, a production failure (exit 1); transport,
	// configuration, and IO failures are retryable infrastructure faults
	// (exit 3).
	art, err := w.Execute(ctx, j)
	if err == nil {
		err = RequireArtifactPath(art)
	}
	if err != nil {
		category, exitCode := classifyWorkerErr(err)
		return failureScorecard(j, category, err, exitCode, start), exitCode
	}

	sc := p.Engine.Run(ctx, j, art)
	sc.DurationMs = time.Since(start).Milliseconds()
	return sc, sc.ExitCode
}

// classifyWorkerErr maps a worker error onto the §7 error taxonomy by
// inspecting the wrapped error chain, not the pipeline stage that
// observed it.
func classifyWorkerErr(err error) (category string, exitCode int) {
	var appErr *transport.ApplicationError
	if errors.As(err, &appErr) {
		return "application", ExitValidationFail
	}

	if errors.Is(err, transport.ErrTransportUnavailable) ||
		errors.Is(err, transport.ErrRegistrationRejected) ||
		errors.Is(err, transport.ErrDisconnected) ||
		errors.Is(err, transport.ErrTimeout) ||
		errors.Is(err, transport.ErrClosed) {
		return "transport", ExitInfraError
	}

	var cfgErr job.ConfigurationError
	var cfgColl job.ConfigurationErrorCollection
	if errors.As(err, &cfgErr) || errors.As(err, &cfgColl) {
		return "configuration", ExitInfraError
	}

	return "io", ExitInfraError
}

func failureScorecard(j job.Job, category string, err error, exitCode int, start time.Time) scorecard.Scorecard {
	logging.Error("Pipeline", err, "job %q failed (%s)", j.JobID, category)
	return scorecard.Scorecard{
		JobID:         j.JobID,
		ErrorCategory: category,
		Message:       err.Error(),
		ExitCode:      exitCode,
		DurationMs:    time.Since(start).Milliseconds(),
		GeneratedAt:   time.Now(),
	}
}

// NewWorkers builds the name-keyed worker map a Router is built over,
// given a connected layout worker (may be nil if unavailable, in which
// case it is left out of the map) and a service worker.
func NewWorkers(layout worker.Worker, service worker.Worker) map[string]worker.Worker {
	workers := map[string]worker.Worker{
		"service-worker": service,
	}
	if layout != nil {
		workers["layout-worker"] = layout
	}
	return workers
}

// RequireArtifactPath is a defensive check used before validation starts:
// a worker that returns a zero-value Artifact without erroring is a
// worker bug, not a validation failure, and should surface as infra.
func RequireArtifactPath(art artifact.Artifact) error {
	if art.Path == "" {
		return errors.New("worker returned an artifact with no output path")
	}
	return nil
}
