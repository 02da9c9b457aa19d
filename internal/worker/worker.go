// Package worker implements the two Job executors described in spec.md
// §4.2: a layout-worker that drives a single external layout application
// over internal/mcpclient, and a service-worker that calls a stateless
// HTTPS rendering service.
package worker

import (
	"context"

	"docgen/internal/artifact"
	"docgen/internal/job"
)

// Worker produces an Artifact from a Job, or an error if production
// failed outright (as opposed to a validation failure, which is reported
// by the Scorecard, not an error).
type Worker interface {
	Name() string
	Execute(ctx context.Context, j job.Job) (artifact.Artifact, error)
}
