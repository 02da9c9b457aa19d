package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docgen/internal/artifact"
	"docgen/internal/job"
	"docgen/internal/router"
	"docgen/internal/scorecard"
	"docgen/internal/transport"
	"docgen/internal/validation"
	"docgen/internal/worker"
)

type stubWorker struct {
	name string
	art  artifact.Artifact
	err  error
}

func (w stubWorker) Name() string { return w.name }
func (w stubWorker) Execute(ctx context.Context, j job.Job) (artifact.Artifact, error) {
	return w.art, w.err
}

type passLayer struct{ id string }

func (l passLayer) ID() string        { return l.id }
func (l passLayer) MaxScore() float64 { return 1 }
func (l passLayer) Run(ctx context.Context, in validation.Input) scorecard.LayerResult {
	return scorecard.LayerResult{LayerID: l.id, Score: 1, MaxScore: 1, Weight: in.Config.Weight, Passed: true}
}

func TestPipeline_HappyPath(t *testing.T) {
	workers := map[string]worker.Worker{"service-worker": stubWorker{name: "service-worker", art: artifact.Artifact{Path: "out.pdf", PageCount: 2}}}
	r := router.New(workers, "service-worker")
	engine := validation.Engine{Layers: []validation.Layer{passLayer{id: "L0"}}}

	p := Pipeline{Router: r, Engine: engine}
	sc, exitCode := p.Run(context.Background(), job.Job{JobID: "happy", QA: job.QAConfig{Threshold: 0}})

	assert.Equal(t, ExitOK, exitCode)
	assert.True(t, sc.OverallPassed)
	assert.Empty(t, sc.ErrorCategory)
}

func TestPipeline_TransportFailureIsInfraError(t *testing.T) {
	wrapped := fmt.Errorf("worker: export failed: %w", transport.ErrDisconnected)
	workers := map[string]worker.Worker{"service-worker": stubWorker{name: "service-worker", err: wrapped}}
	r := router.New(workers, "service-worker")
	p := Pipeline{Router: r}

	sc, exitCode := p.Run(context.Background(), job.Job{JobID: "infra-fail"})
	assert.Equal(t, ExitInfraError, exitCode)
	assert.Equal(t, "transport", sc.ErrorCategory)
}

func TestPipeline_ApplicationErrorIsValidationFailureNotInfra(t *testing.T) {
	appErr := &transport.ApplicationError{ErrorKind: "ScriptError", Message: "undefined is not a function"}
	wrapped := fmt.Errorf("worker: layout script failed: %w", appErr)
	workers := map[string]worker.Worker{"service-worker": stubWorker{name: "service-worker", err: wrapped}}
	r := router.New(workers, "service-worker")
	p := Pipeline{Router: r}

	sc, exitCode := p.Run(context.Background(), job.Job{JobID: "script-fail"})
	assert.Equal(t, ExitValidationFail, exitCode)
	assert.Equal(t, "application", sc.ErrorCategory)
}

func TestPipeline_IOFailureIsInfraError(t *testing.T) {
	workers := map[string]worker.Worker{"service-worker": stubWorker{name: "service-worker", err: errors.New("disk full")}}
	r := router.New(workers, "service-worker")
	p := Pipeline{Router: r}

	sc, exitCode := p.Run(context.Background(), job.Job{JobID: "io-fail"})
	assert.Equal(t, ExitInfraError, exitCode)
	assert.Equal(t, "io", sc.ErrorCategory)
}

func TestPipeline_RoutingFailureIsInfraError(t *testing.T) {
	r := router.New(map[string]worker.Worker{}, "missing-worker")
	p := Pipeline{Router: r}

	sc, exitCode := p.Run(context.Background(), job.Job{JobID: "bad-route"})
	assert.Equal(t, ExitInfraError, exitCode)
	require.Equal(t, "configuration", sc.ErrorCategory)
}
