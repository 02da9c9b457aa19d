package router

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docgen/internal/artifact"
	"docgen/internal/job"
	"docgen/internal/worker"
)

type namedFakeWorker struct{ name string }

func (w namedFakeWorker) Name() string { return w.name }
func (w namedFakeWorker) Execute(ctx context.Context, j job.Job) (artifact.Artifact, error) {
	return artifact.Artifact{}, nil
}

func TestRouter_RoutesPrintToLayoutWorker(t *testing.T) {
	workers := map[string]worker.Worker{
		"layout-worker":  namedFakeWorker{name: "layout-worker"},
		"service-worker": namedFakeWorker{name: "service-worker"},
	}
	r := New(workers, "service-worker", DefaultRules()...)

	w, reason, err := r.Route(job.Job{Export: job.ExportConfig{Intent: job.IntentPrint}})
	require.NoError(t, err)
	assert.Equal(t, "layout-worker", w.Name())
	assert.Contains(t, reason, "print")
}

func TestRouter_DefaultsToServiceWorker(t *testing.T) {
	workers := map[string]worker.Worker{
		"layout-worker":  namedFakeWorker{name: "layout-worker"},
		"service-worker": namedFakeWorker{name: "service-worker"},
	}
	r := New(workers, "service-worker", DefaultRules()...)

	w, reason, err := r.Route(job.Job{Export: job.ExportConfig{Intent: job.IntentScreen}})
	require.NoError(t, err)
	assert.Equal(t, "service-worker", w.Name())
	assert.Equal(t, "default worker", reason)
}

func TestRouter_UnregisteredWorkerNameErrors(t *testing.T) {
	r := New(map[string]worker.Worker{}, "missing")
	_, _, err := r.Route(job.Job{})
	require.Error(t, err)
}
