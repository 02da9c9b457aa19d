package worker

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"docgen/internal/artifact"
	"docgen/internal/job"
	"docgen/internal/mcpclient"
	"docgen/pkg/logging"
)

// LayoutWorker drives an external layout application (e.g. an InDesign
// instance) through an mcpclient.Client. Only one job may hold the
// application at a time, enforced by the process-wide layoutAppMutex,
// since the application itself has no notion of concurrent documents.
type LayoutWorker struct {
	client     *mcpclient.Client
	outputDir  string
	lockWait   time.Duration
}

// NewLayoutWorker wraps an already-connected mcpclient.Client.
func NewLayoutWorker(client *mcpclient.Client, outputDir string, lockWait time.Duration) *LayoutWorker {
	if lockWait <= 0 {
		lockWait = 5 * time.Minute
	}
	return &LayoutWorker{client: client, outputDir: outputDir, lockWait: lockWait}
}

func (w *LayoutWorker) Name() string { return "layout-worker" }

// Execute runs the job's content through the layout application: it
// acquires the exclusive application lock, executes the layout script,
// places any supplied images, exports the PDF, and reads back document
// metadata for the Artifact.
func (w *LayoutWorker) Execute(ctx context.Context, j job.Job) (artifact.Artifact, error) {
	lockCtx, cancel := context.WithTimeout(ctx, w.lockWait)
	defer cancel()
	if err := layoutAppMutex.Lock(lockCtx); err != nil {
		return artifact.Artifact{}, fmt.Errorf("worker: could not acquire layout application lock: %w", err)
	}
	defer layoutAppMutex.Unlock()

	logging.Info("LayoutWorker", "acquired layout application lock for job %q", j.JobID)

	if script, ok := j.Content["layoutScript"].(string); ok && script != "" {
		args, _ := j.Content["layoutScriptArgs"].(map[string]any)
		if _, err := w.client.ExecuteScript(ctx, script, args); err != nil {
			return artifact.Artifact{}, fmt.Errorf("worker: layout script failed: %w", err)
		}
	}

	if images, ok := j.Content["images"].([]any); ok {
		for i, raw := range images {
			spec, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			page, _ := spec["page"].(float64)
			path, _ := spec["path"].(string)
			x, _ := spec["x"].(float64)
			y, _ := spec["y"].(float64)
			width, _ := spec["width"].(float64)
			height, _ := spec["height"].(float64)
			if path == "" {
				continue
			}
			if err := w.client.PlaceImage(ctx, int(page), path, x, y, width, height); err != nil {
				return artifact.Artifact{}, fmt.Errorf("worker: placing image %d failed: %w", i, err)
			}
		}
	}

	preset := j.Export.Preset
	if preset == "" {
		preset = string(j.Export.Intent)
	}
	outputPath := filepath.Join(w.outputDir, j.JobID+".pdf")

	result, err := w.client.ExportPDF(ctx, preset, outputPath)
	if err != nil {
		return artifact.Artifact{}, fmt.Errorf("worker: export failed: %w", err)
	}

	info, err := w.client.ReadDocumentInfo(ctx)
	if err != nil {
		logging.Warn("LayoutWorker", "could not read document info for job %q: %v", j.JobID, err)
	}

	pageCount := result.PageCount
	if pageCount == 0 {
		pageCount = info.PageCount
	}

	return artifact.Artifact{
		Path:       result.Path,
		PageCount:  pageCount,
		Intent:     j.Export.Intent,
		ProducedAt: time.Now(),
	}, nil
}
