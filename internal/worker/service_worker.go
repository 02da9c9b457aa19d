package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"docgen/internal/artifact"
	"docgen/internal/job"
)

// MinAcceptablePDFBytes rejects service responses too small to be a real
// rendered document, catching truncated downloads and error pages served
// with a 200 status (spec.md §4.2 edge case).
const MinAcceptablePDFBytes = 1024

// ServiceWorker renders a Job through a stateless HTTPS rendering
// service instead of a stateful desktop application. Unlike LayoutWorker
// it takes no process-wide lock: the remote service is responsible for
// its own concurrency.
type ServiceWorker struct {
	BaseURL    string
	HTTPClient *http.Client
	OutputDir  string
}

// NewServiceWorker builds a ServiceWorker against baseURL, defaulting to a
// 120-second HTTP client timeout.
func NewServiceWorker(baseURL, outputDir string) *ServiceWorker {
	return &ServiceWorker{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 120 * time.Second},
		OutputDir:  outputDir,
	}
}

func (w *ServiceWorker) Name() string { return "service-worker" }

type renderRequest struct {
	JobType string         `json:"jobType"`
	Content map[string]any `json:"content"`
	Export  job.ExportConfig `json:"export"`
}

// Execute POSTs the job to the rendering service and streams the response
// body straight to disk, never buffering the whole PDF in memory.
func (w *ServiceWorker) Execute(ctx context.Context, j job.Job) (artifact.Artifact, error) {
	body, err := json.Marshal(renderRequest{JobType: j.JobType, Content: j.Content, Export: j.Export})
	if err != nil {
		return artifact.Artifact{}, fmt.Errorf("worker: could not encode render request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.BaseURL+"/render", bytes.NewReader(body))
	if err != nil {
		return artifact.Artifact{}, fmt.Errorf("worker: could not build render request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.HTTPClient.Do(req)
	if err != nil {
		return artifact.Artifact{}, fmt.Errorf("worker: render request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return artifact.Artifact{}, fmt.Errorf("worker: render service returned status %d: %s", resp.StatusCode, string(msg))
	}

	outputPath := filepath.Join(w.OutputDir, j.JobID+".pdf")
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return artifact.Artifact{}, fmt.Errorf("worker: could not create output directory: %w", err)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return artifact.Artifact{}, fmt.Errorf("worker: could not create output file: %w", err)
	}
	defer out.Close()

	written, err := io.Copy(out, resp.Body)
	if err != nil {
		return artifact.Artifact{}, fmt.Errorf("worker: streaming render response failed: %w", err)
	}
	if written < MinAcceptablePDFBytes {
		return artifact.Artifact{}, fmt.Errorf("worker: rendered output is only %d bytes, below the %d-byte minimum", written, MinAcceptablePDFBytes)
	}

	pageCount := 0
	if hdr := resp.Header.Get("X-Page-Count"); hdr != "" {
		fmt.Sscanf(hdr, "%d", &pageCount)
	}

	return artifact.Artifact{
		Path:       outputPath,
		PageCount:  pageCount,
		Intent:     j.Export.Intent,
		ProducedAt: time.Now(),
	}, nil
}
