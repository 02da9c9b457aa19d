package worker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docgen/internal/job"
)

func TestServiceWorker_Execute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Page-Count", "3")
		w.Write([]byte(strings.Repeat("%PDF-1.7 fake content ", 100)))
	}))
	defer srv.Close()

	dir := t.TempDir()
	sw := NewServiceWorker(srv.URL, dir)

	j := job.Job{JobID: "svc-1", Export: job.ExportConfig{Intent: job.IntentScreen}}
	art, err := sw.Execute(context.Background(), j)
	require.NoError(t, err)
	assert.Equal(t, 3, art.PageCount)
	assert.Equal(t, filepath.Join(dir, "svc-1.pdf"), art.Path)

	info, err := os.Stat(art.Path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(MinAcceptablePDFBytes))
}

func TestServiceWorker_RejectsUndersizedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("tiny"))
	}))
	defer srv.Close()

	sw := NewServiceWorker(srv.URL, t.TempDir())
	_, err := sw.Execute(context.Background(), job.Job{JobID: "svc-2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "below the")
}

func TestServiceWorker_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad job payload", http.StatusBadRequest)
	}))
	defer srv.Close()

	sw := NewServiceWorker(srv.URL, t.TempDir())
	_, err := sw.Execute(context.Background(), job.Job{JobID: "svc-3"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}
