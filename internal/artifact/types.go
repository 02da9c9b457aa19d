// Package artifact defines the Artifact produced by a Worker and consumed
// read-only by the validation engine.
package artifact

import (
	"time"

	"docgen/internal/job"
)

// Artifact is the output of a successful Worker.Execute call. Owned by the
// Worker that produced it; the validation engine holds only a read-only
// reference (the filesystem path).
type Artifact struct {
	Path       string
	PageCount  int
	Intent     job.Intent
	ProducedAt time.Time

	// PreviewImages holds paths to rasterized pages. Neither the workers
	// nor the validation layers fill it; L4 passes it to its vision
	// provider as given, and L3 rasterizes pages on its own.
	PreviewImages []string
}
