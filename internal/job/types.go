// Package job defines the immutable Job description that drives one
// pipeline run, and the loading/validation of that description from a
// job-config file.
package job

// Mode selects the overall pipeline behavior for a Job.
type Mode string

const (
	ModeNormal     Mode = "normal"
	ModeWorldClass Mode = "world_class"
	ModeExperiment Mode = "experiment"
)

// Intent is the export target: higher-DPI/CMYK print output, or
// lower-DPI/RGB screen output.
type Intent string

const (
	IntentPrint  Intent = "print"
	IntentScreen Intent = "screen"
)

// ExportConfig describes how the worker should produce the PDF.
type ExportConfig struct {
	Intent Intent `json:"intent"`
	Preset string `json:"preset"`
}

// QAConfig carries the validation-engine knobs that are per-job policy
// rather than global configuration.
type QAConfig struct {
	Threshold       float64 `json:"threshold"`
	AutoFixColors   bool    `json:"autoFixColors"`
	VisualBaseline  string  `json:"visualBaseline,omitempty"`
	FailFast        *bool   `json:"failFast,omitempty"` // nil => default true
	FailOnAiError   bool    `json:"failOnAiError,omitempty"`
}

// FailFastOrDefault returns the job's fail-fast policy, defaulting to true
// when unset (spec.md §4.4: "A job may disable fail-fast").
func (q QAConfig) FailFastOrDefault() bool {
	if q.FailFast == nil {
		return true
	}
	return *q.FailFast
}

// LayerConfig is the per-layer override a job may supply. Weight and
// MinScore of zero mean "use the authoritative scoring config's default"
// (see internal/scoringconfig) unless Enabled is explicitly false.
type LayerConfig struct {
	Enabled  *bool   `json:"enabled,omitempty"` // nil => enabled
	MinScore float64 `json:"minScore,omitempty"`
	Weight   float64 `json:"weight,omitempty"`
}

// EnabledOrDefault returns whether the layer is enabled, defaulting to true.
func (l LayerConfig) EnabledOrDefault() bool {
	if l.Enabled == nil {
		return true
	}
	return *l.Enabled
}

// ExperimentConfig configures experiment mode (spec.md §4.5).
type ExperimentConfig struct {
	VariantCount   int                    `json:"variantCount"`
	VariantConfigs []map[string]any       `json:"variantConfigs,omitempty"`
	Weights        map[string]float64     `json:"weights,omitempty"`
}

// Job is the immutable input to one pipeline run.
type Job struct {
	JobID   string         `json:"jobId"`
	Mode    Mode           `json:"mode"`
	JobType string         `json:"jobType"`
	Content map[string]any `json:"content"`

	Export ExportConfig `json:"export"`
	QA     QAConfig     `json:"qa"`

	// Layers maps layer name ("L0".."L5") to its per-job override.
	Layers map[string]LayerConfig `json:"layers,omitempty"`

	Experiment *ExperimentConfig `json:"experiment,omitempty"`

	// DryRun selects the synthetic L4 vision provider and makes the run
	// command skip connecting to the layout application; the service
	// worker still makes its HTTP call. Normally set via the --dry-run CLI flag
	// rather than the config file, but is a Job field so it flows through
	// experiment-variant overrides uniformly.
	DryRun bool `json:"dryRun,omitempty"`
}

// Clone returns a deep-enough copy of the Job for use as the base of an
// experiment variant: maps are copied one level deep so overrides never
// mutate the parent.
func (j Job) Clone() Job {
	clone := j
	if j.Content != nil {
		clone.Content = make(map[string]any, len(j.Content))
		for k, v := range j.Content {
			clone.Content[k] = v
		}
	}
	if j.Layers != nil {
		clone.Layers = make(map[string]LayerConfig, len(j.Layers))
		for k, v := range j.Layers {
			clone.Layers[k] = v
		}
	}
	clone.Experiment = nil
	return clone
}
