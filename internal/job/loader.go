package job

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"docgen/pkg/logging"
)

// deprecatedRewrite renames a top-level field to a nested path, logging a
// warning, before the document is unmarshaled into Job. Grounded on
// spec.md §6: "Deprecated field names recognized and rewritten with a
// warning (e.g., rag_enabled -> rag.enabled)".
type deprecatedRewrite struct {
	oldField string
	newPath  []string
}

var deprecatedRewrites = []deprecatedRewrite{
	{oldField: "rag_enabled", newPath: []string{"rag", "enabled"}},
	{oldField: "auto_fix_colors", newPath: []string{"qa", "autoFixColors"}},
	{oldField: "visual_baseline", newPath: []string{"qa", "visualBaseline"}},
}

// knownTopLevelFields is used for the strict-mode unknown-field check.
var knownTopLevelFields = map[string]bool{
	"jobId": true, "mode": true, "jobType": true, "content": true,
	"export": true, "qa": true, "layers": true, "experiment": true,
	"dryRun": true,
}

// Load reads and parses a job config file from path. In strict mode,
// unrecognized top-level fields are a ConfigurationError; otherwise they
// are logged as warnings and ignored (spec.md §6).
func Load(path string, strict bool) (Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Job{}, fmt.Errorf("reading job config %s: %w", path, err)
	}
	return Parse(data, strict)
}

// Parse parses raw job-config JSON bytes. Exposed separately from Load so
// validate-only and tests can supply in-memory fixtures.
func Parse(data []byte, strict bool) (Job, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Job{}, fmt.Errorf("parsing job config: %w", err)
	}

	applyDeprecatedRewrites(raw)

	var unknown []string
	for k := range raw {
		if !knownTopLevelFields[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		if strict {
			var errs ConfigurationErrorCollection
			for _, f := range unknown {
				errs.Add(f, "unrecognized field (strict mode)")
			}
			return Job{}, errs
		}
		for _, f := range unknown {
			logging.Warn("JobLoader", "ignoring unrecognized field %q (use --strict to fail on this)", f)
		}
	}

	rewritten, err := json.Marshal(raw)
	if err != nil {
		return Job{}, fmt.Errorf("re-marshaling job config: %w", err)
	}

	var j Job
	dec := json.NewDecoder(bytes.NewReader(rewritten))
	if err := dec.Decode(&j); err != nil {
		return Job{}, fmt.Errorf("decoding job config: %w", err)
	}

	if errs := Validate(j); errs.HasErrors() {
		return Job{}, errs
	}

	return j, nil
}

func applyDeprecatedRewrites(raw map[string]any) {
	for _, rw := range deprecatedRewrites {
		val, ok := raw[rw.oldField]
		if !ok {
			continue
		}
		delete(raw, rw.oldField)
		logging.Warn("JobLoader", "field %q is deprecated, rewriting to %v", rw.oldField, rw.newPath)
		setNestedPath(raw, rw.newPath, val)
	}
}

func setNestedPath(raw map[string]any, path []string, val any) {
	cur := raw
	for i, segment := range path {
		if i == len(path)-1 {
			cur[segment] = val
			return
		}
		next, ok := cur[segment].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[segment] = next
		}
		cur = next
	}
}
