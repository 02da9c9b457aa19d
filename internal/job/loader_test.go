package job

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validJobJSON() map[string]any {
	return map[string]any{
		"jobId":   "job-1",
		"mode":    "normal",
		"jobType": "partnership",
		"export":  map[string]any{"intent": "screen", "preset": "default"},
		"qa":      map[string]any{"threshold": 80},
	}
}

func TestParse_RoundTrip(t *testing.T) {
	raw, err := json.Marshal(validJobJSON())
	require.NoError(t, err)

	j, err := Parse(raw, true)
	require.NoError(t, err)
	assert.Equal(t, "job-1", j.JobID)
	assert.Equal(t, ModeNormal, j.Mode)
	assert.Equal(t, IntentScreen, j.Export.Intent)
	assert.Equal(t, 80.0, j.QA.Threshold)

	reserialized, err := json.Marshal(j)
	require.NoError(t, err)
	reparsed, err := Parse(reserialized, true)
	require.NoError(t, err)
	assert.Equal(t, j, reparsed)
}

func TestParse_DeprecatedFieldRewrite(t *testing.T) {
	m := validJobJSON()
	m["auto_fix_colors"] = true
	raw, err := json.Marshal(m)
	require.NoError(t, err)

	j, err := Parse(raw, false)
	require.NoError(t, err)
	assert.True(t, j.QA.AutoFixColors)
}

func TestParse_StrictRejectsUnknownField(t *testing.T) {
	m := validJobJSON()
	m["bogusField"] = "x"
	raw, err := json.Marshal(m)
	require.NoError(t, err)

	_, err = Parse(raw, true)
	require.Error(t, err)

	j, err := Parse(raw, false)
	require.NoError(t, err)
	assert.Equal(t, "job-1", j.JobID)
}

func TestParse_WorldClassRequiresPrintAndThreshold(t *testing.T) {
	m := validJobJSON()
	m["mode"] = "world_class"
	m["qa"] = map[string]any{"threshold": 80}
	raw, err := json.Marshal(m)
	require.NoError(t, err)

	_, err = Parse(raw, true)
	require.Error(t, err)

	m["export"] = map[string]any{"intent": "print", "preset": "default"}
	m["qa"] = map[string]any{"threshold": 145}
	raw, err = json.Marshal(m)
	require.NoError(t, err)

	j, err := Parse(raw, true)
	require.NoError(t, err)
	assert.Equal(t, ModeWorldClass, j.Mode)
}
