package validation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docgen/internal/artifact"
	"docgen/internal/job"
	"docgen/internal/scorecard"
)

type fakeLayer struct {
	id       string
	maxScore float64
	result   scorecard.LayerResult
	calls    *int
}

func (f fakeLayer) ID() string        { return f.id }
func (f fakeLayer) MaxScore() float64 { return f.maxScore }
func (f fakeLayer) Run(ctx context.Context, in Input) scorecard.LayerResult {
	if f.calls != nil {
		*f.calls++
	}
	r := f.result
	r.LayerID = f.id
	r.MaxScore = f.maxScore
	r.Weight = in.Config.Weight
	return r
}

func TestEngine_FailFastSkipsRemainingLayers(t *testing.T) {
	calls := map[string]*int{"L0": new(int), "L1": new(int), "L2": new(int)}
	engine := Engine{Layers: []Layer{
		fakeLayer{id: "L0", maxScore: 1, result: scorecard.LayerResult{Score: 1, Passed: true}, calls: calls["L0"]},
		fakeLayer{id: "L1", maxScore: 150, result: scorecard.LayerResult{Score: 0, Passed: false}, calls: calls["L1"]},
		fakeLayer{id: "L2", maxScore: 1, result: scorecard.LayerResult{Score: 1, Passed: true}, calls: calls["L2"]},
	}}

	j := job.Job{JobID: "j1", QA: job.QAConfig{Threshold: 100}}
	sc := engine.Run(context.Background(), j, artifact.Artifact{})

	assert.Equal(t, 1, *calls["L0"])
	assert.Equal(t, 1, *calls["L1"])
	assert.Equal(t, 0, *calls["L2"])

	l2, ok := sc.LayerByID("L2")
	require.True(t, ok)
	assert.True(t, l2.Skipped)
	assert.False(t, l2.Passed)
	assert.Zero(t, l2.Score)
	assert.False(t, sc.OverallPassed)
	assert.Equal(t, 1, sc.ExitCode)

	// L2 contributes zero, not its full weight, to the aggregate: only
	// L0 (perfect) and L1 (zero) count, each at 1/6 weight on the 150
	// scale -> 25.0, not ~125 from a full-weight skipped L2..L5.
	assert.InDelta(t, 25.0, sc.Overall, 0.01)
}

func TestEngine_DisabledLayerAlwaysPasses(t *testing.T) {
	enabled := false
	engine := Engine{Layers: []Layer{
		fakeLayer{id: "L3", maxScore: 100, result: scorecard.LayerResult{Score: 0, Passed: false}},
	}}
	j := job.Job{JobID: "j2", Layers: map[string]job.LayerConfig{"L3": {Enabled: &enabled, Weight: 0.2}}}

	sc := engine.Run(context.Background(), j, artifact.Artifact{})
	l3, ok := sc.LayerByID("L3")
	require.True(t, ok)
	assert.True(t, l3.Skipped)
	assert.True(t, l3.Passed)
}

func TestEngine_AutoFixRetryPreservesFirstAttempt(t *testing.T) {
	callCount := 0
	l1 := fakeLayerFunc{id: "L1", maxScore: 150, fn: func(in Input) scorecard.LayerResult {
		callCount++
		if callCount == 1 {
			return scorecard.LayerResult{Score: 75, MaxScore: 150, Passed: false, Weight: in.Config.Weight}
		}
		return scorecard.LayerResult{Score: 88, MaxScore: 150, Passed: true, Weight: in.Config.Weight}
	}}

	reexecuted := false
	engine := Engine{
		Layers: []Layer{l1},
		AutoFix: func(ctx context.Context, j job.Job) (artifact.Artifact, error) {
			reexecuted = true
			return artifact.Artifact{Path: "fixed.pdf"}, nil
		},
	}

	j := job.Job{JobID: "j3", QA: job.QAConfig{AutoFixColors: true, Threshold: 10}}
	sc := engine.Run(context.Background(), j, artifact.Artifact{Path: "orig.pdf"})

	assert.True(t, reexecuted)
	require.NotNil(t, sc.FirstAttemptScore)
	assert.Equal(t, 75.0, *sc.FirstAttemptScore)

	l1Result, ok := sc.LayerByID("L1")
	require.True(t, ok)
	assert.Equal(t, 88.0, l1Result.Score)
	assert.True(t, sc.OverallPassed)
}

type fakeLayerFunc struct {
	id       string
	maxScore float64
	fn       func(in Input) scorecard.LayerResult
}

func (f fakeLayerFunc) ID() string        { return f.id }
func (f fakeLayerFunc) MaxScore() float64 { return f.maxScore }
func (f fakeLayerFunc) Run(ctx context.Context, in Input) scorecard.LayerResult {
	return f.fn(in)
}
