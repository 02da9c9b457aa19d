package scorecard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBand(t *testing.T) {
	assert.Equal(t, VerdictAPlus, Band(142.5, 150)) // 95%
	assert.Equal(t, VerdictA, Band(135, 150))       // 90%
	assert.Equal(t, VerdictB, Band(120, 150))       // 80%
	assert.Equal(t, VerdictC, Band(105, 150))       // 70%
	assert.Equal(t, VerdictF, Band(50, 150))
}

func TestHasCritical(t *testing.T) {
	assert.False(t, HasCritical([]Finding{{Severity: SeverityWarning}}))
	assert.True(t, HasCritical([]Finding{{Severity: SeverityWarning}, {Severity: SeverityCritical}}))
}

func TestNewSkipped_DisabledVsFailFast(t *testing.T) {
	disabled := NewSkipped("L3", 10, 0.2, true)
	assert.True(t, disabled.Passed)
	assert.True(t, disabled.Skipped)
	assert.Equal(t, disabled.MaxScore, disabled.Score)

	shortCircuited := NewSkipped("L3", 10, 0.2, false)
	assert.False(t, shortCircuited.Passed)
	assert.True(t, shortCircuited.Skipped)
	assert.Zero(t, shortCircuited.Score)
}
