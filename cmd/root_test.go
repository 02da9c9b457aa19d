package cmd

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLogLevel(t *testing.T) {
	level, err := parseLogLevel("debug")
	assert.NoError(t, err)
	assert.Equal(t, 0, int(level))

	_, err = parseLogLevel("verbose")
	assert.Error(t, err)
}

func TestExitCodeError_UnwrapsAndReportsCode(t *testing.T) {
	inner := errors.New("validation failed")
	wrapped := newExitCodeError(ExitValidationFail, inner)

	var ec *exitCodeError
	assert.ErrorAs(t, wrapped, &ec)
	assert.Equal(t, ExitValidationFail, ec.code)
	assert.ErrorIs(t, wrapped, inner)
}

func TestNewExitCodeError_NilErrorIsNil(t *testing.T) {
	assert.Nil(t, newExitCodeError(ExitOK, nil))
}
