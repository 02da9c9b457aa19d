package mcpclient

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"docgen/internal/transport"
)

func TestIsTransient(t *testing.T) {
	assert.True(t, isTransient(transport.ErrTimeout))
	assert.True(t, isTransient(transport.ErrDisconnected))
	assert.False(t, isTransient(transport.ErrClosed))
	assert.False(t, isTransient(transport.ErrRegistrationRejected))
	assert.True(t, isTransient(errors.New("dial tcp: connection refused")))
	assert.False(t, isTransient(errors.New("invalid preset name")))
}
