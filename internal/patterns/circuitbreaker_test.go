package patterns

import (
	"errors"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreaker_OpensAfterRepeatedFailures(t *testing.T) {
	cb := NewCircuitBreaker("test-open")
	boom := errors.New("provider down")

	for i := 0; i < 3; i++ {
		_, err := cb.Execute(func() (interface{}, error) { return nil, boom })
		require.ErrorIs(t, err, boom)
	}
	assert.Equal(t, gobreaker.StateOpen.String(), cb.GetState())

	called := false
	_, err := cb.Execute(func() (interface{}, error) {
		called = true
		return nil, nil
	})
	assert.False(t, called)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Contains(t, err.Error(), "test-open")
}

func TestCircuitBreaker_PassesResultsThrough(t *testing.T) {
	cb := NewCircuitBreaker("test-pass")
	out, err := cb.Execute(func() (interface{}, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, gobreaker.StateClosed.String(), cb.GetState())
}
