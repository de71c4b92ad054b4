package dispatch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCircuitBreakerOpens 连续失败达到阈值后熔断器打开
func TestCircuitBreakerOpens(t *testing.T) {
	cb := NewCircuitBreaker()
	boom := errors.New("connection refused")

	for i := 0; i < 3; i++ {
		err := cb.Call(func() error { return boom })
		assert.ErrorIs(t, err, boom)
	}

	// 打开后不再执行函数
	called := false
	err := cb.Call(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrBreakerOpen)
	assert.False(t, called)
}

func TestCircuitBreakerReset(t *testing.T) {
	cb := NewCircuitBreaker()
	boom := errors.New("connection refused")

	for i := 0; i < 3; i++ {
		_ = cb.Call(func() error { return boom })
	}
	require.ErrorIs(t, cb.Call(func() error { return nil }), ErrBreakerOpen)

	cb.Reset()
	assert.NoError(t, cb.Call(func() error { return nil }))
}

func TestCircuitBreakerStaysClosedOnSuccess(t *testing.T) {
	cb := NewCircuitBreaker()
	for i := 0; i < 10; i++ {
		require.NoError(t, cb.Call(func() error { return nil }))
	}
}
