package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// TestBusObservers 无redis时事件同步送达进程内观察者
func TestBusObservers(t *testing.T) {
	bus := NewBus(nil, "orchestrator-test", zap.NewNop())

	var got []Event
	bus.Subscribe(func(ev Event) { got = append(got, ev) })
	bus.Subscribe(func(ev Event) { got = append(got, ev) })

	bus.Emit(Event{
		Type:        TypeExecutionQueued,
		ExecutionID: 42,
	})

	require.Len(t, got, 2)
	assert.Equal(t, TypeExecutionQueued, got[0].Type)
	assert.Equal(t, uint64(42), got[0].ExecutionID)
	assert.Equal(t, "orchestrator-test", got[0].Source)
	assert.NotZero(t, got[0].Timestamp)
}

func TestBusNoObservers(t *testing.T) {
	bus := NewBus(nil, "orchestrator-test", zap.NewNop())
	// 没有观察者也不应panic
	bus.Emit(Event{Type: TypeRunnerHealthChange, RunnerID: 1})
}
