package dispatch

import (
	"errors"
	"sync"
	"time"
)

// ErrBreakerOpen 熔断器处于打开状态，调用被直接拒绝
var ErrBreakerOpen = errors.New("circuit breaker is open")

type breakerState int

const (
	stateClosed breakerState = iota
	stateOpen
	stateHalfOpen
)

const (
	// 连续失败达到该次数后打开熔断
	breakerFailureThreshold = 3
	// 打开后经过该时长转入half-open试探
	breakerResetTimeout = 60 * time.Second
	// half-open下连续成功该次数后恢复closed
	breakerRecoverySuccesses = 2
)

// CircuitBreaker 按执行机维度熔断派发调用，
// 避免反复向已失联的执行机发请求
type CircuitBreaker struct {
	mu          sync.Mutex
	state       breakerState
	failures    int
	successes   int
	lastFailure time.Time
}

func NewCircuitBreaker() *CircuitBreaker {
	return &CircuitBreaker{state: stateClosed}
}

// Call 经熔断器执行fn。open状态下直接返回ErrBreakerOpen，
// 超过静默期后放行一次试探
func (cb *CircuitBreaker) Call(fn func() error) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == stateOpen {
		if time.Since(cb.lastFailure) <= breakerResetTimeout {
			return ErrBreakerOpen
		}
		cb.transition(stateHalfOpen)
	}

	if err := fn(); err != nil {
		cb.onFailure()
		return err
	}
	cb.onSuccess()
	return nil
}

// Reset 执行机恢复健康时强制回到closed
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.transition(stateClosed)
}

func (cb *CircuitBreaker) onFailure() {
	cb.failures++
	cb.lastFailure = time.Now()
	if cb.state == stateHalfOpen || cb.failures >= breakerFailureThreshold {
		// half-open下试探失败立即回到open
		cb.state = stateOpen
	}
}

func (cb *CircuitBreaker) onSuccess() {
	if cb.state != stateHalfOpen {
		return
	}
	cb.successes++
	if cb.successes >= breakerRecoverySuccesses {
		cb.transition(stateClosed)
	}
}

// transition 切换状态并清零计数
func (cb *CircuitBreaker) transition(next breakerState) {
	cb.state = next
	cb.failures = 0
	cb.successes = 0
}
