package loadbalance

import (
	"sync"
)

// CustomRegistry 具名自定义策略注册表
// 规则config中的strategy字段按名称引用这里注册的策略
type CustomRegistry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
}

func NewCustomRegistry() *CustomRegistry {
	return &CustomRegistry{
		strategies: make(map[string]Strategy),
	}
}

// Register 注册自定义策略，同名覆盖
func (r *CustomRegistry) Register(name string, s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[name] = s
}

// Get 按名称查找策略
func (r *CustomRegistry) Get(name string) (Strategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[name]
	return s, ok
}
