package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	redis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Bus publishes events via Redis pub/sub.
// It keeps a fallback to in-process observers if Redis is disabled.
var _ Emitter = (*Bus)(nil)

type Bus struct {
	rdb    *redis.Client
	source string
	logger *zap.Logger

	mu        sync.RWMutex
	observers []func(Event)
}

// NewBus constructs an event bus with an injected Redis client.
// If rdb is nil, events are delivered to in-process observers only.
func NewBus(rdb *redis.Client, source string, logger *zap.Logger) *Bus {
	return &Bus{rdb: rdb, source: source, logger: logger}
}

// Subscribe registers an in-process observer. Observers run synchronously
// on the emitting goroutine and must not block.
func (b *Bus) Subscribe(fn func(Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observers = append(b.observers, fn)
}

func (b *Bus) Emit(ev Event) {
	ev.Source = b.source
	ev.Timestamp = time.Now().UnixMilli()

	b.mu.RLock()
	observers := b.observers
	b.mu.RUnlock()
	for _, fn := range observers {
		fn(ev)
	}

	if b.rdb == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		b.logger.Error("failed to marshal event", zap.Error(err))
		return
	}
	if err := b.rdb.Publish(context.Background(), redisChannel, payload).Err(); err != nil {
		b.logger.Warn("failed to publish event to redis",
			zap.String("type", string(ev.Type)),
			zap.Error(err))
	}
}
