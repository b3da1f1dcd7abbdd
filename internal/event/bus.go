package event

import (
	"fmt"
	"sync"

	"github.com/blues/livepay/internal/logger"
	"github.com/panjf2000/ants/v2"
)

// Topic 事件主题
type Topic string

const (
	// TopicPresence 实时传输层的成员事件
	TopicPresence Topic = "presence"
	// TopicMonetization 货币化触发事件（打赏、购买）
	TopicMonetization Topic = "monetization"
)

// Handler 事件处理函数。投递语义为至少一次，幂等由消费方保证。
type Handler func(payload interface{})

// Bus 进程内命名主题事件总线，经协程池并发分发
type Bus struct {
	mu   sync.RWMutex
	subs map[Topic][]Handler
	pool *ants.Pool
	wg   sync.WaitGroup
}

// NewBus 创建事件总线
func NewBus(poolSize int) (*Bus, error) {
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create dispatch pool: %w", err)
	}

	return &Bus{
		subs: make(map[Topic][]Handler),
		pool: pool,
	}, nil
}

// Subscribe 订阅主题
func (b *Bus) Subscribe(topic Topic, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[topic] = append(b.subs[topic], h)
}

// Publish 发布事件，每个订阅者在协程池中独立执行。
// 提交失败时回退为同步执行，保证投递不丢。
func (b *Bus) Publish(topic Topic, payload interface{}) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.subs[topic]))
	copy(handlers, b.subs[topic])
	b.mu.RUnlock()

	for _, h := range handlers {
		h := h
		b.wg.Add(1)
		err := b.pool.Submit(func() {
			defer b.wg.Done()
			h(payload)
		})
		if err != nil {
			logger.Warn("Dispatch pool rejected task on topic %s, running inline: %v", topic, err)
			h(payload)
			b.wg.Done()
		}
	}
}

// Close 等待在途事件处理完成并释放协程池
func (b *Bus) Close() {
	b.wg.Wait()
	b.pool.Release()
}
