package event

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, msg string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("等待超时: %s", msg)
}

func TestPublishDelivers(t *testing.T) {
	bus, err := NewBus(4)
	if err != nil {
		t.Fatalf("NewBus() error = %v", err)
	}
	defer bus.Close()

	var mu sync.Mutex
	var got []interface{}
	bus.Subscribe(TopicPresence, func(payload interface{}) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, payload)
	})

	bus.Publish(TopicPresence, "a")
	bus.Publish(TopicPresence, "b")
	bus.Publish(TopicPresence, "c")

	waitFor(t, "all events delivered", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 3
	})
}

func TestPublishFansOutToAllSubscribers(t *testing.T) {
	bus, err := NewBus(4)
	if err != nil {
		t.Fatalf("NewBus() error = %v", err)
	}
	defer bus.Close()

	var first, second atomic.Int64
	bus.Subscribe(TopicMonetization, func(payload interface{}) { first.Add(1) })
	bus.Subscribe(TopicMonetization, func(payload interface{}) { second.Add(1) })

	bus.Publish(TopicMonetization, "tip")

	waitFor(t, "both subscribers handled the event", func() bool {
		return first.Load() == 1 && second.Load() == 1
	})
}

func TestPublishIsolatesTopics(t *testing.T) {
	bus, err := NewBus(4)
	if err != nil {
		t.Fatalf("NewBus() error = %v", err)
	}
	defer bus.Close()

	var presence atomic.Int64
	bus.Subscribe(TopicPresence, func(payload interface{}) { presence.Add(1) })

	// 无订阅者的主题与其它主题的事件互不干扰
	bus.Publish(TopicMonetization, "tip")
	bus.Publish(TopicPresence, "join")

	waitFor(t, "presence event delivered", func() bool { return presence.Load() == 1 })
	time.Sleep(20 * time.Millisecond)
	if presence.Load() != 1 {
		t.Errorf("presence handled = %d, want 1", presence.Load())
	}
}

// Close 等待在途事件处理完成后才返回。
func TestCloseWaitsForInflight(t *testing.T) {
	bus, err := NewBus(2)
	if err != nil {
		t.Fatalf("NewBus() error = %v", err)
	}

	var handled atomic.Bool
	bus.Subscribe(TopicPresence, func(payload interface{}) {
		time.Sleep(50 * time.Millisecond)
		handled.Store(true)
	})

	bus.Publish(TopicPresence, "join")
	bus.Close()

	if !handled.Load() {
		t.Error("Close() returned before in-flight handler finished")
	}
}
