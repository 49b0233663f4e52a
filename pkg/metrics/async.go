package metrics

import (
	"sync"
	"sync/atomic"
)

// AsyncObserver decouples event recording from the turn path: events go
// through a bounded channel and overflow is dropped, never blocking a
// reply. Safe for concurrent use, including records racing Close.
type AsyncObserver struct {
	inner   Observer
	ch      chan Event
	dropped int64

	mu     sync.RWMutex
	closed bool
	once   sync.Once
}

func NewAsyncObserver(inner Observer, buffer int) *AsyncObserver {
	if buffer <= 0 {
		buffer = 256
	}
	a := &AsyncObserver{
		inner: inner,
		ch:    make(chan Event, buffer),
	}
	go a.loop()
	return a
}

// RecordEvent enqueues without blocking; events after Close and overflow
// are dropped. The closed check and the send share the read lock so a
// concurrent Close can never close the channel mid-send.
func (a *AsyncObserver) RecordEvent(ev Event) {
	if a == nil {
		return
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return
	}
	select {
	case a.ch <- ev:
	default:
		atomic.AddInt64(&a.dropped, 1)
	}
}

// Dropped returns how many events were discarded due to backpressure.
func (a *AsyncObserver) Dropped() int64 {
	return atomic.LoadInt64(&a.dropped)
}

func (a *AsyncObserver) Close() {
	if a == nil {
		return
	}
	a.once.Do(func() {
		a.mu.Lock()
		a.closed = true
		close(a.ch)
		a.mu.Unlock()
	})
}

func (a *AsyncObserver) loop() {
	for ev := range a.ch {
		a.inner.RecordEvent(ev)
	}
}
