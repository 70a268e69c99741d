package bus

import "sync"

// mailbox is an unbounded in-order handoff between the MQTT router
// goroutine and a subscription's pump goroutine. The router side never
// blocks; the pump side blocks until an item arrives or the mailbox
// closes.
type mailbox[T any] struct {
	mu    sync.Mutex
	items []T
	wake  chan struct{}
	done  chan struct{}
	once  sync.Once
}

func newMailbox[T any]() *mailbox[T] {
	return &mailbox[T]{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

func (m *mailbox[T]) put(v T) {
	m.mu.Lock()
	m.items = append(m.items, v)
	m.mu.Unlock()
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// take blocks until an item is available or the mailbox is closed.
func (m *mailbox[T]) take() (T, bool) {
	for {
		m.mu.Lock()
		if len(m.items) > 0 {
			v := m.items[0]
			m.items = m.items[1:]
			m.mu.Unlock()
			return v, true
		}
		m.mu.Unlock()

		select {
		case <-m.wake:
		case <-m.done:
			var zero T
			return zero, false
		}
	}
}

func (m *mailbox[T]) close() {
	m.once.Do(func() { close(m.done) })
}

func (m *mailbox[T]) closed() <-chan struct{} { return m.done }
