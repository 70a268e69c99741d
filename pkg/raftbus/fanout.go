package raftbus

import "sync"

// fanout distributes values to observers without ever blocking the
// producer; every observer sees every value in order through its own
// unbounded buffer.
type fanout[T any] struct {
	mu      sync.Mutex
	next    int
	sinks   map[int]*fanoutSink[T]
	current T
	primed  bool
}

type fanoutSink[T any] struct {
	mu     sync.Mutex
	buf    []T
	wake   chan struct{}
	done   chan struct{}
	once   sync.Once
	parent *fanout[T]
	key    int
}

func newFanout[T any]() *fanout[T] {
	return &fanout[T]{sinks: make(map[int]*fanoutSink[T])}
}

// publish records the value as current and hands it to every observer.
func (f *fanout[T]) publish(v T) {
	f.mu.Lock()
	f.current = v
	f.primed = true
	sinks := make([]*fanoutSink[T], 0, len(f.sinks))
	for _, s := range f.sinks {
		sinks = append(sinks, s)
	}
	f.mu.Unlock()
	for _, s := range sinks {
		s.put(v)
	}
}

// observe returns the last published value (if any), a stream of
// subsequent values, and a cancel.
func (f *fanout[T]) observe() (T, bool, <-chan T, func()) {
	f.mu.Lock()
	s := &fanoutSink[T]{
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		parent: f,
		key:    f.next,
	}
	f.sinks[f.next] = s
	f.next++
	current, primed := f.current, f.primed
	f.mu.Unlock()

	out := make(chan T)
	go s.pump(out)
	return current, primed, out, s.close
}

// closeAll ends every observer stream.
func (f *fanout[T]) closeAll() {
	f.mu.Lock()
	sinks := make([]*fanoutSink[T], 0, len(f.sinks))
	for _, s := range f.sinks {
		sinks = append(sinks, s)
	}
	f.mu.Unlock()
	for _, s := range sinks {
		s.close()
	}
}

func (s *fanoutSink[T]) put(v T) {
	s.mu.Lock()
	s.buf = append(s.buf, v)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *fanoutSink[T]) pump(out chan<- T) {
	defer close(out)
	for {
		s.mu.Lock()
		if len(s.buf) > 0 {
			v := s.buf[0]
			s.buf = s.buf[1:]
			s.mu.Unlock()
			select {
			case out <- v:
				continue
			case <-s.done:
				return
			}
		}
		s.mu.Unlock()
		select {
		case <-s.wake:
		case <-s.done:
			return
		}
	}
}

func (s *fanoutSink[T]) close() {
	s.once.Do(func() {
		s.parent.mu.Lock()
		delete(s.parent.sinks, s.key)
		s.parent.mu.Unlock()
		close(s.done)
	})
}
