package connectivity

import (
	"context"
	"sync"

	"asset-cache/internal/logging"
	"asset-cache/internal/metrics"
)

// PathObserver reports network path changes. Observe blocks until ctx is
// cancelled, calling update for every observed path.
type PathObserver interface {
	Observe(ctx context.Context, update func(Path)) error
}

// Sampler is implemented by observers that can report the current path
// synchronously. Monitor.Start uses it to seed the state before returning.
type Sampler interface {
	Sample() (Path, error)
}

// Monitor owns the connectivity state and fans changes out to subscribers.
type Monitor struct {
	observer PathObserver

	mu          sync.RWMutex
	state       State
	connectedCh chan struct{} // closed while connected
	subs        map[int]chan State
	nextSub     int

	cancel context.CancelFunc
	done   chan struct{}
}

// NewMonitor creates a monitor that starts disconnected. observer may be nil
// when the state is driven entirely through Update.
func NewMonitor(observer PathObserver) *Monitor {
	m := &Monitor{
		observer:    observer,
		state:       State{Type: TypeNone},
		connectedCh: make(chan struct{}),
		subs:        make(map[int]chan State),
	}
	recordState(m.state)
	return m
}

// Start seeds the state from the observer and keeps following it until Stop.
func (m *Monitor) Start(ctx context.Context) {
	if m.observer == nil {
		return
	}

	if p, ok := m.observer.(Sampler); ok {
		if path, err := p.Sample(); err != nil {
			logging.Warn("Connectivity: initial sample failed: %v", err)
		} else {
			m.Update(path)
		}
	}

	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	go func() {
		defer close(m.done)
		if err := m.observer.Observe(ctx, m.Update); err != nil && ctx.Err() == nil {
			logging.Error("Connectivity: path observer stopped: %v", err)
		}
	}()
}

// Stop ends observation and closes all subscription channels.
func (m *Monitor) Stop() {
	if m.cancel != nil {
		m.cancel()
		<-m.done
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, ch := range m.subs {
		close(ch)
		delete(m.subs, id)
	}
}

// Current returns the latest state.
func (m *Monitor) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Update recomputes the state from an observed path and notifies
// subscribers if it changed.
func (m *Monitor) Update(p Path) {
	next := StateFromPath(p)

	m.mu.Lock()
	prev := m.state
	if prev == next {
		m.mu.Unlock()
		return
	}
	m.state = next

	switch {
	case next.Connected && !prev.Connected:
		close(m.connectedCh)
	case !next.Connected && prev.Connected:
		m.connectedCh = make(chan struct{})
	}

	for _, ch := range m.subs {
		publish(ch, next)
	}
	m.mu.Unlock()

	recordState(next)
	metrics.ConnectivityTransitionsTotal.Inc()
	logging.Info("Connectivity changed: connected=%v type=%s expensive=%v (was connected=%v type=%s)",
		next.Connected, next.Type, next.Expensive, prev.Connected, prev.Type)
}

// Subscribe returns a channel that receives every subsequent state change.
// Slow readers only see the most recent state. The returned func cancels the
// subscription and closes the channel.
func (m *Monitor) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch
	m.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if _, ok := m.subs[id]; ok {
				close(ch)
				delete(m.subs, id)
			}
		})
	}
}

// WaitForConnected blocks until the state is connected or ctx is done.
func (m *Monitor) WaitForConnected(ctx context.Context) error {
	m.mu.RLock()
	ch := m.connectedCh
	m.mu.RUnlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// publish replaces any unread state in ch with s.
func publish(ch chan State, s State) {
	select {
	case ch <- s:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- s:
	default:
	}
}

func recordState(s State) {
	if s.Connected {
		metrics.ConnectivityConnected.Set(1)
	} else {
		metrics.ConnectivityConnected.Set(0)
	}
	for _, t := range allTypes {
		v := 0.0
		if t == s.Type {
			v = 1
		}
		metrics.ConnectivityType.WithLabelValues(t.String()).Set(v)
	}
}
