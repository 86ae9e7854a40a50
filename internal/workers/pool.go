package workers

import (
	"container/list"
	"sync"
)

// Pool runs submitted jobs on a fixed number of goroutines. Jobs queued as
// high priority are always dequeued before low priority ones.
type Pool struct {
	mu     sync.Mutex
	cond   *sync.Cond
	high   *list.List
	low    *list.List
	closed bool
	wg     sync.WaitGroup
}

// Handle refers to a submitted job.
type Handle struct {
	pool *Pool
	elem *list.Element
	high bool
}

type job struct {
	run    func()
	handle *Handle
}

// NewPool starts a pool with size workers. size below 1 is treated as 1.
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	p := &Pool{high: list.New(), low: list.New()}
	p.cond = sync.NewCond(&p.mu)

	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.worker()
	}
	return p
}

// Submit queues fn. It returns nil if the pool has been closed.
func (p *Pool) Submit(fn func(), high bool) *Handle {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	h := &Handle{pool: p, high: high}
	j := &job{run: fn, handle: h}
	if high {
		h.elem = p.high.PushBack(j)
	} else {
		h.elem = p.low.PushBack(j)
	}
	p.cond.Signal()
	return h
}

// Promote moves a still-queued low priority job to the high priority queue.
// It reports whether the job was moved; jobs already running, finished or
// already high priority are left alone.
func (h *Handle) Promote() bool {
	if h == nil {
		return false
	}
	p := h.pool
	p.mu.Lock()
	defer p.mu.Unlock()

	if h.high || h.elem == nil {
		return false
	}
	j := p.low.Remove(h.elem).(*job)
	h.elem = p.high.PushBack(j)
	h.high = true
	return true
}

// Remove takes a still-queued job out of the pool so it never runs. It
// reports whether the job was removed; jobs already running or finished are
// left alone.
func (h *Handle) Remove() bool {
	if h == nil {
		return false
	}
	p := h.pool
	p.mu.Lock()
	defer p.mu.Unlock()

	if h.elem == nil {
		return false
	}
	if h.high {
		p.high.Remove(h.elem)
	} else {
		p.low.Remove(h.elem)
	}
	h.elem = nil
	return true
}

// Queued returns the number of jobs waiting for a worker.
func (p *Pool) Queued() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.high.Len() + p.low.Len()
}

// Close stops accepting jobs, lets the workers drain the queue and waits for them.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Pool) next() *job {
	p.mu.Lock()
	defer p.mu.Unlock()

	for {
		queue := p.high
		if queue.Len() == 0 {
			queue = p.low
		}
		if front := queue.Front(); front != nil {
			j := queue.Remove(front).(*job)
			j.handle.elem = nil
			return j
		}
		if p.closed {
			return nil
		}
		p.cond.Wait()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		j := p.next()
		if j == nil {
			return
		}
		j.run()
	}
}
