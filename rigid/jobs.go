package rigid

import "sync"

// JobSystem is a fixed-size worker pool the world schedules its step jobs
// onto. It lives for the life of the owning physics system, not per step.
type JobSystem struct {
	tasks   chan func()
	wg      sync.WaitGroup
	workers int
	once    sync.Once
}

// NewJobSystem starts a pool with the given worker count (minimum 1).
func NewJobSystem(workers int) *JobSystem {
	if workers < 1 {
		workers = 1
	}
	js := &JobSystem{
		tasks:   make(chan func(), workers*4),
		workers: workers,
	}
	for i := 0; i < workers; i++ {
		go func() {
			for task := range js.tasks {
				task()
				js.wg.Done()
			}
		}()
	}
	return js
}

// Workers returns the pool size.
func (js *JobSystem) Workers() int {
	if js == nil {
		return 0
	}
	return js.workers
}

// ParallelRange splits [0, n) into one chunk per worker and blocks until
// every chunk has been processed.
func (js *JobSystem) ParallelRange(n int, fn func(start, end int)) {
	if js == nil || n <= 0 || fn == nil {
		return
	}
	chunk := (n + js.workers - 1) / js.workers
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		s, e := start, end
		js.wg.Add(1)
		js.tasks <- func() { fn(s, e) }
	}
	js.wg.Wait()
}

// Shutdown stops the workers. The pool is unusable afterwards.
func (js *JobSystem) Shutdown() {
	if js == nil {
		return
	}
	js.once.Do(func() { close(js.tasks) })
}

// TempAllocator is a fixed-capacity bump arena reset once per step. The
// world uses it for transient pair buffers so stepping does not allocate.
type TempAllocator struct {
	buf []bodyPair
	off int
}

type bodyPair struct {
	a, b bodyIndex
}

// NewTempAllocator reserves scratch capacity for up to n body pairs.
func NewTempAllocator(n int) *TempAllocator {
	if n < 1 {
		n = 1
	}
	return &TempAllocator{buf: make([]bodyPair, n)}
}

func (ta *TempAllocator) reset() {
	ta.off = 0
}

// push appends a pair, reporting false when the arena is exhausted.
func (ta *TempAllocator) push(p bodyPair) bool {
	if ta.off >= len(ta.buf) {
		return false
	}
	ta.buf[ta.off] = p
	ta.off++
	return true
}

func (ta *TempAllocator) pairs() []bodyPair {
	return ta.buf[:ta.off]
}
