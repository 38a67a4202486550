package jobs

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/emberforge/ember/engine/core"
)

// Handle identifies one pushed task for the rest of its life.
type Handle = uuid.UUID

// Task is the unit of background work. The context is cancelled when the
// task's handle is cancelled or the bridge shuts down; long-running tasks
// should check it between phases.
type Task func(ctx context.Context) (interface{}, error)

var ErrNoWorkers = fmt.Errorf("attempting to create a bridge with less than 1 worker")
var ErrNegativeQueueSize = fmt.Errorf("attempting to create a bridge with a negative queue size")

type submission struct {
	handle Handle
	task   Task
	ctx    context.Context
}

type result struct {
	handle Handle
	value  interface{}
	err    error
}

// Bridge runs background work on a worker pool and hands results back to the
// frame loop through handle-keyed slots.
//
// The frame loop calls Poll at most once per redraw (before content update)
// and Cleanup at most once per redraw (after render); this bounds the
// bookkeeping done on the frame thread. Exchange takes a completed value
// exactly once. Cancel is advisory: a task that completed before the cancel
// landed can still be exchanged, so callers must treat the exchange result as
// the source of truth.
type Bridge struct {
	numWorkers int
	queue      chan submission
	done       chan result
	quit       chan struct{}
	wg         sync.WaitGroup

	mu        sync.Mutex
	inflight  map[Handle]context.CancelFunc
	slots     map[Handle]result
	cancelled map[Handle]struct{}
	closed    bool
}

func New(numWorkers int, queueSize int) (*Bridge, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if queueSize < 0 {
		return nil, ErrNegativeQueueSize
	}

	b := &Bridge{
		numWorkers: numWorkers,
		queue:      make(chan submission, queueSize),
		// Buffered so workers never block on a frame loop that has not
		// polled yet.
		done:      make(chan result, queueSize+numWorkers),
		quit:      make(chan struct{}),
		inflight:  make(map[Handle]context.CancelFunc),
		slots:     make(map[Handle]result),
		cancelled: make(map[Handle]struct{}),
	}
	b.start()
	return b, nil
}

func (b *Bridge) start() {
	for i := 0; i < b.numWorkers; i++ {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			for {
				select {
				case sub := <-b.queue:
					b.run(sub)
				case <-b.quit:
					// drain work that was accepted before the shutdown
					for {
						select {
						case sub := <-b.queue:
							b.run(sub)
						default:
							return
						}
					}
				}
			}
		}()
	}
}

func (b *Bridge) run(sub submission) {
	value, err := sub.task(sub.ctx)
	if err != nil {
		core.LogError("background task %s failed: %s", sub.handle, err)
	}
	b.done <- result{handle: sub.handle, value: value, err: err}
}

// Push queues a task and returns its handle. Blocks when the queue is full.
// A push that is still waiting for queue space when the bridge shuts down is
// dropped, never delivered to a stopped pool.
func (b *Bridge) Push(task Task) Handle {
	handle := uuid.New()
	ctx, cancel := context.WithCancel(context.Background())

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		cancel()
		core.LogWarn("task pushed after bridge shutdown, dropping")
		return handle
	}
	b.inflight[handle] = cancel
	b.mu.Unlock()

	select {
	case b.queue <- submission{handle: handle, task: task, ctx: ctx}:
	case <-b.quit:
		b.mu.Lock()
		delete(b.inflight, handle)
		b.mu.Unlock()
		cancel()
		core.LogWarn("bridge shut down before task %s could be queued, dropping", handle)
	}
	return handle
}

// Poll drains finished tasks into their slots. Non-blocking.
func (b *Bridge) Poll() {
	for {
		select {
		case r := <-b.done:
			b.mu.Lock()
			if cancel, ok := b.inflight[r.handle]; ok {
				cancel()
				delete(b.inflight, r.handle)
			}
			b.slots[r.handle] = r
			b.mu.Unlock()
		default:
			return
		}
	}
}

// Exchange takes the completed value for the handle, exactly once. Returns
// false while the task is still running, after the value was already taken,
// or when the task failed.
func (b *Bridge) Exchange(handle Handle) (interface{}, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	r, ok := b.slots[handle]
	if !ok {
		return nil, false
	}
	delete(b.slots, handle)
	delete(b.cancelled, handle)
	if r.err != nil {
		return nil, false
	}
	return r.value, true
}

// ExchangeAs takes the completed value for the handle as type T.
func ExchangeAs[T any](b *Bridge, handle Handle) (T, bool) {
	var zero T
	value, ok := b.Exchange(handle)
	if !ok {
		return zero, false
	}
	typed, ok := value.(T)
	if !ok {
		core.LogWarn("task %s completed with unexpected type %T", handle, value)
		return zero, false
	}
	return typed, true
}

// Cancel stops the task behind the handle if it is still running and marks
// its slot for garbage collection. Advisory only: if the task already
// completed its result stays exchangeable until the next Cleanup.
func (b *Bridge) Cancel(handle Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if cancel, ok := b.inflight[handle]; ok {
		cancel()
	}
	b.cancelled[handle] = struct{}{}
}

// Cleanup garbage-collects result slots whose handles were cancelled and
// never exchanged. Called once per redraw.
func (b *Bridge) Cleanup() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for handle := range b.cancelled {
		if _, running := b.inflight[handle]; running {
			continue
		}
		delete(b.slots, handle)
		delete(b.cancelled, handle)
	}
}

// Pending returns how many tasks are in flight or waiting to be exchanged.
func (b *Bridge) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.inflight) + len(b.slots)
}

// Shutdown stops the pool. Work already in the queue is drained; pushes
// still waiting for queue space are dropped. The queue channel is never
// closed, so a push racing with shutdown cannot panic.
func (b *Bridge) Shutdown() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, cancel := range b.inflight {
		cancel()
	}
	b.mu.Unlock()

	close(b.quit)
	b.wg.Wait()
}
