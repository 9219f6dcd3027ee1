package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool executes render work items across a fixed set of goroutines.
//
// Each worker owns its own queue and steals from the others when idle, so a
// batch of uneven tile spans still keeps every worker busy. A pool is created
// once per Renderer and reused across frames; ExecuteAll is the per-frame
// entry point.
//
// Thread safety: WorkerPool is safe for concurrent use.
type WorkerPool struct {
	// workers is the number of worker goroutines.
	workers int

	// queues holds the per-worker work queues. A worker pulls from its own
	// queue first and steals from the others when it runs dry.
	queues []chan func()

	// done signals workers to stop.
	done chan struct{}

	// wg waits for all workers to finish.
	wg sync.WaitGroup

	// running indicates whether the pool is accepting work.
	running atomic.Bool

	// next picks the queue for the next submission, round-robin across calls
	// so repeated small batches do not pile onto worker 0.
	next atomic.Uint64
}

// NewWorkerPool creates a pool with the given number of workers. If workers
// is zero or negative, GOMAXPROCS is used. The workers start immediately and
// run until Close.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	// A few items of slack per worker hides submission latency without
	// letting an unbounded backlog build up.
	queueSize := workers * 4
	if queueSize < 8 {
		queueSize = 8
	}

	p := &WorkerPool{
		workers: workers,
		queues:  make([]chan func(), workers),
		done:    make(chan struct{}),
	}
	for i := range p.queues {
		p.queues[i] = make(chan func(), queueSize)
	}

	p.running.Store(true)

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker(i)
	}

	return p
}

// worker is the main loop for each worker goroutine.
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	myQueue := p.queues[id]

	for {
		select {
		case <-p.done:
			// Work accepted before Close must still run or ExecuteAll
			// would wait forever on it.
			p.drainQueue(myQueue)
			return

		case work := <-myQueue:
			if work != nil {
				work()
			}

		default:
			if stolen := p.steal(id); stolen != nil {
				stolen()
			} else {
				// Nothing anywhere. Block on the own queue until new work
				// arrives or the pool shuts down.
				select {
				case <-p.done:
					p.drainQueue(myQueue)
					return
				case work := <-myQueue:
					if work != nil {
						work()
					}
				}
			}
		}
	}
}

// drainQueue executes whatever is still sitting on a queue at shutdown.
func (p *WorkerPool) drainQueue(queue chan func()) {
	for {
		select {
		case work := <-queue:
			if work != nil {
				work()
			}
		default:
			return
		}
	}
}

// steal takes one work item from another worker's queue. It returns nil when
// every other queue was empty.
func (p *WorkerPool) steal(myID int) func() {
	for off := 1; off < p.workers; off++ {
		victim := (myID + off) % p.workers
		select {
		case work := <-p.queues[victim]:
			return work
		default:
		}
	}
	return nil
}

// ExecuteAll runs every item and blocks until all of them have finished.
// Items may run in any order and concurrently with each other. On a closed
// pool the items run sequentially on the calling goroutine, so callers do
// not have to special-case a shutdown race against a render in flight.
func (p *WorkerPool) ExecuteAll(work []func()) {
	if len(work) == 0 {
		return
	}
	if !p.running.Load() {
		for _, fn := range work {
			fn()
		}
		return
	}

	var completionWG sync.WaitGroup
	completionWG.Add(len(work))

	for _, fn := range work {
		workFn := fn
		p.submit(func() {
			defer completionWG.Done()
			workFn()
		})
	}

	completionWG.Wait()
}

// submit places one item on a queue. If the chosen queue is full or the pool
// is closing, the item runs inline; stalling the submitter gains nothing
// over having it do the work itself.
func (p *WorkerPool) submit(work func()) {
	idx := int(p.next.Add(1)-1) % p.workers
	select {
	case p.queues[idx] <- work:
	case <-p.done:
		work()
	default:
		work()
	}
}

// Close shuts the pool down after the work already queued has run. It is
// safe to call more than once. After Close, ExecuteAll degrades to
// sequential execution on the caller.
func (p *WorkerPool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}

	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// IsRunning reports whether the pool is accepting work.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}
