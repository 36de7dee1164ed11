package base

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// queueNode is a single element of the dispatch queue
type queueNode struct {
	req   *request
	taken atomic.Bool // set by the feeder once the request was delivered
	next  atomic.Pointer[queueNode]
}

// dispatchQueue is a lock-free multi-producer single-consumer queue. It is
// the hand-off point of the whole dispatch model: any goroutine may Push a
// request, but only the I/O-owning goroutine consumes them (via the Recv
// channel), so no lock ever guards the socket or the pending-reply table.
//
// Guarantees:
//
//   - Thread-safe writes: any number of goroutines may Push concurrently
//   - Completed pushes are delivered in completion order, which preserves
//     submission order for causally ordered senders
//   - After Close, Push returns false but items already queued are still
//     delivered before the Recv channel closes. A Push racing Close
//     either returns true and its item is delivered, or returns false
//     and the item is dropped, never anything in between
type dispatchQueue struct {
	head   atomic.Pointer[queueNode]
	tail   atomic.Pointer[queueNode]
	out    chan *request
	closed atomic.Bool

	// Condition variable for efficient waiting. Signals happen with mu
	// held so a wakeup cannot fall between the feeder's empty-check and
	// its wait. stopped is guarded by mu and set once the feeder exits.
	mu      sync.Mutex
	cond    *sync.Cond
	stopped bool
}

// newDispatchQueue creates the queue and starts its consumer feed
func newDispatchQueue() *dispatchQueue {
	// sentinel node so head and tail are never nil
	sentinel := &queueNode{}

	q := &dispatchQueue{
		out: make(chan *request),
	}
	q.cond = sync.NewCond(&q.mu)
	q.head.Store(sentinel)
	q.tail.Store(sentinel)

	go q.feed()

	return q
}

// Push appends a request to the queue.
// Returns false if the queue is closed and the request was not accepted.
//
// Thread-safety: safe for concurrent use from any goroutine.
func (q *dispatchQueue) Push(req *request) bool {
	if req == nil || q.closed.Load() {
		return false
	}

	newNode := &queueNode{req: req}

	var backoff uint8 = 0
	for {
		tailNode := q.tail.Load()

		next := tailNode.next.Load()
		if next == nil {
			// the tail has no next node yet, try to append our node
			if tailNode.next.CompareAndSwap(nil, newNode) {
				// appended; the tail CAS may fail if another producer
				// helps out, which is fine
				q.tail.CompareAndSwap(tailNode, newNode)

				// wake the feeder. Holding mu serializes the signal
				// against the feeder's empty-check, so it can never
				// fall between that check and the wait.
				q.mu.Lock()
				if q.stopped {
					// lost the race against Close. The feeder exited;
					// whether it consumed our node first decides the
					// verdict, so acceptance and delivery always agree.
					delivered := newNode.taken.Load()
					q.mu.Unlock()
					return delivered
				}
				q.cond.Signal()
				q.mu.Unlock()
				return true
			}
		} else {
			// help update the tail pointer for a producer that appended
			// but has not advanced the tail yet
			q.tail.CompareAndSwap(tailNode, next)
		}

		// exponential backoff under contention, spinning first and
		// yielding once the retries pile up
		if backoff < 10 {
			backoff++
			for i := 0; i < 1<<backoff; i++ {
				runtime.Gosched()
			}
		}
		runtime.Gosched()
	}
}

// feed continuously moves requests from the linked list to the output
// channel and frees the consumed nodes
func (q *dispatchQueue) feed() {
	defer close(q.out)

	for {
		hasItems := false

		for {
			head := q.head.Load()
			next := head.next.Load()

			if next == nil {
				break // nothing queued
			}

			hasItems = true
			req := next.req

			// advance head (frees the consumed node)
			q.head.Store(next)

			q.out <- req

			// help go gc - safe to clear after sending
			next.req = nil
			next.taken.Store(true)
		}

		if !hasItems {
			q.mu.Lock()
			// re-check under the lock: producers link their node before
			// they signal, so an empty list here is authoritative
			head := q.head.Load()
			if head.next.Load() == nil {
				if q.closed.Load() {
					// closed and fully drained
					q.stopped = true
					q.mu.Unlock()
					return
				}
				q.cond.Wait()
			}
			q.mu.Unlock()
		}
	}
}

// Recv returns the receive-only channel the I/O-owning goroutine consumes
// from. The channel closes after Close once all queued requests were
// delivered.
func (q *dispatchQueue) Recv() <-chan *request {
	return q.out
}

// Close rejects further pushes. Requests already queued are still delivered.
func (q *dispatchQueue) Close() {
	q.mu.Lock()
	q.closed.Store(true)
	q.cond.Signal()
	q.mu.Unlock()
}
