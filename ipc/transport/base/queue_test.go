package base

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueFIFO(t *testing.T) {
	q := newDispatchQueue()

	reqs := make([]*request, 100)
	for i := range reqs {
		reqs[i] = &request{tag: uint32(i)}
		require.True(t, q.Push(reqs[i]))
	}

	for i := range reqs {
		got := <-q.Recv()
		assert.Equal(t, uint32(i), got.tag)
	}

	q.Close()
	_, ok := <-q.Recv()
	assert.False(t, ok)
}

func TestQueueRejectsAfterClose(t *testing.T) {
	q := newDispatchQueue()
	q.Close()

	assert.False(t, q.Push(&request{tag: 1}))
	assert.False(t, q.Push(nil))
}

func TestQueueDeliversQueuedAfterClose(t *testing.T) {
	q := newDispatchQueue()
	require.True(t, q.Push(&request{tag: 7}))
	q.Close()

	got, ok := <-q.Recv()
	require.True(t, ok)
	assert.Equal(t, uint32(7), got.tag)

	_, ok = <-q.Recv()
	assert.False(t, ok)
}

func TestQueuePushAfterFeederExit(t *testing.T) {
	q := newDispatchQueue()
	q.Close()

	// wait until the feeder delivered everything and exited
	_, ok := <-q.Recv()
	require.False(t, ok)

	assert.False(t, q.Push(&request{tag: 1}))
}

// A push racing Close must agree with the feeder: every accepted request
// is delivered, every rejected one is dropped.
func TestQueueCloseRacingPush(t *testing.T) {
	for i := 0; i < 100; i++ {
		q := newDispatchQueue()

		accepted := make(chan int, 1)
		go func() {
			n := 0
			for j := 0; j < 50; j++ {
				if !q.Push(&request{tag: uint32(j)}) {
					break
				}
				n++
			}
			accepted <- n
		}()

		q.Close()

		delivered := 0
		for range q.Recv() {
			delivered++
		}
		assert.Equal(t, <-accepted, delivered)
	}
}

func TestQueueConcurrentProducers(t *testing.T) {
	q := newDispatchQueue()

	const producers = 8
	const perProducer = 200

	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(&request{tag: uint32(p*perProducer + i)})
			}
		}(p)
	}

	done := make(chan struct{})
	seen := make(map[uint32]bool)
	go func() {
		defer close(done)
		for req := range q.Recv() {
			seen[req.tag] = true
		}
	}()

	wg.Wait()
	q.Close()
	<-done

	assert.Len(t, seen, producers*perProducer)
}
