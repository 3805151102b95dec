package reporting

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteLatch_OnDrainImmediate(t *testing.T) {
	var l WriteLatch
	called := 0
	l.OnDrain(func() { called++ })
	assert.Equal(t, 1, called, "continuation should run synchronously when nothing is pending")
}

func TestWriteLatch_OnDrainDeferred(t *testing.T) {
	var l WriteLatch
	l.Add()
	l.Add()

	called := 0
	l.OnDrain(func() { called++ })
	assert.Equal(t, 0, called)

	l.Done()
	assert.Equal(t, 0, called, "continuation must wait for every pending write")
	assert.Equal(t, 1, l.Pending())

	l.Done()
	assert.Equal(t, 1, called)
	assert.Equal(t, 0, l.Pending())

	// released continuations are not replayed by later writes
	l.Add()
	l.Done()
	assert.Equal(t, 1, called)
}

func TestWriteLatch_SingleWaiter(t *testing.T) {
	var l WriteLatch
	l.Add()

	var first, second bool
	l.OnDrain(func() { first = true })
	l.OnDrain(func() { second = true })
	l.Done()

	assert.False(t, first, "only the most recent continuation is honored")
	assert.True(t, second)
}

func TestWriteLatch_DoneWithoutAdd(t *testing.T) {
	var l WriteLatch
	require.Panics(t, func() { l.Done() })
}

func TestWriteLatch_Concurrent(t *testing.T) {
	var l WriteLatch
	const writers = 50
	for i := 0; i < writers; i++ {
		l.Add()
	}

	drained := make(chan struct{})
	l.OnDrain(func() { close(drained) })

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Done()
		}()
	}
	wg.Wait()

	select {
	case <-drained:
	default:
		t.Fatal("continuation was not invoked after all writes finished")
	}
}

func TestWriteLatch_Observe(t *testing.T) {
	var l WriteLatch
	var seen []int
	l.Observe(func(pending int) { seen = append(seen, pending) })

	l.Add()
	l.Add()
	l.Done()
	l.OnDrain(func() {})
	l.Done()
	assert.Equal(t, []int{1, 2, 1, 0}, seen)
}

func TestWriteLatch_ObserveConcurrent(t *testing.T) {
	var l WriteLatch
	var (
		mu   sync.Mutex
		last = -1
	)
	l.Observe(func(pending int) {
		mu.Lock()
		defer mu.Unlock()
		last = pending
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Add()
			l.Done()
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, last, "the final published count must match the drained latch")
}
