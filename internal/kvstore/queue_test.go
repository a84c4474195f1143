package kvstore

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Deathfireofdoom/staged-kv-store/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue()
	assert.True(t, q.IsEmpty())

	q.Put(models.NewSet("a", "1"))
	q.Put(models.NewDelete("a"))
	q.Put(models.NewSet("b", "2"))
	assert.Equal(t, 3, q.Len())
	assert.False(t, q.IsEmpty())

	assert.Equal(t, models.NewSet("a", "1"), q.Take())
	assert.Equal(t, models.NewDelete("a"), q.Take())
	a, ok := q.TryTake()
	require.True(t, ok)
	assert.Equal(t, models.NewSet("b", "2"), a)

	_, ok = q.TryTake()
	assert.False(t, ok)
	assert.True(t, q.IsEmpty())
}

func TestQueue_TakeBlocksUntilPut(t *testing.T) {
	q := NewQueue()
	got := make(chan models.Action, 1)
	go func() {
		got <- q.Take()
	}()

	select {
	case <-got:
		t.Fatal("Take returned on an empty queue")
	case <-time.After(20 * time.Millisecond):
	}

	q.Put(models.NewSet("k", "v"))
	select {
	case a := <-got:
		assert.Equal(t, models.NewSet("k", "v"), a)
	case <-time.After(time.Second):
		t.Fatal("Take did not wake after Put")
	}
}

func TestQueue_ManyItemsKeepOrder(t *testing.T) {
	q := NewQueue()
	for i := 0; i < 1000; i++ {
		q.Put(models.NewSet(fmt.Sprint(i), ""))
	}
	for i := 0; i < 1000; i++ {
		a, ok := q.TryTake()
		require.True(t, ok)
		require.Equal(t, fmt.Sprint(i), a.Key)
		if i == 500 {
			q.Put(models.NewSet("tail", ""))
		}
	}
	a, ok := q.TryTake()
	require.True(t, ok)
	assert.Equal(t, "tail", a.Key)
	assert.True(t, q.IsEmpty())
}

func TestQueue_ConcurrentProducersConsumers(t *testing.T) {
	q := NewQueue()
	const producers, perProducer = 8, 250

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Put(models.NewSet(fmt.Sprintf("%d-%d", p, i), ""))
			}
		}(p)
	}

	seen := make(map[string]bool)
	lastPerProducer := make(map[int]int)
	for n := 0; n < producers*perProducer; n++ {
		a := q.Take()
		require.False(t, seen[a.Key], "duplicate %s", a.Key)
		seen[a.Key] = true

		var p, i int
		_, err := fmt.Sscanf(a.Key, "%d-%d", &p, &i)
		require.NoError(t, err)
		if last, ok := lastPerProducer[p]; ok {
			require.Greater(t, i, last, "producer %d reordered", p)
		}
		lastPerProducer[p] = i
	}
	wg.Wait()
	assert.Len(t, seen, producers*perProducer)
	assert.True(t, q.IsEmpty())
}
