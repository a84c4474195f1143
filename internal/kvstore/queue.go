package kvstore

import (
	"sync"

	"github.com/Deathfireofdoom/staged-kv-store/internal/models"
)

// Queue is an unbounded FIFO of pending actions, safe for any number of
// producers and consumers.
type Queue struct {
	mu    sync.Mutex
	ready *sync.Cond
	items []models.Action
	head  int
}

func NewQueue() *Queue {
	q := &Queue{}
	q.ready = sync.NewCond(&q.mu)
	return q
}

// Put appends action to the tail. It never blocks on consumers.
func (q *Queue) Put(action models.Action) {
	q.mu.Lock()
	q.items = append(q.items, action)
	q.mu.Unlock()
	q.ready.Signal()
}

// Take removes and returns the head, waiting until one is available.
func (q *Queue) Take() models.Action {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.lenLocked() == 0 {
		q.ready.Wait()
	}
	return q.popLocked()
}

// TryTake removes and returns the head if there is one.
func (q *Queue) TryTake() (models.Action, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.lenLocked() == 0 {
		return models.Action{}, false
	}
	return q.popLocked(), true
}

func (q *Queue) IsEmpty() bool {
	return q.Len() == 0
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lenLocked()
}

func (q *Queue) lenLocked() int {
	return len(q.items) - q.head
}

func (q *Queue) popLocked() models.Action {
	action := q.items[q.head]
	q.items[q.head] = models.Action{}
	q.head++
	// reclaim the consumed prefix once it dominates the backing array
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	} else if q.head > 64 && q.head*2 > len(q.items) {
		n := copy(q.items, q.items[q.head:])
		q.items = q.items[:n]
		q.head = 0
	}
	return action
}
