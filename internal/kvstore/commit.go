package kvstore

import (
	"sync"
	"time"

	"github.com/Deathfireofdoom/staged-kv-store/internal/metrics"
	"github.com/Deathfireofdoom/staged-kv-store/internal/models"
)

// Committer drains a Queue into a StateMachine in dequeue order.
type Committer struct {
	mu     sync.Mutex
	queue  *Queue
	target models.StateMachine
}

func NewCommitter(queue *Queue, target models.StateMachine) *Committer {
	return &Committer{queue: queue, target: target}
}

// Commit applies pending actions until the queue is observed empty and
// returns how many were applied. Actions put while a commit is running may
// land in this commit or the next one.
func (c *Committer) Commit() int {
	// one drain at a time, otherwise two drains could apply out of order
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	applied := 0
	for {
		action, ok := c.queue.TryTake()
		if !ok {
			break
		}
		c.target.Apply(action)
		applied++
	}
	metrics.CommittedActions.Add(float64(applied))
	metrics.CommitDuration.Observe(time.Since(start).Seconds())
	return applied
}
