package kvstore

import (
	"github.com/Deathfireofdoom/staged-kv-store/internal/metrics"
	"github.com/Deathfireofdoom/staged-kv-store/internal/models"
)

// ServerState is everything the server keeps in memory: the authoritative
// store and the actions staged against it. Handlers share one instance.
type ServerState struct {
	store     *Store
	queue     *Queue
	committer *Committer
}

func NewServerState() *ServerState {
	return newServerState(NewStore(), NewQueue())
}

func newServerState(store *Store, queue *Queue) *ServerState {
	return &ServerState{
		store:     store,
		queue:     queue,
		committer: NewCommitter(queue, store),
	}
}

// Restore builds a ServerState from decoded snapshot contents. Pending
// actions are queued in the order given.
func Restore(entries []models.Entry, pending []models.Action) *ServerState {
	st := NewServerState()
	for _, e := range entries {
		st.store.Put(e.Key, e.Value)
	}
	for _, a := range pending {
		st.queue.Put(a)
	}
	return st
}

func (st *ServerState) Store() *Store { return st.store }

func (st *ServerState) Queue() *Queue { return st.queue }

// Read consults the store only; staged actions are invisible until commit.
func (st *ServerState) Read(key string) (string, bool) {
	return st.store.Get(key)
}

// StageSet queues Set(key, value) and reports whether key was present when
// the action was queued. The answer can be stale if a commit races it.
func (st *ServerState) StageSet(key, value string) bool {
	existed := st.store.Contains(key)
	st.queue.Put(models.NewSet(key, value))
	metrics.StagedActions.WithLabelValues(models.SetAction.String()).Inc()
	return existed
}

func (st *ServerState) StageDelete(key string) {
	st.queue.Put(models.NewDelete(key))
	metrics.StagedActions.WithLabelValues(models.DeleteAction.String()).Inc()
}

func (st *ServerState) Commit() int {
	return st.committer.Commit()
}

// DrainPending removes every queued action, oldest first.
func (st *ServerState) DrainPending() []models.Action {
	var actions []models.Action
	for {
		a, ok := st.queue.TryTake()
		if !ok {
			return actions
		}
		actions = append(actions, a)
	}
}

// Len is the number of committed keys.
func (st *ServerState) Len() int { return st.store.Len() }

// Pending is the number of staged, uncommitted actions.
func (st *ServerState) Pending() int { return st.queue.Len() }
