package kvstore

import (
	"sync"

	"github.com/Deathfireofdoom/staged-kv-store/internal/models"
	farm "github.com/dgryski/go-farm"
)

// DefaultShardCount is the number of shards used by NewStore.
const DefaultShardCount = 32

type shard struct {
	mu   sync.RWMutex
	data map[string]string
}

// Store is the authoritative key/value map. It is split into independently
// locked shards so readers of one key never wait on writers of another.
type Store struct {
	shards []*shard
}

func NewStore() *Store {
	return NewShardedStore(DefaultShardCount)
}

func NewShardedStore(shardCount int) *Store {
	if shardCount < 1 {
		shardCount = 1
	}
	s := &Store{shards: make([]*shard, shardCount)}
	for i := range s.shards {
		s.shards[i] = &shard{data: make(map[string]string)}
	}
	return s
}

func (s *Store) shardFor(key string) *shard {
	return s.shards[farm.Fingerprint32([]byte(key))%uint32(len(s.shards))]
}

func (s *Store) Put(key, value string) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.data[key] = value
}

func (s *Store) Get(key string) (string, bool) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	value, ok := sh.data[key]
	return value, ok
}

func (s *Store) Contains(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Delete removes key. Deleting an absent key is a no-op.
func (s *Store) Delete(key string) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	delete(sh.data, key)
}

func (s *Store) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.data)
		sh.mu.RUnlock()
	}
	return n
}

// Entries returns a copy of every pair in the store. Shards are locked one
// at a time, so under concurrent writes the result is a best-effort view
// rather than a single point in time.
func (s *Store) Entries() []models.Entry {
	entries := make([]models.Entry, 0, s.Len())
	for _, sh := range s.shards {
		sh.mu.RLock()
		for k, v := range sh.data {
			entries = append(entries, models.Entry{Key: k, Value: v})
		}
		sh.mu.RUnlock()
	}
	return entries
}

// Apply implements models.StateMachine.
func (s *Store) Apply(action models.Action) {
	switch action.Type {
	case models.SetAction:
		s.Put(action.Key, action.Value)
	case models.DeleteAction:
		s.Delete(action.Key)
	}
}
