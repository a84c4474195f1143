package kvstore

import (
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/Deathfireofdoom/staged-kv-store/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	store := NewStore()

	tests := []struct {
		name      string
		operation func()
		key       string
		want      string
		wantFound bool
	}{
		{
			name: "Put and Get existing key",
			operation: func() {
				store.Put("key1", "value1")
			},
			key:       "key1",
			want:      "value1",
			wantFound: true,
		},
		{
			name: "Put overwrites",
			operation: func() {
				store.Put("key1", "value2")
			},
			key:       "key1",
			want:      "value2",
			wantFound: true,
		},
		{
			name:      "Get non-existing key",
			operation: func() {},
			key:       "key2",
			want:      "",
			wantFound: false,
		},
		{
			name: "Delete key",
			operation: func() {
				store.Put("key1", "value1")
				store.Delete("key1")
			},
			key:       "key1",
			want:      "",
			wantFound: false,
		},
		{
			name: "Delete absent key is a no-op",
			operation: func() {
				store.Delete("never-there")
			},
			key:       "never-there",
			want:      "",
			wantFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.operation()
			got, found := store.Get(tt.key)
			assert.Equal(t, tt.wantFound, found)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantFound, store.Contains(tt.key))
		})
	}
}

func TestNewStore_Independent(t *testing.T) {
	store1 := NewStore()
	store2 := NewStore()

	store1.Put("key1", "value1")
	_, ok := store2.Get("key1")
	assert.False(t, ok, "stores must not share data")
}

func TestStore_Apply(t *testing.T) {
	store := NewStore()

	store.Apply(models.NewSet("a", "1"))
	store.Apply(models.NewSet("b", "2"))
	store.Apply(models.NewDelete("a"))
	store.Apply(models.NewDelete("missing"))

	_, ok := store.Get("a")
	assert.False(t, ok)
	v, ok := store.Get("b")
	require.True(t, ok)
	assert.Equal(t, "2", v)
	assert.Equal(t, 1, store.Len())
}

func TestStore_Entries(t *testing.T) {
	store := NewShardedStore(4)
	for i := 0; i < 100; i++ {
		store.Put(fmt.Sprintf("k%03d", i), fmt.Sprintf("v%d", i))
	}

	entries := store.Entries()
	require.Len(t, entries, 100)
	assert.Equal(t, 100, store.Len())

	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	assert.Equal(t, models.Entry{Key: "k000", Value: "v0"}, entries[0])
	assert.Equal(t, models.Entry{Key: "k099", Value: "v99"}, entries[99])
}

func TestNewShardedStore_ClampsShardCount(t *testing.T) {
	store := NewShardedStore(0)
	store.Put("k", "v")
	v, ok := store.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestStore_Concurrent(t *testing.T) {
	store := NewStore()
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("w%d-%d", w, i)
				store.Put(key, key)
				got, ok := store.Get(key)
				assert.True(t, ok)
				assert.Equal(t, key, got)
				_ = store.Entries()
			}
		}(w)
	}
	wg.Wait()
	assert.Equal(t, 8*200, store.Len())
}
