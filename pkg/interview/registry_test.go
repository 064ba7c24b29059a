package interview

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry()
	s := r.Create()
	require.NotEmpty(t, s.ID())

	got, ok := r.Get(s.ID())
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, 1, r.Len())

	r.Remove(s.ID())
	_, ok = r.Get(s.ID())
	assert.False(t, ok)
	assert.Zero(t, r.Len())

	// Removal is idempotent: a second remove is a no-op.
	r.Remove(s.ID())
	r.Remove("never-existed")
}

func TestRegistryCreateWithIDReplaces(t *testing.T) {
	r := NewRegistry()
	first := r.CreateWithID("conn-1")
	second := r.CreateWithID("conn-1")
	got, ok := r.Get("conn-1")
	require.True(t, ok)
	assert.NotSame(t, first, got)
	assert.Same(t, second, got)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := r.Create()
			_, _ = r.Get(s.ID())
			r.Remove(s.ID())
			r.Remove(s.ID())
		}()
	}
	wg.Wait()
	assert.Zero(t, r.Len())
}
