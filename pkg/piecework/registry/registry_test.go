package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_GetHas(t *testing.T) {
	r := New[string, int]()
	r.Register("ping", 1)

	v, ok := r.Get("ping")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.True(t, r.Has("ping"))

	v, ok = r.Get("pong")
	assert.False(t, ok)
	assert.Zero(t, v)
	assert.False(t, r.Has("pong"))
}

func TestRegistry_ReplaceKeepsPosition(t *testing.T) {
	r := New[string, string]()

	_, replaced := r.Replace("ping", "v1")
	assert.False(t, replaced)
	r.Register("help", "help")

	prev, replaced := r.Replace("ping", "v2")
	assert.True(t, replaced)
	assert.Equal(t, "v1", prev)

	assert.Equal(t, []string{"ping", "help"}, r.Keys())
	assert.Equal(t, []string{"v2", "help"}, r.Values())
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_Delete(t *testing.T) {
	r := New[string, int]()
	for i, k := range []string{"a", "b", "c", "d"} {
		r.Register(k, i)
	}

	v, ok := r.Delete("b")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = r.Delete("b")
	assert.False(t, ok)

	assert.Equal(t, []string{"a", "c", "d"}, r.Keys())
	// Indexes after the hole still resolve.
	got, ok := r.Get("d")
	require.True(t, ok)
	assert.Equal(t, 3, got)

	r.Register("b", 9)
	assert.Equal(t, []string{"a", "c", "d", "b"}, r.Keys())
}

func TestRegistry_All(t *testing.T) {
	r := New[string, int]()
	r.Register("x", 1)
	r.Register("y", 2)
	r.Register("z", 3)

	var seen []string
	for k, v := range r.All() {
		seen = append(seen, fmt.Sprintf("%s=%d", k, v))
	}
	assert.Equal(t, []string{"x=1", "y=2", "z=3"}, seen)

	seen = nil
	for k := range r.All() {
		seen = append(seen, k)
		if k == "y" {
			break
		}
	}
	assert.Equal(t, []string{"x", "y"}, seen)
}

func TestRegistry_AllSnapshot(t *testing.T) {
	r := New[string, int]()
	r.Register("a", 1)
	r.Register("b", 2)

	var seen []string
	for k := range r.All() {
		seen = append(seen, k)
		r.Delete("b")
		r.Register("c", 3)
	}
	assert.Equal(t, []string{"a", "b"}, seen)
	assert.Equal(t, []string{"a", "c"}, r.Keys())
}

func TestRegistry_Empty(t *testing.T) {
	r := New[int, string]()
	assert.Empty(t, r.Keys())
	assert.Empty(t, r.Values())
	assert.Zero(t, r.Len())
	for range r.All() {
		t.Fatal("empty registry yielded")
	}
}

func TestRegistry_Concurrent(t *testing.T) {
	r := New[int, int]()
	var wg sync.WaitGroup

	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				key := w*100 + i
				r.Register(key, i)
				_, _ = r.Get(key)
				_ = r.Keys()
				if i%3 == 0 {
					r.Delete(key)
				}
			}
		}()
	}
	wg.Wait()

	// 34 of every 100 keys were deleted.
	assert.Equal(t, 8*66, r.Len())
	for k, v := range r.All() {
		assert.Equal(t, k%100, v)
		assert.NotZero(t, v%3)
	}
}
