package safemap

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathMapSetGet(t *testing.T) {
	m := New[int]()

	_, ok := m.Get("/a")
	assert.False(t, ok)

	m.Set("/a", 1)
	v, ok := m.Get("/a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	m.Set("/a", 2)
	v, ok = m.Get("/a")
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestPathMapGetOrSet(t *testing.T) {
	m := New[int]()

	actual, loaded := m.GetOrSet("/a", 1)
	assert.False(t, loaded)
	assert.Equal(t, 1, actual)

	actual, loaded = m.GetOrSet("/a", 2)
	assert.True(t, loaded)
	assert.Equal(t, 1, actual)
}

func TestPathMapDelAndGetAndDel(t *testing.T) {
	m := New[int]()
	m.Set("/a", 1)

	m.Del("/b") // no-op on absent key

	v, ok := m.GetAndDel("/a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = m.Get("/a")
	assert.False(t, ok)
}

func TestPathMapLenAndPaths(t *testing.T) {
	m := New[int]()
	m.Set("/a", 1)
	m.Set("/b", 2)
	m.Set("/c", 3)

	assert.Equal(t, 3, m.Len())
	assert.ElementsMatch(t, []string{"/a", "/b", "/c"}, m.Paths())
}

func TestPathMapForEachStopsEarly(t *testing.T) {
	m := New[int]()
	for i := 0; i < 10; i++ {
		m.Set(string(rune('a'+i)), i)
	}

	seen := 0
	m.ForEach(func(path string, value int) bool {
		seen++
		return seen < 3
	})
	assert.Equal(t, 3, seen)
}

func TestPathMapConcurrentAccess(t *testing.T) {
	m := New[int]()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.Set("/shared", i)
			m.Get("/shared")
		}(i)
	}
	wg.Wait()

	_, ok := m.Get("/shared")
	assert.True(t, ok)
}
