package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolReusesReleasedSlots(t *testing.T) {
	allocs := 0
	p := NewPool(func() *[]int {
		allocs++
		s := make([]int, 0, 4)
		return &s
	})

	h1, _ := p.Acquire()
	h2, _ := p.Acquire()
	assert.Equal(t, 2, p.InUse())
	require.True(t, p.Release(h1))
	h3, _ := p.Acquire()

	assert.Equal(t, 2, allocs)
	assert.Equal(t, h1.Index(), h3.Index())
	assert.Equal(t, 2, p.Peak())

	_, ok := p.Get(h1)
	assert.False(t, ok, "stale handle must not resolve after reuse")
	_, ok = p.Get(h3)
	assert.True(t, ok)
	assert.False(t, p.Release(h1))

	assert.Equal(t, 2, p.ReleaseAll())
	assert.Equal(t, 0, p.InUse())
	_, ok = p.Get(h2)
	assert.False(t, ok)
}

func TestZeroHandleIsInvalid(t *testing.T) {
	p := NewPool(func() int { return 0 })
	var h Handle[int]
	assert.True(t, h.IsZero())
	_, ok := p.Get(h)
	assert.False(t, ok)
}
