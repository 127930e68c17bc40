package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLimiterPool(t *testing.T) {
	p := newLimiterPool(0.001, 2)
	defer p.Shutdown()

	assert.True(t, p.Allow("a"))
	assert.True(t, p.Allow("a"))
	assert.False(t, p.Allow("a"), "burst exhausted")
	assert.True(t, p.Allow("b"), "keys have separate buckets")

	p.Shutdown()
}

func TestLimiterPoolDisabled(t *testing.T) {
	p := newLimiterPool(0, 0)
	defer p.Shutdown()
	for i := 0; i < 100; i++ {
		assert.True(t, p.Allow("a"))
	}
}
