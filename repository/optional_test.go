package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptional(t *testing.T) {
	some := Some("x")
	v, ok := some.Get()
	assert.True(t, ok)
	assert.Equal(t, "x", v)
	assert.True(t, some.IsPresent())
	assert.False(t, some.IsEmpty())
	assert.Equal(t, "x", some.OrElse("y"))
	assert.Equal(t, "x", some.MustGet())

	none := None[string]()
	_, ok = none.Get()
	assert.False(t, ok)
	assert.True(t, none.IsEmpty())
	assert.Equal(t, "y", none.OrElse("y"))
	assert.Panics(t, func() { none.MustGet() })

	zero := Some(0)
	assert.True(t, zero.IsPresent(), "a zero value is still present")
}

func TestOptionalFrom(t *testing.T) {
	double := func(n *int) int { return *n * 2 }
	n := 21
	assert.Equal(t, 42, optionalFrom(&n, double).MustGet())
	assert.True(t, optionalFrom[int](nil, double).IsEmpty())
}
