package limiter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestKeyedLimiterAllow(t *testing.T) {
	l := NewKeyedLimiter(rate.Limit(0), 2, 0)

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"))
	assert.Equal(t, 2, l.Len())
}

func TestKeyedLimiterBound(t *testing.T) {
	l := NewKeyedLimiter(rate.Inf, 1, 2)

	l.Get("a")
	l.Get("b")
	l.Get("c")
	assert.Equal(t, 1, l.Len())
}
