package policies

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/saveblush/reraw-feeds/core/cctx"
	"github.com/saveblush/reraw-feeds/core/config"
)

func TestShouldFilter(t *testing.T) {
	s := NewService(config.PolicyConfig{Blocked: []string{"A"}}, nil)
	assert.True(t, s.ShouldFilter("A"))
	assert.False(t, s.ShouldFilter("B"))

	s.Apply(config.PolicyConfig{Blocked: []string{"B"}})
	assert.False(t, s.ShouldFilter("A"))
	assert.True(t, s.ShouldFilter("B"))
}

func TestReloadWithoutStore(t *testing.T) {
	s := NewService(config.PolicyConfig{}, nil)
	assert.NoError(t, s.Reload(cctx.New()))
}
