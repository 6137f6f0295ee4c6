package hive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projecthive/hive/pipeline"
)

func TestNewDefaultsToFortress(t *testing.T) {
	t.Parallel()

	p, err := New()
	require.NoError(t, err)
	_, ok := p.(*pipeline.Fortress)
	assert.True(t, ok)
}

func TestNewVelocityMode(t *testing.T) {
	t.Parallel()

	p, err := New(WithMode(pipeline.ModeVelocity))
	require.NoError(t, err)
	_, ok := p.(*pipeline.Velocity)
	assert.True(t, ok)
}

func TestNewRejectsUnknownMode(t *testing.T) {
	t.Parallel()

	_, err := New(WithMode("t9"))
	assert.Error(t, err)
}
