package embed

// Test Plan:
// - Embed is deterministic: same text always produces the same vector
// - Embed produces one vector per input text, each of the configured length
// - SetEmbedError makes Embed fail
// - Close records that it was called and returns the configured error

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockProviderIsDeterministic(t *testing.T) {
	t.Parallel()
	p := NewMockProvider(16)

	a, err := p.Embed(context.Background(), []string{"hello"}, ModePassage)
	require.NoError(t, err)
	b, err := p.Embed(context.Background(), []string{"hello"}, ModePassage)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestMockProviderShapeMatchesInput(t *testing.T) {
	t.Parallel()
	p := NewMockProvider(8)

	vecs, err := p.Embed(context.Background(), []string{"a", "b", "c"}, ModeQuery)
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	for _, v := range vecs {
		assert.Len(t, v, 8)
	}
	assert.Equal(t, 8, p.Dimensions())
}

func TestMockProviderEmbedError(t *testing.T) {
	t.Parallel()
	p := NewMockProvider(8)
	p.SetEmbedError(assert.AnError)

	_, err := p.Embed(context.Background(), []string{"x"}, ModePassage)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestMockProviderClose(t *testing.T) {
	t.Parallel()
	p := NewMockProvider(8)
	assert.False(t, p.IsClosed())

	require.NoError(t, p.Close())
	assert.True(t, p.IsClosed())
}
