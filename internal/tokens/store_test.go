package tokens

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndResolve(t *testing.T) {
	store := NewMemoryStore(time.Minute)

	token, err := store.Issue("workshop-1")
	require.NoError(t, err)
	assert.Len(t, token.Value, 64)
	assert.Equal(t, "workshop-1", token.WorkshopID)
	assert.True(t, token.ExpiresAt.After(time.Now()))

	resolved, ok := store.Resolve(token.Value)
	require.True(t, ok)
	assert.Equal(t, token.WorkshopID, resolved.WorkshopID)
}

func TestResolveUnknownToken(t *testing.T) {
	store := NewMemoryStore(time.Minute)

	_, ok := store.Resolve("does-not-exist")
	assert.False(t, ok)
}

func TestConsumeRemovesToken(t *testing.T) {
	store := NewMemoryStore(time.Minute)

	token, err := store.Issue("workshop-1")
	require.NoError(t, err)

	store.Consume(token.Value)

	_, ok := store.Resolve(token.Value)
	assert.False(t, ok)
}

func TestExpiredTokenNotResolved(t *testing.T) {
	store := NewMemoryStore(time.Millisecond)

	token, err := store.Issue("workshop-1")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, ok := store.Resolve(token.Value)
	assert.False(t, ok)
}

func TestTokensAreUnique(t *testing.T) {
	store := NewMemoryStore(time.Minute)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := store.Issue("workshop-1")
		require.NoError(t, err)
		assert.False(t, seen[token.Value])
		seen[token.Value] = true
	}
}

func TestRandomTokenEntropy(t *testing.T) {
	first, err := RandomToken()
	require.NoError(t, err)
	second, err := RandomToken()
	require.NoError(t, err)

	assert.Len(t, first, 64)
	assert.NotEqual(t, first, second)
}
