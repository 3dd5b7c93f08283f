package auth

import (
	"context"
	"testing"
	"time"

	"github.com/citivoice/complaint-server/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTokenStore_SingleUse(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryTokenStore()

	require.NoError(t, s.Put(ctx, "jti-1", "Xy7!pass", time.Minute))

	ok, err := s.Peek(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, ok)

	val, err := s.Take(ctx, "jti-1")
	require.NoError(t, err)
	assert.Equal(t, "Xy7!pass", val)

	_, err = s.Take(ctx, "jti-1")
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	ok, err = s.Peek(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryTokenStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryTokenStore()
	now := time.Now()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Put(ctx, "jti-2", "", 15*time.Minute))

	now = now.Add(16 * time.Minute)
	ok, err := s.Peek(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Take(ctx, "jti-2")
	assert.Error(t, err)
}
