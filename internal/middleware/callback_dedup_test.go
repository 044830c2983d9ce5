package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDeduper_FirstSeenThenDuplicate(t *testing.T) {
	d := newMemoryCallbackDeduper(time.Hour)

	seen, err := d.Seen(context.Background(), "A0000123")
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = d.Seen(context.Background(), "A0000123")
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = d.Seen(context.Background(), "A0000999")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestMemoryDeduper_ExpiredKeyIsFreshAgain(t *testing.T) {
	d := newMemoryCallbackDeduper(10 * time.Millisecond)

	seen, err := d.Seen(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, seen)

	time.Sleep(20 * time.Millisecond)

	seen, err = d.Seen(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestNewCallbackDeduper_EmptyAddrUsesMemory(t *testing.T) {
	d, err := NewCallbackDeduper("", "", 0, 0)
	require.NoError(t, err)
	_, ok := d.(*memoryCallbackDeduper)
	assert.True(t, ok)
}
