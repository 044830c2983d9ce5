package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiPollConsumesStoredResult(t *testing.T) {
	g := &GeminiClient{results: make(map[string]TaskStatus)}
	g.store("t1", TaskStatus{Status: StatusCompleted, Result: "salam"})

	status, err := g.Poll(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, status.Status)
	assert.Equal(t, "salam", status.Result)

	// The single poll drains the entry; nothing accumulates per request.
	_, err = g.Poll(context.Background(), "t1")
	assert.ErrorIs(t, err, ErrTaskNotFound)
	assert.Empty(t, g.results)
}

func TestGeminiPollUnknownTask(t *testing.T) {
	g := &GeminiClient{results: make(map[string]TaskStatus)}
	_, err := g.Poll(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}
