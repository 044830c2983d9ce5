package provider

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// scriptedClient returns the queued statuses in order, then repeats the last.
type scriptedClient struct {
	mu       sync.Mutex
	statuses []TaskStatus
	budget   int
	polls    int
}

func (c *scriptedClient) Name() string { return "scripted" }

func (c *scriptedClient) Create(ctx context.Context, req CreateRequest) (string, error) {
	return "remote-1", nil
}

func (c *scriptedClient) Poll(ctx context.Context, taskID string) (TaskStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.polls++
	if len(c.statuses) > 1 {
		next := c.statuses[0]
		c.statuses = c.statuses[1:]
		return next, nil
	}
	return c.statuses[0], nil
}

func (c *scriptedClient) PollBudget(model string) int { return c.budget }

func (c *scriptedClient) pollCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.polls
}

type recordingSink struct {
	mu        sync.Mutex
	completed map[string]string
	failed    map[string]string
}

func newRecordingSink() *recordingSink {
	return &recordingSink{completed: map[string]string{}, failed: map[string]string{}}
}

func (s *recordingSink) MarkCompleted(id, result string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed[id] = result
	return nil
}

func (s *recordingSink) MarkFailed(id, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed[id] = errMsg
	return nil
}

func TestPollerCompletesTask(t *testing.T) {
	client := &scriptedClient{
		statuses: []TaskStatus{
			{Status: StatusPending},
			{Status: StatusPending},
			{Status: StatusCompleted, Result: "https://cdn/out.png"},
		},
		budget: 10,
	}
	sink := newRecordingSink()
	poller := NewPoller(sink, time.Millisecond, zap.NewNop())

	poller.Watch(context.Background(), client, "local-1", "remote-1", "flux")

	require.Contains(t, sink.completed, "local-1")
	assert.Equal(t, "https://cdn/out.png", sink.completed["local-1"])
	assert.Equal(t, 3, client.pollCount())
}

func TestPollerRecordsProviderFailure(t *testing.T) {
	client := &scriptedClient{
		statuses: []TaskStatus{
			{Status: StatusPending},
			{Status: StatusFailed, Error: "model overloaded"},
		},
		budget: 10,
	}
	sink := newRecordingSink()
	poller := NewPoller(sink, time.Millisecond, zap.NewNop())

	poller.Watch(context.Background(), client, "local-2", "remote-1", "flux")

	assert.Equal(t, "model overloaded", sink.failed["local-2"])
	assert.Empty(t, sink.completed)
}

func TestPollerBudgetExhaustionFailsTask(t *testing.T) {
	client := &scriptedClient{
		statuses: []TaskStatus{{Status: StatusPending}},
		budget:   4,
	}
	sink := newRecordingSink()
	poller := NewPoller(sink, time.Millisecond, zap.NewNop())

	poller.Watch(context.Background(), client, "local-3", "remote-1", "veo")

	assert.Equal(t, "generation timed out", sink.failed["local-3"])
	assert.Equal(t, 4, client.pollCount())
}

func TestPollerStopsOnContextCancel(t *testing.T) {
	client := &scriptedClient{
		statuses: []TaskStatus{{Status: StatusPending}},
		budget:   1000,
	}
	sink := newRecordingSink()
	poller := NewPoller(sink, 10*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		poller.Watch(ctx, client, "local-4", "remote-1", "veo")
		close(done)
	}()

	// Let at least one poll happen, then cancel.
	time.Sleep(15 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after context cancellation")
	}

	// Cancellation leaves the task to the stale reaper, not the sink.
	assert.Empty(t, sink.completed)
	assert.Empty(t, sink.failed)
}
