package provider

import (
	"context"
	"errors"
)

// Task status values reported by generation providers.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ErrTaskNotFound is returned by Poll for an unknown task ID.
var ErrTaskNotFound = errors.New("task not found")

// CreateRequest carries what a generation provider needs to start a task.
type CreateRequest struct {
	Model   string            `json:"model"`
	Prompt  string            `json:"prompt"`
	Options map[string]string `json:"options,omitempty"`
}

// TaskStatus is one poll observation of a provider task.
type TaskStatus struct {
	Status string `json:"status"` // pending, completed, failed
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Terminal reports whether the task needs no further polling.
func (s TaskStatus) Terminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusFailed
}

// Client is a generation provider adapter. Create must only ever be called
// after the token debit for the request is final; a generation failure after
// that point does not refund the charge.
type Client interface {
	Name() string

	// Create starts a generation task and returns the provider task ID.
	Create(ctx context.Context, req CreateRequest) (string, error)

	// Poll fetches the current status of a task.
	Poll(ctx context.Context, taskID string) (TaskStatus, error)

	// PollBudget returns how many poll rounds a task of this provider is
	// given before the reaper declares it failed.
	PollBudget(model string) int
}
