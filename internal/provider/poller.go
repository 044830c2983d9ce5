package provider

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// TaskSink receives terminal task results. Implemented by the task
// repository.
type TaskSink interface {
	MarkCompleted(id, result string) error
	MarkFailed(id, errMsg string) error
}

// Poller drives provider tasks to a terminal state on a fixed interval.
// Polling starts only after the token debit is final and never holds the
// consumption guard; a task that exhausts its budget is marked failed and
// left for the reaper to reconcile if the provider finishes late.
type Poller struct {
	sink     TaskSink
	interval time.Duration
	logger   *zap.Logger
}

func NewPoller(sink TaskSink, interval time.Duration, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Poller{sink: sink, interval: interval, logger: logger}
}

// Watch polls the provider task until terminal or out of budget, recording
// the outcome through the sink. Runs in its own goroutine per task.
func (p *Poller) Watch(ctx context.Context, client Client, localTaskID, providerTaskID, model string) {
	budget := client.PollBudget(model)
	if budget < 1 {
		budget = 1
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for attempt := 1; attempt <= budget; attempt++ {
		status, err := client.Poll(ctx, providerTaskID)
		if err != nil {
			p.logger.Warn("task poll failed",
				zap.String("task_id", localTaskID),
				zap.String("provider", client.Name()),
				zap.Int("attempt", attempt),
				zap.Error(err))
		} else if status.Terminal() {
			p.finish(localTaskID, client.Name(), status)
			return
		}

		if attempt == budget {
			break
		}
		select {
		case <-ctx.Done():
			p.logger.Info("task polling cancelled",
				zap.String("task_id", localTaskID))
			return
		case <-ticker.C:
		}
	}

	p.logger.Warn("task poll budget exhausted",
		zap.String("task_id", localTaskID),
		zap.String("model", model),
		zap.Int("budget", budget))
	if err := p.sink.MarkFailed(localTaskID, "generation timed out"); err != nil {
		p.logger.Error("failed to mark task failed",
			zap.String("task_id", localTaskID), zap.Error(err))
	}
}

func (p *Poller) finish(localTaskID, providerName string, status TaskStatus) {
	var err error
	if status.Status == StatusCompleted {
		err = p.sink.MarkCompleted(localTaskID, status.Result)
	} else {
		err = p.sink.MarkFailed(localTaskID, status.Error)
	}
	if err != nil {
		p.logger.Error("failed to store task outcome",
			zap.String("task_id", localTaskID),
			zap.String("provider", providerName),
			zap.Error(err))
		return
	}
	p.logger.Info("task reached terminal state",
		zap.String("task_id", localTaskID),
		zap.String("provider", providerName),
		zap.String("status", status.Status))
}
