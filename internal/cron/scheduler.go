package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"negarai/internal/alert"
	"negarai/internal/config"
	"negarai/internal/pkg/utils"
	"negarai/internal/repository"
)

// Pending tasks older than this are considered abandoned: the longest poll
// budget (video, 120 polls at 30s) finishes well inside an hour.
const staleTaskAge = 2 * time.Hour

// Pending payments the gateway never called back for.
const stalePaymentAge = 24 * time.Hour

// Scheduler manages all cron jobs.
type Scheduler struct {
	cron     *cron.Cron
	cfg      *config.Config
	repos    *CronRepos
	notifier *alert.Notifier
	logger   *zap.Logger
}

// CronRepos bundles repositories needed by cron jobs.
type CronRepos struct {
	Usage   *repository.UsageRepository
	Payment *repository.PaymentRepository
	Task    *repository.TaskRepository
}

// New creates a new cron scheduler.
func New(cfg *config.Config, repos *CronRepos, notifier *alert.Notifier, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		cfg:      cfg,
		repos:    repos,
		notifier: notifier,
		logger:   logger,
	}
}

// Start registers and starts all cron jobs.
func (s *Scheduler) Start() {
	s.logger.Info("Starting cron scheduler...")

	// Stale task reaper - every 10 minutes
	s.cron.AddFunc("0 */10 * * * *", func() {
		s.logger.Debug("Running: stale task reaper")
		s.reapStaleTasks()
	})

	// Expire abandoned payments - every hour
	s.cron.AddFunc("0 0 * * * *", func() {
		s.logger.Debug("Running: payment expire")
		s.expirePayments()
	})

	// Daily usage report - at 23:45
	s.cron.AddFunc("0 45 23 * * *", func() {
		s.logger.Debug("Running: daily usage report")
		s.dailyUsageReport()
	})

	s.cron.Start()
	s.logger.Info("Cron scheduler started")
}

// Stop stops the scheduler and returns a context that is done once running
// jobs have finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// A generation task stuck pending past every poll budget means the dispatch
// goroutine died with it. Tokens stay spent; the task is closed as failed.
func (s *Scheduler) reapStaleTasks() {
	defer s.recoverFromPanic("reapStaleTasks")

	n, err := s.repos.Task.ExpireStale(time.Now().Add(-staleTaskAge))
	if err != nil {
		s.logger.Error("Stale task sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Warn("Expired stale generation tasks", zap.Int64("count", n))
	}
}

func (s *Scheduler) expirePayments() {
	defer s.recoverFromPanic("expirePayments")

	n, err := s.repos.Payment.ExpirePending(time.Now().Add(-stalePaymentAge))
	if err != nil {
		s.logger.Error("Payment expire sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("Expired abandoned payments", zap.Int64("count", n))
	}
}

func (s *Scheduler) dailyUsageReport() {
	defer s.recoverFromPanic("dailyUsageReport")

	since := time.Now().Add(-24 * time.Hour).Format("2006-01-02 15:04:05")
	spent, err := s.repos.Usage.SumSince(since)
	if err != nil {
		s.logger.Error("Usage summary query failed", zap.Error(err))
		return
	}

	s.notifier.PaymentReport(fmt.Sprintf(
		"گزارش روزانه\nتوکن مصرف‌شده در ۲۴ ساعت گذشته: %s",
		utils.FormatNumber(spent)))
}

func (s *Scheduler) recoverFromPanic(jobName string) {
	if r := recover(); r != nil {
		s.logger.Error("Cron job panicked", zap.String("job", jobName), zap.Any("error", r))
	}
}
