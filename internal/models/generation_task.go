package models

import "time"

// Task status values. A task becomes terminal (completed/failed) either by
// the poller or by the stale-task reaper.
const (
	TaskPending   = "pending"
	TaskCompleted = "completed"
	TaskFailed    = "failed"
)

// GenerationTask maps to the `generation_tasks` table.
// Created only after the token debit for the request is final.
type GenerationTask struct {
	ID             string    `gorm:"column:id;primaryKey;size:100" json:"id"`
	UserID         string    `gorm:"column:user_id;size:100;index" json:"user_id"`
	Model          string    `gorm:"column:model;size:100" json:"model"`
	Provider       string    `gorm:"column:provider;size:50" json:"provider"`
	Prompt         string    `gorm:"column:prompt;type:text" json:"prompt"`
	ProviderTaskID string    `gorm:"column:provider_task_id;size:200;index" json:"provider_task_id"`
	Status         string    `gorm:"column:status;size:50;default:'pending'" json:"status"`
	Result         string    `gorm:"column:result;type:text" json:"result"`
	ErrorMsg       string    `gorm:"column:error_msg;type:text" json:"error_msg"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (GenerationTask) TableName() string {
	return "generation_tasks"
}
