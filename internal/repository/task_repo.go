package repository

import (
	"time"

	"gorm.io/gorm"

	"negarai/internal/models"
)

// TaskRepository handles generation task database operations.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts a new generation task.
func (r *TaskRepository) Create(task *models.GenerationTask) error {
	return r.db.Create(task).Error
}

// FindByID finds a task by ID.
func (r *TaskRepository) FindByID(id string) (*models.GenerationTask, error) {
	var task models.GenerationTask
	if err := r.db.Where("id = ?", id).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// FindByUserID returns recent tasks for a user.
func (r *TaskRepository) FindByUserID(userID string, limit int) ([]models.GenerationTask, error) {
	if limit <= 0 {
		limit = 50
	}
	var tasks []models.GenerationTask
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").Limit(limit).Find(&tasks).Error
	return tasks, err
}

// SetProviderTaskID stores the provider-side task ID once known.
func (r *TaskRepository) SetProviderTaskID(id, providerTaskID string) error {
	return r.db.Model(&models.GenerationTask{}).Where("id = ?", id).
		Update("provider_task_id", providerTaskID).Error
}

// MarkCompleted stores the result and marks the task completed.
func (r *TaskRepository) MarkCompleted(id, result string) error {
	return r.db.Model(&models.GenerationTask{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status": models.TaskCompleted,
			"result": result,
		}).Error
}

// MarkFailed stores the error and marks the task failed.
func (r *TaskRepository) MarkFailed(id, errMsg string) error {
	return r.db.Model(&models.GenerationTask{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":    models.TaskFailed,
			"error_msg": errMsg,
		}).Error
}

// ExpireStale marks pending tasks older than the cutoff as failed.
// Returns the number of tasks reaped.
func (r *TaskRepository) ExpireStale(olderThan time.Time) (int64, error) {
	res := r.db.Model(&models.GenerationTask{}).
		Where("status = ? AND created_at < ?", models.TaskPending, olderThan).
		Updates(map[string]interface{}{
			"status":    models.TaskFailed,
			"error_msg": "task expired before completion",
		})
	return res.RowsAffected, res.Error
}
