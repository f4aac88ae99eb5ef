package repositories

import (
	"time"

	"github.com/google/uuid"
	"github.com/pressmod/backend/internal/models"
	"gorm.io/gorm"
)

// TaskRepository is the durable deferred-task queue. Enqueue persists a unit
// of work with a not-before time; ClaimDue hands due tasks to exactly one
// worker at a time via a per-row compare-and-set on the status column.
// Delivery remains at-least-once: a crashed worker's task is re-released.
type TaskRepository interface {
	Enqueue(task *models.Task) error
	ClaimDue(now time.Time, limit int) ([]models.Task, error)
	MarkDone(taskID string) error
	Release(task *models.Task, taskErr error) error
}

type postgresTaskRepository struct {
	db          *gorm.DB
	maxAttempts int
}

func NewPostgresTaskRepository(db *gorm.DB, maxAttempts int) TaskRepository {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &postgresTaskRepository{db: db, maxAttempts: maxAttempts}
}

func (r *postgresTaskRepository) Enqueue(task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Status == "" {
		task.Status = models.TaskPending
	}
	if task.RunAt.IsZero() {
		task.RunAt = time.Now()
	}
	return r.db.Create(task).Error
}

// ClaimDue selects pending tasks whose RunAt has passed and atomically marks
// each one running. A task whose status changed between select and update is
// skipped; another poller got it.
func (r *postgresTaskRepository) ClaimDue(now time.Time, limit int) ([]models.Task, error) {
	var due []models.Task
	err := r.db.Where("status = ? AND run_at <= ?", models.TaskPending, now).
		Order("run_at ASC").Limit(limit).Find(&due).Error
	if err != nil {
		return nil, err
	}

	claimed := make([]models.Task, 0, len(due))
	for _, task := range due {
		result := r.db.Model(&models.Task{}).
			Where("id = ? AND status = ?", task.ID, models.TaskPending).
			Updates(map[string]interface{}{
				"status":   models.TaskRunning,
				"attempts": gorm.Expr("attempts + 1"),
			})
		if result.Error != nil {
			return claimed, result.Error
		}
		if result.RowsAffected == 1 {
			task.Status = models.TaskRunning
			task.Attempts++
			claimed = append(claimed, task)
		}
	}
	return claimed, nil
}

func (r *postgresTaskRepository) MarkDone(taskID string) error {
	return r.db.Model(&models.Task{}).Where("id = ?", taskID).
		Update("status", models.TaskDone).Error
}

// Release returns a failed task to the queue for redelivery, or parks it as
// failed once the attempt budget is spent.
func (r *postgresTaskRepository) Release(task *models.Task, taskErr error) error {
	status := models.TaskPending
	if task.Attempts >= r.maxAttempts {
		status = models.TaskFailed
	}
	lastError := ""
	if taskErr != nil {
		lastError = taskErr.Error()
	}
	return r.db.Model(&models.Task{}).Where("id = ?", task.ID).
		Updates(map[string]interface{}{
			"status":     status,
			"last_error": lastError,
		}).Error
}
