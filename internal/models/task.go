package models

import "time"

// TaskKind identifies the background job a queued task executes.
type TaskKind string

const (
	TaskModerateComment TaskKind = "moderate_comment"
	TaskPurgeComment    TaskKind = "purge_comment"
)

// TaskStatus is the delivery state of a queued task.
type TaskStatus string

const (
	TaskPending TaskStatus = "pending"
	TaskRunning TaskStatus = "running"
	TaskDone    TaskStatus = "done"
	TaskFailed  TaskStatus = "failed"
)

// Task is one unit of deferred work in the durable queue. RunAt is a
// not-before bound; delivery is at-least-once, so handlers must be
// idempotent at their own state boundaries.
type Task struct {
	ID        string     `json:"id" gorm:"type:uuid;primaryKey"`
	Kind      TaskKind   `json:"kind" gorm:"size:40;index"`
	CommentID string     `json:"comment_id" gorm:"index"`
	RunAt     time.Time  `json:"run_at" gorm:"index"`
	Status    TaskStatus `json:"status" gorm:"size:20;default:pending;index"`
	Attempts  int        `json:"attempts" gorm:"default:0"`
	LastError string     `json:"last_error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
