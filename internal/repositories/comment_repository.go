package repositories

import (
	"time"

	"github.com/google/uuid"
	"github.com/pressmod/backend/internal/models"
	"gorm.io/gorm"
)

// CommentRepository defines the interface for comment data operations.
// Status is never written directly; UpdateStatusIf is the only write path
// and carries the expected current status as a precondition.
type CommentRepository interface {
	CreateComment(comment *models.Comment) error
	GetCommentByID(id string) (*models.Comment, error)
	GetCommentsByPostAndStatus(postID string, status models.CommentStatus) ([]models.Comment, error)
	GetCommentsByStatus(status models.CommentStatus) ([]models.Comment, error)
	UpdateStatusIf(id string, from, to models.CommentStatus) (bool, error)
	SetModerationResponse(id string, response models.JSONMap) error
	DeleteComment(id string) error
}

// PostgresCommentRepository implements CommentRepository for PostgreSQL
type PostgresCommentRepository struct {
	db *gorm.DB
}

// NewPostgresCommentRepository creates a new PostgresCommentRepository
func NewPostgresCommentRepository(db *gorm.DB) *PostgresCommentRepository {
	return &PostgresCommentRepository{db: db}
}

// CreateComment creates a new comment in PostgreSQL
func (r *PostgresCommentRepository) CreateComment(comment *models.Comment) error {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	return r.db.Create(comment).Error
}

// GetCommentByID retrieves a comment by ID from PostgreSQL
func (r *PostgresCommentRepository) GetCommentByID(id string) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.Where("id = ?", id).First(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// GetCommentsByPostAndStatus retrieves comments for a post in the given status,
// oldest first
func (r *PostgresCommentRepository) GetCommentsByPostAndStatus(postID string, status models.CommentStatus) ([]models.Comment, error) {
	var comments []models.Comment
	if err := r.db.Where("post_id = ? AND status = ?", postID, status).
		Order("created_at ASC").Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// GetCommentsByStatus retrieves all comments in the given status
func (r *PostgresCommentRepository) GetCommentsByStatus(status models.CommentStatus) ([]models.Comment, error) {
	var comments []models.Comment
	if err := r.db.Where("status = ?", status).
		Order("created_at ASC").Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// UpdateStatusIf moves a comment from -> to with a compare-and-set against
// the persisted status. Returns false when the precondition no longer holds
// (concurrent transition or redelivered job), without touching the row.
func (r *PostgresCommentRepository) UpdateStatusIf(id string, from, to models.CommentStatus) (bool, error) {
	result := r.db.Model(&models.Comment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to, "updated_at": time.Now()})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// SetModerationResponse stores the raw classifier response for audit
func (r *PostgresCommentRepository) SetModerationResponse(id string, response models.JSONMap) error {
	return r.db.Model(&models.Comment{}).Where("id = ?", id).
		Update("moderation_response", response).Error
}

// DeleteComment permanently deletes a comment by ID
func (r *PostgresCommentRepository) DeleteComment(id string) error {
	return r.db.Where("id = ?", id).Delete(&models.Comment{}).Error
}
