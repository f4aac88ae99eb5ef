package models

import "time"

// CommentStatus is the moderation state of a comment. Every persisted value
// is one of the four constants below; transitions are restricted to the
// edges listed in statusTransitions.
type CommentStatus string

const (
	StatusUnderReview CommentStatus = "UNDER_REVIEW"
	StatusApproved    CommentStatus = "APPROVED"
	StatusFlagged     CommentStatus = "FLAGGED"
	StatusRejected    CommentStatus = "REJECTED"
)

// Valid reports whether s is one of the defined statuses.
func (s CommentStatus) Valid() bool {
	switch s {
	case StatusUnderReview, StatusApproved, StatusFlagged, StatusRejected:
		return true
	}
	return false
}

// statusTransitions is the closed transition table for the comment lifecycle.
// UNDER_REVIEW resolves to APPROVED or FLAGGED (moderation job); FLAGGED is
// settled to APPROVED or REJECTED by an admin. REJECTED may still be
// overridden to APPROVED during the purge grace period; APPROVED is terminal.
var statusTransitions = map[CommentStatus][]CommentStatus{
	StatusUnderReview: {StatusApproved, StatusFlagged},
	StatusFlagged:     {StatusApproved, StatusRejected},
	StatusRejected:    {StatusApproved},
}

// CanTransition reports whether the edge from -> to exists in the lifecycle.
func CanTransition(from, to CommentStatus) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Comment represents a comment on a post. Content is immutable after
// creation; only Status and ModerationResponse change, and Status only
// through the state machine.
type Comment struct {
	ID                 string        `json:"id" gorm:"type:uuid;primaryKey"`
	PostID             string        `json:"post_id" gorm:"index"` // ID of the post the comment belongs to (MongoDB ObjectID as string)
	AuthorID           uint          `json:"author_id" gorm:"index"`
	Content            string        `json:"content"`
	Status             CommentStatus `json:"status" gorm:"size:20;default:UNDER_REVIEW;index"`
	ModerationResponse JSONMap       `json:"moderation_response,omitempty" gorm:"type:text"` // raw classifier response, audit trail; nil until a classifier call succeeds
	CreatedAt          time.Time     `json:"created_at" gorm:"index"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// CreateCommentRequest defines the request body for submitting a new comment
type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=500"`
}
