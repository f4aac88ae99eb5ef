package moderation

import (
	"fmt"

	"github.com/pressmod/backend/internal/models"
	"github.com/pressmod/backend/internal/repositories"
)

// StateMachine owns comment status changes. Transition is the single write
// path for the status column; the moderation job and the admin review gate
// both go through it, so the lifecycle table holds under concurrent callers.
type StateMachine struct {
	comments repositories.CommentRepository
}

// NewStateMachine creates a StateMachine over the comment store.
func NewStateMachine(comments repositories.CommentRepository) *StateMachine {
	return &StateMachine{comments: comments}
}

// Transition moves comment to target if the lifecycle table allows the edge
// and the persisted status still matches the in-memory one. Both refusals
// return ErrIllegalTransition; the caller distinguishes a genuine bug from a
// lost race by context (a redelivered job treats it as a no-op signal).
func (m *StateMachine) Transition(comment *models.Comment, target models.CommentStatus) error {
	if !target.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrIllegalTransition, target)
	}
	if !models.CanTransition(comment.Status, target) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, comment.Status, target)
	}

	ok, err := m.comments.UpdateStatusIf(comment.ID, comment.Status, target)
	if err != nil {
		return fmt.Errorf("persisting transition %s -> %s: %w", comment.Status, target, err)
	}
	if !ok {
		return fmt.Errorf("%w: comment %s no longer in %s", ErrIllegalTransition, comment.ID, comment.Status)
	}

	comment.Status = target
	return nil
}
