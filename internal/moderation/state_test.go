package moderation

import (
	"testing"

	"github.com/pressmod/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionTableIsClosed(t *testing.T) {
	tests := []struct {
		from, to models.CommentStatus
		allowed  bool
	}{
		{models.StatusUnderReview, models.StatusApproved, true},
		{models.StatusUnderReview, models.StatusFlagged, true},
		{models.StatusUnderReview, models.StatusRejected, false},
		{models.StatusUnderReview, models.StatusUnderReview, false},
		{models.StatusFlagged, models.StatusApproved, true},
		{models.StatusFlagged, models.StatusRejected, true},
		{models.StatusFlagged, models.StatusUnderReview, false},
		{models.StatusRejected, models.StatusApproved, true}, // admin override during grace period
		{models.StatusRejected, models.StatusUnderReview, false},
		{models.StatusRejected, models.StatusFlagged, false},
		{models.StatusApproved, models.StatusUnderReview, false},
		{models.StatusApproved, models.StatusFlagged, false},
		{models.StatusApproved, models.StatusRejected, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, models.CanTransition(tt.from, tt.to))
		})
	}
}

func TestStateMachineRefusesIllegalEdge(t *testing.T) {
	env := newTestEnv(t)
	sm := NewStateMachine(env.comments)

	comment := &models.Comment{
		PostID:   "p1",
		AuthorID: 1,
		Content:  "hello",
		Status:   models.StatusUnderReview,
	}
	require.NoError(t, env.comments.CreateComment(comment))

	err := sm.Transition(comment, models.StatusRejected)
	require.ErrorIs(t, err, ErrIllegalTransition)

	// Status must not have partially applied.
	assert.Equal(t, models.StatusUnderReview, env.reload(t, comment.ID).Status)
}

func TestStateMachineRefusesUnknownStatus(t *testing.T) {
	env := newTestEnv(t)
	sm := NewStateMachine(env.comments)

	comment := &models.Comment{PostID: "p1", AuthorID: 1, Content: "hello", Status: models.StatusUnderReview}
	require.NoError(t, env.comments.CreateComment(comment))

	err := sm.Transition(comment, models.CommentStatus("PUBLISHED"))
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestStateMachineAppliesLegalEdge(t *testing.T) {
	env := newTestEnv(t)
	sm := NewStateMachine(env.comments)

	comment := &models.Comment{PostID: "p1", AuthorID: 1, Content: "hello", Status: models.StatusUnderReview}
	require.NoError(t, env.comments.CreateComment(comment))

	require.NoError(t, sm.Transition(comment, models.StatusApproved))
	assert.Equal(t, models.StatusApproved, comment.Status)
	assert.Equal(t, models.StatusApproved, env.reload(t, comment.ID).Status)
}

// A transition whose precondition went stale must fail, not overwrite.
func TestStateMachineDetectsLostRace(t *testing.T) {
	env := newTestEnv(t)
	sm := NewStateMachine(env.comments)

	comment := &models.Comment{PostID: "p1", AuthorID: 1, Content: "hello", Status: models.StatusUnderReview}
	require.NoError(t, env.comments.CreateComment(comment))

	// Another writer settles the comment first.
	stale := *comment
	require.NoError(t, sm.Transition(comment, models.StatusFlagged))

	err := sm.Transition(&stale, models.StatusApproved)
	require.ErrorIs(t, err, ErrIllegalTransition)
	assert.Equal(t, models.StatusFlagged, env.reload(t, comment.ID).Status)
}
