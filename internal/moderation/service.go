package moderation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pressmod/backend/internal/models"
	"github.com/pressmod/backend/internal/repositories"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Review actions accepted by Act.
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// Service orchestrates the comment moderation pipeline: submission,
// asynchronous classification, admin review, and the delayed purge of
// rejected comments.
type Service struct {
	comments   repositories.CommentRepository
	users      repositories.UserRepository
	posts      repositories.PostRepository
	tasks      repositories.TaskRepository
	sm         *StateMachine
	dispatcher *Dispatcher
	classifier Classifier
	fallback   *KeywordFallback
	threshold  float64
	purgeDelay time.Duration
	logger     *zap.Logger
}

// ServiceOptions carries the tunables for NewService.
type ServiceOptions struct {
	// FlagThreshold is the confidence above which (strictly) a category
	// flags a comment. Defaults to 0.6.
	FlagThreshold float64
	// PurgeDelay is the grace period between rejection and deletion.
	// Defaults to 20 days.
	PurgeDelay time.Duration
}

// NewService wires the moderation pipeline together.
func NewService(
	comments repositories.CommentRepository,
	users repositories.UserRepository,
	posts repositories.PostRepository,
	tasks repositories.TaskRepository,
	notifications repositories.NotificationRepository,
	classifier Classifier,
	opts ServiceOptions,
	logger *zap.Logger,
) *Service {
	if opts.FlagThreshold <= 0 {
		opts.FlagThreshold = 0.6
	}
	if opts.PurgeDelay <= 0 {
		opts.PurgeDelay = 20 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		comments:   comments,
		users:      users,
		posts:      posts,
		tasks:      tasks,
		sm:         NewStateMachine(comments),
		dispatcher: NewDispatcher(notifications, logger),
		classifier: classifier,
		fallback:   NewKeywordFallback(),
		threshold:  opts.FlagThreshold,
		purgeDelay: opts.PurgeDelay,
		logger:     logger,
	}
}

// Submit creates a comment in UNDER_REVIEW and enqueues its moderation task.
// The caller gets the pending comment back immediately; classification
// happens on the queue.
func (s *Service) Submit(ctx context.Context, postID string, authorID uint, content string) (*models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: comment content is empty", ErrValidation)
	}

	if _, err := s.posts.GetPostByID(ctx, postID); err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return nil, fmt.Errorf("%w: post %s", ErrNotFound, postID)
		}
		return nil, err
	}

	if _, err := s.users.GetUserByID(authorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: unknown author %d", ErrValidation, authorID)
		}
		return nil, err
	}

	comment := &models.Comment{
		PostID:   postID,
		AuthorID: authorID,
		Content:  content,
		Status:   models.StatusUnderReview,
	}
	if err := s.comments.CreateComment(comment); err != nil {
		return nil, err
	}

	task := &models.Task{
		Kind:      models.TaskModerateComment,
		CommentID: comment.ID,
	}
	if err := s.tasks.Enqueue(task); err != nil {
		return nil, err
	}

	s.logger.Info("comment submitted for moderation",
		zap.String("comment_id", comment.ID),
		zap.String("post_id", postID))
	return comment, nil
}

// ApprovedComments returns the publicly visible comments of a post.
func (s *Service) ApprovedComments(ctx context.Context, postID string) ([]models.Comment, error) {
	if _, err := s.posts.GetPostByID(ctx, postID); err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return nil, fmt.Errorf("%w: post %s", ErrNotFound, postID)
		}
		return nil, err
	}
	return s.comments.GetCommentsByPostAndStatus(postID, models.StatusApproved)
}

// ModerateComment decides the fate of an UNDER_REVIEW comment and transitions
// it exactly once. It is the handler for moderate_comment tasks, which are
// delivered at least once: redelivery after a transition is a no-op at the
// transition boundary, never an error.
func (s *Service) ModerateComment(ctx context.Context, commentID string) error {
	comment, err := s.comments.GetCommentByID(commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Deleted in a race before the task ran; nothing to moderate.
			s.logger.Info("comment gone before moderation", zap.String("comment_id", commentID))
			return nil
		}
		return err
	}

	if comment.Status != models.StatusUnderReview {
		s.logger.Info("comment already moderated, skipping",
			zap.String("comment_id", commentID),
			zap.String("status", string(comment.Status)))
		return nil
	}

	flagged, viaFallback := s.classify(ctx, comment)

	target := models.StatusApproved
	if flagged {
		target = models.StatusFlagged
	}
	if err := s.sm.Transition(comment, target); err != nil {
		if errors.Is(err, ErrIllegalTransition) {
			// Lost the race to a concurrent transition (redelivered task or
			// admin action). The winner already produced the side effects.
			s.logger.Info("moderation transition refused, treating as redelivery",
				zap.String("comment_id", commentID))
			return nil
		}
		return err
	}

	title := s.postTitle(ctx, comment.PostID)
	if flagged {
		s.notifyFlagged(comment, title, viaFallback)
	} else {
		s.notifyApproved(comment, title)
	}
	return nil
}

// classify runs the external classifier and falls back to the keyword
// denylist on any failure. It reports the decision and whether the fallback
// produced it. The raw response is persisted only on the success path.
func (s *Service) classify(ctx context.Context, comment *models.Comment) (flagged, viaFallback bool) {
	result, err := s.classifier.Moderate(ctx, comment.Content)
	if err != nil {
		s.logger.Warn("classifier unavailable, using keyword fallback",
			zap.String("comment_id", comment.ID),
			zap.Error(err))
		matched, word := s.fallback.Flagged(comment.Content)
		if matched {
			s.logger.Info("keyword fallback matched",
				zap.String("comment_id", comment.ID),
				zap.String("keyword", word))
		}
		return matched, true
	}

	if err := s.comments.SetModerationResponse(comment.ID, result.Raw); err != nil {
		// The audit trail is best effort; the decision still stands.
		s.logger.Error("failed to persist moderation response",
			zap.String("comment_id", comment.ID),
			zap.Error(err))
	}

	if cat, over := result.FirstOver(s.threshold); over {
		s.logger.Warn("classifier flagged comment",
			zap.String("comment_id", comment.ID),
			zap.String("category", cat.Name),
			zap.Float64("confidence", cat.Confidence))
		return true, false
	}
	return false, false
}

func (s *Service) notifyApproved(comment *models.Comment, title string) {
	if _, err := s.dispatcher.Notify(comment.AuthorID,
		fmt.Sprintf("Your comment on '%s' has been successfully posted.", title)); err != nil {
		s.logger.Error("failed to notify author of approval",
			zap.String("comment_id", comment.ID),
			zap.Error(err))
	}
	s.logger.Info("comment approved", zap.String("comment_id", comment.ID))
}

// notifyFlagged notifies the author and fans out to every admin existing at
// this moment. Admins added later are not retroactively notified.
func (s *Service) notifyFlagged(comment *models.Comment, title string, viaFallback bool) {
	if _, err := s.dispatcher.Notify(comment.AuthorID,
		fmt.Sprintf("Your comment on '%s' has been flagged and is under review.", title)); err != nil {
		s.logger.Error("failed to notify author of flag",
			zap.String("comment_id", comment.ID),
			zap.Error(err))
	}

	admins, err := s.users.GetUsersByRole(models.RoleAdmin)
	if err != nil {
		s.logger.Error("failed to load admins for fan-out",
			zap.String("comment_id", comment.ID),
			zap.Error(err))
		admins = nil
	}

	message := fmt.Sprintf("New flagged comment requires review: %s", comment.ID)
	if viaFallback {
		message += " [keyword moderation]"
	}
	notified := s.dispatcher.FanOut(admins, message)

	// High-severity signal for the operations side.
	s.logger.Error("FLAGGED CONTENT DETECTED",
		zap.String("comment_id", comment.ID),
		zap.Int("admins_notified", notified),
		zap.Bool("fallback", viaFallback))
}

// ListFlagged returns every comment awaiting admin review. Admin only.
func (s *Service) ListFlagged(actor *models.User) ([]models.Comment, error) {
	if actor == nil || !actor.IsAdmin() {
		return nil, ErrUnauthorized
	}
	return s.comments.GetCommentsByStatus(models.StatusFlagged)
}

// Act applies an admin review decision. Approval settles the comment;
// rejection additionally schedules a purge task one grace period from now.
func (s *Service) Act(ctx context.Context, actor *models.User, commentID, action string) (*models.Comment, error) {
	if actor == nil || !actor.IsAdmin() {
		return nil, ErrUnauthorized
	}

	var target models.CommentStatus
	switch action {
	case ActionApprove:
		target = models.StatusApproved
	case ActionReject:
		target = models.StatusRejected
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}

	comment, err := s.comments.GetCommentByID(commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: comment %s", ErrNotFound, commentID)
		}
		return nil, err
	}

	if err := s.sm.Transition(comment, target); err != nil {
		return nil, err
	}

	title := s.postTitle(ctx, comment.PostID)
	verb := "approved"
	if target == models.StatusRejected {
		verb = "rejected"
	}
	if _, err := s.dispatcher.Notify(comment.AuthorID,
		fmt.Sprintf("Your comment on '%s' was %s by an admin.", title, verb)); err != nil {
		s.logger.Error("failed to notify author of review outcome",
			zap.String("comment_id", comment.ID),
			zap.Error(err))
	}

	if target == models.StatusRejected {
		task := &models.Task{
			Kind:      models.TaskPurgeComment,
			CommentID: comment.ID,
			RunAt:     time.Now().Add(s.purgeDelay),
		}
		if err := s.tasks.Enqueue(task); err != nil {
			return nil, fmt.Errorf("scheduling purge for comment %s: %w", comment.ID, err)
		}
		s.logger.Info("comment rejected, purge scheduled",
			zap.String("comment_id", comment.ID),
			zap.Time("purge_at", task.RunAt))
	} else {
		s.logger.Info("comment approved by admin",
			zap.String("comment_id", comment.ID),
			zap.Uint("admin_id", actor.ID))
	}

	return comment, nil
}

// PurgeComment deletes a comment that is still REJECTED when the task fires.
// The status re-check at run time, not schedule time, is what lets an admin
// re-approval during the grace period cancel the purge.
func (s *Service) PurgeComment(ctx context.Context, commentID string) error {
	comment, err := s.comments.GetCommentByID(commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	if comment.Status != models.StatusRejected {
		s.logger.Info("purge skipped, comment no longer rejected",
			zap.String("comment_id", commentID),
			zap.String("status", string(comment.Status)))
		return nil
	}

	if err := s.comments.DeleteComment(commentID); err != nil {
		return err
	}
	s.logger.Info("rejected comment purged", zap.String("comment_id", commentID))
	return nil
}

// postTitle resolves the post title for notification text. A missing post is
// tolerated; the post id stands in.
func (s *Service) postTitle(ctx context.Context, postID string) string {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		s.logger.Warn("post lookup failed while building notification",
			zap.String("post_id", postID),
			zap.Error(err))
		return postID
	}
	return post.Title
}
