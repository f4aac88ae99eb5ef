package moderation

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/pressmod/backend/internal/models"
	"github.com/pressmod/backend/internal/repositories"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestDB opens a per-test in-memory SQLite database with the relational
// schema migrated.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Comment{},
		&models.Notification{},
		&models.Task{},
	))
	return db
}

// fakePostRepo is an in-memory stand-in for the Mongo post store.
type fakePostRepo struct {
	posts map[string]models.Post
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: make(map[string]models.Post)}
}

func (r *fakePostRepo) CreatePost(ctx context.Context, post *models.Post) error {
	post.ID = primitive.NewObjectID()
	r.posts[post.ID.Hex()] = *post
	return nil
}

func (r *fakePostRepo) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	post, ok := r.posts[id]
	if !ok {
		return nil, repositories.ErrPostNotFound
	}
	return &post, nil
}

func (r *fakePostRepo) GetAllPosts(ctx context.Context, skip, limit int64) ([]models.Post, error) {
	var out []models.Post
	for _, p := range r.posts {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakePostRepo) CountPosts(ctx context.Context) (int64, error) {
	return int64(len(r.posts)), nil
}

// stubClassifier returns a canned result or error.
type stubClassifier struct {
	result *Result
	err    error
}

func (s stubClassifier) Moderate(ctx context.Context, content string) (*Result, error) {
	return s.result, s.err
}

// unreachableClassifier simulates an unavailable external service.
var unreachableClassifier = stubClassifier{err: fmt.Errorf("connection refused")}

type testEnv struct {
	db            *gorm.DB
	comments      repositories.CommentRepository
	users         repositories.UserRepository
	posts         *fakePostRepo
	tasks         repositories.TaskRepository
	notifications repositories.NotificationRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	return &testEnv{
		db:            db,
		comments:      repositories.NewPostgresCommentRepository(db),
		users:         repositories.NewPostgresUserRepository(db),
		posts:         newFakePostRepo(),
		tasks:         repositories.NewPostgresTaskRepository(db, 3),
		notifications: repositories.NewPostgresNotificationRepository(db),
	}
}

func (e *testEnv) service(t *testing.T, classifier Classifier, opts ServiceOptions) *Service {
	t.Helper()
	return NewService(
		e.comments, e.users, e.posts, e.tasks, e.notifications,
		classifier, opts, zaptest.NewLogger(t),
	)
}

func (e *testEnv) addUser(t *testing.T, name string, role models.Role) *models.User {
	t.Helper()
	user := &models.User{
		Name:  name,
		Email: name + "@example.com",
		Role:  role,
	}
	require.NoError(t, e.users.CreateUser(user))
	return user
}

func (e *testEnv) addPost(t *testing.T, title string) string {
	t.Helper()
	post := &models.Post{Title: title, Content: "body"}
	require.NoError(t, e.posts.CreatePost(context.Background(), post))
	return post.ID.Hex()
}

func (e *testEnv) notificationsFor(t *testing.T, userID uint) []models.Notification {
	t.Helper()
	notifications, err := e.notifications.GetByRecipientID(userID)
	require.NoError(t, err)
	return notifications
}

func (e *testEnv) tasksOfKind(t *testing.T, kind models.TaskKind) []models.Task {
	t.Helper()
	var tasks []models.Task
	require.NoError(t, e.db.Where("kind = ?", kind).Find(&tasks).Error)
	return tasks
}

func anyMessageContains(notifications []models.Notification, substr string) bool {
	for _, n := range notifications {
		if strings.Contains(n.Message, substr) {
			return true
		}
	}
	return false
}

func (e *testEnv) reload(t *testing.T, commentID string) *models.Comment {
	t.Helper()
	comment, err := e.comments.GetCommentByID(commentID)
	require.NoError(t, err)
	return comment
}
