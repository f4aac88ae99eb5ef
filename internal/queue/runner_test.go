package queue

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pressmod/backend/internal/models"
	"github.com/pressmod/backend/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestRepo(t *testing.T) repositories.TaskRepository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Task{}))
	return repositories.NewPostgresTaskRepository(db, 3)
}

func TestRunnerExecutesDueTasks(t *testing.T) {
	repo := newTestRepo(t)
	runner := NewRunner(repo, Options{Workers: 2, PollSpec: "@every 1h"}, zaptest.NewLogger(t))

	var handled int64
	runner.Register(models.TaskModerateComment, func(ctx context.Context, task models.Task) error {
		atomic.AddInt64(&handled, 1)
		return nil
	})
	require.NoError(t, runner.Start())
	defer runner.Stop()

	require.NoError(t, repo.Enqueue(&models.Task{
		Kind:      models.TaskModerateComment,
		CommentID: "c1",
		RunAt:     time.Now().Add(-time.Second),
	}))

	runner.Tick()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(&handled) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRunnerSkipsFutureTasks(t *testing.T) {
	repo := newTestRepo(t)
	runner := NewRunner(repo, Options{Workers: 1, PollSpec: "@every 1h"}, zaptest.NewLogger(t))

	var handled int64
	runner.Register(models.TaskPurgeComment, func(ctx context.Context, task models.Task) error {
		atomic.AddInt64(&handled, 1)
		return nil
	})
	require.NoError(t, runner.Start())
	defer runner.Stop()

	require.NoError(t, repo.Enqueue(&models.Task{
		Kind:      models.TaskPurgeComment,
		CommentID: "c1",
		RunAt:     time.Now().Add(time.Hour),
	}))

	runner.Tick()
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, atomic.LoadInt64(&handled), "not-before bound must hold")
}

func TestRunnerReleasesFailedTasks(t *testing.T) {
	repo := newTestRepo(t)
	runner := NewRunner(repo, Options{Workers: 1, PollSpec: "@every 1h"}, zaptest.NewLogger(t))

	var attempts int64
	runner.Register(models.TaskModerateComment, func(ctx context.Context, task models.Task) error {
		if atomic.AddInt64(&attempts, 1) == 1 {
			return fmt.Errorf("transient failure")
		}
		return nil
	})
	require.NoError(t, runner.Start())
	defer runner.Stop()

	require.NoError(t, repo.Enqueue(&models.Task{
		Kind:      models.TaskModerateComment,
		CommentID: "c1",
		RunAt:     time.Now().Add(-time.Second),
	}))

	runner.Tick()
	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(&attempts) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// The failed task went back to pending; the next sweep redelivers it.
	assert.Eventually(t, func() bool {
		runner.Tick()
		return atomic.LoadInt64(&attempts) >= 2
	}, 2*time.Second, 20*time.Millisecond)
}
