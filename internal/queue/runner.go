package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pressmod/backend/internal/models"
	"github.com/pressmod/backend/internal/repositories"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Handler executes one task. Returning an error releases the task for
// redelivery (until its attempt budget runs out), so handlers must be
// idempotent.
type Handler func(ctx context.Context, task models.Task) error

// Options configures a Runner.
type Options struct {
	// Workers is the size of the worker pool. Defaults to 4.
	Workers int
	// PollSpec is the cron spec for sweeping due tasks. Defaults to "@every 2s".
	PollSpec string
	// BatchSize caps how many due tasks one sweep claims. Defaults to 20.
	BatchSize int
}

// Runner consumes the durable task queue with a worker pool. A cron-driven
// sweep claims due tasks and feeds them to the pool; claims are per-row
// compare-and-set, so overlapping sweeps never double-deliver within one
// process generation.
type Runner struct {
	tasks    repositories.TaskRepository
	handlers map[models.TaskKind]Handler
	cron     *cron.Cron
	jobs     chan models.Task
	wg       sync.WaitGroup
	opts     Options
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewRunner creates a Runner. Register handlers before calling Start.
func NewRunner(tasks repositories.TaskRepository, opts Options, logger *zap.Logger) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.PollSpec == "" {
		opts.PollSpec = "@every 2s"
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		tasks:    tasks,
		handlers: make(map[models.TaskKind]Handler),
		cron:     cron.New(),
		jobs:     make(chan models.Task, opts.Workers*2),
		opts:     opts,
		logger:   logger.Named("queue"),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Register binds a handler to a task kind.
func (r *Runner) Register(kind models.TaskKind, handler Handler) {
	r.handlers[kind] = handler
}

// Start launches the worker pool and the due-task sweep.
func (r *Runner) Start() error {
	for i := 0; i < r.opts.Workers; i++ {
		r.wg.Add(1)
		go r.worker()
	}

	if _, err := r.cron.AddFunc(r.opts.PollSpec, func() { r.Tick() }); err != nil {
		return fmt.Errorf("scheduling queue sweep: %w", err)
	}
	r.cron.Start()
	r.logger.Info("queue runner started",
		zap.Int("workers", r.opts.Workers),
		zap.String("poll", r.opts.PollSpec))
	return nil
}

// Tick claims one batch of due tasks and dispatches them. Exposed so tests
// can drive the queue without waiting on the cron schedule.
func (r *Runner) Tick() {
	claimed, err := r.tasks.ClaimDue(time.Now(), r.opts.BatchSize)
	if err != nil {
		r.logger.Error("claiming due tasks failed", zap.Error(err))
	}
	for _, task := range claimed {
		select {
		case r.jobs <- task:
		case <-r.ctx.Done():
			// Shutting down mid-dispatch; release so the next process
			// generation redelivers.
			if err := r.tasks.Release(&task, nil); err != nil {
				r.logger.Error("releasing task on shutdown failed",
					zap.String("task_id", task.ID), zap.Error(err))
			}
			return
		}
	}
}

func (r *Runner) worker() {
	defer r.wg.Done()
	for task := range r.jobs {
		r.run(task)
	}
}

func (r *Runner) run(task models.Task) {
	handler, ok := r.handlers[task.Kind]
	if !ok {
		r.logger.Error("no handler registered for task kind",
			zap.String("task_id", task.ID),
			zap.String("kind", string(task.Kind)))
		if err := r.tasks.Release(&task, fmt.Errorf("no handler for kind %s", task.Kind)); err != nil {
			r.logger.Error("releasing unhandled task failed", zap.Error(err))
		}
		return
	}

	if err := handler(r.ctx, task); err != nil {
		r.logger.Warn("task failed, releasing for redelivery",
			zap.String("task_id", task.ID),
			zap.String("kind", string(task.Kind)),
			zap.Int("attempts", task.Attempts),
			zap.Error(err))
		if releaseErr := r.tasks.Release(&task, err); releaseErr != nil {
			r.logger.Error("releasing failed task failed", zap.Error(releaseErr))
		}
		return
	}

	if err := r.tasks.MarkDone(task.ID); err != nil {
		r.logger.Error("marking task done failed",
			zap.String("task_id", task.ID), zap.Error(err))
	}
}

// Stop halts the sweep, drains in-flight tasks, and waits for the pool.
func (r *Runner) Stop() {
	stopCtx := r.cron.Stop()
	<-stopCtx.Done()
	r.cancel()
	close(r.jobs)
	r.wg.Wait()
	r.logger.Info("queue runner stopped")
}
