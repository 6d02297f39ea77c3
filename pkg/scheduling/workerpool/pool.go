package workerpool

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	tperrors "github.com/qiuyinlan/threadpool/pkg/common/errors"
	"github.com/qiuyinlan/threadpool/pkg/common/validation"
)

// ErrPoolClosed is returned by Submit once shutdown has been signaled.
// It wraps errors.ErrClosed.
var ErrPoolClosed = fmt.Errorf("workerpool: pool is shut down: %w", tperrors.ErrClosed)

// Task represents a unit of work that can be executed by a worker.
type Task interface {
	// Execute runs the task on a worker goroutine. A returned error is
	// reported to OnTaskComplete and metrics; it never stops the worker.
	Execute() error
}

// TaskFunc is a function type that implements the Task interface.
type TaskFunc func() error

// Execute implements the Task interface for TaskFunc.
func (f TaskFunc) Execute() error {
	return f()
}

// Result describes a finished task execution.
type Result struct {
	// Task is the original task that was executed
	Task Task

	// Error is any error returned by the task, or a *PanicError
	Error error

	// Duration is how long the task took to execute
	Duration time.Duration

	// WorkerID identifies which worker executed the task
	WorkerID int
}

// Pool represents a fixed-size worker pool that executes tasks in FIFO order.
type Pool interface {
	// Submit adds a task to the pool for execution.
	// Returns ErrPoolClosed if shutdown has been signaled; nothing is queued then.
	Submit(task Task) error

	// Shutdown signals shutdown. No new tasks are accepted, queued tasks are
	// still executed. Returns a channel that closes once every worker exited.
	// Calling it again returns the same channel.
	Shutdown() <-chan struct{}

	// Close signals shutdown and blocks until the queue is drained and all
	// workers have exited.
	Close() error

	// ID returns the unique identifier of this pool instance.
	ID() string

	// Name returns the configured pool name.
	Name() string

	// Size returns the number of workers in the pool.
	Size() int

	// QueueSize returns the current number of queued tasks waiting for execution.
	QueueSize() int

	// ActiveWorkers returns the number of workers currently executing tasks.
	ActiveWorkers() int

	// TotalSubmitted returns the total number of tasks accepted by the pool.
	TotalSubmitted() int64

	// TotalCompleted returns the total number of tasks executed by the pool,
	// successful or not.
	TotalCompleted() int64

	// IsShutdown reports whether shutdown has been signaled.
	IsShutdown() bool
}

// Config holds configuration options for creating a worker pool.
type Config struct {
	// WorkerCount is the number of workers in the pool.
	// Must be greater than 0.
	WorkerCount int

	// Name labels the pool in logs and metrics. Defaults to "pool-" plus the
	// first eight characters of the pool ID.
	Name string

	// Logger receives lifecycle events. Nil discards them.
	Logger *slog.Logger

	// PanicHandler is called when a task submitted through Pool.Submit panics.
	// If nil, the panic is logged at warn level. Futures never reach it; their
	// panics are delivered through Wait.
	PanicHandler func(task Task, recovered interface{})

	// OnWorkerStart is called when a worker starts.
	OnWorkerStart func(workerID int)

	// OnWorkerStop is called when a worker stops.
	OnWorkerStop func(workerID int)

	// OnTaskStart is called before a task begins execution.
	OnTaskStart func(workerID int, task Task)

	// OnTaskComplete is called after a task completes (success or failure).
	OnTaskComplete func(workerID int, result Result)
}

// workerPool implements the Pool interface.
type workerPool struct {
	config Config
	id     string
	logger *slog.Logger

	queue        *taskQueue
	shutdownOnce sync.Once
	done         chan struct{}

	activeWorkers  atomic.Int64
	totalSubmitted atomic.Int64
	totalCompleted atomic.Int64

	workerWg sync.WaitGroup
}

// worker represents a single worker in the pool.
type worker struct {
	id   int
	pool *workerPool
}

// New creates a new worker pool with the specified number of workers.
func New(workerCount int) (Pool, error) {
	return NewWithConfig(Config{WorkerCount: workerCount})
}

// NewWithConfig creates a new worker pool with the specified configuration.
// A non-positive WorkerCount is rejected with a *errors.ValidationError.
func NewWithConfig(config Config) (Pool, error) {
	if err := validation.ValidatePositive("workerpool", "WorkerCount", config.WorkerCount); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	if config.Name == "" {
		config.Name = "pool-" + id[:8]
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	pool := &workerPool{
		config: config,
		id:     id,
		logger: logger.With("pool", config.Name, "pool_id", id),
		queue:  newTaskQueue(),
		done:   make(chan struct{}),
	}

	pool.workerWg.Add(config.WorkerCount)
	for i := 0; i < config.WorkerCount; i++ {
		w := &worker{id: i, pool: pool}
		go w.run()
	}

	pool.logger.Debug("worker pool started", "workers", config.WorkerCount)
	return pool, nil
}

// MustNew is like New but panics if workerCount is not positive.
func MustNew(workerCount int) Pool {
	p, err := New(workerCount)
	if err != nil {
		panic(err)
	}
	return p
}
