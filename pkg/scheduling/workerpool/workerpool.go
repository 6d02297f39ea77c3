package workerpool

import (
	"time"

	tperrors "github.com/qiuyinlan/threadpool/pkg/common/errors"
)

// Submit adds a task to the pool for execution.
// The closed check and the enqueue happen under the queue lock, so a task
// accepted here is always executed before shutdown completes.
func (p *workerPool) Submit(task Task) error {
	if task == nil {
		return tperrors.ErrNilTask
	}

	if err := p.queue.push(task); err != nil {
		return err
	}
	p.totalSubmitted.Add(1)
	return nil
}

// Shutdown initiates a graceful shutdown of the pool.
func (p *workerPool) Shutdown() <-chan struct{} {
	p.shutdownOnce.Do(func() {
		pending := p.queue.len()
		p.queue.close()
		p.logger.Info("worker pool shutting down", "pending", pending)

		// Wait for all workers to drain the queue in a separate goroutine
		go func() {
			p.workerWg.Wait()
			p.logger.Info("worker pool stopped", "completed", p.totalCompleted.Load())
			close(p.done)
		}()
	})

	return p.done
}

// Close shuts the pool down and waits for it to finish.
func (p *workerPool) Close() error {
	<-p.Shutdown()
	return nil
}

// ID returns the unique identifier of this pool instance.
func (p *workerPool) ID() string {
	return p.id
}

// Name returns the configured pool name.
func (p *workerPool) Name() string {
	return p.config.Name
}

// Size returns the number of workers in the pool.
func (p *workerPool) Size() int {
	return p.config.WorkerCount
}

// QueueSize returns the current number of queued tasks waiting for execution.
func (p *workerPool) QueueSize() int {
	return p.queue.len()
}

// ActiveWorkers returns the number of workers currently executing tasks.
func (p *workerPool) ActiveWorkers() int {
	return int(p.activeWorkers.Load())
}

// TotalSubmitted returns the total number of tasks accepted by the pool.
func (p *workerPool) TotalSubmitted() int64 {
	return p.totalSubmitted.Load()
}

// TotalCompleted returns the total number of tasks executed by the pool.
func (p *workerPool) TotalCompleted() int64 {
	return p.totalCompleted.Load()
}

// IsShutdown reports whether shutdown has been signaled.
func (p *workerPool) IsShutdown() bool {
	return p.queue.isClosed()
}

// run is the main loop for a worker.
func (w *worker) run() {
	defer w.pool.workerWg.Done()

	if w.pool.config.OnWorkerStart != nil {
		w.pool.config.OnWorkerStart(w.id)
	}
	w.pool.logger.Debug("worker started", "worker", w.id)

	defer func() {
		w.pool.logger.Debug("worker stopped", "worker", w.id)
		if w.pool.config.OnWorkerStop != nil {
			w.pool.config.OnWorkerStop(w.id)
		}
	}()

	for {
		task, ok := w.pool.queue.pop()
		if !ok {
			// Shutdown signaled and nothing left to drain
			return
		}
		w.executeTask(task)
	}
}

// executeTask executes a single task, containing any panic it raises.
func (w *worker) executeTask(task Task) {
	pool := w.pool
	start := time.Now()
	var err error

	pool.activeWorkers.Add(1)

	defer func() {
		if r := recover(); r != nil {
			perr := newPanicError(r)
			err = perr
			if pool.config.PanicHandler != nil {
				pool.config.PanicHandler(task, r)
			} else {
				pool.logger.Warn("task panicked", "worker", w.id, "panic", r, "stack", string(perr.Stack))
			}
		}

		pool.activeWorkers.Add(-1)
		pool.totalCompleted.Add(1)

		if pool.config.OnTaskComplete != nil {
			pool.config.OnTaskComplete(w.id, Result{
				Task:     task,
				Error:    err,
				Duration: time.Since(start),
				WorkerID: w.id,
			})
		}
	}()

	if pool.config.OnTaskStart != nil {
		pool.config.OnTaskStart(w.id, task)
	}

	err = task.Execute()
}
