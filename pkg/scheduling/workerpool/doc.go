/*
Package workerpool provides a fixed-size worker pool whose submissions return futures.

A pool starts a fixed number of worker goroutines at construction. Submitted
tasks go into a single unbounded FIFO queue; idle workers take them in
submission order and execute them one at a time. Submitting never waits for
execution.

Basic usage:

	pool, err := workerpool.New(4)
	if err != nil {
		return err
	}
	defer pool.Close()

	future, err := workerpool.Submit(pool, func() (int, error) {
		return expensive(), nil
	})
	if err != nil {
		return err // workerpool.ErrPoolClosed
	}

	value, err := future.Wait()

Futures:

Submit and SubmitFunc are generic per call, so tasks with different result
types share one pool. A Future resolves exactly once, after its work has
finished, with either the returned value and error or a *PanicError when the
work panicked. Wait may be called any number of times and keeps working after
the pool has been shut down.

	futures := make([]*workerpool.Future[int], 8)
	for i := range futures {
		futures[i], _ = workerpool.SubmitFunc(pool, func() int { return i * i })
	}
	for _, f := range futures {
		v, _ := f.Wait()
		fmt.Println(v)
	}

Fire-and-forget tasks implement the Task interface directly:

	err := pool.Submit(workerpool.TaskFunc(func() error {
		return refreshCache()
	}))

Their errors are visible only to Config.OnTaskComplete and metrics, and their
panics go to Config.PanicHandler.

Shutdown:

Shutdown signals the pool to stop accepting work. Every task queued before
that point still runs; workers exit once the queue is empty. The channel
returned by Shutdown closes when the last worker has exited, and Close blocks
on it. After shutdown Submit returns ErrPoolClosed and enqueues nothing.

	<-pool.Shutdown()

Failure containment:

A task that returns an error or panics never stops its worker. The failure is
delivered to whoever waits on that task's future and nowhere else.

Configuration:

	pool, err := workerpool.NewWithConfig(workerpool.Config{
		WorkerCount: 8,
		Name:        "thumbnails",
		Logger:      slog.Default(),
		OnTaskComplete: func(workerID int, result workerpool.Result) {
			log.Printf("worker %d finished in %v", workerID, result.Duration)
		},
	})

A WorkerCount below 1 is rejected with a *errors.ValidationError.

Metrics:

NewWithMetrics and NewWithConfigAndMetrics wrap a pool in a MetricsPool that
reports submissions, rejections, queue wait, execution time and failures to
Prometheus. See package metrics for the metric names.
*/
package workerpool
