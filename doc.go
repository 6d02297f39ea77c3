/*
Package threadpool provides a fixed-size worker pool whose submissions return
futures, plus the pieces needed to run one in production.

Task Execution (pkg/scheduling):
  - workerpool: Fixed worker count, unbounded FIFO queue, generic futures,
    graceful drain on shutdown
  - scheduler: One-time, interval and cron submissions into a pool

Support (pkg):
  - metrics: Prometheus collectors for pools and schedulers
  - config: YAML pool and schedule settings
  - common/errors: Sentinel and structured errors shared by every package
  - common/validation: Parameter checks that produce ValidationErrors

Example usage:

	import "github.com/qiuyinlan/threadpool/pkg/scheduling/workerpool"

	pool, err := workerpool.New(4)
	if err != nil {
		return err
	}
	defer pool.Close()

	f, err := workerpool.SubmitFunc(pool, func() int { return 6 * 7 })
	if err != nil {
		return err
	}
	answer, _ := f.Wait()

Error handling:

	if errors.Is(err, workerpool.ErrPoolClosed) {
		// shutdown already signaled
	}

	var verr *tperrors.ValidationError
	if errors.As(err, &verr) {
		// bad configuration, e.g. zero workers
	}

Tasks that fail or panic never stop their worker; the failure reaches the
task's future. See each package's documentation for details.
*/
package threadpool
