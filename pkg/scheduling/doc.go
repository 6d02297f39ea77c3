/*
Package scheduling groups the task execution primitives:

  - workerpool: Fixed-size worker pool whose submissions return futures
  - scheduler: Time-based submission of tasks into a worker pool

Worker Pool:

	pool, _ := workerpool.New(4)
	defer pool.Close()

	f, _ := workerpool.Submit(pool, func() (string, error) {
		return fetch(url)
	})
	body, err := f.Wait()

Task Scheduler:

The scheduler never executes tasks itself; due entries are submitted to a pool.

	sched, _ := scheduler.NewWithConfig(scheduler.Config{Pool: pool})
	defer func() { <-sched.Stop() }()

	sched.ScheduleAfter("warmup", task, time.Minute)
	sched.ScheduleRepeating("refresh", task, time.Hour)
	sched.ScheduleCron("report", "0 9 * * MON-FRI", task) // Weekdays at 9 AM
	sched.Start()

All components are safe for concurrent use.
*/
package scheduling
