// Package scheduler submits tasks to a worker pool on a timetable.
//
// A Scheduler keeps a set of entries, each a workerpool.Task plus a rule for
// when it is due: a fixed time, a fixed interval, or a cron expression. A
// ticker loop checks for due entries and hands them to the pool with
// Pool.Submit; the pool's workers run them. The scheduler never executes
// tasks itself, so a slow task delays nothing but its own worker.
//
// Basic Usage:
//
//	pool, _ := workerpool.New(4)
//	defer pool.Close()
//
//	s, _ := scheduler.NewWithConfig(scheduler.Config{Pool: pool})
//	_ = s.Start()
//	defer func() { <-s.Stop() }()
//
//	report := workerpool.TaskFunc(func() error {
//		return sendReport()
//	})
//
//	_ = s.ScheduleCron("nightly-report", "0 30 2 * * *", report)
//	_ = s.ScheduleRepeating("heartbeat", ping, 10*time.Second)
//	_ = s.ScheduleAfter("warmup", warm, time.Minute)
//
// Cron Expressions:
//
// Expressions take five fields (minute hour day-of-month month day-of-week)
// with an optional leading seconds field, or a descriptor:
//
//	"0 */15 * * * *"   every 15 minutes, on the minute
//	"0 30 2 * * *"     02:30:00 every day
//	"@hourly"          start of every hour
//	"@every 1m30s"     every 90 seconds
//
// Use ValidateCronExpression to check an expression before scheduling it.
//
// Shutdown:
//
// When the pool rejects a submission because it has been shut down, the run is
// counted as rejected and logged; the entry stays scheduled. Stop halts the
// ticker loop. If the scheduler created its own pool (Config.Pool was nil),
// Stop also shuts that pool down and waits for it to drain.
package scheduler
