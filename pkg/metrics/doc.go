// Package metrics provides Prometheus instrumentation for threadpool components.
//
// # Overview
//
// The metrics package provides instrumentation for:
//   - Worker pools (submissions, rejections, executions, failures, panics,
//     queue wait, execution time, pool size, active workers, queued tasks)
//   - Cron schedulers (ticks, rejected ticks, registered entries)
//
// # Quick Start
//
// Enable metrics by using the metrics-enabled constructors:
//
//	pool, err := workerpool.NewWithMetrics(4, "image_resize")
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.Handler())
//	log.Fatal(http.ListenAndServe(":8080", nil))
//
// # Custom Registry
//
// Use a custom Prometheus registry for isolation:
//
//	registry := prometheus.NewRegistry()
//	pool, err := workerpool.NewWithConfigAndMetrics(
//		workerpool.Config{WorkerCount: 4},
//		"image_resize",
//		metrics.Config{Enabled: true, Registry: registry},
//	)
//
// # Available Metrics
//
//   - threadpool_workerpool_tasks_submitted_total
//   - threadpool_workerpool_tasks_rejected_total
//   - threadpool_workerpool_tasks_executed_total
//   - threadpool_workerpool_tasks_completed_total
//   - threadpool_workerpool_tasks_failed_total
//   - threadpool_workerpool_task_panics_total
//   - threadpool_workerpool_task_queue_wait_seconds
//   - threadpool_workerpool_task_duration_seconds
//   - threadpool_workerpool_size
//   - threadpool_workerpool_active_workers
//   - threadpool_workerpool_queued_tasks
//   - threadpool_scheduler_runs_total
//   - threadpool_scheduler_rejected_total
//   - threadpool_scheduler_entries
//
// # Labels
//
//   - pool_name: User-provided name for the worker pool instance
//   - scheduler_name: User-provided name for the scheduler instance
//   - entry: Cron entry ID
//
// Constant labels from Config.Labels are attached to every metric, and
// Config.Namespace replaces the "threadpool" prefix.
package metrics
