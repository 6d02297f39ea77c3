package workerpool

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	tperrors "github.com/qiuyinlan/threadpool/pkg/common/errors"
	"github.com/qiuyinlan/threadpool/pkg/metrics"
)

// MetricsPool wraps a worker Pool with Prometheus metrics collection.
type MetricsPool struct {
	Pool
	registry atomic.Pointer[metrics.Registry]
	enabled  atomic.Bool
}

// NewWithMetrics creates a new worker pool with metrics enabled on a
// dedicated Prometheus registry.
func NewWithMetrics(workerCount int, name string) (Pool, error) {
	// Use a separate registry for each metrics-enabled component to avoid conflicts
	config := metrics.Config{
		Enabled:  true,
		Registry: prometheus.NewRegistry(),
	}

	return NewWithConfigAndMetrics(Config{
		WorkerCount: workerCount,
		Name:        name,
	}, name, config)
}

// NewWithConfigAndMetrics creates a new worker pool with custom config and metrics.
// When metricsConfig is disabled the plain pool is returned.
func NewWithConfigAndMetrics(config Config, name string, metricsConfig metrics.Config) (Pool, error) {
	if config.Name == "" {
		config.Name = name
	}

	basePool, err := NewWithConfig(config)
	if err != nil {
		return nil, err
	}

	if !metricsConfig.Enabled {
		return basePool, nil
	}

	registry := metrics.DefaultRegistry
	if metricsConfig.Registry != nil {
		registry = metrics.New(metricsConfig)
	}

	mp := &MetricsPool{Pool: basePool}
	mp.registry.Store(registry)
	mp.enabled.Store(true)

	// Initialize metrics
	mp.updateMetrics()

	return mp, nil
}

// updateMetrics updates the current state gauges.
func (mp *MetricsPool) updateMetrics() {
	if !mp.enabled.Load() {
		return
	}

	r := mp.registry.Load()
	name := mp.Name()
	r.WorkerPoolSize.WithLabelValues(name).Set(float64(mp.Size()))
	r.WorkerPoolActive.WithLabelValues(name).Set(float64(mp.Pool.ActiveWorkers()))
	r.WorkerPoolQueued.WithLabelValues(name).Set(float64(mp.Pool.QueueSize()))
}

// Submit wraps the task to collect metrics and adds it to the pool.
func (mp *MetricsPool) Submit(task Task) error {
	if task == nil {
		return mp.Pool.Submit(task)
	}

	wrappedTask := &metricsTask{
		original:   task,
		pool:       mp,
		submitTime: time.Now(),
	}

	err := mp.Pool.Submit(wrappedTask)

	if mp.enabled.Load() {
		r := mp.registry.Load()
		switch {
		case err == nil:
			r.TasksSubmitted.WithLabelValues(mp.Name()).Inc()
		case tperrors.IsClosed(err):
			r.TasksRejected.WithLabelValues(mp.Name()).Inc()
		}
		mp.updateMetrics()
	}

	return err
}

// metricsTask wraps a Task to collect execution metrics.
type metricsTask struct {
	original   Task
	pool       *MetricsPool
	submitTime time.Time
}

// Execute runs the original task and records metrics. A panic from the
// original task is recorded and then re-raised for the worker to handle.
func (mt *metricsTask) Execute() (err error) {
	start := time.Now()
	mp := mt.pool

	if mp.enabled.Load() {
		mp.registry.Load().TaskQueueWait.WithLabelValues(mp.Name()).Observe(start.Sub(mt.submitTime).Seconds())
		mp.updateMetrics()
	}

	defer func() {
		r := recover()
		if mp.enabled.Load() {
			mt.record(start, err, r != nil)
		}
		if r != nil {
			panic(r)
		}
	}()

	return mt.original.Execute()
}

func (mt *metricsTask) record(start time.Time, err error, panicked bool) {
	mp := mt.pool
	r := mp.registry.Load()
	name := mp.Name()

	r.TaskExecutionDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	r.TasksExecuted.WithLabelValues(name).Inc()

	if panicked || tperrors.IsPanic(err) {
		r.TaskPanics.WithLabelValues(name).Inc()
	}

	if panicked || err != nil {
		r.TasksFailed.WithLabelValues(name).Inc()
	} else {
		r.TasksCompleted.WithLabelValues(name).Inc()
	}
}

// QueueSize returns the current number of queued tasks.
func (mp *MetricsPool) QueueSize() int {
	queueSize := mp.Pool.QueueSize()

	if mp.enabled.Load() {
		mp.registry.Load().WorkerPoolQueued.WithLabelValues(mp.Name()).Set(float64(queueSize))
	}

	return queueSize
}

// ActiveWorkers returns the number of workers currently executing tasks.
func (mp *MetricsPool) ActiveWorkers() int {
	activeWorkers := mp.Pool.ActiveWorkers()

	if mp.enabled.Load() {
		mp.registry.Load().WorkerPoolActive.WithLabelValues(mp.Name()).Set(float64(activeWorkers))
	}

	return activeWorkers
}

// Registry returns the metrics registry currently in use.
func (mp *MetricsPool) Registry() *metrics.Registry {
	return mp.registry.Load()
}

// EnableMetrics enables metrics collection.
func (mp *MetricsPool) EnableMetrics(config metrics.Config) error {
	if config.Registry != nil {
		mp.registry.Store(metrics.New(config))
	}
	mp.enabled.Store(config.Enabled)

	mp.updateMetrics()
	return nil
}

// DisableMetrics disables metrics collection.
func (mp *MetricsPool) DisableMetrics() {
	mp.enabled.Store(false)
}

// MetricsEnabled returns true if metrics are currently enabled.
func (mp *MetricsPool) MetricsEnabled() bool {
	return mp.enabled.Load()
}

var _ metrics.Instrumentable = (*MetricsPool)(nil)
