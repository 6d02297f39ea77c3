package scheduler

import (
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/qiuyinlan/threadpool/internal/testutil"
	tperrors "github.com/qiuyinlan/threadpool/pkg/common/errors"
	"github.com/qiuyinlan/threadpool/pkg/metrics"
	"github.com/qiuyinlan/threadpool/pkg/scheduling/workerpool"
)

func countingTask(n *atomic.Int64) workerpool.Task {
	return workerpool.TaskFunc(func() error {
		n.Add(1)
		return nil
	})
}

func newTestScheduler(t *testing.T, cfg Config) *Scheduler {
	t.Helper()
	if cfg.TickInterval == 0 {
		cfg.TickInterval = 5 * time.Millisecond
	}
	s, err := NewWithConfig(cfg)
	testutil.AssertNoError(t, err)
	return s
}

func TestScheduleAfterRunsOnce(t *testing.T) {
	s := newTestScheduler(t, Config{})
	testutil.AssertNoError(t, s.Start())

	var runs atomic.Int64
	testutil.AssertNoError(t, s.ScheduleAfter("once", countingTask(&runs), 10*time.Millisecond))

	testutil.WaitForInt64(t, &runs, 1, time.Second)
	time.Sleep(30 * time.Millisecond)
	testutil.AssertEqual(t, runs.Load(), int64(1))
	testutil.AssertEqual(t, len(s.Entries()), 0)

	<-s.Stop()
}

func TestScheduleRepeating(t *testing.T) {
	pool, err := workerpool.New(2)
	testutil.AssertNoError(t, err)
	defer pool.Close()

	s := newTestScheduler(t, Config{Pool: pool})
	testutil.AssertNoError(t, s.Start())

	var runs atomic.Int64
	testutil.AssertNoError(t, s.ScheduleRepeating("tick", countingTask(&runs), 10*time.Millisecond))

	testutil.Eventually(t, func() bool { return runs.Load() >= 3 }, 2*time.Second, time.Millisecond)
	testutil.AssertEqual(t, s.Cancel("tick"), true)
	testutil.AssertEqual(t, s.Cancel("tick"), false)

	<-s.Stop()
	testutil.AssertEqual(t, pool.IsShutdown(), false)
}

func TestScheduleCronEverySecond(t *testing.T) {
	s := newTestScheduler(t, Config{})
	testutil.AssertNoError(t, s.Start())
	defer func() { <-s.Stop() }()

	var runs atomic.Int64
	testutil.AssertNoError(t, s.ScheduleCron("every-second", "* * * * * *", countingTask(&runs)))

	next, err := s.Next("every-second")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, next.After(time.Now().Add(-time.Second)), true)

	testutil.WaitForInt64(t, &runs, 1, 3*time.Second)

	entries := s.Entries()
	testutil.AssertEqual(t, len(entries), 1)
	testutil.AssertEqual(t, entries[0].Cron, "* * * * * *")
	testutil.AssertEqual(t, entries[0].Runs >= 1, true)
}

func TestScheduleValidation(t *testing.T) {
	s := newTestScheduler(t, Config{})
	defer func() { <-s.Stop() }()

	var runs atomic.Int64
	task := countingTask(&runs)

	testutil.AssertEqual(t, tperrors.IsValidationError(s.ScheduleAfter("", task, time.Second)), true)
	testutil.AssertEqual(t, tperrors.IsValidationError(s.ScheduleAfter(strings.Repeat("x", 256), task, time.Second)), true)
	testutil.AssertErrorIs(t, s.ScheduleAfter("nil", nil, time.Second), tperrors.ErrNilTask)
	testutil.AssertEqual(t, tperrors.IsValidationError(s.Schedule("zero", task, time.Time{})), true)
	testutil.AssertEqual(t, tperrors.IsValidationError(s.ScheduleRepeating("neg", task, -time.Second)), true)
	testutil.AssertEqual(t, tperrors.IsValidationError(s.ScheduleCron("bad", "not a cron", task)), true)
	testutil.AssertEqual(t, tperrors.IsValidationError(s.ScheduleCron("empty", "", task)), true)

	testutil.AssertNoError(t, s.ScheduleAfter("dup", task, time.Hour))
	testutil.AssertErrorIs(t, s.ScheduleAfter("dup", task, time.Hour), ErrDuplicateID)

	_, err := s.Next("missing")
	testutil.AssertErrorIs(t, err, ErrNotFound)
}

func TestMaxEntries(t *testing.T) {
	s := newTestScheduler(t, Config{MaxEntries: 2})
	defer func() { <-s.Stop() }()

	var runs atomic.Int64
	testutil.AssertNoError(t, s.ScheduleAfter("a", countingTask(&runs), time.Hour))
	testutil.AssertNoError(t, s.ScheduleAfter("b", countingTask(&runs), time.Hour))
	testutil.AssertErrorIs(t, s.ScheduleAfter("c", countingTask(&runs), time.Hour), ErrTooManyEntries)

	s.CancelAll()
	testutil.AssertEqual(t, len(s.Entries()), 0)
}

func TestEntriesSortedByNextRun(t *testing.T) {
	s := newTestScheduler(t, Config{})
	defer func() { <-s.Stop() }()

	var runs atomic.Int64
	testutil.AssertNoError(t, s.ScheduleAfter("late", countingTask(&runs), time.Hour))
	testutil.AssertNoError(t, s.ScheduleAfter("early", countingTask(&runs), time.Minute))

	entries := s.Entries()
	testutil.AssertEqual(t, entries[0].ID, "early")
	testutil.AssertEqual(t, entries[1].ID, "late")
}

func TestStartTwice(t *testing.T) {
	s := newTestScheduler(t, Config{})
	testutil.AssertNoError(t, s.Start())
	testutil.AssertErrorIs(t, s.Start(), ErrAlreadyRunning)
	<-s.Stop()

	// A stopped scheduler can be started again.
	testutil.AssertNoError(t, s.Start())
	<-s.Stop()
}

func TestRejectedSubmissionsAreCounted(t *testing.T) {
	pool, err := workerpool.New(1)
	testutil.AssertNoError(t, err)
	<-pool.Shutdown()

	var buf testutil.SafeBuffer
	reg := metrics.NewRegistry(prometheus.NewRegistry())
	s := newTestScheduler(t, Config{
		Pool:    pool,
		Name:    "closed",
		Logger:  slog.New(slog.NewTextHandler(&buf, nil)),
		Metrics: reg,
	})

	var runs atomic.Int64
	testutil.AssertNoError(t, s.ScheduleRepeating("job", countingTask(&runs), 5*time.Millisecond))
	testutil.AssertNoError(t, s.Start())

	testutil.Eventually(t, func() bool {
		return promtest.ToFloat64(reg.ScheduledRejected.WithLabelValues("closed", "job")) >= 1
	}, time.Second, time.Millisecond)
	<-s.Stop()

	testutil.AssertEqual(t, runs.Load(), int64(0))
	testutil.AssertEqual(t, strings.Contains(buf.String(), "scheduled submission rejected"), true)
	testutil.AssertEqual(t, promtest.ToFloat64(reg.ScheduledEntries.WithLabelValues("closed")), 1.0)
	testutil.AssertEqual(t, promtest.ToFloat64(reg.ScheduledRuns.WithLabelValues("closed", "job")), 0.0)
}

func TestScheduleCronNextRun(t *testing.T) {
	s := newTestScheduler(t, Config{Location: time.UTC})
	defer func() { <-s.Stop() }()

	schedule, err := NewParser().Parse("0 */15 * * * *")
	testutil.AssertNoError(t, err)

	var runs atomic.Int64
	before := time.Now().UTC()
	testutil.AssertNoError(t, s.ScheduleCron("quarter-hour", "0 */15 * * * *", countingTask(&runs)))
	after := time.Now().UTC()

	next, err := s.Next("quarter-hour")
	testutil.AssertNoError(t, err)
	if !next.Equal(schedule.Next(before)) && !next.Equal(schedule.Next(after)) {
		t.Errorf("Next() = %v, want %v", next, schedule.Next(before))
	}
	testutil.AssertEqual(t, next.Second(), 0)
	testutil.AssertEqual(t, next.Minute()%15, 0)

	entries := s.Entries()
	testutil.AssertEqual(t, len(entries), 1)
	testutil.AssertEqual(t, entries[0].Cron, "0 */15 * * * *")
}

func TestValidateCronExpression(t *testing.T) {
	tests := []struct {
		expr    string
		wantErr bool
	}{
		{"*/15 * * * *", false},
		{"0 */15 * * * *", false},
		{"0 30 2 * * *", false},
		{"@hourly", false},
		{"@every 1m30s", false},
		{"", true},
		{"61 * * * *", true},
		{"every minute", true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			err := ValidateCronExpression(tt.expr)
			if tt.wantErr {
				testutil.AssertErrorIs(t, err, tperrors.ErrInvalidConfiguration)
			} else {
				testutil.AssertNoError(t, err)
			}
		})
	}
}

func TestOwnedPoolShutsDownOnStop(t *testing.T) {
	s := newTestScheduler(t, Config{})
	pool := s.Pool()
	testutil.AssertNoError(t, s.Start())

	<-s.Stop()
	testutil.AssertEqual(t, pool.IsShutdown(), true)

	err := pool.Submit(workerpool.TaskFunc(func() error { return nil }))
	testutil.AssertEqual(t, errors.Is(err, workerpool.ErrPoolClosed), true)
}
