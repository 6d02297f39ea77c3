package scheduler

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	tperrors "github.com/qiuyinlan/threadpool/pkg/common/errors"
	"github.com/qiuyinlan/threadpool/pkg/common/validation"
	"github.com/qiuyinlan/threadpool/pkg/metrics"
	"github.com/qiuyinlan/threadpool/pkg/scheduling/workerpool"
)

var (
	// ErrDuplicateID is returned when an entry with the same ID is already scheduled.
	ErrDuplicateID = errors.New("scheduler: entry ID already exists")

	// ErrNotFound is returned when no entry has the given ID.
	ErrNotFound = errors.New("scheduler: entry not found")

	// ErrTooManyEntries is returned when MaxEntries would be exceeded.
	ErrTooManyEntries = errors.New("scheduler: maximum number of entries reached")

	// ErrAlreadyRunning is returned by Start on a running scheduler.
	ErrAlreadyRunning = errors.New("scheduler: already running")
)

const maxIDLength = 255

// Entry describes a scheduled task.
type Entry struct {
	ID       string
	Cron     string        // Empty for interval and one-time entries
	Interval time.Duration // Zero for one-time and cron entries
	NextRun  time.Time
	Runs     int64
	Created  time.Time
}

// Config holds scheduler configuration.
type Config struct {
	// Pool receives due tasks. If nil the scheduler creates and owns a
	// four-worker pool, shut down by Stop.
	Pool workerpool.Pool

	// Name labels the scheduler in logs and metrics. Defaults to "scheduler".
	Name string

	// Location is used to evaluate cron expressions. Defaults to time.Local.
	Location *time.Location

	// TickInterval is how often due entries are checked (default: 50ms).
	TickInterval time.Duration

	// MaxEntries bounds the number of scheduled entries (default: 10000).
	MaxEntries int

	// Logger receives submission failures and lifecycle events. Nil discards them.
	Logger *slog.Logger

	// Metrics, when set, records runs, rejected runs and entry counts.
	Metrics *metrics.Registry
}

type entry struct {
	id       string
	task     workerpool.Task
	cronExpr string
	schedule cron.Schedule
	interval time.Duration
	runAt    time.Time
	runs     int64
	created  time.Time
}

// Scheduler submits tasks to a worker pool at fixed times, at fixed
// intervals, or on cron schedules. It never runs tasks itself.
type Scheduler struct {
	name         string
	pool         workerpool.Pool
	ownPool      bool
	location     *time.Location
	tickInterval time.Duration
	maxEntries   int
	parser       cron.Parser
	logger       *slog.Logger
	metrics      *metrics.Registry

	mu      sync.Mutex
	entries map[string]*entry
	running bool
	done    chan struct{}
	stopped chan struct{}
}

// New creates a scheduler with default configuration.
func New() (*Scheduler, error) {
	return NewWithConfig(Config{})
}

// NewWithConfig creates a scheduler with custom configuration.
func NewWithConfig(cfg Config) (*Scheduler, error) {
	pool := cfg.Pool
	ownPool := false
	if pool == nil {
		p, err := workerpool.NewWithConfig(workerpool.Config{
			WorkerCount: 4,
			Name:        "scheduler-pool",
			Logger:      cfg.Logger,
		})
		if err != nil {
			return nil, err
		}
		pool = p
		ownPool = true
	}

	name := cfg.Name
	if name == "" {
		name = "scheduler"
	}

	location := cfg.Location
	if location == nil {
		location = time.Local
	}

	tickInterval := cfg.TickInterval
	if tickInterval <= 0 {
		tickInterval = 50 * time.Millisecond
	}

	maxEntries := cfg.MaxEntries
	if maxEntries <= 0 {
		maxEntries = 10000
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Scheduler{
		name:         name,
		pool:         pool,
		ownPool:      ownPool,
		location:     location,
		tickInterval: tickInterval,
		maxEntries:   maxEntries,
		parser:       NewParser(),
		logger:       logger.With("scheduler", name),
		metrics:      cfg.Metrics,
		entries:      make(map[string]*entry),
	}, nil
}

// NewParser returns the cron parser used by schedulers: an optional leading
// seconds field followed by the standard five fields, plus descriptors such
// as "@hourly" and "@every 5m".
func NewParser() cron.Parser {
	return cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
}

// ValidateCronExpression reports whether expr parses.
func ValidateCronExpression(expr string) error {
	_, err := parseCron(NewParser(), expr)
	return err
}

func parseCron(parser cron.Parser, expr string) (cron.Schedule, error) {
	if err := validation.ValidateNotEmpty("scheduler", "cron", expr); err != nil {
		return nil, err
	}
	schedule, err := parser.Parse(expr)
	if err != nil {
		return nil, tperrors.NewValidationError("scheduler", "cron", expr, err.Error())
	}
	return schedule, nil
}

// Pool returns the worker pool that receives due tasks.
func (s *Scheduler) Pool() workerpool.Pool {
	return s.pool
}

// Schedule runs task once at runAt.
func (s *Scheduler) Schedule(id string, task workerpool.Task, runAt time.Time) error {
	if runAt.IsZero() {
		return tperrors.NewValidationError("scheduler", "runAt", runAt, "cannot be zero")
	}
	return s.add(&entry{id: id, task: task, runAt: runAt})
}

// ScheduleAfter runs task once after delay.
func (s *Scheduler) ScheduleAfter(id string, task workerpool.Task, delay time.Duration) error {
	return s.Schedule(id, task, time.Now().Add(delay))
}

// ScheduleRepeating runs task every interval, starting immediately.
func (s *Scheduler) ScheduleRepeating(id string, task workerpool.Task, interval time.Duration) error {
	if interval <= 0 {
		return tperrors.NewValidationError("scheduler", "interval", interval, "must be positive")
	}
	return s.add(&entry{id: id, task: task, interval: interval, runAt: time.Now()})
}

// ScheduleCron runs task whenever the cron expression fires.
func (s *Scheduler) ScheduleCron(id string, cronExpr string, task workerpool.Task) error {
	schedule, err := parseCron(s.parser, cronExpr)
	if err != nil {
		return err
	}

	return s.add(&entry{
		id:       id,
		task:     task,
		cronExpr: cronExpr,
		schedule: schedule,
		runAt:    schedule.Next(time.Now().In(s.location)),
	})
}

func (s *Scheduler) add(e *entry) error {
	if err := validation.ValidateNotEmpty("scheduler", "id", e.id); err != nil {
		return err
	}
	if len(e.id) > maxIDLength {
		return tperrors.NewValidationError("scheduler", "id", e.id, "too long").
			WithHint(fmt.Sprintf("use at most %d characters", maxIDLength))
	}
	if e.task == nil {
		return tperrors.ErrNilTask
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[e.id]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateID, e.id)
	}
	if len(s.entries) >= s.maxEntries {
		return fmt.Errorf("%w (%d)", ErrTooManyEntries, s.maxEntries)
	}

	e.created = time.Now()
	s.entries[e.id] = e
	s.updateEntriesLocked()

	s.logger.Debug("entry scheduled", "entry", e.id, "next_run", e.runAt)
	return nil
}

// Cancel removes the entry with the given ID.
func (s *Scheduler) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[id]; !exists {
		return false
	}
	delete(s.entries, id)
	s.updateEntriesLocked()
	return true
}

// CancelAll removes every entry.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*entry)
	s.updateEntriesLocked()
}

// Next returns when the entry will next be submitted.
func (s *Scheduler) Next(id string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return e.runAt, nil
}

// Entries returns all entries ordered by next run time.
func (s *Scheduler) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, Entry{
			ID:       e.id,
			Cron:     e.cronExpr,
			Interval: e.interval,
			NextRun:  e.runAt,
			Runs:     e.runs,
			Created:  e.created,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].NextRun.Before(out[j].NextRun)
	})
	return out
}

// Start begins checking for due entries.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}

	s.running = true
	s.done = make(chan struct{})
	s.stopped = make(chan struct{})

	go s.run(s.done, s.stopped)
	s.logger.Info("scheduler started", "tick", s.tickInterval)
	return nil
}

// Stop halts the scheduler. The returned channel closes once the loop has
// exited and, if the scheduler owns its pool, the pool has drained.
func (s *Scheduler) Stop() <-chan struct{} {
	s.mu.Lock()
	loopStopped := s.stopped
	if s.running {
		s.running = false
		close(s.done)
	}
	s.mu.Unlock()

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		if loopStopped != nil {
			<-loopStopped
		}
		if s.ownPool {
			<-s.pool.Shutdown()
		}
		s.logger.Info("scheduler stopped")
	}()

	return stopped
}

func (s *Scheduler) run(done <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case now := <-ticker.C:
			s.processDue(now)
		}
	}
}

// processDue submits every entry whose run time has passed and reschedules
// repeating ones. Submission happens outside the scheduler lock.
func (s *Scheduler) processDue(now time.Time) {
	s.mu.Lock()
	due := make([]*entry, 0, len(s.entries))
	for id, e := range s.entries {
		if e.runAt.After(now) {
			continue
		}
		due = append(due, e)
		e.runs++

		switch {
		case e.interval > 0:
			e.runAt = now.Add(e.interval)
		case e.schedule != nil:
			e.runAt = e.schedule.Next(now.In(s.location))
		default:
			delete(s.entries, id)
		}
	}
	s.updateEntriesLocked()
	s.mu.Unlock()

	for _, e := range due {
		s.submit(e)
	}
}

func (s *Scheduler) submit(e *entry) {
	err := s.pool.Submit(e.task)
	if err == nil {
		if s.metrics != nil {
			s.metrics.ScheduledRuns.WithLabelValues(s.name, e.id).Inc()
		}
		return
	}

	if s.metrics != nil {
		s.metrics.ScheduledRejected.WithLabelValues(s.name, e.id).Inc()
	}
	opErr := tperrors.NewOperationError("scheduler", "Submit", err).WithContext("entry " + e.id)
	s.logger.Warn("scheduled submission rejected", "entry", e.id, "error", opErr)
}

func (s *Scheduler) updateEntriesLocked() {
	if s.metrics != nil {
		s.metrics.ScheduledEntries.WithLabelValues(s.name).Set(float64(len(s.entries)))
	}
}
