// Package scheduler fires feed update jobs on per-feed cron schedules.
// It owns the three policies that keep a misbehaving feed from taking
// the daemon down: a concurrency gate bounding simultaneous jobs, a
// per-feed lock that drops firings while the previous run is still in
// flight, and a graceful shutdown that abandons jobs outliving the
// grace period.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"feedpress/internal/domain/entity"
	"feedpress/internal/observability/metrics"
	"feedpress/internal/pkg/config"
	"feedpress/internal/usecase/update"
)

// Triggers recorded on job outcomes and metrics.
const (
	TriggerCron   = "cron"
	TriggerManual = "manual"
)

const defaultTickInterval = time.Second

// UpdateRunner runs one feed update job. Implemented by update.Service.
type UpdateRunner interface {
	UpdateFeed(ctx context.Context, feed *entity.Feed, trigger string) *update.JobOutcome
}

// Options configures the scheduler.
type Options struct {
	// DefaultSchedule is the cron expression used for feeds that do not
	// carry their own. Six fields, seconds first.
	DefaultSchedule string

	// JobTimeout bounds one update job. Zero means no deadline.
	JobTimeout time.Duration

	// TickInterval is how often due tasks are checked. Defaults to one
	// second; tests shorten it.
	TickInterval time.Duration

	// Location is the timezone cron expressions are evaluated in.
	// Defaults to the process timezone.
	Location *time.Location
}

type task struct {
	feed     *entity.Feed
	spec     string
	schedule cron.Schedule
	nextFire time.Time
}

// TaskInfo is a read-only snapshot of a scheduled task.
type TaskInfo struct {
	FeedID   int64
	FeedName string
	Spec     string
	NextFire time.Time
}

// Scheduler maintains the task table and fires due tasks from a single
// control loop. Manual triggers run through the same lock and gate
// path as cron firings.
type Scheduler struct {
	runner UpdateRunner
	gate   *Gate
	locks  *FeedLocks
	opts   Options
	logger *slog.Logger

	mu        sync.Mutex
	tasks     map[int64]*task
	outcomes  map[int64][]*update.JobOutcome
	running   map[int64]struct{}
	abandoned map[int64]bool

	// waitCtx frees gate waiters the moment shutdown begins; jobCtx
	// stays live through the grace period so running jobs can finish.
	waitCtx    context.Context
	cancelWait context.CancelFunc
	jobCtx     context.Context
	cancelJobs context.CancelFunc

	stopCh   chan struct{}
	stopOnce sync.Once
	loopDone chan struct{}
	started  atomic.Bool
	jobs     sync.WaitGroup
}

// New returns a scheduler that runs jobs through runner, bounded by
// gate. Feeds must be registered before their schedules fire.
func New(runner UpdateRunner, gate *Gate, logger *slog.Logger, opts Options) *Scheduler {
	if opts.TickInterval <= 0 {
		opts.TickInterval = defaultTickInterval
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	waitCtx, cancelWait := context.WithCancel(context.Background())
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	return &Scheduler{
		runner:     runner,
		gate:       gate,
		locks:      NewFeedLocks(),
		opts:       opts,
		logger:     logger,
		tasks:      make(map[int64]*task),
		outcomes:   make(map[int64][]*update.JobOutcome),
		running:    make(map[int64]struct{}),
		abandoned:  make(map[int64]bool),
		waitCtx:    waitCtx,
		cancelWait: cancelWait,
		jobCtx:     jobCtx,
		cancelJobs: cancelJobs,
		stopCh:     make(chan struct{}),
	}
}

// Register adds or replaces the task for feed. The feed's own schedule
// wins over the default. An unparsable expression returns
// ErrInvalidSchedule and leaves the task table unchanged.
func (s *Scheduler) Register(feed *entity.Feed) error {
	spec := feed.Schedule
	if spec == "" {
		spec = s.opts.DefaultSchedule
	}
	schedule, err := config.ParseCronSpec(spec)
	if err != nil {
		return fmt.Errorf("%w: feed %q: %v", ErrInvalidSchedule, feed.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[feed.ID] = &task{
		feed:     feed,
		spec:     spec,
		schedule: schedule,
		nextFire: schedule.Next(time.Now().In(s.opts.Location)),
	}
	s.logger.Debug("registered feed schedule",
		slog.Int64("feed_id", feed.ID),
		slog.String("feed_name", feed.Name),
		slog.String("schedule", spec))
	return nil
}

// Unregister removes the task for feedID. Removing an unknown feed is
// a no-op. A job already in flight for the feed is unaffected.
func (s *Scheduler) Unregister(feedID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, feedID)
}

// Tasks returns a snapshot of the task table.
func (s *Scheduler) Tasks() []TaskInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	infos := make([]TaskInfo, 0, len(s.tasks))
	for _, t := range s.tasks {
		infos = append(infos, TaskInfo{
			FeedID:   t.feed.ID,
			FeedName: t.feed.Name,
			Spec:     t.spec,
			NextFire: t.nextFire,
		})
	}
	return infos
}

// outcomeHistoryLimit bounds the per-feed outcome history.
const outcomeHistoryLimit = 20

// LastOutcome returns the most recent job outcome recorded for feedID.
func (s *Scheduler) LastOutcome(feedID int64) (*update.JobOutcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := s.outcomes[feedID]
	if len(history) == 0 {
		return nil, false
	}
	return history[len(history)-1], true
}

// OutcomeHistory returns the recent job outcomes for feedID, oldest first.
func (s *Scheduler) OutcomeHistory(feedID int64) []*update.JobOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := s.outcomes[feedID]
	out := make([]*update.JobOutcome, len(history))
	copy(out, history)
	return out
}

func (s *Scheduler) appendOutcomeLocked(feedID int64, outcome *update.JobOutcome) {
	history := append(s.outcomes[feedID], outcome)
	if len(history) > outcomeHistoryLimit {
		history = history[len(history)-outcomeHistoryLimit:]
	}
	s.outcomes[feedID] = history
}

// Start launches the control loop. It returns immediately; firing
// happens on a background goroutine until Shutdown.
func (s *Scheduler) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	s.loopDone = make(chan struct{})
	go s.loop()
	s.logger.Info("scheduler started",
		slog.String("default_schedule", s.opts.DefaultSchedule),
		slog.Int64("max_concurrent", s.gate.Capacity()))
}

func (s *Scheduler) loop() {
	defer close(s.loopDone)
	ticker := time.NewTicker(s.opts.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case now := <-ticker.C:
			s.fireDue(now)
		}
	}
}

// fireDue launches every task whose nextFire has passed and advances
// it strictly past now. Firings missed while the process slept or a
// job overran collapse into the single next one; there is no backfill.
func (s *Scheduler) fireDue(now time.Time) {
	now = now.In(s.opts.Location)
	s.mu.Lock()
	var due []*task
	for _, t := range s.tasks {
		if !t.nextFire.After(now) {
			due = append(due, t)
			t.nextFire = t.schedule.Next(now)
		}
	}
	s.mu.Unlock()

	for _, t := range due {
		s.launch(t.feed, TriggerCron)
	}
}

// RunNow runs the feed's update immediately, subject to the same
// per-feed lock and concurrency gate as cron firings.
func (s *Scheduler) RunNow(feedID int64) error {
	if !s.started.Load() {
		return ErrNotRunning
	}
	s.mu.Lock()
	t, ok := s.tasks[feedID]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: id %d", ErrUnknownFeed, feedID)
	}
	s.launch(t.feed, TriggerManual)
	return nil
}

// RunAll runs every registered feed's update immediately.
func (s *Scheduler) RunAll() error {
	if !s.started.Load() {
		return ErrNotRunning
	}
	s.mu.Lock()
	feeds := make([]*entity.Feed, 0, len(s.tasks))
	for _, t := range s.tasks {
		feeds = append(feeds, t.feed)
	}
	s.mu.Unlock()

	for _, feed := range feeds {
		s.launch(feed, TriggerManual)
	}
	return nil
}

// launch starts one update job for feed unless its previous run is
// still holding the feed lock, in which case the firing is dropped.
func (s *Scheduler) launch(feed *entity.Feed, trigger string) {
	if !s.locks.TryLock(feed.ID) {
		metrics.RecordJobSkipped()
		s.logger.Info("skipping update, previous run still in flight",
			slog.Int64("feed_id", feed.ID),
			slog.String("feed_name", feed.Name),
			slog.String("trigger", trigger))
		return
	}

	s.jobs.Add(1)
	go func() {
		defer s.jobs.Done()
		defer s.locks.Unlock(feed.ID)

		if err := s.gate.Acquire(s.waitCtx); err != nil {
			s.logger.Info("update cancelled while waiting for permit",
				slog.Int64("feed_id", feed.ID),
				slog.String("feed_name", feed.Name))
			return
		}
		defer s.gate.Release()

		ctx := s.jobCtx
		cancel := context.CancelFunc(func() {})
		if s.opts.JobTimeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, s.opts.JobTimeout)
		}
		defer cancel()

		s.setRunning(feed.ID, true)
		outcome := s.runner.UpdateFeed(ctx, feed, trigger)
		s.recordOutcome(feed.ID, outcome)
	}()
}

func (s *Scheduler) setRunning(feedID int64, running bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if running {
		s.running[feedID] = struct{}{}
	} else {
		delete(s.running, feedID)
	}
}

func (s *Scheduler) recordOutcome(feedID int64, outcome *update.JobOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, feedID)
	if s.abandoned[feedID] {
		// Shutdown already wrote this job off; keep that record.
		delete(s.abandoned, feedID)
		return
	}
	s.appendOutcomeLocked(feedID, outcome)
}

// Shutdown stops the control loop, cancels jobs still waiting for a
// permit, and gives running jobs up to grace to finish. Jobs that
// outlive the grace period are cancelled and recorded as abandoned.
func (s *Scheduler) Shutdown(grace time.Duration) {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.started.Store(false)
	s.cancelWait()
	if s.loopDone != nil {
		<-s.loopDone
	}

	drained := make(chan struct{})
	go func() {
		s.jobs.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		s.logger.Info("scheduler stopped, all jobs drained")
	case <-time.After(grace):
		count := s.abandonRunning()
		s.cancelJobs()
		s.logger.Warn("grace period expired, abandoning running jobs",
			slog.Int("abandoned", count))
	}
}

// abandonRunning records an abandoned outcome for every job still in
// flight so its eventual cancellation does not overwrite the record.
func (s *Scheduler) abandonRunning() int {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for feedID := range s.running {
		s.abandoned[feedID] = true
		s.appendOutcomeLocked(feedID, &update.JobOutcome{
			FeedID:     feedID,
			FinishedAt: now,
			Result:     update.ResultAbandoned,
		})
		metrics.RecordJobCompleted(string(update.ResultAbandoned), 0)
	}
	return len(s.running)
}
