/*
Package scheduler drives the day lifecycle at wall-clock resolution:
auto_penalty, auto_roll, and auto_backup, each idempotent per effective
date (or per interval, for backups).

PURPOSE:
  The only component in this engine that runs unprompted. It polls
  once per tick (default 1 minute, configurable down to 1 second for
  tests) and decides, from persisted idempotence tokens, whether each
  job is due. In-memory observability counters give an operator a
  heartbeat without touching the Store on every read.

GROUNDING:
  The ticker/job-table shape and the in-memory-counters-reset-on-
  restart design follow the teacher's approach to background
  accrual processing (generic/accrual.go's scheduled-event model),
  adapted here to three named jobs instead of a generic event stream.

SEE ALSO:
  - planner/roll.go: auto_roll's underlying operation
  - scoring/scoring.go: auto_penalty's underlying operation
  - core/errors.go: ErrAlreadyFinalized, swallowed here
*/
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/warp/dayline/core"
	"github.com/warp/dayline/planner"
	"github.com/warp/dayline/scoring"
	"github.com/warp/dayline/store"
)

// Backup is the interface the scheduler uses to produce an auto backup;
// the file-copy mechanics are an external collaborator (see §1).
type Backup interface {
	Create(ctx context.Context) (*core.Backup, error)
}

// JobStatus is the observability snapshot for one logical job.
type JobStatus struct {
	TotalChecks      int64
	TotalExecutions  int64
	LastCheckTime    time.Time
	LastExecution    time.Time
	LastErrorMessage string
	NextFireTime     time.Time
}

// Scheduler polls the Store on a ticker and fires auto_penalty,
// auto_roll, and auto_backup according to §4.6.
type Scheduler struct {
	store   store.Store
	planner *planner.Planner
	backup  Backup
	now     func() time.Time
	tick    time.Duration

	mu       sync.Mutex
	statuses map[string]*JobStatus

	stop chan struct{}
	done chan struct{}
}

const (
	jobPenalty = "auto_penalty"
	jobRoll    = "auto_roll"
	jobBackup  = "auto_backup"
)

// New constructs a Scheduler. tick defaults to one minute; tests may
// pass a shorter duration. now defaults to time.Now.
func New(st store.Store, backup Backup, tick time.Duration, now func() time.Time) *Scheduler {
	if tick <= 0 {
		tick = time.Minute
	}
	if now == nil {
		now = time.Now
	}
	return &Scheduler{
		store:   st,
		planner: planner.New(st),
		backup:  backup,
		now:     now,
		tick:    tick,
		statuses: map[string]*JobStatus{
			jobPenalty: {},
			jobRoll:    {},
			jobBackup:  {},
		},
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Status returns a copy of the named job's counters.
func (s *Scheduler) Status(job string) JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.statuses[job]; ok {
		return *st
	}
	return JobStatus{}
}

// AllStatuses returns a copy of every job's counters, keyed by name.
func (s *Scheduler) AllStatuses() map[string]JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]JobStatus, len(s.statuses))
	for k, v := range s.statuses {
		out[k] = *v
	}
	return out
}

// Run blocks, ticking until Shutdown is called. A job in flight at
// shutdown is allowed to finish before Run returns.
func (s *Scheduler) Run(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tickOnce(ctx)
		}
	}
}

// Shutdown signals Run to stop after any in-flight tick completes, and
// waits for it to return.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	close(s.stop)
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) tickOnce(ctx context.Context) {
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		s.recordError(jobPenalty, err)
		s.recordError(jobRoll, err)
		s.recordError(jobBackup, err)
		return
	}

	now := s.now()
	effective := settings.DateContext().EffectiveDate(now)

	s.checkPenalty(ctx, settings, now, effective)
	s.checkRoll(ctx, settings, now, effective)
	s.checkBackup(ctx, settings, now, effective)
}

func (s *Scheduler) checkPenalty(ctx context.Context, settings *core.Settings, now time.Time, effective core.Date) {
	s.recordCheck(jobPenalty, now)
	if !settings.AutoPenaltiesEnabled {
		return
	}
	t, err := core.ParseClockTime(settings.PenaltyTime)
	if err != nil {
		s.recordError(jobPenalty, err)
		return
	}
	if !t.Reached(now) {
		return
	}
	if !settings.LastPenaltyDate.Before(effective.AddDays(-1)) {
		return
	}
	err = s.store.Atomic(ctx, func(tx store.Store) error {
		fresh, err := tx.GetSettings(ctx)
		if err != nil {
			return err
		}
		if !fresh.LastPenaltyDate.Before(effective.AddDays(-1)) {
			return core.ErrAlreadyFinalized
		}
		target := fresh.LastPenaltyDate.AddDays(1)
		if fresh.LastPenaltyDate.IsZero() {
			target = effective.AddDays(-1)
		}
		for ; target.Before(effective); target = target.AddDays(1) {
			if err := scoring.FinalizeDate(ctx, tx, target, fresh); err != nil {
				return err
			}
			fresh.LastPenaltyDate = target
		}
		return tx.UpdateSettings(ctx, fresh)
	})
	if err != nil {
		if err == core.ErrAlreadyFinalized {
			return
		}
		s.recordError(jobPenalty, err)
		return
	}
	s.recordExecution(jobPenalty, now)
}

func (s *Scheduler) checkRoll(ctx context.Context, settings *core.Settings, now time.Time, effective core.Date) {
	s.recordCheck(jobRoll, now)
	if !settings.AutoRollEnabled {
		return
	}
	t, err := core.ParseClockTime(settings.AutoRollTime)
	if err != nil {
		s.recordError(jobRoll, err)
		return
	}
	if !t.Reached(now) {
		return
	}
	if !settings.LastRollDate.Before(effective) {
		return
	}
	if err := s.planner.Roll(ctx, effective, nil); err != nil {
		if err == core.ErrRollAlreadyDone {
			return
		}
		s.recordError(jobRoll, err)
		return
	}
	s.recordExecution(jobRoll, now)
}

func (s *Scheduler) checkBackup(ctx context.Context, settings *core.Settings, now time.Time, effective core.Date) {
	s.recordCheck(jobBackup, now)
	if !settings.AutoBackupEnabled || s.backup == nil {
		return
	}
	t, err := core.ParseClockTime(settings.BackupTime)
	if err != nil {
		s.recordError(jobBackup, err)
		return
	}
	if !t.Reached(now) {
		return
	}
	if !settings.LastBackupDate.IsZero() && effective.DaysUntil(settings.LastBackupDate) > -settings.BackupIntervalDays {
		return
	}
	if _, err := s.backup.Create(ctx); err != nil {
		s.recordError(jobBackup, fmt.Errorf("%w: %v", core.ErrBackupFailure, err))
		return
	}
	err = s.store.Atomic(ctx, func(tx store.Store) error {
		fresh, err := tx.GetSettings(ctx)
		if err != nil {
			return err
		}
		fresh.LastBackupDate = effective
		return tx.UpdateSettings(ctx, fresh)
	})
	if err != nil {
		s.recordError(jobBackup, err)
		return
	}
	s.recordExecution(jobBackup, now)
}

func (s *Scheduler) recordCheck(job string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.statuses[job]
	st.TotalChecks++
	st.LastCheckTime = now
}

func (s *Scheduler) recordExecution(job string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.statuses[job]
	st.TotalExecutions++
	st.LastExecution = now
	st.LastErrorMessage = ""
}

func (s *Scheduler) recordError(job string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.statuses[job]
	st.LastErrorMessage = err.Error()
}
