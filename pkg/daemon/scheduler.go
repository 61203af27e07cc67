package daemon

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

type NotifyFunc func(data any)

// TaskFunc represents a runnable task.
type TaskFunc func() error

// Scheduler runs a task on a cron schedule. It drives the auto clear of the
// calculator.
type Scheduler struct {
	OnRun   NotifyFunc // called after the task succeeded
	OnError NotifyFunc // called on task error
	Task    TaskFunc   // task callback

	parser cron.Parser

	mu       sync.Mutex
	expr     string
	schedule cron.Schedule
	nextRun  time.Time
	running  bool

	controlCh chan controlMsg
	stopCh    chan struct{}
}

// internal control kinds (not user visible events)
type controlKind int

const (
	ctrlRecalculate controlKind = iota // timer needs recalculation due to schedule change
	ctrlSkip                           // next run skipped
)

type controlMsg struct {
	kind controlKind
}

func NewScheduler(task TaskFunc, onRun, onError NotifyFunc) *Scheduler {
	if task == nil {
		panic("task function cannot be nil")
	}

	return &Scheduler{
		OnRun:     onRun,
		OnError:   onError,
		Task:      task,
		parser:    cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		controlCh: make(chan controlMsg, 4),
		stopCh:    make(chan struct{}),
	}
}

func (s *Scheduler) Stop() {
	select {
	case <-s.stopCh: // already closed
	default:
		close(s.stopCh)
	}
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	go s.runScheduled()
}

// Schedule replaces the schedule. An empty expression disables it.
func (s *Scheduler) Schedule(cronExpr string) error {
	var sh cron.Schedule
	if cronExpr != "" {
		var err error
		sh, err = s.parser.Parse(cronExpr)
		if err != nil {
			return fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
		}
	}

	s.mu.Lock()
	if s.expr == cronExpr && (sh == nil) == (s.schedule == nil) {
		s.mu.Unlock()
		return nil
	}
	s.expr = cronExpr
	s.schedule = sh
	s.nextRun = time.Time{}
	if sh != nil {
		s.nextRun = sh.Next(time.Now())
	}
	running := s.running
	s.mu.Unlock()

	if running {
		s.trySendControl(ctrlRecalculate)
	}
	return nil
}

// Skip skips the next scheduled run.
func (s *Scheduler) Skip() error {
	s.mu.Lock()
	if s.schedule == nil || s.nextRun.IsZero() {
		s.mu.Unlock()
		return fmt.Errorf("no active schedule to skip")
	}
	s.nextRun = s.schedule.Next(s.nextRun)
	running := s.running
	s.mu.Unlock()

	if running {
		s.trySendControl(ctrlSkip)
	}
	return nil
}

func (s *Scheduler) Status() (nextRun time.Time, running bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nextRun = s.nextRun
	running = s.running
	return
}

func (s *Scheduler) runScheduled() {
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		logrus.Debug("scheduler stopped")
	}()

	logrus.Debug("scheduler started")

	for {
		schedule, nextRun := s.snapshot()

		var timer *time.Timer
		var fire <-chan time.Time
		if schedule != nil && !nextRun.IsZero() {
			wait := time.Until(nextRun)
			if wait < 0 {
				wait = 0
			}
			timer = time.NewTimer(wait)
			fire = timer.C
		}

		select {
		case <-fire:
			logrus.Debugf("running scheduled task at %s", nextRun.Format(time.DateTime))
			if err := s.Task(); err != nil {
				s.send(s.OnError, fmt.Errorf("task failed: %v", err))
			} else {
				s.send(s.OnRun, nextRun)
			}
			s.advanceNextRun()
		case <-s.stopCh:
			stopTimer(timer)
			return
		case msg := <-s.controlCh: // internal control messages
			logrus.WithField("kind", msg.kind).Debug("received control msg")
			stopTimer(timer)
		}
	}
}

func (s *Scheduler) snapshot() (cron.Schedule, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schedule, s.nextRun
}

// advanceNextRun computes the next run from now, so runs missed while the
// machine slept are not replayed.
func (s *Scheduler) advanceNextRun() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.schedule == nil {
		return
	}
	s.nextRun = s.schedule.Next(time.Now())
}

func (s *Scheduler) send(fn NotifyFunc, data any) {
	if fn == nil {
		return
	}

	go fn(data)
}

func (s *Scheduler) trySendControl(kind controlKind) {
	select {
	case s.controlCh <- controlMsg{kind: kind}:
	default:
	}
}

func stopTimer(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}
