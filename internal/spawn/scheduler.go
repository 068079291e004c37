package spawn

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultTickInterval is how often the scheduler checks for due encounters.
const DefaultTickInterval = time.Second

// Encounter is a scheduled spawn attempt.
type Encounter struct {
	ID       string
	Template string
	Config   Config
	DueAt    time.Time
}

// Scheduler spawns encounters when they become due and hands successful
// groups to a handler.
type Scheduler struct {
	spawner  *Spawner
	factory  Factory
	handler  func(context.Context, Encounter, Result)
	interval time.Duration
	now      func() time.Time

	mu    sync.Mutex
	tasks map[string]*Encounter // encounter ID → task
	wg    sync.WaitGroup
}

// NewScheduler creates a scheduler. handler runs on the scheduler goroutine
// pool, once per successful spawn.
func NewScheduler(spawner *Spawner, f Factory, handler func(context.Context, Encounter, Result)) *Scheduler {
	return &Scheduler{
		spawner:  spawner,
		factory:  f,
		handler:  handler,
		interval: DefaultTickInterval,
		now:      time.Now,
		tasks:    make(map[string]*Encounter),
	}
}

// SetInterval changes the tick interval. Call before Start.
func (s *Scheduler) SetInterval(d time.Duration) {
	if d > 0 {
		s.interval = d
	}
}

// Start ticks until ctx is canceled, then waits for running handlers.
func (s *Scheduler) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	defer s.wg.Wait()

	slog.Info("encounter scheduler started", "interval", s.interval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("encounter scheduler stopping", "pending", s.Pending())
			return ctx.Err()
		case now := <-ticker.C:
			s.processDue(ctx, now)
		}
	}
}

// Schedule queues an encounter after delay. Re-scheduling an ID replaces it.
func (s *Scheduler) Schedule(id, template string, cfg Config, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	due := s.now().Add(delay)
	s.tasks[id] = &Encounter{ID: id, Template: template, Config: cfg, DueAt: due}

	slog.Debug("encounter scheduled",
		"encounter", id,
		"template", template,
		"delay", delay,
		"dueAt", due.Format(time.RFC3339))
}

// Cancel removes a scheduled encounter.
func (s *Scheduler) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[id]
	delete(s.tasks, id)
	return ok
}

// Pending returns the number of scheduled encounters.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Wait blocks until all started handlers return.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// processDue spawns every encounter due at now. Handlers run in their own goroutines.
func (s *Scheduler) processDue(ctx context.Context, now time.Time) int {
	s.mu.Lock()
	var due []Encounter
	for id, task := range s.tasks {
		if !now.Before(task.DueAt) {
			due = append(due, *task)
			delete(s.tasks, id)
		}
	}
	s.mu.Unlock()

	for _, enc := range due {
		res := s.spawner.SpawnNamed(enc.Template, s.factory, enc.Config)
		if !res.Success {
			slog.Debug("scheduled encounter did not spawn",
				"encounter", enc.ID,
				"template", enc.Template,
				"reason", res.Reason)
			continue
		}
		if s.handler == nil {
			continue
		}
		s.wg.Go(func() { s.handler(ctx, enc, res) })
	}
	return len(due)
}
