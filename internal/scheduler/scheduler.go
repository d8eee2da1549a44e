// Package scheduler runs periodic maintenance jobs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/okian/spotrank/pkg/logger"
)

// Job is a named periodic task.
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context)
}

// Scheduler wraps a cron runner and tracks registered jobs by name.
type Scheduler struct {
	mu      sync.Mutex
	cron    *cron.Cron
	entries map[string]cron.EntryID
	ctx     context.Context
	cancel  context.CancelFunc
	logger  logger.Logger
}

// New creates a stopped Scheduler. Cron specs accept an optional seconds
// field and descriptors such as "@every 10s".
func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithParser(cron.NewParser(
				cron.SecondOptional|cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow|cron.Descriptor,
			)),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		entries: make(map[string]cron.EntryID),
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger.Get().Named("scheduler"),
	}
}

// Add registers j, replacing any job with the same name.
func (s *Scheduler) Add(j Job) error {
	if j.Run == nil {
		return fmt.Errorf("%w: %s has no function", ErrInvalidJob, j.Name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.entries[j.Name]; ok {
		s.cron.Remove(id)
		delete(s.entries, j.Name)
	}
	run := j.Run
	id, err := s.cron.AddFunc(j.Spec, func() { run(s.ctx) })
	if err != nil {
		return fmt.Errorf("%w: %s %q: %w", ErrInvalidJob, j.Name, j.Spec, err)
	}
	s.entries[j.Name] = id
	s.logger.Info(s.ctx, "job scheduled", logger.String("job", j.Name), logger.String("spec", j.Spec))
	return nil
}

// Jobs returns the registered job names.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.entries))
	for name := range s.entries {
		out = append(out, name)
	}
	return out
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for running jobs until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stop scheduler: %w", ctx.Err())
	}
}
