// Package scheduler wires up the cron job that periodically discards idle
// intake sessions.
package scheduler

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSpec runs the sweep once a minute.
const DefaultSpec = "@every 1m"

// Sweeper is anything that can drop sessions idle as of now.
type Sweeper interface {
	Sweep(now time.Time) int
}

// Scheduler wraps robfig/cron and manages the sweep loop.
type Scheduler struct {
	cron   *cron.Cron
	target Sweeper
	spec   string // cron spec, e.g. "@every 1m"
	now    func() time.Time
}

// New creates a Scheduler that sweeps target on spec. An empty spec means
// DefaultSpec.
func New(target Sweeper, spec string) *Scheduler {
	if spec == "" {
		spec = DefaultSpec
	}
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cron.DefaultLogger)),
		target: target,
		spec:   spec,
		now:    time.Now,
	}
}

// Start registers the job and starts the scheduler.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.RunOnce() }); err != nil {
		return fmt.Errorf("cron.AddFunc %q: %w", s.spec, err)
	}
	s.cron.Start()
	log.Printf("[scheduler] Cron started (spec: %s)", s.spec)
	return nil
}

// Stop shuts down the scheduler and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Println("[scheduler] Cron stopped")
}

// RunOnce performs a single sweep and returns the number of sessions dropped.
func (s *Scheduler) RunOnce() int {
	n := s.target.Sweep(s.now())
	if n > 0 {
		log.Printf("[scheduler] Discarded %d idle session(s)", n)
	}
	return n
}
