package scheduler

import (
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper removes idle sessions.
type Sweeper interface {
	Sweep(idle time.Duration) int
}

// Scheduler runs the idle session sweep on a cron spec.
type Scheduler struct {
	cron    *cron.Cron
	spec    string
	idle    time.Duration
	sweeper Sweeper
	running atomic.Bool
}

func New(sweeper Sweeper, spec string, idle time.Duration) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		spec:    spec,
		idle:    idle,
		sweeper: sweeper,
	}
}

func (s *Scheduler) Start() error {
	if s.idle <= 0 {
		log.Println("session idle timeout disabled, sweeper not started")
		return nil
	}
	if _, err := s.cron.AddFunc(s.spec, s.sweep); err != nil {
		return fmt.Errorf("schedule session sweep %q: %w", s.spec, err)
	}
	s.cron.Start()
	s.running.Store(true)
	log.Printf("session sweeper started [spec=%s, idle=%s]", s.spec, s.idle)
	return nil
}

func (s *Scheduler) sweep() {
	if n := s.sweeper.Sweep(s.idle); n > 0 {
		log.Printf("swept %d idle sessions", n)
	}
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.running.Store(false)
}

// IsRunning reports whether the sweep is scheduled and not yet stopped.
func (s *Scheduler) IsRunning() bool {
	return s.running.Load()
}
