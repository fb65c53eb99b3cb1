package scheduler

import (
	"sync/atomic"
	"testing"
	"time"
)

type countingSweeper struct {
	calls atomic.Int32
	idle  atomic.Int64
}

func (c *countingSweeper) Sweep(idle time.Duration) int {
	c.calls.Add(1)
	c.idle.Store(int64(idle))
	return 1
}

func TestScheduler_RunsSweep(t *testing.T) {
	sw := &countingSweeper{}
	s := New(sw, "@every 1s", time.Minute)
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(s.Stop)
	if !s.IsRunning() {
		t.Fatal("scheduler should be running after Start")
	}

	deadline := time.Now().Add(5 * time.Second)
	for sw.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if sw.calls.Load() == 0 {
		t.Fatal("sweep never ran")
	}
	if time.Duration(sw.idle.Load()) != time.Minute {
		t.Fatalf("idle passed: %v", time.Duration(sw.idle.Load()))
	}

	s.Stop()
	if s.IsRunning() {
		t.Fatal("scheduler should report stopped after Stop")
	}
}

func TestScheduler_InvalidSpec(t *testing.T) {
	s := New(&countingSweeper{}, "not a spec", time.Minute)
	if err := s.Start(); err == nil {
		t.Fatal("expected error for invalid spec")
	}
}

func TestScheduler_DisabledIdle(t *testing.T) {
	s := New(&countingSweeper{}, "@every 1s", 0)
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if s.IsRunning() {
		t.Fatal("sweeper must not be scheduled when idle is disabled")
	}
	s.Stop()
}
