package timer

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduler_RunsOneShotJob(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	var fired int32
	s.Schedule(50*time.Millisecond, 0, func(time.Time) {
		atomic.AddInt32(&fired, 1)
	})

	time.Sleep(400 * time.Millisecond)
	if got := atomic.LoadInt32(&fired); got != 1 {
		t.Fatalf("Expected one-shot job to fire exactly once, got %d", got)
	}
}

func TestScheduler_RepeatsRecurringJob(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	var fired int32
	s.Schedule(50*time.Millisecond, 100*time.Millisecond, func(time.Time) {
		atomic.AddInt32(&fired, 1)
	})

	time.Sleep(600 * time.Millisecond)
	if got := atomic.LoadInt32(&fired); got < 3 {
		t.Fatalf("Expected recurring job to fire repeatedly, got %d", got)
	}
}

func TestScheduler_CancelStopsJob(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	var fired int32
	id := s.Schedule(200*time.Millisecond, 0, func(time.Time) {
		atomic.AddInt32(&fired, 1)
	})
	s.Cancel(id)

	time.Sleep(500 * time.Millisecond)
	if got := atomic.LoadInt32(&fired); got != 0 {
		t.Fatalf("Cancelled job should not fire, got %d", got)
	}
}

func TestScheduler_StopHaltsDispatch(t *testing.T) {
	s := NewScheduler()

	var fired int32
	s.Schedule(200*time.Millisecond, 0, func(time.Time) {
		atomic.AddInt32(&fired, 1)
	})
	s.Stop()

	time.Sleep(500 * time.Millisecond)
	if got := atomic.LoadInt32(&fired); got != 0 {
		t.Fatalf("No job should fire after Stop, got %d", got)
	}
}
