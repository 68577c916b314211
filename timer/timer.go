// timer/timer.go
package timer

import (
	"container/heap"
	"sync"
	"time"
)

// Job is one scheduled callback. Interval > 0 reschedules it after every
// run; the callback receives the tick time so deadline checks share one
// clock reading per pass.
type Job struct {
	Id       int64
	Execute  time.Time
	Interval time.Duration
	Callback func(now time.Time)
	index    int
}

type jobQueue []*Job

func (q jobQueue) Len() int { return len(q) }

func (q jobQueue) Less(i, j int) bool {
	return q[i].Execute.Before(q[j].Execute)
}

func (q jobQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *jobQueue) Push(x interface{}) {
	n := len(*q)
	job := x.(*Job)
	job.index = n
	*q = append(*q, job)
}

func (q *jobQueue) Pop() interface{} {
	old := *q
	n := len(old)
	job := old[n-1]
	job.index = -1
	*q = old[0 : n-1]
	return job
}

// Scheduler drives periodic work (the phase sweep, session keepalive,
// metrics refresh) off a single goroutine. Callbacks run inline on that
// goroutine, so a recurring job never overlaps its own previous run.
type Scheduler struct {
	queue  jobQueue
	mutex  sync.Mutex
	nextId int64
	done   chan struct{}
	once   sync.Once
}

func NewScheduler() *Scheduler {
	s := &Scheduler{
		queue:  make(jobQueue, 0),
		nextId: 1,
		done:   make(chan struct{}),
	}
	heap.Init(&s.queue)
	go s.run()
	return s
}

// Schedule registers a callback. A zero interval means run once.
func (s *Scheduler) Schedule(delay time.Duration, interval time.Duration, callback func(now time.Time)) int64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	job := &Job{
		Id:       s.nextId,
		Execute:  time.Now().Add(delay),
		Interval: interval,
		Callback: callback,
	}
	s.nextId++

	heap.Push(&s.queue, job)
	return job.Id
}

func (s *Scheduler) Cancel(jobId int64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for i, job := range s.queue {
		if job.Id == jobId {
			heap.Remove(&s.queue, i)
			break
		}
	}
}

func (s *Scheduler) Stop() {
	s.once.Do(func() { close(s.done) })
}

func (s *Scheduler) run() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			now := time.Now()
			for _, job := range s.due(now) {
				job.Callback(now)
			}
		}
	}
}

// due pops every job whose deadline has passed and requeues the recurring
// ones, all under the lock; callbacks run outside it.
func (s *Scheduler) due(now time.Time) []*Job {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var ready []*Job
	for s.queue.Len() > 0 {
		job := s.queue[0]
		if job.Execute.After(now) {
			break
		}
		heap.Pop(&s.queue)
		ready = append(ready, job)

		if job.Interval > 0 {
			job.Execute = now.Add(job.Interval)
			heap.Push(&s.queue, job)
		}
	}
	return ready
}
