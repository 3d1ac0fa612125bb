package sched

import (
	"container/heap"
	"fmt"

	"github.com/sarchlab/dmsched/timing"
)

// EventKind tells what happens at an event.
type EventKind int

const (
	// ReleaseEvent makes a job ready.
	ReleaseEvent EventKind = iota

	// DeadlineEvent is the instant a job must have finished by.
	DeadlineEvent
)

func (k EventKind) String() string {
	switch k {
	case ReleaseEvent:
		return "Release"
	case DeadlineEvent:
		return "Deadline"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// An Event marks an instant on the timeline that concerns one job.
type Event struct {
	Kind EventKind
	Time timing.VTime
	Job  *Job
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s @ %s", e.Kind, e.Job, e.Time)
}

// eventQueue pops events in time order. Releases come before deadlines at
// the same instant. A queue belongs to a single run, so it is not locked.
type eventQueue struct {
	events eventHeap
}

func newEventQueue() *eventQueue {
	q := &eventQueue{}
	q.events = make([]Event, 0)
	heap.Init(&q.events)

	return q
}

func (q *eventQueue) Push(evt Event) {
	heap.Push(&q.events, evt)
}

func (q *eventQueue) Pop() Event {
	return heap.Pop(&q.events).(Event)
}

func (q *eventQueue) Peek() Event {
	return q.events[0]
}

func (q *eventQueue) Len() int {
	return q.events.Len()
}

type eventHeap []Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if c := h[i].Time.Cmp(h[j].Time); c != 0 {
		return c < 0
	}

	if h[i].Kind != h[j].Kind {
		return h[i].Kind < h[j].Kind
	}

	return priorityOrder(h[i].Job, h[j].Job)
}

func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(Event))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	evt := old[n-1]
	*h = old[:n-1]

	return evt
}

// readyQueue holds released, unfinished jobs with the highest priority job on
// top.
type readyQueue struct {
	jobs jobHeap
}

func newReadyQueue() *readyQueue {
	q := &readyQueue{}
	q.jobs = make([]*Job, 0)
	heap.Init(&q.jobs)

	return q
}

func (q *readyQueue) Push(j *Job) {
	heap.Push(&q.jobs, j)
}

func (q *readyQueue) Pop() *Job {
	return heap.Pop(&q.jobs).(*Job)
}

// Top returns the highest priority job, or nil when empty.
func (q *readyQueue) Top() *Job {
	if len(q.jobs) == 0 {
		return nil
	}

	return q.jobs[0]
}

func (q *readyQueue) Len() int {
	return q.jobs.Len()
}

type jobHeap []*Job

func (h jobHeap) Len() int { return len(h) }

func (h jobHeap) Less(i, j int) bool {
	return priorityOrder(h[i], h[j])
}

func (h jobHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *jobHeap) Push(x any) {
	*h = append(*h, x.(*Job))
}

func (h *jobHeap) Pop() any {
	old := *h
	n := len(old)
	j := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]

	return j
}
