// Package sched implements the single-threaded, cooperative event
// scheduler that drives every other component of the core forward in time.
// Time is an ordinal cycle counter; nothing in this package touches a wall
// clock.
package sched

import (
	"container/heap"

	"gbacore/gba/log"
)

// Handle identifies a scheduled event so it can be cancelled later.
// Handle is stable for the lifetime of the event; it is never reused while
// the event it names is still pending.
type Handle uint64

// HandlerFunc is invoked when a scheduled event fires. cyclesLate is how
// far the AddCycles call that fired the event carried the cursor past the
// event's own timestamp; it is zero when the cursor lands exactly on the
// event. While the handler runs, Now reports the event's own timestamp.
type HandlerFunc func(cyclesLate uint64, userData any)

type event struct {
	at      uint64
	seq     uint64 // insertion order, used as the heap tie-break
	handle  Handle
	handler HandlerFunc
	data    any
	index   int // position in the heap slice, maintained by container/heap
}

// Scheduler is a min-heap of future events keyed by absolute cycle
// timestamp. It is not safe for concurrent use: the core has exactly one
// scheduler and it is driven from a single goroutine.
type Scheduler struct {
	now      uint64
	accum    uint64 // cycles added via AddCycles, less each fired event's lateness; not used to pick events
	seq      uint64
	nextH    Handle
	heap     eventHeap
	byHandle map[Handle]*event
	draining bool
}

func New() *Scheduler {
	s := &Scheduler{
		byHandle: make(map[Handle]*event),
	}
	heap.Init(&s.heap)
	return s
}

// Reset drops all pending events and resets the cycle cursor to zero.
func (s *Scheduler) Reset() {
	s.now = 0
	s.accum = 0
	s.seq = 0
	s.nextH = 0
	s.heap = s.heap[:0]
	s.byHandle = make(map[Handle]*event)
}

// Now returns the current cycle cursor.
func (s *Scheduler) Now() uint64 { return s.now }

// Add schedules handler to fire at now+delay and returns a handle that can
// be used to cancel it. A delay of zero schedules the event at the current
// cursor: if called from within a handler during a drain pass, it fires
// later in that same pass, after every other event due at that cycle.
func (s *Scheduler) Add(delay uint64, handler HandlerFunc, userData any) Handle {
	s.nextH++
	h := s.nextH
	e := &event{
		at:      s.now + delay,
		seq:     s.seq,
		handle:  h,
		handler: handler,
		data:    userData,
	}
	s.seq++
	heap.Push(&s.heap, e)
	s.byHandle[h] = e
	return h
}

// Cancel removes a pending event. It is idempotent: cancelling an event
// that has already fired or was already cancelled is a no-op.
func (s *Scheduler) Cancel(h Handle) {
	e, ok := s.byHandle[h]
	if !ok {
		return
	}
	heap.Remove(&s.heap, e.index)
	delete(s.byHandle, h)
}

// Pending reports whether h still names an event that has not fired yet.
func (s *Scheduler) Pending(h Handle) bool {
	_, ok := s.byHandle[h]
	return ok
}

// AddCycles advances the cycle cursor by n and fires every event whose
// timestamp has been reached, in non-decreasing timestamp order (equal
// timestamps fire in insertion order). Handlers may call Add to schedule
// further events, including at Now (they fire within this same drain
// pass); they must never call AddCycles.
func (s *Scheduler) AddCycles(n uint64) {
	s.now += n
	s.accum += n
	s.drain()
}

func (s *Scheduler) drain() {
	if s.draining {
		// Re-entrant AddCycles from within a handler is a programming
		// error: handlers may only Add, never AddCycles.
		log.ModSched.ErrorZ("scheduler re-entered from a handler").End()
		return
	}
	s.draining = true
	defer func() { s.draining = false }()

	target := s.now
	for len(s.heap) > 0 && s.heap[0].at <= target {
		e := heap.Pop(&s.heap).(*event)
		delete(s.byHandle, e.handle)
		late := target - e.at
		if s.accum > late {
			s.accum -= late
		} else {
			s.accum = 0
		}
		// Run the handler at its own timestamp so that any event it adds
		// is placed relative to when this one was due.
		s.now = e.at
		e.handler(late, e.data)
	}
	s.now = target
}

// GetRemainingCycleCount returns the number of cycles until the next
// scheduled event, or 0 if none is pending. Callers use this to fast
// forward across halted intervals without single-stepping the CPU.
func (s *Scheduler) GetRemainingCycleCount() uint64 {
	if len(s.heap) == 0 {
		return 0
	}
	next := s.heap[0].at
	if next <= s.now {
		return 0
	}
	return next - s.now
}

// eventHeap implements container/heap.Interface, ordered by (at, seq).
type eventHeap []*event

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].at != h[j].at {
		return h[i].at < h[j].at
	}
	return h[i].seq < h[j].seq
}
func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *eventHeap) Push(x any) {
	e := x.(*event)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}
