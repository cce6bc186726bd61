// Package client connects a local player to a remote game server.
package client

import (
	"context"
	"log"
	"sync"
	"sync/atomic"

	"github.com/dweiss/jdyna-sub000/internal/board"
	"github.com/dweiss/jdyna-sub000/internal/game"
)

// ControllerState is one reading of a controller
type ControllerState struct {
	Direction board.Direction
	Moving    bool
	DropsBomb bool
}

// Stats counts what the async controller had to coalesce
type Stats struct {
	Wakeups        int64 // consumer wake-ups that found work
	Coalesced      int64 // wake-ups that drained more than one batch
	SkippedBatches int64 // batches stripped of superseded events
	DroppedEvents  int64 // superseded events stripped from those batches
}

type batch struct {
	frame  int
	events []game.Event
}

// AsyncController sits between a producer of frame batches (usually the
// network receiver) and a possibly slow listener. OnFrame never blocks;
// Run forwards batches on its own goroutine, dropping superseded events
// from all but the newest batch of each wake-up. After forwarding, each
// wake-up takes one snapshot of the wrapped controller, which Poll hands
// out once.
type AsyncController struct {
	ctrl    game.Controller
	next    game.Listener
	sampler game.Listener

	mu     sync.Mutex
	queue  []batch
	signal chan struct{}

	snapshot atomic.Pointer[ControllerState]
	consumed ControllerState // read by Direction, then DropsBomb

	wakeups, coalesced, skipped, dropped atomic.Int64
}

// NewAsyncController wraps ctrl, which may be nil, and forwards to next
func NewAsyncController(ctrl game.Controller, next game.Listener) *AsyncController {
	return &AsyncController{
		ctrl:   ctrl,
		next:   next,
		signal: make(chan struct{}, 1),
	}
}

// Sample registers l to be called once per wake-up, right after that
// wake-up's snapshot was taken, with the newest drained frame and no
// events. Reading the controller from l sees exactly one fresh snapshot.
// Must be called before Run.
func (a *AsyncController) Sample(l game.Listener) {
	a.sampler = l
}

// OnFrame queues a batch. The events slice is copied.
func (a *AsyncController) OnFrame(frame int, events []game.Event) {
	b := batch{frame: frame, events: append([]game.Event(nil), events...)}
	a.mu.Lock()
	a.queue = append(a.queue, b)
	a.mu.Unlock()

	select {
	case a.signal <- struct{}{}:
	default:
	}
}

// Run forwards queued batches until ctx is done
func (a *AsyncController) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-a.signal:
		}

		a.mu.Lock()
		batches := a.queue
		a.queue = nil
		a.mu.Unlock()
		if len(batches) == 0 {
			continue
		}

		a.forward(batches)
		a.capture()
		if a.sampler != nil {
			a.sampler.OnFrame(batches[len(batches)-1].frame, nil)
		}
	}
}

func (a *AsyncController) capture() {
	if a.ctrl == nil {
		return
	}
	var st ControllerState
	st.Direction, st.Moving = a.ctrl.Direction()
	st.DropsBomb = a.ctrl.DropsBomb()
	a.snapshot.Store(&st)
}

func (a *AsyncController) forward(batches []batch) {
	a.wakeups.Add(1)
	last := len(batches) - 1
	dropped := 0
	for i := range batches[:last] {
		kept := batches[i].events[:0]
		for _, e := range batches[i].events {
			if e.Kind().Superseded() {
				dropped++
				continue
			}
			kept = append(kept, e)
		}
		batches[i].events = kept
	}
	if last > 0 {
		a.coalesced.Add(1)
		a.skipped.Add(int64(last))
		a.dropped.Add(int64(dropped))
		log.Printf("async controller: coalesced %d batches up to frame %d, skipped %d batches, dropped %d events",
			len(batches), batches[last].frame, last, dropped)
	}

	if a.next == nil {
		return
	}
	for _, b := range batches {
		if len(b.events) > 0 {
			a.next.OnFrame(b.frame, b.events)
		}
	}
}

// Poll returns the latest controller snapshot and clears it
func (a *AsyncController) Poll() (ControllerState, bool) {
	st := a.snapshot.Swap(nil)
	if st == nil {
		return ControllerState{}, false
	}
	return *st, true
}

// Direction consumes the current snapshot. Not safe for concurrent use
// with DropsBomb, which reports the bomb flag of the snapshot consumed
// here.
func (a *AsyncController) Direction() (board.Direction, bool) {
	st, _ := a.Poll()
	a.consumed = st
	return st.Direction, st.Moving
}

func (a *AsyncController) DropsBomb() bool {
	return a.consumed.DropsBomb
}

// Stats returns the coalescing counters
func (a *AsyncController) Stats() Stats {
	return Stats{
		Wakeups:        a.wakeups.Load(),
		Coalesced:      a.coalesced.Load(),
		SkippedBatches: a.skipped.Load(),
		DroppedEvents:  a.dropped.Load(),
	}
}
