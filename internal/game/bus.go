package game

import (
	"log"
	"runtime/debug"
	"sync"

	"github.com/dweiss/jdyna-sub000/internal/board"
)

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -destination=mocks/mocks.go -package=mocks . Controller,Listener

// Controller is polled once per frame for a player's intent
type Controller interface {
	// Direction returns the requested direction, or false when the player
	// should stand still.
	Direction() (board.Direction, bool)
	DropsBomb() bool
}

// Listener receives the event batch produced by every frame
type Listener interface {
	OnFrame(frame int, events []Event)
}

// ListenerFunc adapts a function to Listener
type ListenerFunc func(frame int, events []Event)

func (f ListenerFunc) OnFrame(frame int, events []Event) { f(frame, events) }

// Bus fans frame batches out to subscribed listeners. It lives as long as
// the game that owns it.
type Bus struct {
	mu        sync.Mutex
	nextID    int
	listeners []subscription
}

type subscription struct {
	id int
	l  Listener
}

// Subscribe registers l and returns a function that removes it again.
// Calling cancel more than once is harmless.
func (b *Bus) Subscribe(l Listener) (cancel func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.listeners = append(b.listeners, subscription{id: id, l: l})

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.listeners {
		if s.id == id {
			b.listeners = append(b.listeners[:i:i], b.listeners[i+1:]...)
			return
		}
	}
}

// Len returns the number of subscribed listeners
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}

// Dispatch delivers a batch to every listener subscribed at call time.
// A panicking listener is logged and skipped.
func (b *Bus) Dispatch(frame int, events []Event) {
	b.mu.Lock()
	snapshot := b.listeners
	b.mu.Unlock()

	for _, s := range snapshot {
		deliver(s, frame, events)
	}
}

func deliver(s subscription, frame int, events []Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("bus: listener %d panicked on frame %d: %v\n%s", s.id, frame, r, debug.Stack())
		}
	}()
	s.l.OnFrame(frame, events)
}
