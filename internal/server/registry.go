package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"

	"github.com/dweiss/jdyna-sub000/internal/board"
	"github.com/dweiss/jdyna-sub000/internal/game"
	"github.com/dweiss/jdyna-sub000/internal/protocol"
)

var (
	ErrRoomExists   = errors.New("room name already in use")
	ErrUnknownBoard = errors.New("unknown board")
	ErrUnknownRoom  = errors.New("unknown room")
	ErrRoomFull     = errors.New("room full")
	ErrTooManyRooms = errors.New("too many active rooms")
	ErrRoomName     = errors.New("room name required")
	ErrShuttingDown = errors.New("server shutting down")
)

// Registry tracks live rooms. All methods are safe for concurrent use.
type Registry struct {
	ctx      context.Context
	boards   board.Loader
	cfg      game.Config
	maxRooms int

	// attach runs before a room is published or started, so subscribers
	// see the first frame
	attach func(*Room)

	mu       sync.Mutex
	rooms    map[int]*Room
	names    map[string]int
	nextID   int
	stopping bool
	wg       sync.WaitGroup
}

// NewRegistry creates rooms whose games stop when ctx is cancelled
func NewRegistry(ctx context.Context, boards board.Loader, cfg game.Config, maxRooms int) *Registry {
	return &Registry{
		ctx:      ctx,
		boards:   boards,
		cfg:      cfg,
		maxRooms: maxRooms,
		rooms:    make(map[int]*Room),
		names:    make(map[string]int),
		nextID:   1,
	}
}

// Create builds and starts a new room on the named board
func (r *Registry) Create(roomName, boardName string) (*Room, error) {
	roomName = truncateName(roomName)
	if roomName == "" {
		return nil, ErrRoomName
	}
	b, ok := r.boards.Lookup(boardName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBoard, boardName)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopping {
		return nil, ErrShuttingDown
	}
	if _, taken := r.names[roomName]; taken {
		return nil, fmt.Errorf("%w: %q", ErrRoomExists, roomName)
	}
	if r.maxRooms > 0 && len(r.rooms) >= r.maxRooms {
		return nil, ErrTooManyRooms
	}
	room := newRoom(r.ctx, r.nextID, roomName, b, r.cfg)
	r.nextID++
	if r.attach != nil {
		r.attach(room)
	}
	r.rooms[room.ID] = room
	r.names[roomName] = room.ID
	r.wg.Add(1)
	// onDone takes r.mu on the room's goroutine, after Create returned
	room.start(func(done *Room) {
		r.remove(done)
		r.wg.Done()
	})
	log.Printf("room %d (%s) created on board %s", room.ID, room.Name, room.BoardName)
	return room, nil
}

func (r *Registry) remove(room *Room) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, room.ID)
	if r.names[room.Name] == room.ID {
		delete(r.names, room.Name)
	}
}

// Get returns a live room by id
func (r *Registry) Get(id int) (*Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRoom, id)
	}
	return room, nil
}

// List returns the live rooms ordered by id
func (r *Registry) List() []protocol.RoomInfo {
	r.mu.Lock()
	rooms := make([]*Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, room)
	}
	r.mu.Unlock()

	slices.SortFunc(rooms, func(a, b *Room) int { return a.ID - b.ID })
	out := make([]protocol.RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, room.Info())
	}
	return out
}

// Len returns the number of live rooms
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}

// StopAll interrupts every room and waits for their games to finish.
// Create fails with ErrShuttingDown from then on.
func (r *Registry) StopAll() {
	r.mu.Lock()
	r.stopping = true
	for _, room := range r.rooms {
		room.Stop()
	}
	r.mu.Unlock()
	r.wg.Wait()
}
