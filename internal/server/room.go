package server

import (
	"context"
	"errors"
	"log"
	"sync"
	"unicode/utf8"

	"github.com/dweiss/jdyna-sub000/internal/board"
	"github.com/dweiss/jdyna-sub000/internal/game"
	"github.com/dweiss/jdyna-sub000/internal/protocol"
)

const maxNameLen = 24

// Room is one running match. Its game is only ever stepped by the room's
// own goroutine.
type Room struct {
	ID        int
	Name      string
	BoardName string

	game        *game.Game
	broadcaster *Broadcaster

	mu          sync.RWMutex
	controllers map[int]*RemoteController

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	result game.GameResult
}

// newRoom prepares a room whose game stops when ctx is cancelled or Stop is
// called, whichever comes first
func newRoom(ctx context.Context, id int, name string, b *board.Board, cfg game.Config) *Room {
	ctx, cancel := context.WithCancel(ctx)
	return &Room{
		ID:          id,
		Name:        name,
		BoardName:   b.Name,
		game:        game.New(b, cfg),
		controllers: make(map[int]*RemoteController),
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
	}
}

// start runs the game until it ends or is stopped, then calls onDone
func (r *Room) start(onDone func(*Room)) {
	go func() {
		defer r.cancel()
		r.result = r.game.Run(r.ctx)
		close(r.done)
		log.Printf("room %d (%s): game over after %d frames, interrupted=%v",
			r.ID, r.Name, r.result.Frames, r.result.Interrupted)
		if onDone != nil {
			onDone(r)
		}
	}()
}

// Stop interrupts the game; the final batch is still dispatched
func (r *Room) Stop() {
	r.cancel()
}

// Done is closed once the game loop has returned
func (r *Room) Done() <-chan struct{} { return r.done }

// Result is valid after Done is closed
func (r *Room) Result() game.GameResult {
	<-r.done
	return r.result
}

// Frame returns the room's current frame
func (r *Room) Frame() int { return r.game.Frame() }

// Subscribe registers a listener for the room's frame batches
func (r *Room) Subscribe(l game.Listener) (cancel func()) {
	return r.game.Subscribe(l)
}

// Join adds a remotely controlled player
func (r *Room) Join(playerName string) (protocol.PlayerHandle, error) {
	select {
	case <-r.done:
		return protocol.PlayerHandle{}, ErrUnknownRoom
	default:
	}
	ctrl := NewRemoteController(r.game.Frame)
	id, err := r.game.AddPlayer(playerName, "", ctrl)
	if err != nil {
		if errors.Is(err, game.ErrGameFull) {
			return protocol.PlayerHandle{}, ErrRoomFull
		}
		return protocol.PlayerHandle{}, err
	}
	r.mu.Lock()
	r.controllers[id] = ctrl
	r.mu.Unlock()
	return protocol.PlayerHandle{RoomID: r.ID, PlayerID: id, PlayerName: playerName}, nil
}

// Controller returns the remote controller of a joined player
func (r *Room) Controller(playerID int) (*RemoteController, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.controllers[playerID]
	return c, ok
}

// Handle describes the room to a client that just created it
func (r *Room) Handle() protocol.GameHandle {
	return protocol.GameHandle{
		RoomID:    r.ID,
		RoomName:  r.Name,
		BoardName: r.BoardName,
		BoardInfo: r.game.Info(),
		Mode:      r.game.Config().Mode.String(),
	}
}

// Info is the room's entry in a listing
func (r *Room) Info() protocol.RoomInfo {
	return protocol.RoomInfo{
		ID:        r.ID,
		Name:      r.Name,
		BoardName: r.BoardName,
		Players:   r.game.PlayerCount(),
		Frame:     r.game.Frame(),
	}
}

// truncateName cuts s to at most maxNameLen bytes on a rune boundary
func truncateName(s string) string {
	if len(s) <= maxNameLen {
		return s
	}
	n := maxNameLen
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
