package client

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/dweiss/jdyna-sub000/internal/board"
)

// DefaultKeyHold is how long a key press counts as held. Terminals report
// no key releases, only auto-repeated presses.
const DefaultKeyHold = 150 * time.Millisecond

const (
	keyEsc   = 0x1b
	keyCtrlC = 0x03
	keySpace = ' '
	keyQuit  = 'q'
)

// escape sequence parser states
const (
	escNone = iota
	escSeen
	escBrack
)

// Keyboard turns raw terminal input into a game.Controller. Arrow keys and
// WASD steer, space drops a bomb, q or Ctrl-C quits.
type Keyboard struct {
	hold time.Duration
	now  func() time.Time

	mu        sync.Mutex
	dir       board.Direction
	dirUntil  time.Time
	dropUntil time.Time
	esc       int

	quitOnce sync.Once
	quit     chan struct{}
}

func NewKeyboard(hold time.Duration) *Keyboard {
	return &Keyboard{hold: hold, now: time.Now, quit: make(chan struct{})}
}

// Quit is closed when the user asked to leave
func (k *Keyboard) Quit() <-chan struct{} { return k.quit }

// Run reads r until it fails or ctx is done. A Read already blocked in r
// is not interrupted.
func (k *Keyboard) Run(ctx context.Context, r io.Reader) error {
	buf := make([]byte, 64)
	for ctx.Err() == nil {
		n, err := r.Read(buf)
		k.Feed(buf[:n])
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
	return nil
}

// Feed processes raw key bytes. Escape sequences may be split across calls.
func (k *Keyboard) Feed(b []byte) {
	k.mu.Lock()
	defer k.mu.Unlock()
	now := k.now()
	for _, c := range b {
		switch k.esc {
		case escSeen:
			if c == '[' || c == 'O' {
				k.esc = escBrack
			} else {
				k.esc = escNone
			}
			continue
		case escBrack:
			k.esc = escNone
			switch c {
			case 'A':
				k.press(board.Up, now)
			case 'B':
				k.press(board.Down, now)
			case 'C':
				k.press(board.Right, now)
			case 'D':
				k.press(board.Left, now)
			}
			continue
		}

		switch c {
		case keyEsc:
			k.esc = escSeen
		case 'w', 'W':
			k.press(board.Up, now)
		case 's', 'S':
			k.press(board.Down, now)
		case 'a', 'A':
			k.press(board.Left, now)
		case 'd', 'D':
			k.press(board.Right, now)
		case keySpace:
			k.dropUntil = now.Add(k.hold)
		case keyQuit, keyCtrlC:
			k.quitOnce.Do(func() { close(k.quit) })
		}
	}
}

func (k *Keyboard) press(d board.Direction, now time.Time) {
	k.dir = d
	k.dirUntil = now.Add(k.hold)
}

func (k *Keyboard) Direction() (board.Direction, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.now().Before(k.dirUntil) {
		return k.dir, true
	}
	return 0, false
}

func (k *Keyboard) DropsBomb() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.now().Before(k.dropUntil)
}
