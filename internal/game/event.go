package game

import "github.com/dweiss/jdyna-sub000/internal/board"

// EventKind identifies the concrete type of an Event
type EventKind uint8

const (
	KindGameStart EventKind = iota + 1
	KindGameState
	KindSoundEffect
	KindGameStatus
	KindExplosion
	KindGameOver
)

func (k EventKind) String() string {
	switch k {
	case KindGameStart:
		return "GAME_START"
	case KindGameState:
		return "GAME_STATE"
	case KindSoundEffect:
		return "SOUND_EFFECT"
	case KindGameStatus:
		return "GAME_STATUS"
	case KindExplosion:
		return "EXPLOSION"
	case KindGameOver:
		return "GAME_OVER"
	}
	return "UNKNOWN"
}

// Superseded reports whether a later event of the same kind makes an
// earlier one redundant. Such events may be dropped under backpressure.
func (k EventKind) Superseded() bool {
	return k == KindGameState || k == KindSoundEffect
}

// Event is one item of a per-frame batch. Events are read-only; listeners
// must copy anything they want to keep past the OnFrame call.
type Event interface {
	Kind() EventKind
}

// SoundEffect names an audio cue
type SoundEffect uint8

const (
	SoundBomb SoundEffect = iota + 1
	SoundBonus
	SoundDying
)

func (s SoundEffect) String() string {
	switch s {
	case SoundBomb:
		return "bomb"
	case SoundBonus:
		return "bonus"
	case SoundDying:
		return "dying"
	}
	return "unknown"
}

// PlayerSprite is what a view needs to draw a player
type PlayerSprite struct {
	ID        int             `msgpack:"id"`
	Name      string          `msgpack:"n"`
	X         int             `msgpack:"x"`
	Y         int             `msgpack:"y"`
	State     AnimState       `msgpack:"s"`
	Facing    board.Direction `msgpack:"f"`
	AnimFrame int             `msgpack:"af"`
	Immortal  bool            `msgpack:"im,omitempty"`
}

// PlayerStatus is the aggregate, non-positional state of a player
type PlayerStatus struct {
	ID        int      `msgpack:"id" json:"id"`
	Name      string   `msgpack:"n" json:"name"`
	Team      string   `msgpack:"t,omitempty" json:"team,omitempty"`
	Lives     int      `msgpack:"l" json:"lives"`
	Kills     int      `msgpack:"k" json:"kills"`
	Deaths    int      `msgpack:"d" json:"deaths"`
	Bombs     int      `msgpack:"b" json:"bombs"`
	Range     int      `msgpack:"r" json:"range"`
	Dead      bool     `msgpack:"dead" json:"dead"`
	StoneDead bool     `msgpack:"sd" json:"stoneDead"`
	Immortal  bool     `msgpack:"im" json:"immortal"`
	Effects   []string `msgpack:"fx,omitempty" json:"effects,omitempty"`
}

// Blast describes one detonated bomb
type Blast struct {
	Epicenter board.Point `msgpack:"at"`
	Range     int         `msgpack:"r"`
	Owner     int         `msgpack:"o"`
}

// GameResult is produced exactly once, when the game loop terminates
type GameResult struct {
	Players     []PlayerStatus `msgpack:"p" json:"players"`
	Interrupted bool           `msgpack:"i" json:"interrupted"`
	Frames      int            `msgpack:"f" json:"frames"`
}

// Winner returns the only player that is not stone dead, if there is one
func (r GameResult) Winner() (PlayerStatus, bool) {
	var winner PlayerStatus
	alive := 0
	for _, p := range r.Players {
		if !p.StoneDead {
			winner = p
			alive++
		}
	}
	return winner, alive == 1
}

type GameStartEvent struct {
	BoardName string          `msgpack:"bn"`
	BoardInfo board.BoardInfo `msgpack:"bi"`
	Players   []PlayerStatus  `msgpack:"p"`
}

// GameStateEvent is a full snapshot: row-major cell types plus sprites
type GameStateEvent struct {
	Width   int              `msgpack:"w"`
	Height  int              `msgpack:"h"`
	Cells   []board.CellType `msgpack:"c"`
	Players []PlayerSprite   `msgpack:"p"`
}

// CellAt returns the snapshot cell type at grid coordinate p
func (e GameStateEvent) CellAt(p board.Point) board.CellType {
	if p.X < 0 || p.Y < 0 || p.X >= e.Width || p.Y >= e.Height {
		return board.Wall
	}
	return e.Cells[p.Y*e.Width+p.X]
}

type SoundEffectEvent struct {
	Effect SoundEffect `msgpack:"e"`
	Count  int         `msgpack:"n"`
}

type GameStatusEvent struct {
	Players []PlayerStatus `msgpack:"p"`
}

type ExplosionEvent struct {
	Blasts []Blast `msgpack:"b"`
}

type GameOverEvent struct {
	Result GameResult `msgpack:"r"`
}

func (GameStartEvent) Kind() EventKind   { return KindGameStart }
func (GameStateEvent) Kind() EventKind   { return KindGameState }
func (SoundEffectEvent) Kind() EventKind { return KindSoundEffect }
func (GameStatusEvent) Kind() EventKind  { return KindGameStatus }
func (ExplosionEvent) Kind() EventKind   { return KindExplosion }
func (GameOverEvent) Kind() EventKind    { return KindGameOver }
