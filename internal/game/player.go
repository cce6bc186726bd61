package game

import "github.com/dweiss/jdyna-sub000/internal/board"

// AnimState is the discrete animation state of a player
type AnimState uint8

const (
	Standing AnimState = iota
	Walking
	Dying
	Dead
)

func (s AnimState) String() string {
	switch s {
	case Standing:
		return "standing"
	case Walking:
		return "walking"
	case Dying:
		return "dying"
	case Dead:
		return "dead"
	}
	return "unknown"
}

// Timers hold the absolute frame at which each timed effect ends. An
// effect is active while the current frame is below its value.
type Timers struct {
	Immortality  int
	MaxRange     int
	NoBombs      int
	Speed        int
	CrateWalking int
	BombWalking  int
	Reverse      int
	Diarrhea     int
}

// Player is the per-player simulation state. It is only touched by the
// goroutine running the game.
type Player struct {
	ID   int
	Name string
	Team string

	Location  board.Point // pixel position of the sprite center
	Speed     int
	State     AnimState
	Facing    board.Direction
	AnimFrame int

	Bombs  int
	Range  int
	Lives  int
	Kills  int
	Deaths int

	LastBombFrame int
	DeathFrame    int
	Timers

	speedEffect    int // speed while Timers.Speed is active
	unlimitedLives bool
	controller     Controller
}

// NewPlayer creates a player standing at pixel position at
func NewPlayer(id int, name, team string, at board.Point, cfg Config, ctrl Controller) *Player {
	return &Player{
		ID:             id,
		Name:           name,
		Team:           team,
		Location:       at,
		Speed:          cfg.Speed,
		Facing:         board.Down,
		Bombs:          cfg.BombCount,
		Range:          cfg.BombRange,
		Lives:          cfg.Lives,
		LastBombFrame:  -cfg.BombDropDelay,
		unlimitedLives: cfg.unlimitedLives(),
		controller:     ctrl,
	}
}

// IsDead reports whether the player is dying or dead
func (p *Player) IsDead() bool {
	return p.State == Dying || p.State == Dead
}

// IsStoneDead reports whether the player is dead for good
func (p *Player) IsStoneDead() bool {
	return p.IsDead() && !p.unlimitedLives && p.Lives <= 0
}

// IsImmortal reports whether lethal cells are harmless this frame
func (p *Player) IsImmortal(frame int) bool {
	return frame < p.Timers.Immortality
}

// CurrentSpeed returns the per-axis speed in effect at frame
func (p *Player) CurrentSpeed(frame int) int {
	if frame < p.Timers.Speed {
		return p.speedEffect
	}
	return p.Speed
}

// CanWalkOn reports whether the player may enter a cell of type t
func (p *Player) CanWalkOn(t board.CellType, frame int) bool {
	switch {
	case t.IsWalkable():
		return true
	case t == board.Bomb:
		return frame < p.Timers.BombWalking || p.IsImmortal(frame)
	case t == board.Crate || t == board.CrateDying:
		return frame < p.Timers.CrateWalking
	}
	return false
}

// BombRange returns the range of a bomb dropped at frame
func (p *Player) BombRange(frame, maxRange int) int {
	if frame < p.Timers.MaxRange {
		return maxRange
	}
	return p.Range
}

// Kill starts the dying animation and takes a life
func (p *Player) Kill(frame int) {
	p.State = Dying
	p.AnimFrame = 0
	p.DeathFrame = frame
	p.Deaths++
	if !p.unlimitedLives && p.Lives > 0 {
		p.Lives--
	}
}

// Resurrect puts a dead player back on the board with a fresh set of
// timers and temporary immortality.
func (p *Player) Resurrect(at board.Point, frame int, cfg Config) {
	p.Location = at
	p.State = Standing
	p.Facing = board.Down
	p.AnimFrame = 0
	p.Timers = Timers{Immortality: frame + cfg.ImmortalityFrames}
	p.LastBombFrame = frame - cfg.BombDropDelay
}

// animate advances the animation state machine by one frame
func (p *Player) animate(dir board.Direction, moving bool, cfg Config) {
	switch p.State {
	case Dying:
		p.AnimFrame++
		if p.AnimFrame >= cfg.DyingFrames {
			p.State = Dead
			p.AnimFrame = 0
		}
	case Dead:
	default:
		if !moving {
			p.State = Standing
			p.AnimFrame = 0
			return
		}
		if p.State != Walking || p.Facing != dir {
			p.AnimFrame = 0
		} else {
			p.AnimFrame++
		}
		p.State = Walking
		p.Facing = dir
	}
}

// ApplyBonus grants the effect of a bonus cell. Surprise bonuses must be
// resolved to a concrete type by the caller.
func (p *Player) ApplyBonus(t board.CellType, frame int, cfg Config) {
	until := frame + cfg.EffectFrames
	switch t {
	case board.BonusBomb:
		p.Bombs++
	case board.BonusRange:
		p.Range++
	case board.BonusMaxRange:
		p.Timers.MaxRange = until
	case board.BonusImmortality:
		p.Timers.Immortality = until
	case board.BonusSpeedUp:
		p.Timers.Speed = until
		p.speedEffect = cfg.SpeedUp
	case board.BonusSlowDown:
		p.Timers.Speed = until
		p.speedEffect = cfg.SlowDown
	case board.BonusCrateWalking:
		p.Timers.CrateWalking = until
	case board.BonusBombWalking:
		p.Timers.BombWalking = until
	case board.BonusDiarrhea:
		p.Timers.Diarrhea = until
	case board.BonusNoBombs:
		p.Timers.NoBombs = until
	case board.BonusControllerReverse:
		p.Timers.Reverse = until
	}
}

func (p *Player) activeEffects(frame int) []string {
	var fx []string
	add := func(until int, name string) {
		if frame < until {
			fx = append(fx, name)
		}
	}
	add(p.Timers.Immortality, "immortality")
	add(p.Timers.MaxRange, "max-range")
	add(p.Timers.NoBombs, "no-bombs")
	if frame < p.Timers.Speed {
		if p.speedEffect > p.Speed {
			fx = append(fx, "speed-up")
		} else {
			fx = append(fx, "slow-down")
		}
	}
	add(p.Timers.CrateWalking, "crate-walking")
	add(p.Timers.BombWalking, "bomb-walking")
	add(p.Timers.Reverse, "controller-reverse")
	add(p.Timers.Diarrhea, "diarrhea")
	return fx
}

// Status returns the aggregate state of the player at frame
func (p *Player) Status(frame int) PlayerStatus {
	return PlayerStatus{
		ID:        p.ID,
		Name:      p.Name,
		Team:      p.Team,
		Lives:     p.Lives,
		Kills:     p.Kills,
		Deaths:    p.Deaths,
		Bombs:     p.Bombs,
		Range:     p.Range,
		Dead:      p.IsDead(),
		StoneDead: p.IsStoneDead(),
		Immortal:  p.IsImmortal(frame),
		Effects:   p.activeEffects(frame),
	}
}

// Sprite returns the drawable state of the player at frame
func (p *Player) Sprite(frame int) PlayerSprite {
	return PlayerSprite{
		ID:        p.ID,
		Name:      p.Name,
		X:         p.Location.X,
		Y:         p.Location.Y,
		State:     p.State,
		Facing:    p.Facing,
		AnimFrame: p.AnimFrame,
		Immortal:  p.IsImmortal(frame),
	}
}
