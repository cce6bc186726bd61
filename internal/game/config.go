package game

import "github.com/dweiss/jdyna-sub000/internal/board"

// Mode defines how deaths and game-over are handled
type Mode int

const (
	// LastManStanding counts lives; a player with no lives left stays dead
	// and the game ends when fewer than two players remain.
	LastManStanding Mode = 0
	// Deathmatch respawns players indefinitely and never ends on its own.
	Deathmatch Mode = 1
)

func (m Mode) String() string {
	switch m {
	case LastManStanding:
		return "last-man-standing"
	case Deathmatch:
		return "deathmatch"
	}
	return "unknown"
}

// ExplosionPolicy selects what happens when a flame reaches another bomb
type ExplosionPolicy int

const (
	// ChainExplosions detonates contacted bombs in the same frame
	ChainExplosions ExplosionPolicy = 0
	// DelayedExplosions only shortens the fuse of contacted bombs to FuseFloor
	DelayedExplosions ExplosionPolicy = 1
)

const DefaultFrameRate = 25

// Config holds the tunables of a single game. All durations are in frames.
type Config struct {
	Mode       Mode
	NeverEnds  bool
	FrameRate  int // frames per second, 0 runs unpaced
	CellSize   int // pixels
	MaxPlayers int

	Lives         int
	BombCount     int
	BombRange     int
	FuseFrames    int
	FuseFloor     int
	BombDropDelay int
	Explosions    ExplosionPolicy

	Speed        int // pixels per frame, per axis
	SpeedUp      int
	SlowDown     int
	EasingMargin int // pixels from a cell edge within which corners are cut

	DyingFrames        int
	ResurrectionFrames int
	ImmortalityFrames  int
	EffectFrames       int
	LingerFrames       int
	StatusPeriod       int

	BonusPeriod int // 0 disables periodic bonuses
	CratePeriod int // 0 disables periodic crates
	Bonuses     BonusTable

	Seed uint64 // 0 picks a random seed
}

// DefaultConfig returns default config for the given mode
func DefaultConfig(mode Mode) Config {
	cfg := Config{
		Mode:       mode,
		FrameRate:  DefaultFrameRate,
		CellSize:   board.DefaultCellSize,
		MaxPlayers: 8,

		Lives:         3,
		BombCount:     1,
		BombRange:     2,
		FuseFrames:    3 * DefaultFrameRate,
		FuseFloor:     5,
		BombDropDelay: 10,
		Explosions:    ChainExplosions,

		Speed:        2,
		SpeedUp:      4,
		SlowDown:     1,
		EasingMargin: board.DefaultCellSize / 4,

		DyingFrames:        DefaultFrameRate,
		ResurrectionFrames: 3 * DefaultFrameRate,
		ImmortalityFrames:  3 * DefaultFrameRate,
		EffectFrames:       10 * DefaultFrameRate,
		LingerFrames:       2 * DefaultFrameRate,
		StatusPeriod:       DefaultFrameRate,

		BonusPeriod: 5 * DefaultFrameRate,
		CratePeriod: 8 * DefaultFrameRate,
		Bonuses:     ClassicBonuses,
	}
	switch mode {
	case Deathmatch:
		cfg.NeverEnds = true
		cfg.Lives = 1
		cfg.Bonuses = FriendlyBonuses
	}
	return cfg
}

// endless reports whether game-over is never evaluated
func (c Config) endless() bool {
	return c.NeverEnds || c.Mode == Deathmatch
}

func (c Config) unlimitedLives() bool {
	return c.Mode == Deathmatch
}
