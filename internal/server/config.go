package server

import (
	"github.com/dweiss/jdyna-sub000/internal/board"
	"github.com/dweiss/jdyna-sub000/internal/game"
)

// Config holds server settings. Empty optional addresses disable the
// matching endpoint.
type Config struct {
	Name string

	ControlAddr  string // TCP, control requests
	FeedbackAddr string // UDP, controller updates from players

	// BroadcastAddr is the local UDP address frame data is sent from;
	// BroadcastTargets are where it goes. Feedback senders are added as
	// targets of their room when LearnTargets is set.
	BroadcastAddr    string
	BroadcastTargets []string
	LearnTargets     bool

	DiscoveryAddr string // UDP, optional
	SpectatorAddr string // HTTP/WebSocket, optional

	// AdvertiseHost is the address put in discovery replies. Clients
	// fall back to the reply's source address when it is empty.
	AdvertiseHost string

	MaxRooms      int
	MaxConnsPerIP int
	MaxTotalConns int

	Game   game.Config
	Boards board.Loader
}

// DefaultConfig returns settings for a LAN server with endless rooms
func DefaultConfig() Config {
	return Config{
		Name:             "dyna",
		ControlAddr:      ":5100",
		FeedbackAddr:     ":5101",
		BroadcastAddr:    ":0",
		BroadcastTargets: []string{"255.255.255.255:5102"},
		LearnTargets:     true,
		DiscoveryAddr:    ":5103",
		SpectatorAddr:    ":5180",
		MaxRooms:         100,
		MaxConnsPerIP:    5,
		MaxTotalConns:    1000,
		Game:             game.DefaultConfig(game.Deathmatch),
		Boards:           board.DefaultCatalog(),
	}
}
