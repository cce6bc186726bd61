package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dweiss/jdyna-sub000/internal/config"
	"github.com/dweiss/jdyna-sub000/internal/game"
	"github.com/dweiss/jdyna-sub000/internal/server"
)

func main() {
	def := server.DefaultConfig()

	name := flag.String("name", config.GetEnv("DYNA_NAME", def.Name), "Server name announced to discovery")
	controlAddr := flag.String("control", config.GetEnv("DYNA_CONTROL_ADDR", def.ControlAddr), "TCP control listen address")
	feedbackAddr := flag.String("feedback", config.GetEnv("DYNA_FEEDBACK_ADDR", def.FeedbackAddr), "UDP feedback listen address")
	broadcastAddr := flag.String("broadcast", config.GetEnv("DYNA_BROADCAST_ADDR", def.BroadcastAddr), "Local UDP address frames are sent from")
	targets := flag.String("targets", strings.Join(config.GetEnvList("DYNA_BROADCAST_TARGETS", def.BroadcastTargets), ","), "Comma separated UDP addresses frames are sent to")
	discoveryAddr := flag.String("discovery", config.GetEnv("DYNA_DISCOVERY_ADDR", def.DiscoveryAddr), "UDP discovery listen address (empty disables)")
	spectatorAddr := flag.String("spectator", config.GetEnv("DYNA_SPECTATOR_ADDR", def.SpectatorAddr), "HTTP spectator listen address (empty disables)")
	advertise := flag.String("advertise", config.GetEnv("DYNA_ADVERTISE_HOST", ""), "Host announced in discovery replies")
	frameRate := flag.Int("fps", config.GetEnvInt("DYNA_FRAME_RATE", game.DefaultFrameRate), "Simulation frames per second")
	mode := flag.String("mode", config.GetEnv("DYNA_MODE", "deathmatch"), "Game mode: deathmatch or last-man-standing")
	bonuses := flag.String("bonuses", config.GetEnv("DYNA_BONUSES", ""), "Bonus table: classic, friendly or none")
	delayed := flag.Bool("delayed", false, "Delay chained bomb explosions instead of chaining them")
	flag.Parse()

	cfg := def
	cfg.Name = *name
	cfg.ControlAddr = *controlAddr
	cfg.FeedbackAddr = *feedbackAddr
	cfg.BroadcastAddr = *broadcastAddr
	cfg.BroadcastTargets = splitList(*targets)
	cfg.DiscoveryAddr = *discoveryAddr
	cfg.SpectatorAddr = *spectatorAddr
	cfg.AdvertiseHost = *advertise

	switch *mode {
	case "deathmatch":
		cfg.Game = game.DefaultConfig(game.Deathmatch)
	case "last-man-standing", "lms":
		cfg.Game = game.DefaultConfig(game.LastManStanding)
	default:
		log.Fatalf("unknown mode %q", *mode)
	}
	cfg.Game.FrameRate = *frameRate
	if *bonuses != "" {
		table, ok := game.BonusPreset(*bonuses)
		if !ok {
			log.Fatalf("unknown bonus table %q", *bonuses)
		}
		cfg.Game.Bonuses = table
	}
	if *delayed {
		cfg.Game.Explosions = game.DelayedExplosions
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg)
	if err := srv.Run(ctx); err != nil {
		log.Printf("server: %v", err)
		os.Exit(1)
	}
	log.Println("Shut down")
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
