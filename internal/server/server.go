// Package server hosts game rooms and connects them to remote players:
// TCP control requests, UDP frame broadcast, UDP controller feedback,
// LAN discovery and an optional websocket spectator feed.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"

	"github.com/dweiss/jdyna-sub000/internal/board"
	"github.com/dweiss/jdyna-sub000/internal/protocol"
	"golang.org/x/sync/errgroup"
)

type Server struct {
	cfg       Config
	rooms     *Registry
	hub       *Hub
	stopRooms context.CancelFunc

	control     net.Listener
	feedback    net.PacketConn
	broadcast   net.PacketConn
	discovery   net.PacketConn
	spectatorLn net.Listener
	http        *http.Server
	targets     []net.Addr

	shutdownOnce sync.Once
}

func New(cfg Config) *Server {
	if cfg.Boards == nil {
		cfg.Boards = board.DefaultCatalog()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:       cfg,
		hub:       NewHub(cfg.MaxConnsPerIP, cfg.MaxTotalConns),
		stopRooms: cancel,
	}
	s.rooms = NewRegistry(ctx, cfg.Boards, cfg.Game, cfg.MaxRooms)
	s.rooms.attach = s.attachBroadcaster
	return s
}

// Rooms returns the room registry
func (s *Server) Rooms() *Registry { return s.rooms }

// Listen opens every configured socket without serving them yet
func (s *Server) Listen() (err error) {
	defer func() {
		if err != nil {
			s.closeSockets()
		}
	}()

	for _, t := range s.cfg.BroadcastTargets {
		addr, err := net.ResolveUDPAddr("udp", t)
		if err != nil {
			return fmt.Errorf("broadcast target %q: %w", t, err)
		}
		s.targets = append(s.targets, addr)
	}
	if s.control, err = net.Listen("tcp", s.cfg.ControlAddr); err != nil {
		return fmt.Errorf("control listen: %w", err)
	}
	if s.feedback, err = net.ListenPacket("udp", s.cfg.FeedbackAddr); err != nil {
		return fmt.Errorf("feedback listen: %w", err)
	}
	if s.broadcast, err = net.ListenPacket("udp", s.cfg.BroadcastAddr); err != nil {
		return fmt.Errorf("broadcast socket: %w", err)
	}
	if s.cfg.DiscoveryAddr != "" {
		if s.discovery, err = net.ListenPacket("udp", s.cfg.DiscoveryAddr); err != nil {
			return fmt.Errorf("discovery listen: %w", err)
		}
	}
	if s.cfg.SpectatorAddr != "" {
		if s.spectatorLn, err = net.Listen("tcp", s.cfg.SpectatorAddr); err != nil {
			return fmt.Errorf("spectator listen: %w", err)
		}
		s.http = &http.Server{Handler: s.Routes()}
	}
	return nil
}

// Run serves until ctx is cancelled or an endpoint fails. On the way out
// it stops accepting, then interrupts every room and waits for their
// final batches to go out.
func (s *Server) Run(ctx context.Context) error {
	if s.control == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	log.Printf("server %s: control on %v, feedback on %v", s.cfg.Name, s.control.Addr(), s.feedback.LocalAddr())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(s.acceptControl)
	g.Go(func() error { return s.receiveFeedback(gctx) })
	if s.discovery != nil {
		log.Printf("server %s: discovery on %v", s.cfg.Name, s.discovery.LocalAddr())
		g.Go(func() error { return s.answerDiscovery(gctx) })
	}
	if s.spectatorLn != nil {
		log.Printf("server %s: spectators on %v", s.cfg.Name, s.spectatorLn.Addr())
		g.Go(func() error {
			if err := s.http.Serve(s.spectatorLn); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("spectator: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		s.Close()
		return nil
	})
	return g.Wait()
}

// Close stops the server. Safe to call more than once and without Run.
func (s *Server) Close() {
	s.shutdownOnce.Do(func() {
		log.Printf("server %s: shutting down", s.cfg.Name)
		if s.control != nil {
			s.control.Close()
		}
		if s.http != nil {
			s.http.Close()
		}
		s.hub.CloseAll()
		s.stopRooms()
		s.rooms.StopAll()
		s.closeSockets()
	})
}

func (s *Server) closeSockets() {
	for _, c := range []interface{ Close() error }{s.control, s.feedback, s.broadcast, s.discovery, s.spectatorLn} {
		if c != nil {
			c.Close()
		}
	}
}

func (s *Server) acceptControl() error {
	for {
		conn, err := s.control.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		ip := extractIP(conn.RemoteAddr().String())
		id, ok := s.hub.Admit(ip, conn)
		if !ok {
			log.Printf("control: refusing %s, too many connections", ip)
			conn.Close()
			continue
		}
		go func() {
			defer s.hub.Release(id)
			defer conn.Close()
			(&controlConn{id: id, conn: conn, srv: s}).serve()
		}()
	}
}

func (s *Server) attachBroadcaster(room *Room) {
	if s.broadcast == nil {
		return
	}
	room.broadcaster = NewBroadcaster(s.broadcast, room.ID, s.targets)
	room.Subscribe(room.broadcaster)
}

// Descriptor is what discovery replies carry
func (s *Server) Descriptor() protocol.ServerDescriptor {
	d := protocol.ServerDescriptor{Name: s.cfg.Name, Address: s.cfg.AdvertiseHost}
	if s.control != nil {
		d.ControlPort = portOf(s.control.Addr())
	}
	if s.feedback != nil {
		d.FeedbackPort = portOf(s.feedback.LocalAddr())
	}
	if len(s.targets) > 0 {
		d.BroadcastPort = portOf(s.targets[0])
	}
	if s.spectatorLn != nil {
		d.SpectatorPort = portOf(s.spectatorLn.Addr())
	}
	return d
}

func (s *Server) ControlAddr() net.Addr  { return s.control.Addr() }
func (s *Server) FeedbackAddr() net.Addr { return s.feedback.LocalAddr() }

func (s *Server) DiscoveryAddr() net.Addr {
	if s.discovery == nil {
		return nil
	}
	return s.discovery.LocalAddr()
}

func (s *Server) SpectatorAddr() net.Addr {
	if s.spectatorLn == nil {
		return nil
	}
	return s.spectatorLn.Addr()
}

func portOf(a net.Addr) int {
	switch v := a.(type) {
	case *net.TCPAddr:
		return v.Port
	case *net.UDPAddr:
		return v.Port
	}
	return 0
}
