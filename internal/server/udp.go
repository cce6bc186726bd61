package server

import (
	"context"
	"errors"
	"log"
	"net"

	"github.com/dweiss/jdyna-sub000/internal/protocol"
)

// receiveFeedback applies controller updates until ctx is done. Packets
// for unknown rooms or players are ignored.
func (s *Server) receiveFeedback(ctx context.Context) error {
	r := protocol.NewUDPReceiver(s.feedback)
	for {
		d, from, err := r.Next(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		if d.Kind != protocol.KindControllerState {
			continue
		}
		u, err := protocol.UnmarshalControllerState(d.Body)
		if err != nil || u.RoomID != int(d.RoomID) {
			continue
		}
		room, err := s.rooms.Get(u.RoomID)
		if err != nil {
			continue
		}
		ctrl, ok := room.Controller(u.PlayerID)
		if !ok {
			continue
		}
		ctrl.Update(u)
		if s.cfg.LearnTargets && room.broadcaster != nil && room.broadcaster.AddTarget(from) {
			log.Printf("broadcast: room %d now also sending to %v", room.ID, from)
		}
	}
}

// answerDiscovery replies to every probe with this server's descriptor
func (s *Server) answerDiscovery(ctx context.Context) error {
	r := protocol.NewUDPReceiver(s.discovery)
	for {
		d, from, err := r.Next(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		if d.Kind != protocol.KindDiscoveryProbe {
			continue
		}
		body, err := s.Descriptor().Marshal()
		if err != nil {
			log.Printf("discovery: %v", err)
			continue
		}
		if err := protocol.SendDatagram(s.discovery, from, protocol.KindDiscoveryReply, 0, body); err != nil {
			log.Printf("discovery: reply to %v: %v", from, err)
		}
	}
}
