package client

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/dweiss/jdyna-sub000/internal/protocol"
)

// Discover sends a probe to probeAddr, usually a broadcast address, and
// collects server descriptors until want distinct servers answered or
// timeout passed. want <= 0 collects until the timeout.
func Discover(ctx context.Context, probeAddr string, timeout time.Duration, want int) ([]protocol.ServerDescriptor, error) {
	to, err := net.ResolveUDPAddr("udp", probeAddr)
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}
	conn, err := net.ListenPacket("udp", ":0")
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}
	defer conn.Close()

	if err := protocol.SendDatagram(conn, to, protocol.KindDiscoveryProbe, 0, nil); err != nil {
		return nil, fmt.Errorf("discover: probe %v: %w", to, err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	r := protocol.NewUDPReceiver(conn)
	seen := make(map[string]bool)
	var found []protocol.ServerDescriptor
	for want <= 0 || len(found) < want {
		d, from, err := r.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			return found, fmt.Errorf("discover: %w", err)
		}
		if d.Kind != protocol.KindDiscoveryReply {
			continue
		}
		desc, err := protocol.UnmarshalServerDescriptor(d.Body)
		if err != nil {
			continue
		}
		if desc.Address == "" {
			if ua, ok := from.(*net.UDPAddr); ok {
				desc.Address = ua.IP.String()
			}
		}
		if key := desc.ControlAddr(); !seen[key] {
			seen[key] = true
			found = append(found, desc)
		}
	}
	return found, nil
}
