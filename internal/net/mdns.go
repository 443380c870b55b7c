package net

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/hashicorp/mdns"
)

const serviceType = "_localboard._tcp"

// Advertise announces the relay on the local network until the returned
// server is shut down.
func Advertise(port int, log *slog.Logger) (*mdns.Server, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("could not get hostname: %w", err)
	}
	service, err := mdns.NewMDNSService(host, serviceType, "", "", port, []net.IP{firstIPv4()}, []string{"LocalBoard relay"})
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}
	if log != nil {
		log.Info("advertising relay", "service", serviceType, "instance", host, "port", port)
	}
	return server, nil
}

// Browse looks for advertised relays and returns their host:port addresses.
func Browse(ctx context.Context, timeout time.Duration) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	entries := make(chan *mdns.ServiceEntry, 8)
	var found []string
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range entries {
			if e.AddrV4 == nil || e.Port == 0 {
				continue
			}
			found = append(found, net.JoinHostPort(e.AddrV4.String(), fmt.Sprint(e.Port)))
		}
	}()
	params := mdns.DefaultParams(serviceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true
	err := mdns.Query(params)
	close(entries)
	<-done
	if err != nil {
		return nil, fmt.Errorf("mDNS query: %w", err)
	}
	return found, nil
}
