// Package netbridge connects to a network-attached radio bridge (a
// desktop or gateway process relaying to real RileyLink-compatible
// hardware), discovered over mDNS/DNS-SD the way the retrieved
// teacher's dns_sd.go announces its own KISS-over-TCP service.
//
// The bridge speaks the same command/response wire protocol as
// radio/serialdriver; a TCP connection satisfies io.ReadWriteCloser, so
// this package dials the connection and hands it to serialdriver.New.
package netbridge

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/brutella/dnssd"
)

// ServiceType is the DNS-SD service type browsed for and announced by
// compatible bridge processes.
const ServiceType = "_podexchange-bridge._tcp"

// Discover browses the local network for a bridge instance advertising
// ServiceType (optionally filtered to named, which may be empty to
// accept the first instance found) and returns its "host:port" address.
func Discover(ctx context.Context, named string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		found   string
		foundOK bool
	)

	add := func(e dnssd.BrowseEntry) {
		mu.Lock()
		defer mu.Unlock()
		if foundOK {
			return
		}
		if named != "" && e.Name != named {
			return
		}
		if len(e.IPs) == 0 {
			return
		}
		found = net.JoinHostPort(e.IPs[0].String(), fmt.Sprintf("%d", e.Port))
		foundOK = true
		cancel()
	}
	remove := func(dnssd.BrowseEntry) {}

	err := dnssd.LookupType(ctx, ServiceType, add, remove)
	if err != nil && ctx.Err() == nil {
		return "", fmt.Errorf("netbridge: discovery failed: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if !foundOK {
		return "", fmt.Errorf("netbridge: no bridge advertising %s found within %s", ServiceType, timeout)
	}
	return found, nil
}
