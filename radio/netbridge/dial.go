package netbridge

import (
	"fmt"
	"net"
	"time"

	"podexchange/radio/serialdriver"
)

// Dial connects to a bridge at address ("host:port") and returns a
// Driver built on that connection.
func Dial(address string, timeout time.Duration) (*serialdriver.Driver, error) {
	conn, err := net.DialTimeout("tcp", address, timeout)
	if err != nil {
		return nil, fmt.Errorf("netbridge: dial %s: %w", address, err)
	}
	return serialdriver.New(conn), nil
}
