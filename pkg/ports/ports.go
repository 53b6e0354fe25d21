// Package ports acquires listening sockets from a fixed local port range for
// test fixtures. Binding is attempted in order, and exhausting the range is a
// distinct error so a "no available test port" failure cannot be mistaken for
// a generic socket problem.
package ports

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrRangeExhausted reports that no port in the configured range could be
// bound. Callers should treat this as fatal for the test run.
var ErrRangeExhausted = errors.New("no free port in range")

// Range is an inclusive TCP port range.
type Range struct {
	Lo int
	Hi int
}

func (r Range) String() string {
	return fmt.Sprintf("%d-%d", r.Lo, r.Hi)
}

// DefaultRange is the historical fixture range.
var DefaultRange = Range{Lo: 4443, Hi: 4542}

// maxVendedPorts bounds the recently-vended tracking. The OS can be slow to
// make a port rebindable after a server shuts down, so sequential fixtures
// skip ports they handed out recently instead of racing TIME_WAIT.
const maxVendedPorts = 64

var vendedPorts *lru.Cache[int, struct{}]

func init() {
	cache, err := lru.New[int, struct{}](maxVendedPorts)
	if err != nil {
		panic("cannot initialize port cache: " + err.Error())
	}
	vendedPorts = cache
}

// BindRange binds the first free TCP port in r on host, skipping ports vended
// earlier in this process that have not been released. It returns the bound
// listener and its port, or ErrRangeExhausted.
func BindRange(host string, r Range) (net.Listener, int, error) {
	if r.Lo <= 0 || r.Hi < r.Lo {
		return nil, 0, fmt.Errorf("invalid port range %s", r)
	}
	for port := r.Lo; port <= r.Hi; port++ {
		if vendedPorts.Contains(port) {
			continue
		}
		ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
		if err != nil {
			continue
		}
		vendedPorts.Add(port, struct{}{})
		return ln, port, nil
	}
	return nil, 0, fmt.Errorf("%w (%s on %s)", ErrRangeExhausted, r, host)
}

// Release marks port as eligible for vending again. Fixtures call this after
// a synchronous shutdown, once the listener is actually closed.
func Release(port int) {
	vendedPorts.Remove(port)
}
