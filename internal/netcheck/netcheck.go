// Package netcheck provides an out-of-band network reachability probe with
// exponential-backoff recovery.
package netcheck

import (
	"net"
	"strconv"
	"time"

	"stockmon/internal/logger"
)

// Checker probes a well-known endpoint to distinguish feed trouble from a
// full network outage.
type Checker struct {
	addr    string
	timeout time.Duration

	sleep func(time.Duration) // swapped in tests
}

// New creates a checker for host:port with the given dial timeout.
func New(host string, port int, timeout time.Duration) *Checker {
	return &Checker{
		addr:    net.JoinHostPort(host, strconv.Itoa(port)),
		timeout: timeout,
		sleep:   time.Sleep,
	}
}

// Probe opens and immediately closes a TCP connection to the probe
// endpoint. Any error (timeout, refusal, resolution failure) means
// unreachable.
func (c *Checker) Probe() bool {
	conn, err := net.DialTimeout("tcp", c.addr, c.timeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// AwaitRecovery retries Probe with exponential backoff, sleeping
// baseDelay * 2^(attempt-1) after each failed attempt, up to maxAttempts
// probes. It returns true on the first success and blocks the caller for
// the cumulative backoff duration.
func (c *Checker) AwaitRecovery(maxAttempts int, baseDelay time.Duration) bool {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if c.Probe() {
			logger.Info("network connection recovered")
			return true
		}
		wait := baseDelay * time.Duration(1<<(attempt-1))
		logger.Warn("network probe failed (attempt %d/%d), waiting %v", attempt, maxAttempts, wait)
		c.sleep(wait)
	}
	logger.Error("network still unreachable after %d attempts", maxAttempts)
	return false
}
