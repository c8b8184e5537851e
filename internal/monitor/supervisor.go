package monitor

import (
	"stockmon/internal/feed"
	"stockmon/internal/logger"
	"stockmon/internal/models"
)

// ConnState is the feed link state. It changes only through explicit
// Connect/Disconnect calls on the Supervisor, never implicitly.
type ConnState int

const (
	Disconnected ConnState = iota
	Connected
)

func (s ConnState) String() string {
	if s == Connected {
		return "connected"
	}
	return "disconnected"
}

// Supervisor owns the lifecycle of the feed session. It reports whether a
// reconnect budget remains; the monitor loop decides control flow, and the
// supervisor never reconnects on its own.
type Supervisor struct {
	source feed.Source
	state  ConnState
}

func NewSupervisor(source feed.Source) *Supervisor {
	return &Supervisor{source: source, state: Disconnected}
}

func (s *Supervisor) State() ConnState {
	return s.state
}

// Connect establishes the feed session. The state moves to Connected only
// on success.
func (s *Supervisor) Connect(host string, port int) error {
	if err := s.source.Connect(host, port); err != nil {
		return err
	}
	s.state = Connected
	logger.Info("connected to quote feed at %s:%d", host, port)
	return nil
}

// Disconnect tears the session down. Safe to call when already
// disconnected.
func (s *Supervisor) Disconnect() {
	if s.state == Disconnected {
		return
	}
	s.source.Disconnect()
	s.state = Disconnected
	logger.Info("disconnected from quote feed")
}

// Fetch pulls one quote batch over the current session.
func (s *Supervisor) Fetch(keys []feed.SymbolKey) ([]models.Quote, error) {
	return s.source.Fetch(keys)
}

// ShouldRetry reports whether another connect attempt fits the budget.
// Once it returns false the current run is over; the caller decides
// whether that ends the process.
func ShouldRetry(retries, maxRetries int) bool {
	return retries < maxRetries
}
