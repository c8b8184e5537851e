// Package monitor contains the core monitoring engine: the connection
// supervisor, the per-symbol alert evaluator, and the control loop tying
// them to the schedule gate, the network health checker, and the
// notification path.
package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"

	"stockmon/internal/feed"
	"stockmon/internal/logger"
	"stockmon/internal/models"
	"stockmon/internal/notify"
)

// Config carries loop timing and retry budgets.
type Config struct {
	Host string
	Port int

	PollInterval time.Duration // between ticks while trading is active
	IdleInterval time.Duration // between checks outside trading hours

	MaxRetries int // connect attempts before the run is over
	RetryDelay time.Duration

	MaxNetRetries int // network probes before the run is over
	NetRetryBase  time.Duration
}

// Gate decides whether monitoring is active at a given instant.
type Gate interface {
	IsActive(now time.Time) bool
}

// Health probes out-of-band network reachability.
type Health interface {
	Probe() bool
	AwaitRecovery(maxAttempts int, baseDelay time.Duration) bool
}

// Dispatcher routes alert candidates subject to the per-symbol cooldown.
type Dispatcher interface {
	TryNotify(a models.Alert) bool
}

// Journal records emitted alert candidates for audit.
type Journal interface {
	Record(a models.Alert, delivered bool) error
}

// Monitor is the single-threaded control loop. All mutable state
// (SymbolState, connection state, retry counters) is owned by the loop and
// touched from one goroutine only.
type Monitor struct {
	cfg        Config
	gate       Gate
	health     Health
	supervisor *Supervisor
	dispatcher Dispatcher
	notifier   notify.Notifier // direct path for run-level critical notices
	journal    Journal         // nil disables journaling
	eval       Evaluator

	symbols map[string]models.Symbol // enabled symbols by code
	states  map[string]*models.SymbolState
	keys    []feed.SymbolKey

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) bool
}

// New builds a monitor over the enabled subset of symbols.
func New(cfg Config, gate Gate, health Health, source feed.Source,
	dispatcher Dispatcher, notifier notify.Notifier, journal Journal,
	symbols []models.Symbol) *Monitor {

	enabled := lo.Filter(symbols, func(s models.Symbol, _ int) bool { return s.Enabled })

	m := &Monitor{
		cfg:        cfg,
		gate:       gate,
		health:     health,
		supervisor: NewSupervisor(source),
		dispatcher: dispatcher,
		notifier:   notifier,
		journal:    journal,
		symbols: lo.KeyBy(enabled, func(s models.Symbol) string {
			return s.Code
		}),
		states: make(map[string]*models.SymbolState, len(enabled)),
		keys: lo.Map(enabled, func(s models.Symbol, _ int) feed.SymbolKey {
			return feed.SymbolKey{Market: s.Market, Code: s.Code}
		}),
		now:   time.Now,
		sleep: sleepCtx,
	}
	for _, s := range enabled {
		m.states[s.Code] = models.NewSymbolState(s)
	}
	return m
}

// Run drives the loop until ctx is cancelled or the run hits an
// unrecoverable network or connect failure. Cleanup (disconnect plus a
// final critical notice) always runs.
func (m *Monitor) Run(ctx context.Context) error {
	logger.Info("monitoring %d symbols", len(m.keys))
	defer m.shutdown()

	retries := 0
	for {
		if ctx.Err() != nil {
			return nil
		}

		if !m.gate.IsActive(m.now()) {
			if m.supervisor.State() == Connected {
				m.supervisor.Disconnect()
			}
			logger.Info("outside trading hours, checking again in %v", m.cfg.IdleInterval)
			if !m.sleep(ctx, m.cfg.IdleInterval) {
				return nil
			}
			continue
		}

		if !m.health.Probe() {
			logger.Warn("network probe failed")
			if !m.health.AwaitRecovery(m.cfg.MaxNetRetries, m.cfg.NetRetryBase) {
				m.critical("quote feed unreachable", "network down beyond the retry budget, monitoring stopped")
				return fmt.Errorf("network unreachable after %d attempts", m.cfg.MaxNetRetries)
			}
			continue
		}

		if m.supervisor.State() == Disconnected {
			if err := m.supervisor.Connect(m.cfg.Host, m.cfg.Port); err != nil {
				retries++
				logger.Warn("feed connect failed (attempt %d/%d): %v", retries, m.cfg.MaxRetries, err)
				if !ShouldRetry(retries, m.cfg.MaxRetries) {
					m.critical("quote feed connect failed",
						fmt.Sprintf("gave up after %d attempts, monitoring stopped", retries))
					return fmt.Errorf("connect retries exhausted after %d attempts", retries)
				}
				if !m.sleep(ctx, m.cfg.RetryDelay) {
					return nil
				}
				continue
			}
			retries = 0
		}

		quotes, err := m.supervisor.Fetch(m.keys)
		if err != nil || len(quotes) == 0 {
			if err != nil {
				logger.Error("quote fetch failed: %v", err)
			} else {
				logger.Warn("empty quote batch, assuming dead session")
			}
			m.supervisor.Disconnect()
			continue
		}

		m.processBatch(quotes, m.now())

		if !m.sleep(ctx, m.cfg.PollInterval) {
			return nil
		}
	}
}

func (m *Monitor) processBatch(quotes []models.Quote, now time.Time) {
	for _, q := range quotes {
		sym, ok := m.symbols[q.Code]
		if !ok {
			continue
		}
		st := m.states[q.Code]

		for _, a := range m.eval.Evaluate(sym, st, q, now) {
			logger.Warn("alert: %s(%s) %s: %s", sym.Label, sym.Code, a.Kind, a.Message)
			delivered := m.dispatcher.TryNotify(a)
			m.record(a, delivered)
		}

		logger.Info("symbol %s(%s) | price %.2f | change %+.2f%% | turnover %.2f万",
			sym.Label, sym.Code, st.Price, st.ChangePercent, st.Amount)
	}
}

func (m *Monitor) record(a models.Alert, delivered bool) {
	if m.journal == nil {
		return
	}
	if err := m.journal.Record(a, delivered); err != nil {
		logger.Error("failed to journal alert: %v", err)
	}
}

// critical delivers a run-level notice directly, bypassing the per-symbol
// cooldown, and journals it alongside the symbol alerts.
func (m *Monitor) critical(title, message string) {
	err := m.notifier.NotifyCritical(title, message)
	if err != nil {
		logger.Error("failed to deliver critical notification: %v", err)
	}
	m.record(models.Alert{
		Label:      "monitor",
		Kind:       models.MonitorNotice,
		Title:      title,
		Message:    message,
		Critical:   true,
		DetectedAt: m.now(),
	}, err == nil)
}

func (m *Monitor) shutdown() {
	m.supervisor.Disconnect()
	m.critical("monitor stopped", "stock monitoring has shut down")
	logger.Info("monitor stopped")
}

// sleepCtx pauses for d, returning false if ctx was cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
