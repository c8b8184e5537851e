package monitor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"stockmon/internal/models"
)

type fakeGate struct{ active bool }

func (g fakeGate) IsActive(time.Time) bool { return g.active }

type fakeHealth struct {
	probeOK    bool
	recoverOK  bool
	recoveries int
}

func (h *fakeHealth) Probe() bool { return h.probeOK }

func (h *fakeHealth) AwaitRecovery(int, time.Duration) bool {
	h.recoveries++
	return h.recoverOK
}

type fakeDispatcher struct {
	alerts  []models.Alert
	deliver bool
}

func (d *fakeDispatcher) TryNotify(a models.Alert) bool {
	d.alerts = append(d.alerts, a)
	return d.deliver
}

type fakeNotifier struct {
	normal   []string
	critical []string
}

func (n *fakeNotifier) Notify(title, message string) error {
	n.normal = append(n.normal, title)
	return nil
}

func (n *fakeNotifier) NotifyCritical(title, message string) error {
	n.critical = append(n.critical, title)
	return nil
}

type journaled struct {
	alert     models.Alert
	delivered bool
}

type fakeJournal struct{ entries []journaled }

func (j *fakeJournal) Record(a models.Alert, delivered bool) error {
	j.entries = append(j.entries, journaled{a, delivered})
	return nil
}

// loopDriver replaces the monitor's sleep, cancelling the context once the
// loop has slept maxSleeps times so tests terminate without real waiting.
type loopDriver struct {
	cancel    context.CancelFunc
	maxSleeps int
	sleeps    []time.Duration
}

func (d *loopDriver) sleep(ctx context.Context, dur time.Duration) bool {
	d.sleeps = append(d.sleeps, dur)
	if len(d.sleeps) >= d.maxSleeps {
		d.cancel()
		return false
	}
	return true
}

func loopConfig() Config {
	return Config{
		Host:          "127.0.0.1",
		Port:          7709,
		PollInterval:  time.Second,
		IdleInterval:  60 * time.Second,
		MaxRetries:    3,
		RetryDelay:    5 * time.Second,
		MaxNetRetries: 5,
		NetRetryBase:  5 * time.Second,
	}
}

func loopSymbols() []models.Symbol {
	return []models.Symbol{
		{
			Market: 2, Code: "920579", Label: "Test Co", Enabled: true,
			VolumeThreshold: 50, PriceAlertRatio: 2.0, PriceWarningRatio: 5.0,
		},
		{
			Market: 0, Code: "002747", Label: "Disabled Co", Enabled: false,
			VolumeThreshold: 50, PriceAlertRatio: 2.0, PriceWarningRatio: 5.0,
		},
	}
}

type loopFixture struct {
	mon        *Monitor
	src        *fakeSource
	health     *fakeHealth
	dispatcher *fakeDispatcher
	notifier   *fakeNotifier
	journal    *fakeJournal
	driver     *loopDriver
	ctx        context.Context
}

func newLoopFixture(t *testing.T, cfg Config, gate Gate, src *fakeSource, maxSleeps int) *loopFixture {
	t.Helper()
	f := &loopFixture{
		src:        src,
		health:     &fakeHealth{probeOK: true, recoverOK: true},
		dispatcher: &fakeDispatcher{deliver: true},
		notifier:   &fakeNotifier{},
		journal:    &fakeJournal{},
	}

	f.mon = New(cfg, gate, f.health, src, f.dispatcher, f.notifier, f.journal, loopSymbols())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	f.ctx = ctx
	f.driver = &loopDriver{cancel: cancel, maxSleeps: maxSleeps}
	f.mon.sleep = f.driver.sleep
	// A fixed instant mid-minute keeps the evaluator off second boundaries.
	f.mon.now = func() time.Time {
		return time.Date(2026, 8, 28, 10, 5, 30, 0, time.Local)
	}
	return f
}

func TestNew_FiltersDisabledSymbols(t *testing.T) {
	f := newLoopFixture(t, loopConfig(), fakeGate{active: true}, &fakeSource{}, 1)

	if len(f.mon.keys) != 1 || f.mon.keys[0].Code != "920579" {
		t.Errorf("got keys %v, want only the enabled symbol", f.mon.keys)
	}
	if _, ok := f.mon.states["002747"]; ok {
		t.Error("disabled symbol should have no state")
	}
}

func TestRun_IdleOutsideTradingHours(t *testing.T) {
	src := &fakeSource{}
	f := newLoopFixture(t, loopConfig(), fakeGate{active: false}, src, 1)

	if err := f.mon.Run(f.ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if src.connects != 0 || src.fetches != 0 {
		t.Error("feed must not be touched outside trading hours")
	}
	if len(f.driver.sleeps) != 1 || f.driver.sleeps[0] != 60*time.Second {
		t.Errorf("got sleeps %v, want one idle interval", f.driver.sleeps)
	}
}

func TestRun_ShutdownNotification(t *testing.T) {
	f := newLoopFixture(t, loopConfig(), fakeGate{active: false}, &fakeSource{}, 1)

	if err := f.mon.Run(f.ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(f.notifier.critical) != 1 || !strings.Contains(f.notifier.critical[0], "monitor stopped") {
		t.Errorf("got criticals %v, want the shutdown notice", f.notifier.critical)
	}
}

func TestRun_ProcessesQuotesAndRoutesAlerts(t *testing.T) {
	src := &fakeSource{
		batches: [][]models.Quote{{
			// +6% move: price alert + warning candidates.
			{Code: "920579", Price: 106, LastClose: 100, Volume: 1000, Amount: 100000},
			// Unknown code is skipped, not fatal.
			{Code: "999999", Price: 1, LastClose: 1, Volume: 1, Amount: 1},
		}},
	}
	f := newLoopFixture(t, loopConfig(), fakeGate{active: true}, src, 1)

	if err := f.mon.Run(f.ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if src.connects != 1 {
		t.Fatalf("got %d connects, want 1", src.connects)
	}
	if len(f.dispatcher.alerts) != 2 {
		t.Fatalf("got %d alerts, want 2", len(f.dispatcher.alerts))
	}
	if f.dispatcher.alerts[0].Kind != models.PriceMove || f.dispatcher.alerts[1].Kind != models.PriceWarning {
		t.Errorf("got kinds %v %v", f.dispatcher.alerts[0].Kind, f.dispatcher.alerts[1].Kind)
	}
	// Two symbol alerts plus the shutdown notice.
	if len(f.journal.entries) != 3 {
		t.Fatalf("got %d journal entries, want 3", len(f.journal.entries))
	}
	if !f.journal.entries[0].delivered {
		t.Error("journal should reflect delivered dispatch")
	}
	if f.journal.entries[2].alert.Kind != models.MonitorNotice {
		t.Errorf("got last journal kind %s, want %s", f.journal.entries[2].alert.Kind, models.MonitorNotice)
	}
}

func TestRun_EmptyBatchDisconnectsAndRetries(t *testing.T) {
	src := &fakeSource{
		batches: [][]models.Quote{
			nil, // empty batch: treated as a dead session
			{{Code: "920579", Price: 100, LastClose: 100, Volume: 1, Amount: 1}},
		},
	}
	f := newLoopFixture(t, loopConfig(), fakeGate{active: true}, src, 1)

	if err := f.mon.Run(f.ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if src.connects != 2 {
		t.Errorf("got %d connects, want reconnect after empty batch", src.connects)
	}
	// One from the empty batch, one from shutdown.
	if src.disconnects != 2 {
		t.Errorf("got %d disconnects, want 2", src.disconnects)
	}
}

func TestRun_FetchErrorDisconnects(t *testing.T) {
	src := &fakeSource{
		fetchErrs: []error{errors.New("broken pipe")},
		batches: [][]models.Quote{
			nil,
			{{Code: "920579", Price: 100, LastClose: 100, Volume: 1, Amount: 1}},
		},
	}
	f := newLoopFixture(t, loopConfig(), fakeGate{active: true}, src, 1)

	if err := f.mon.Run(f.ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if src.connects != 2 {
		t.Errorf("got %d connects, want reconnect after fetch error", src.connects)
	}
}

func TestRun_ConnectRetriesExhausted(t *testing.T) {
	src := &fakeSource{connectErr: errors.New("refused")}
	f := newLoopFixture(t, loopConfig(), fakeGate{active: true}, src, 10)

	err := f.mon.Run(f.ctx)
	if err == nil {
		t.Fatal("expected error after retry exhaustion")
	}

	if src.connects != 3 {
		t.Errorf("got %d connect attempts, want 3", src.connects)
	}
	// Two retry delays before the budget runs out on the third failure.
	if len(f.driver.sleeps) != 2 || f.driver.sleeps[0] != 5*time.Second {
		t.Errorf("got sleeps %v, want two retry delays", f.driver.sleeps)
	}
	if len(f.notifier.critical) != 2 ||
		!strings.Contains(f.notifier.critical[0], "connect failed") ||
		!strings.Contains(f.notifier.critical[1], "monitor stopped") {
		t.Errorf("got criticals %v", f.notifier.critical)
	}
}

func TestRun_NetworkOutageRecovers(t *testing.T) {
	src := &fakeSource{
		batches: [][]models.Quote{{{Code: "920579", Price: 100, LastClose: 100, Volume: 1, Amount: 1}}},
	}
	f := newLoopFixture(t, loopConfig(), fakeGate{active: true}, src, 1)
	f.health.probeOK = false
	f.health.recoverOK = true

	// Recovery flips the probe back on for the next iteration.
	first := true
	probe := f.health
	f.mon.health = probeFlipper{probe, &first}

	if err := f.mon.Run(f.ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if probe.recoveries != 1 {
		t.Errorf("got %d recovery waits, want 1", probe.recoveries)
	}
	if src.fetches != 1 {
		t.Errorf("got %d fetches after recovery, want 1", src.fetches)
	}
}

// probeFlipper fails the first probe, then delegates.
type probeFlipper struct {
	inner *fakeHealth
	first *bool
}

func (p probeFlipper) Probe() bool {
	if *p.first {
		*p.first = false
		return false
	}
	return true
}

func (p probeFlipper) AwaitRecovery(max int, base time.Duration) bool {
	return p.inner.AwaitRecovery(max, base)
}

func TestRun_NetworkOutageExhausted(t *testing.T) {
	src := &fakeSource{}
	f := newLoopFixture(t, loopConfig(), fakeGate{active: true}, src, 10)
	f.health.probeOK = false
	f.health.recoverOK = false

	err := f.mon.Run(f.ctx)
	if err == nil {
		t.Fatal("expected error after network exhaustion")
	}
	if src.connects != 0 {
		t.Error("feed must not be dialed while the network is down")
	}
	if len(f.notifier.critical) == 0 || !strings.Contains(f.notifier.critical[0], "unreachable") {
		t.Errorf("got criticals %v, want the unreachable notice", f.notifier.critical)
	}
}

func TestRun_CancelledContext(t *testing.T) {
	f := newLoopFixture(t, loopConfig(), fakeGate{active: true}, &fakeSource{}, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := f.mon.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(f.notifier.critical) != 1 || !strings.Contains(f.notifier.critical[0], "monitor stopped") {
		t.Errorf("got criticals %v, want only the shutdown notice", f.notifier.critical)
	}
}
