package notify

import (
	"fmt"
	"time"

	"stockmon/internal/logger"
	"stockmon/internal/models"
)

// Dispatcher routes alert candidates to a Notifier, enforcing one shared
// cooldown per symbol across all alert categories.
type Dispatcher struct {
	notifier Notifier
	cooldown time.Duration

	lastSent map[string]time.Time
	now      func() time.Time
}

// NewDispatcher creates a dispatcher with the given cooldown between
// delivered notifications for the same symbol.
func NewDispatcher(n Notifier, cooldown time.Duration) *Dispatcher {
	return &Dispatcher{
		notifier: n,
		cooldown: cooldown,
		lastSent: make(map[string]time.Time),
		now:      time.Now,
	}
}

// TryNotify delivers the alert unless the symbol is still inside its
// cooldown window, in which case the alert is silently dropped. The
// cooldown clock is stamped only after a successful dispatch, so a
// delivery failure does not suppress the next candidate.
func (d *Dispatcher) TryNotify(a models.Alert) bool {
	if last, ok := d.lastSent[a.Code]; ok && d.now().Sub(last) < d.cooldown {
		logger.Debug("notification for %s suppressed by cooldown", a.Code)
		return false
	}

	title := fmt.Sprintf("[%s] %s", a.Label, a.Title)
	var err error
	if a.Critical {
		err = d.notifier.NotifyCritical(title, a.Message)
	} else {
		err = d.notifier.Notify(title, a.Message)
	}
	if err != nil {
		logger.Error("failed to deliver notification for %s: %v", a.Code, err)
		return false
	}

	d.lastSent[a.Code] = d.now()
	logger.Info("notification sent: %s - %s", title, a.Message)
	return true
}
