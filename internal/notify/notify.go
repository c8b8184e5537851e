// Package notify delivers alerts through platform notifiers, subject to a
// per-symbol cooldown.
package notify

import (
	"errors"

	"stockmon/internal/logger"
)

// Notifier delivers a titled message. Critical delivery should grab
// attention (a blocking dialog, a pinned message); implementations without
// a critical facility fall back to normal delivery plus a log escalation.
type Notifier interface {
	Notify(title, message string) error
	NotifyCritical(title, message string) error
}

// LogNotifier writes notifications to the log only. Used when no delivery
// backend is enabled.
type LogNotifier struct{}

func (LogNotifier) Notify(title, message string) error {
	logger.Info("notification: %s - %s", title, message)
	return nil
}

func (LogNotifier) NotifyCritical(title, message string) error {
	logger.Warn("critical notification: %s - %s", title, message)
	return nil
}

// Multi fans a notification out to several backends. Delivery counts as
// successful if any backend succeeds.
type Multi []Notifier

func (m Multi) Notify(title, message string) error {
	return m.send(func(n Notifier) error { return n.Notify(title, message) })
}

func (m Multi) NotifyCritical(title, message string) error {
	return m.send(func(n Notifier) error { return n.NotifyCritical(title, message) })
}

func (m Multi) send(deliver func(Notifier) error) error {
	var errs []error
	delivered := false
	for _, n := range m {
		if err := deliver(n); err != nil {
			errs = append(errs, err)
		} else {
			delivered = true
		}
	}
	if delivered {
		return nil
	}
	return errors.Join(errs...)
}
