package notify

import (
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"time"

	"stockmon/internal/logger"
)

// Desktop delivers OS notifications by shelling out to the platform tool:
// osascript on darwin, notify-send elsewhere. Critical alerts use a
// blocking "display alert" dialog, which only darwin provides; other
// platforms get a normal notification plus an escalated log line.
type Desktop struct {
	appLabel string
	timeout  time.Duration

	goos string
	run  func(name string, args ...string) error
}

// NewDesktop creates a desktop notifier labeled appLabel; timeout bounds
// how long a transient toast stays visible where the platform supports it.
func NewDesktop(appLabel string, timeout time.Duration) *Desktop {
	return &Desktop{
		appLabel: appLabel,
		timeout:  timeout,
		goos:     runtime.GOOS,
		run: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
	}
}

func (d *Desktop) Notify(title, message string) error {
	switch d.goos {
	case "darwin":
		script := fmt.Sprintf("display notification %q with title %q", message, title)
		return d.run("osascript", "-e", script)
	default:
		return d.run("notify-send",
			"-a", d.appLabel,
			"-t", strconv.FormatInt(d.timeout.Milliseconds(), 10),
			title, message)
	}
}

func (d *Desktop) NotifyCritical(title, message string) error {
	if d.goos != "darwin" {
		logger.Warn("critical alert (no blocking dialog on %s): %s - %s", d.goos, title, message)
		return d.Notify(title, message)
	}
	script := fmt.Sprintf("display alert %q message %q as critical", title, message)
	return d.run("osascript", "-e", script)
}
