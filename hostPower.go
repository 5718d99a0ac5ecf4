package main

import (
	"os/exec"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/pkg/errors"
)

// execPower runs the configured shutdown command and does not wait for it
type execPower struct {
	argv   []string
	start  func(name string, args ...string) error
	logger flogger
}

func startCommand(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

func newExecPower(cmdline string) *execPower {
	return &execPower{
		argv:   strings.Fields(cmdline),
		start:  startCommand,
		logger: &ThreadLogger{name: "Power"},
	}
}

func (ep *execPower) powerOff() error {
	if len(ep.argv) == 0 {
		return errors.New("no shutdown command configured")
	}
	ep.logger.Printf("running %q", ep.argv)
	return errors.Wrapf(ep.start(ep.argv[0], ep.argv[1:]...), "start %s", ep.argv[0])
}

const (
	login1Dest = "org.freedesktop.login1"
	login1Path = "/org/freedesktop/login1"
	login1Call = "org.freedesktop.login1.Manager.PowerOff"
)

// logindPower asks systemd-logind to power off over the system bus
type logindPower struct {
	logger flogger
}

func (lp *logindPower) powerOff() error {
	conn, err := dbus.SystemBus()
	if err != nil {
		return errors.Wrap(err, "system bus")
	}
	lp.logger.Println("requesting power off from logind")
	// interactive=false, polkit decides
	call := conn.Object(login1Dest, dbus.ObjectPath(login1Path)).Call(login1Call, 0, false)
	return errors.Wrap(call.Err, "logind PowerOff")
}

type noPower struct {
	requests int
	logger   flogger
}

func (np *noPower) powerOff() error {
	np.requests++
	np.logger.Println("STUB: host power off")
	return nil
}

func initHostPower(settings configSettings) (hostPower, error) {
	switch method := settings.GetString(sPowerOff); method {
	case "exec":
		return newExecPower(settings.GetString(sPowerCmd)), nil
	case "logind":
		return &logindPower{logger: &ThreadLogger{name: "Power"}}, nil
	case "none":
		return &noPower{logger: &ThreadLogger{name: "Power"}}, nil
	default:
		return nil, errors.Errorf("unknown %s %q", sPowerOff, method)
	}
}
