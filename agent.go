package gatt

import (
	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
)

// An Agent answers BlueZ pairing requests without user interaction:
// every confirmation and authorization is accepted, PIN codes are
// "0000" and passkeys are 0. It keeps no state between calls.
type Agent struct {
	path          dbus.ObjectPath
	capability    string
	exitOnRelease bool
	released      func()
	log           logrus.FieldLogger
}

// An AgentOption configures an Agent.
type AgentOption func(*Agent)

// Capability sets the IO capability announced to BlueZ.
func Capability(c string) AgentOption {
	return func(a *Agent) { a.capability = c }
}

// ExitOnRelease makes Release stop the peripheral.
func ExitOnRelease(on bool) AgentOption {
	return func(a *Agent) { a.exitOnRelease = on }
}

// AgentLogger sets the logger pairing requests are reported to.
func AgentLogger(l logrus.FieldLogger) AgentOption {
	return func(a *Agent) { a.log = l }
}

// NewAgent returns an auto-confirming agent published at path.
// The default capability is "KeyboardDisplay".
func NewAgent(path dbus.ObjectPath, opts ...AgentOption) *Agent {
	a := &Agent{
		path:          path,
		capability:    "KeyboardDisplay",
		exitOnRelease: true,
		log:           logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Path returns the agent's object path.
func (a *Agent) Path() dbus.ObjectPath { return a.path }

// Capability returns the IO capability the agent registers with.
func (a *Agent) Capability() string { return a.capability }

// HandleRelease sets a function to be called when BlueZ releases the
// agent and ExitOnRelease is on.
func (a *Agent) HandleRelease(f func()) { a.released = f }

func (a *Agent) Release() error {
	a.log.Info("agent released")
	if a.exitOnRelease && a.released != nil {
		a.released()
	}
	return nil
}

func (a *Agent) AuthorizeService(device dbus.ObjectPath, uuid string) error {
	a.log.WithFields(logrus.Fields{"device": device, "uuid": uuid}).Info("authorized service")
	return nil
}

func (a *Agent) RequestPinCode(device dbus.ObjectPath) (string, error) {
	a.log.WithField("device", device).Info("pin code requested")
	return "0000", nil
}

func (a *Agent) RequestPasskey(device dbus.ObjectPath) (uint32, error) {
	a.log.WithField("device", device).Info("passkey requested")
	return 0, nil
}

func (a *Agent) RequestConfirmation(device dbus.ObjectPath, passkey uint32) error {
	a.log.WithFields(logrus.Fields{"device": device, "passkey": passkey}).Info("auto-confirming passkey")
	return nil
}

func (a *Agent) RequestAuthorization(device dbus.ObjectPath) error {
	a.log.WithField("device", device).Info("authorized pairing")
	return nil
}

func (a *Agent) DisplayPinCode(device dbus.ObjectPath, pincode string) error {
	a.log.WithFields(logrus.Fields{"device": device, "pincode": pincode}).Info("display pin code")
	return nil
}

func (a *Agent) DisplayPasskey(device dbus.ObjectPath, passkey uint32, entered uint16) error {
	a.log.WithFields(logrus.Fields{"device": device, "passkey": passkey, "entered": entered}).Debug("display passkey")
	return nil
}

func (a *Agent) Cancel() error {
	a.log.Info("pairing request canceled")
	return nil
}
