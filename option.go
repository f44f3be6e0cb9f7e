package gatt

import (
	"errors"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
)

// Option configures a Peripheral at construction.
type Option func(*Peripheral) error

// Name sets the local name the advertisement carries.
func Name(name string) Option {
	return func(p *Peripheral) error {
		p.name = name
		return nil
	}
}

// Timeout stops the peripheral after d. Zero runs until canceled.
func Timeout(d time.Duration) Option {
	return func(p *Peripheral) error {
		if d < 0 {
			return errors.New("gatt: negative timeout")
		}
		p.timeout = d
		return nil
	}
}

// AdapterPath pins the adapter, such as "/org/bluez/hci1". By default
// the first adapter with GATT and advertising managers is used.
func AdapterPath(path dbus.ObjectPath) Option {
	return func(p *Peripheral) error {
		if path != "" && !path.IsValid() {
			return errors.New("gatt: invalid adapter path " + string(path))
		}
		p.adapterPath = path
		return nil
	}
}

// ApplicationPath sets the root the application, advertisement and
// agent are exported under.
func ApplicationPath(path dbus.ObjectPath) Option {
	return func(p *Peripheral) error {
		if !path.IsValid() || path == "/" {
			return errors.New("gatt: invalid application path " + string(path))
		}
		p.appPath = path
		return nil
	}
}

// WithAgent replaces the default auto-confirming agent. A nil agent
// leaves pairing to whatever agent BlueZ already has.
func WithAgent(a *Agent) Option {
	return func(p *Peripheral) error {
		p.agent = a
		p.agentSet = true
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Peripheral) error {
		p.log = l
		return nil
	}
}

// WithMetrics sets where the peripheral reports its metrics.
func WithMetrics(m *Metrics) Option {
	return func(p *Peripheral) error {
		p.metrics = m
		return nil
	}
}

// PowerOnAdapter controls whether Run powers the adapter on. It is on by default.
func PowerOnAdapter(on bool) Option {
	return func(p *Peripheral) error {
		p.powerOn = on
		return nil
	}
}
