// Package bluez implements gatt.Host over the BlueZ D-Bus API.
package bluez

import (
	"fmt"
	"sort"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"

	gatt "github.com/XC-/gattd"
)

// Host talks to bluetoothd over a system bus connection.
type Host struct {
	conn    *dbus.Conn
	log     logrus.FieldLogger
	metrics *gatt.Metrics

	mu      sync.Mutex
	exports map[gatt.Object][]export
}

type export struct {
	path  dbus.ObjectPath
	iface string
}

// An Option configures a Host.
type Option func(*Host)

// WithLogger sets the logger bus traffic is reported to.
func WithLogger(l logrus.FieldLogger) Option {
	return func(h *Host) { h.log = l }
}

// WithMetrics sets where attribute operations are counted.
func WithMetrics(m *gatt.Metrics) Option {
	return func(h *Host) { h.metrics = m }
}

// Dial connects to the system bus.
func Dial() (*dbus.Conn, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("connect system bus: %w", err)
	}
	return conn, nil
}

// NewHost returns a Host using conn. The caller keeps ownership of conn.
func NewHost(conn *dbus.Conn, opts ...Option) *Host {
	h := &Host{
		conn:    conn,
		log:     logrus.StandardLogger(),
		exports: make(map[gatt.Object][]export),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// FindAdapter scans BlueZ's managed objects for an adapter that can
// host a GATT application and advertisements.
func (h *Host) FindAdapter(want dbus.ObjectPath) (dbus.ObjectPath, error) {
	var objects map[dbus.ObjectPath]map[string]map[string]dbus.Variant
	err := h.conn.Object(gatt.BluezService, "/").
		Call(gatt.ObjectManagerInterface+".GetManagedObjects", 0).
		Store(&objects)
	if err != nil {
		return "", fmt.Errorf("list bluez objects: %w", err)
	}
	return findAdapter(objects, want)
}

func findAdapter(objects map[dbus.ObjectPath]map[string]map[string]dbus.Variant, want dbus.ObjectPath) (dbus.ObjectPath, error) {
	usable := func(ifaces map[string]map[string]dbus.Variant) bool {
		_, gattOK := ifaces[gatt.GattManagerInterface]
		_, advOK := ifaces[gatt.AdvertisingManagerInterface]
		return gattOK && advOK
	}
	if want != "" {
		if ifaces, ok := objects[want]; ok && usable(ifaces) {
			return want, nil
		}
		return "", fmt.Errorf("%s: %w", want, gatt.ErrNoAdapter)
	}

	paths := make([]string, 0, len(objects))
	for p := range objects {
		paths = append(paths, string(p))
	}
	sort.Strings(paths)
	for _, p := range paths {
		if usable(objects[dbus.ObjectPath(p)]) {
			return dbus.ObjectPath(p), nil
		}
	}
	return "", gatt.ErrNoAdapter
}

// PowerOn sets the adapter's Powered property to true.
func (h *Host) PowerOn(adapter dbus.ObjectPath) error {
	call := h.conn.Object(gatt.BluezService, adapter).
		Call(gatt.PropertiesInterface+".Set", 0, gatt.AdapterInterface, "Powered", dbus.MakeVariant(true))
	if call.Err != nil {
		return fmt.Errorf("power on %s: %w", adapter, call.Err)
	}
	return nil
}

// RegisterAgent registers the agent at path with capability and makes
// it the default agent.
func (h *Host) RegisterAgent(path dbus.ObjectPath, capability string) error {
	obj := h.conn.Object(gatt.BluezService, gatt.BluezRoot)
	if call := obj.Call(gatt.AgentManagerInterface+".RegisterAgent", 0, path, capability); call.Err != nil {
		return fmt.Errorf("register agent: %w", call.Err)
	}
	if call := obj.Call(gatt.AgentManagerInterface+".RequestDefaultAgent", 0, path); call.Err != nil {
		return fmt.Errorf("request default agent: %w", call.Err)
	}
	return nil
}

func (h *Host) UnregisterAgent(path dbus.ObjectPath) error {
	obj := h.conn.Object(gatt.BluezService, gatt.BluezRoot)
	return obj.Call(gatt.AgentManagerInterface+".UnregisterAgent", 0, path).Err
}

func (h *Host) RegisterApplication(adapter, app dbus.ObjectPath, done chan *dbus.Call) *dbus.Call {
	return h.conn.Object(gatt.BluezService, adapter).
		Go(gatt.GattManagerInterface+".RegisterApplication", 0, done, app, map[string]dbus.Variant{})
}

func (h *Host) UnregisterApplication(adapter, app dbus.ObjectPath) error {
	return h.conn.Object(gatt.BluezService, adapter).
		Call(gatt.GattManagerInterface+".UnregisterApplication", 0, app).Err
}

func (h *Host) RegisterAdvertisement(adapter, ad dbus.ObjectPath, done chan *dbus.Call) *dbus.Call {
	return h.conn.Object(gatt.BluezService, adapter).
		Go(gatt.AdvertisingManagerInterface+".RegisterAdvertisement", 0, done, ad, map[string]dbus.Variant{})
}

func (h *Host) UnregisterAdvertisement(adapter, ad dbus.ObjectPath) error {
	return h.conn.Object(gatt.BluezService, adapter).
		Call(gatt.AdvertisingManagerInterface+".UnregisterAdvertisement", 0, ad).Err
}

// EmitPropertiesChanged makes Host a gatt.Emitter.
func (h *Host) EmitPropertiesChanged(path dbus.ObjectPath, iface string, changed map[string]dbus.Variant, invalidated []string) error {
	if invalidated == nil {
		invalidated = []string{}
	}
	return h.conn.Emit(path, gatt.PropertiesChangedSignal, iface, changed, invalidated)
}
