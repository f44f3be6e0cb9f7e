package gatt

import "github.com/godbus/dbus/v5"

// An Object is something the peripheral publishes on the bus:
// an *Application, *Advertisement or *Agent.
type Object interface {
	Path() dbus.ObjectPath
}

// A ConnectionEvent reports a remote device's Connected property.
type ConnectionEvent struct {
	Device    dbus.ObjectPath
	Connected bool
}

// Host is the host Bluetooth stack as the peripheral sees it.
// The bluez package implements it over the system bus.
type Host interface {
	// FindAdapter returns the adapter to use. A non-empty want is checked
	// for the GATT and advertising managers instead of being searched for.
	FindAdapter(want dbus.ObjectPath) (dbus.ObjectPath, error)
	// PowerOn sets the adapter's Powered property.
	PowerOn(adapter dbus.ObjectPath) error

	// Export publishes obj. Method calls on it are run on loop.
	Export(obj Object, loop *Loop) error
	Unexport(obj Object)

	// RegisterAgent registers the agent and makes it the default one.
	RegisterAgent(agent dbus.ObjectPath, capability string) error
	UnregisterAgent(agent dbus.ObjectPath) error

	// RegisterApplication and RegisterAdvertisement return at once; the
	// reply is delivered on done.
	RegisterApplication(adapter, app dbus.ObjectPath, done chan *dbus.Call) *dbus.Call
	UnregisterApplication(adapter, app dbus.ObjectPath) error
	RegisterAdvertisement(adapter, ad dbus.ObjectPath, done chan *dbus.Call) *dbus.Call
	UnregisterAdvertisement(adapter, ad dbus.ObjectPath) error

	// WatchConnections delivers Device1 connection changes on events
	// until stop is called.
	WatchConnections(events chan<- ConnectionEvent) (stop func(), err error)
}
