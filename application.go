package gatt

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

// An Emitter publishes property changes of exported objects.
type Emitter interface {
	EmitPropertiesChanged(path dbus.ObjectPath, iface string, changed map[string]dbus.Variant, invalidated []string) error
}

// ManagedObjects is the GetManagedObjects reply shape:
// object path -> interface -> property bag.
type ManagedObjects map[dbus.ObjectPath]map[string]map[string]dbus.Variant

// An Application is the GATT tree registered with BlueZ: an ordered
// list of services, each owning its characteristics, each owning its
// descriptors. The tree is append-only and frozen once sealed.
type Application struct {
	path    dbus.ObjectPath
	svcs    []*Service
	sealed  bool
	emitter Emitter
}

// NewApplication returns an empty application rooted at path.
func NewApplication(path dbus.ObjectPath) *Application {
	return &Application{path: path}
}

// Path returns the application root, the path BlueZ calls GetManagedObjects on.
func (a *Application) Path() dbus.ObjectPath { return a.path }

// AddService adds a service to the application.
// It panics once the application has been sealed.
func (a *Application) AddService(u UUID, primary bool) *Service {
	a.mustBeOpen()
	s := &Service{
		path:    dbus.ObjectPath(fmt.Sprintf("%s/service%d", a.path, len(a.svcs))),
		uuid:    u,
		primary: primary,
		app:     a,
	}
	a.svcs = append(a.svcs, s)
	return s
}

// Services returns the application's services in insertion order.
func (a *Application) Services() []*Service { return a.svcs }

// Seal freezes the tree. It is called when the application is exported.
func (a *Application) Seal() { a.sealed = true }

// Sealed reports whether the tree is frozen.
func (a *Application) Sealed() bool { return a.sealed }

func (a *Application) mustBeOpen() {
	if a.sealed {
		panic(ErrSealed)
	}
}

// SetEmitter sets where characteristic notifications go.
func (a *Application) SetEmitter(e Emitter) { a.emitter = e }

// Walk calls fn for every node in tree order: each service,
// then its characteristics, each followed by its descriptors.
func (a *Application) Walk(fn func(AttributeNode)) {
	var walk func(n AttributeNode)
	walk = func(n AttributeNode) {
		fn(n)
		for _, c := range n.Children() {
			walk(c)
		}
	}
	for _, s := range a.svcs {
		walk(s)
	}
}

// Lookup returns the node published at path, or nil.
func (a *Application) Lookup(path dbus.ObjectPath) AttributeNode {
	var found AttributeNode
	a.Walk(func(n AttributeNode) {
		if found == nil && n.Path() == path {
			found = n
		}
	})
	return found
}

// Snapshot returns every node's property bag keyed by path and interface,
// as BlueZ expects from GetManagedObjects. It has no side effects; two
// calls without a mutation in between return equal results.
func (a *Application) Snapshot() ManagedObjects {
	objs := make(ManagedObjects)
	a.Walk(func(n AttributeNode) {
		objs[n.Path()] = map[string]map[string]dbus.Variant{
			n.Interface(): n.Properties(),
		}
	})
	return objs
}
