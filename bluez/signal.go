package bluez

import (
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"

	gatt "github.com/XC-/gattd"
)

var connectionMatchRules = []string{
	fmt.Sprintf("type='signal',sender='%s',interface='%s',member='PropertiesChanged',arg0='%s'",
		gatt.BluezService, gatt.PropertiesInterface, gatt.DeviceInterface),
	fmt.Sprintf("type='signal',sender='%s',interface='%s',member='InterfacesAdded'",
		gatt.BluezService, gatt.ObjectManagerInterface),
}

// WatchConnections reports Device1 Connected changes, from both
// PropertiesChanged and InterfacesAdded, on events until stop is called.
func (h *Host) WatchConnections(events chan<- gatt.ConnectionEvent) (stop func(), err error) {
	bus := h.conn.BusObject()
	for _, rule := range connectionMatchRules {
		if call := bus.Call("org.freedesktop.DBus.AddMatch", 0, rule); call.Err != nil {
			return nil, fmt.Errorf("add signal match: %w", call.Err)
		}
	}

	sigCh := make(chan *dbus.Signal, 25)
	h.conn.Signal(sigCh)
	quit := make(chan struct{})
	go func() {
		for {
			select {
			case <-quit:
				return
			case sig, ok := <-sigCh:
				if !ok {
					return
				}
				ev, ok := parseConnectionSignal(sig)
				if !ok {
					continue
				}
				h.log.WithField("device", ev.Device).WithField("connected", ev.Connected).Debug("device connection changed")
				select {
				case events <- ev:
				case <-quit:
					return
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(quit)
			h.conn.RemoveSignal(sigCh)
			for _, rule := range connectionMatchRules {
				bus.Call("org.freedesktop.DBus.RemoveMatch", 0, rule)
			}
		})
	}, nil
}

// parseConnectionSignal extracts a connection change from a
// PropertiesChanged or InterfacesAdded signal. ok is false for any
// other signal, or one that does not carry Device1's Connected property.
func parseConnectionSignal(sig *dbus.Signal) (ev gatt.ConnectionEvent, ok bool) {
	if sig == nil {
		return ev, false
	}
	var props map[string]dbus.Variant
	switch sig.Name {
	case gatt.PropertiesChangedSignal:
		if len(sig.Body) < 2 {
			return ev, false
		}
		if iface, _ := sig.Body[0].(string); iface != gatt.DeviceInterface {
			return ev, false
		}
		props, _ = sig.Body[1].(map[string]dbus.Variant)
		ev.Device = sig.Path
	case gatt.InterfacesAddedSignal:
		if len(sig.Body) < 2 {
			return ev, false
		}
		ifaces, _ := sig.Body[1].(map[string]map[string]dbus.Variant)
		props = ifaces[gatt.DeviceInterface]
		ev.Device, _ = sig.Body[0].(dbus.ObjectPath)
	default:
		return ev, false
	}

	v, found := props["Connected"]
	if !found {
		return ev, false
	}
	ev.Connected, ok = v.Value().(bool)
	return ev, ok
}
