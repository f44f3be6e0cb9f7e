package bluez

import (
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/sirupsen/logrus"

	gatt "github.com/XC-/gattd"
)

// Export publishes obj on the bus. Every method BlueZ calls on it runs
// on loop. Exporting an application seals it and makes h its emitter.
func (h *Host) Export(obj gatt.Object, loop *gatt.Loop) error {
	var ee []export
	var err error
	switch o := obj.(type) {
	case *gatt.Application:
		ee, err = h.exportApplication(o, loop)
	case *gatt.Advertisement:
		ee, err = h.exportAdvertisement(o, loop)
	case *gatt.Agent:
		ee, err = h.exportAgent(o, loop)
	default:
		err = fmt.Errorf("bluez: cannot export %T", obj)
	}

	h.mu.Lock()
	h.exports[obj] = append(h.exports[obj], ee...)
	h.mu.Unlock()
	if err != nil {
		h.Unexport(obj)
		return err
	}
	h.log.WithField("path", obj.Path()).Debug("exported")
	return nil
}

// Unexport withdraws everything Export published for obj.
func (h *Host) Unexport(obj gatt.Object) {
	h.mu.Lock()
	ee := h.exports[obj]
	delete(h.exports, obj)
	h.mu.Unlock()
	for _, e := range ee {
		if err := h.conn.Export(nil, e.path, e.iface); err != nil {
			h.log.WithError(err).WithFields(logrus.Fields{"path": e.path, "iface": e.iface}).Warn("unexport failed")
		}
	}
}

// exportAll exports each object at path under its interface, followed by an
// introspection document describing them. It returns what was exported,
// even on error, so the caller can undo it.
func (h *Host) exportAll(path dbus.ObjectPath, objs map[string]interface{}, children []string) ([]export, error) {
	var ee []export
	node := &introspect.Node{
		Interfaces: []introspect.Interface{introspect.IntrospectData},
	}
	for iface, v := range objs {
		if err := h.conn.Export(v, path, iface); err != nil {
			return ee, fmt.Errorf("export %s at %s: %w", iface, path, err)
		}
		ee = append(ee, export{path, iface})
		node.Interfaces = append(node.Interfaces, introspect.Interface{
			Name:    iface,
			Methods: introspect.Methods(v),
		})
	}
	for _, c := range children {
		node.Children = append(node.Children, introspect.Node{Name: c})
	}
	const introspectable = "org.freedesktop.DBus.Introspectable"
	if err := h.conn.Export(introspect.NewIntrospectable(node), path, introspectable); err != nil {
		return ee, fmt.Errorf("export introspection at %s: %w", path, err)
	}
	return append(ee, export{path, introspectable}), nil
}

func (h *Host) exportApplication(app *gatt.Application, loop *gatt.Loop) ([]export, error) {
	app.Seal()
	app.SetEmitter(h)

	var children []string
	for i := range app.Services() {
		children = append(children, fmt.Sprintf("service%d", i))
	}
	ee, err := h.exportAll(app.Path(), map[string]interface{}{
		gatt.ObjectManagerInterface: &objectManager{app: app, loop: loop},
	}, children)
	if err != nil {
		return ee, err
	}

	app.Walk(func(n gatt.AttributeNode) {
		if err != nil {
			return
		}
		objs := map[string]interface{}{
			gatt.PropertiesInterface: &properties{iface: n.Interface(), props: n.Properties, loop: loop},
		}
		switch n := n.(type) {
		case *gatt.Characteristic:
			objs[gatt.GattCharacteristicInterface] = &characteristic{c: n, loop: loop, h: h}
		case *gatt.Descriptor:
			objs[gatt.GattDescriptorInterface] = &descriptor{d: n, loop: loop, h: h}
		}
		var more []export
		more, err = h.exportAll(n.Path(), objs, nil)
		ee = append(ee, more...)
	})
	return ee, err
}

func (h *Host) exportAdvertisement(ad *gatt.Advertisement, loop *gatt.Loop) ([]export, error) {
	return h.exportAll(ad.Path(), map[string]interface{}{
		gatt.AdvertisementInterface: &advertisement{ad: ad, loop: loop, log: h.log},
		gatt.PropertiesInterface:    &properties{iface: gatt.AdvertisementInterface, props: ad.Properties, loop: loop},
	}, nil)
}

func (h *Host) exportAgent(a *gatt.Agent, loop *gatt.Loop) ([]export, error) {
	return h.exportAll(a.Path(), map[string]interface{}{
		gatt.AgentInterface: &agent{a: a, loop: loop},
	}, nil)
}
