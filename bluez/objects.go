package bluez

import (
	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"

	gatt "github.com/XC-/gattd"
)

// The types in this file are what godbus exports. Each method hands the
// work to the peripheral's loop and converts the outcome into a reply.

// dbusError converts err into the *dbus.Error godbus sends back.
func dbusError(err error) *dbus.Error {
	if err == nil {
		return nil
	}
	e := gatt.AsError(err)
	name, body := e.DBusError()
	return dbus.NewError(name, body)
}

type objectManager struct {
	app  *gatt.Application
	loop *gatt.Loop
}

func (o *objectManager) GetManagedObjects() (map[dbus.ObjectPath]map[string]map[string]dbus.Variant, *dbus.Error) {
	var objs gatt.ManagedObjects
	err := o.loop.Call(func() error {
		objs = o.app.Snapshot()
		return nil
	})
	return objs, dbusError(err)
}

type properties struct {
	iface string
	props func() map[string]dbus.Variant
	loop  *gatt.Loop
}

func (p *properties) GetAll(iface string) (map[string]dbus.Variant, *dbus.Error) {
	if iface != p.iface {
		return nil, dbusError(gatt.ErrInvalidArguments)
	}
	var props map[string]dbus.Variant
	err := p.loop.Call(func() error {
		props = p.props()
		return nil
	})
	return props, dbusError(err)
}

func (p *properties) Get(iface, name string) (dbus.Variant, *dbus.Error) {
	props, derr := p.GetAll(iface)
	if derr != nil {
		return dbus.Variant{}, derr
	}
	v, ok := props[name]
	if !ok {
		return dbus.Variant{}, dbusError(gatt.ErrInvalidArguments)
	}
	return v, nil
}

func (p *properties) Set(iface, name string, v dbus.Variant) *dbus.Error {
	return dbus.NewError("org.freedesktop.DBus.Error.PropertyReadOnly", []interface{}{name + " is read-only"})
}

type characteristic struct {
	c    *gatt.Characteristic
	loop *gatt.Loop
	h    *Host
}

func (o *characteristic) logger(op string) logrus.FieldLogger {
	return o.h.log.WithFields(logrus.Fields{"path": o.c.Path(), "uuid": o.c.UUID(), "op": op})
}

func (o *characteristic) ReadValue(opts map[string]dbus.Variant) ([]byte, *dbus.Error) {
	var v []byte
	err := o.loop.Call(func() (err error) {
		v, err = o.c.ReadValue(opts)
		return err
	})
	o.h.metrics.AttributeOp("read", err)
	o.logger("read").WithError(err).Debug("characteristic read")
	return v, dbusError(err)
}

func (o *characteristic) WriteValue(value []byte, opts map[string]dbus.Variant) *dbus.Error {
	err := o.loop.Call(func() error { return o.c.WriteValue(value, opts) })
	o.h.metrics.AttributeOp("write", err)
	o.logger("write").WithError(err).Debug("characteristic write")
	return dbusError(err)
}

func (o *characteristic) StartNotify() *dbus.Error {
	err := o.loop.Call(o.c.StartNotify)
	o.h.metrics.AttributeOp("start_notify", err)
	o.logger("start_notify").WithError(err).Info("notifications on")
	return dbusError(err)
}

func (o *characteristic) StopNotify() *dbus.Error {
	err := o.loop.Call(o.c.StopNotify)
	o.h.metrics.AttributeOp("stop_notify", err)
	o.logger("stop_notify").WithError(err).Info("notifications off")
	return dbusError(err)
}

type descriptor struct {
	d    *gatt.Descriptor
	loop *gatt.Loop
	h    *Host
}

func (o *descriptor) ReadValue(opts map[string]dbus.Variant) ([]byte, *dbus.Error) {
	var v []byte
	err := o.loop.Call(func() (err error) {
		v, err = o.d.ReadValue(opts)
		return err
	})
	o.h.metrics.AttributeOp("read", err)
	return v, dbusError(err)
}

func (o *descriptor) WriteValue(value []byte, opts map[string]dbus.Variant) *dbus.Error {
	err := o.loop.Call(func() error { return o.d.WriteValue(value, opts) })
	o.h.metrics.AttributeOp("write", err)
	return dbusError(err)
}

type advertisement struct {
	ad   *gatt.Advertisement
	loop *gatt.Loop
	log  logrus.FieldLogger
}

func (o *advertisement) Release() *dbus.Error {
	o.log.WithField("path", o.ad.Path()).Info("advertisement released")
	err := o.loop.Call(func() error {
		o.ad.Release()
		return nil
	})
	if err == gatt.ErrLoopClosed {
		return nil
	}
	return dbusError(err)
}

type agent struct {
	a    *gatt.Agent
	loop *gatt.Loop
}

// call runs f on the loop. A pairing request that arrives after shutdown
// is rejected; Release is acknowledged.
func (o *agent) call(f func() error) *dbus.Error {
	err := o.loop.Call(f)
	if err == gatt.ErrLoopClosed {
		err = gatt.ErrRejected
	}
	return dbusError(err)
}

func (o *agent) Release() *dbus.Error {
	err := o.loop.Call(o.a.Release)
	if err == gatt.ErrLoopClosed {
		return nil
	}
	return dbusError(err)
}

func (o *agent) AuthorizeService(device dbus.ObjectPath, uuid string) *dbus.Error {
	return o.call(func() error { return o.a.AuthorizeService(device, uuid) })
}

func (o *agent) RequestPinCode(device dbus.ObjectPath) (string, *dbus.Error) {
	var pin string
	derr := o.call(func() (err error) {
		pin, err = o.a.RequestPinCode(device)
		return err
	})
	return pin, derr
}

func (o *agent) RequestPasskey(device dbus.ObjectPath) (uint32, *dbus.Error) {
	var key uint32
	derr := o.call(func() (err error) {
		key, err = o.a.RequestPasskey(device)
		return err
	})
	return key, derr
}

func (o *agent) RequestConfirmation(device dbus.ObjectPath, passkey uint32) *dbus.Error {
	return o.call(func() error { return o.a.RequestConfirmation(device, passkey) })
}

func (o *agent) RequestAuthorization(device dbus.ObjectPath) *dbus.Error {
	return o.call(func() error { return o.a.RequestAuthorization(device) })
}

func (o *agent) DisplayPinCode(device dbus.ObjectPath, pincode string) *dbus.Error {
	return o.call(func() error { return o.a.DisplayPinCode(device, pincode) })
}

func (o *agent) DisplayPasskey(device dbus.ObjectPath, passkey uint32, entered uint16) *dbus.Error {
	return o.call(func() error { return o.a.DisplayPasskey(device, passkey, entered) })
}

func (o *agent) Cancel() *dbus.Error {
	return o.call(o.a.Cancel)
}
