package gatt

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

// A Characteristic is a BLE characteristic.
//
// Characteristics are not safe for concurrent use. Once the application
// is exported, every access goes through the peripheral's event loop.
type Characteristic struct {
	attrValue

	path      dbus.ObjectPath
	uuid      UUID
	service   *Service
	descs     []*Descriptor
	notifying bool
}

// AddDescriptor adds a descriptor to a characteristic.
// AddDescriptor panics if the characteristic already contains another
// descriptor with the same UUID, or if the application has already
// been exported.
func (c *Characteristic) AddDescriptor(u UUID, flags ...Flag) *Descriptor {
	c.service.app.mustBeOpen()
	for _, d := range c.descs {
		if d.uuid.Equal(u) {
			panic("characteristic already contains a descriptor with uuid " + u.String())
		}
	}

	d := &Descriptor{
		path: dbus.ObjectPath(fmt.Sprintf("%s/desc%d", c.path, len(c.descs))),
		uuid: u,
		char: c,
		attrValue: attrValue{
			flags: newFlags(flags),
		},
	}
	c.descs = append(c.descs, d)
	return d
}

// AddUserDescription adds a Characteristic User Description descriptor
// holding text. Writes to it are refused with ErrNotPermitted unless the
// characteristic carries FlagWritableAuxiliaries.
func (c *Characteristic) AddUserDescription(text string) *Descriptor {
	d := c.AddDescriptor(CharacteristicUserDescUUID, FlagRead, FlagWrite)
	d.SetValue([]byte(text))
	d.HandleWriteFunc(func(req *WriteRequest, data []byte) error {
		if !c.flags.Has(FlagWritableAuxiliaries) {
			return ErrNotPermitted
		}
		return nil
	})
	return d
}

// HandleRead makes the characteristic support read requests,
// and routes read requests to h.
func (c *Characteristic) HandleRead(h ReadHandler) {
	c.rhandler = h
}

// HandleReadFunc calls HandleRead(ReadHandlerFunc(f)).
func (c *Characteristic) HandleReadFunc(f func(req *ReadRequest) ([]byte, error)) {
	c.HandleRead(ReadHandlerFunc(f))
}

// HandleWrite routes write requests to h.
func (c *Characteristic) HandleWrite(h WriteHandler) {
	c.whandler = h
}

// HandleWriteFunc calls HandleWrite(WriteHandlerFunc(f)).
func (c *Characteristic) HandleWriteFunc(f func(req *WriteRequest, data []byte) error) {
	c.HandleWrite(WriteHandlerFunc(f))
}

// ReadValue serves a ReadValue call. opts are the options BlueZ passes.
func (c *Characteristic) ReadValue(opts map[string]dbus.Variant) ([]byte, error) {
	r, err := parseRequest(opts)
	if err != nil {
		return nil, err
	}
	r.Characteristic = c
	return c.read(&ReadRequest{Request: r})
}

// WriteValue serves a WriteValue call.
func (c *Characteristic) WriteValue(data []byte, opts map[string]dbus.Variant) error {
	w, err := parseWriteRequest(opts)
	if err != nil {
		return err
	}
	w.Characteristic = c
	return c.write(w, data)
}

// StartNotify turns notifications on. It is a no-op when they already are.
func (c *Characteristic) StartNotify() error {
	if !c.flags.Notifiable() {
		return ErrNotSupported
	}
	c.notifying = true
	return nil
}

// StopNotify turns notifications off. It is a no-op when they already are.
func (c *Characteristic) StopNotify() error {
	if !c.flags.Notifiable() {
		return ErrNotSupported
	}
	c.notifying = false
	return nil
}

// Notifying reports whether a central subscribed to value changes.
func (c *Characteristic) Notifying() bool { return c.notifying }

// SetValue sets the stored value without notifying anyone.
func (c *Characteristic) SetValue(b []byte) { c.setValue(b) }

// Value returns a copy of the stored value.
func (c *Characteristic) Value() []byte { return c.getValue() }

// Notify stores b and, while notifications are on, emits a
// PropertiesChanged signal for Value. It reports whether a signal went out.
func (c *Characteristic) Notify(b []byte) (bool, error) {
	c.setValue(b)
	if !c.notifying {
		return false, nil
	}
	e := c.service.app.emitter
	if e == nil {
		return false, nil
	}
	changed := map[string]dbus.Variant{"Value": dbus.MakeVariant(c.getValue())}
	if err := e.EmitPropertiesChanged(c.path, GattCharacteristicInterface, changed, nil); err != nil {
		return false, err
	}
	return true, nil
}

// Path returns the characteristic's object path.
func (c *Characteristic) Path() dbus.ObjectPath { return c.path }

// UUID returns the characteristic's UUID.
func (c *Characteristic) UUID() UUID { return c.uuid }

// Flags returns the characteristic's capability set.
func (c *Characteristic) Flags() Flags { return c.flags }

// Service returns the service the characteristic belongs to.
func (c *Characteristic) Service() *Service { return c.service }

// Descriptors returns the characteristic's descriptors.
func (c *Characteristic) Descriptors() []*Descriptor { return c.descs }

func (c *Characteristic) Interface() string { return GattCharacteristicInterface }

func (c *Characteristic) Parent() AttributeNode { return c.service }

func (c *Characteristic) Children() []AttributeNode {
	nn := make([]AttributeNode, len(c.descs))
	for i, d := range c.descs {
		nn[i] = d
	}
	return nn
}

func (c *Characteristic) Properties() map[string]dbus.Variant {
	paths := make([]dbus.ObjectPath, len(c.descs))
	for i, d := range c.descs {
		paths[i] = d.path
	}
	props := map[string]dbus.Variant{
		"Service":     dbus.MakeVariant(c.service.path),
		"UUID":        dbus.MakeVariant(c.uuid.String()),
		"Flags":       dbus.MakeVariant(c.flags.Strings()),
		"Descriptors": dbus.MakeVariant(paths),
		"Value":       dbus.MakeVariant(c.getValue()),
	}
	if c.flags.Notifiable() {
		props["Notifying"] = dbus.MakeVariant(c.notifying)
	}
	return props
}
