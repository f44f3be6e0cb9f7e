package gatt

import "github.com/godbus/dbus/v5"

// A Descriptor is a BLE descriptor.
type Descriptor struct {
	attrValue

	path dbus.ObjectPath
	uuid UUID
	char *Characteristic
}

// HandleRead makes the descriptor support read requests,
// and routes read requests to h.
func (d *Descriptor) HandleRead(h ReadHandler) {
	d.rhandler = h
}

// HandleReadFunc calls HandleRead(ReadHandlerFunc(f)).
func (d *Descriptor) HandleReadFunc(f func(req *ReadRequest) ([]byte, error)) {
	d.HandleRead(ReadHandlerFunc(f))
}

// HandleWrite routes write requests to h.
func (d *Descriptor) HandleWrite(h WriteHandler) {
	d.whandler = h
}

// HandleWriteFunc calls HandleWrite(WriteHandlerFunc(f)).
func (d *Descriptor) HandleWriteFunc(f func(req *WriteRequest, data []byte) error) {
	d.HandleWrite(WriteHandlerFunc(f))
}

// ReadValue serves a ReadValue call.
func (d *Descriptor) ReadValue(opts map[string]dbus.Variant) ([]byte, error) {
	r, err := parseRequest(opts)
	if err != nil {
		return nil, err
	}
	r.Characteristic, r.Descriptor = d.char, d
	return d.read(&ReadRequest{Request: r})
}

// WriteValue serves a WriteValue call.
func (d *Descriptor) WriteValue(data []byte, opts map[string]dbus.Variant) error {
	w, err := parseWriteRequest(opts)
	if err != nil {
		return err
	}
	w.Characteristic, w.Descriptor = d.char, d
	return d.write(w, data)
}

// SetValue sets the descriptor's static value.
func (d *Descriptor) SetValue(b []byte) { d.setValue(b) }

// Value returns a copy of the stored value.
func (d *Descriptor) Value() []byte { return d.getValue() }

// Path returns the descriptor's object path.
func (d *Descriptor) Path() dbus.ObjectPath { return d.path }

// UUID returns the descriptor's UUID.
func (d *Descriptor) UUID() UUID { return d.uuid }

// Flags returns the descriptor's capability set.
func (d *Descriptor) Flags() Flags { return d.flags }

// Characteristic returns the characteristic the descriptor belongs to.
func (d *Descriptor) Characteristic() *Characteristic { return d.char }

func (d *Descriptor) Interface() string { return GattDescriptorInterface }

func (d *Descriptor) Parent() AttributeNode { return d.char }

func (d *Descriptor) Children() []AttributeNode { return nil }

func (d *Descriptor) Properties() map[string]dbus.Variant {
	return map[string]dbus.Variant{
		"Characteristic": dbus.MakeVariant(d.char.path),
		"UUID":           dbus.MakeVariant(d.uuid.String()),
		"Flags":          dbus.MakeVariant(d.flags.Strings()),
		"Value":          dbus.MakeVariant(d.getValue()),
	}
}
