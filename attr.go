package gatt

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

// A Flag is a BlueZ characteristic or descriptor capability token.
type Flag string

// Flags understood by BlueZ. Characteristics may carry any of them;
// descriptors only the read/write family.
const (
	FlagBroadcast                 Flag = "broadcast"
	FlagRead                      Flag = "read"
	FlagWriteWithoutResponse      Flag = "write-without-response"
	FlagWrite                     Flag = "write"
	FlagNotify                    Flag = "notify"
	FlagIndicate                  Flag = "indicate"
	FlagAuthenticatedSignedWrites Flag = "authenticated-signed-writes"
	FlagExtendedProperties        Flag = "extended-properties"
	FlagReliableWrite             Flag = "reliable-write"
	FlagWritableAuxiliaries       Flag = "writable-auxiliaries"
	FlagEncryptRead               Flag = "encrypt-read"
	FlagEncryptWrite              Flag = "encrypt-write"
	FlagEncryptAuthenticatedRead  Flag = "encrypt-authenticated-read"
	FlagEncryptAuthenticatedWrite Flag = "encrypt-authenticated-write"
	FlagSecureRead                Flag = "secure-read"
	FlagSecureWrite               Flag = "secure-write"
	FlagAuthorize                 Flag = "authorize"
)

var knownFlags = map[Flag]bool{
	FlagBroadcast: true, FlagRead: true, FlagWriteWithoutResponse: true,
	FlagWrite: true, FlagNotify: true, FlagIndicate: true,
	FlagAuthenticatedSignedWrites: true, FlagExtendedProperties: true,
	FlagReliableWrite: true, FlagWritableAuxiliaries: true,
	FlagEncryptRead: true, FlagEncryptWrite: true,
	FlagEncryptAuthenticatedRead: true, FlagEncryptAuthenticatedWrite: true,
	FlagSecureRead: true, FlagSecureWrite: true, FlagAuthorize: true,
}

// Flags is the fixed capability set of an attribute node.
type Flags []Flag

// newFlags copies ff, dropping duplicates. It panics on a token BlueZ
// would refuse, so a bad tree fails at construction, not at registration.
func newFlags(ff []Flag) Flags {
	seen := make(map[Flag]bool, len(ff))
	out := make(Flags, 0, len(ff))
	for _, f := range ff {
		if !knownFlags[f] {
			panic(fmt.Sprintf("gatt: unknown attribute flag %q", f))
		}
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// Has reports whether f is in the set.
func (ff Flags) Has(f Flag) bool {
	for _, x := range ff {
		if x == f {
			return true
		}
	}
	return false
}

func (ff Flags) hasAny(fs ...Flag) bool {
	for _, f := range fs {
		if ff.Has(f) {
			return true
		}
	}
	return false
}

// Readable reports whether any read capability is present.
func (ff Flags) Readable() bool {
	return ff.hasAny(FlagRead, FlagEncryptRead, FlagEncryptAuthenticatedRead, FlagSecureRead)
}

// Writable reports whether any write capability is present.
func (ff Flags) Writable() bool {
	return ff.hasAny(FlagWrite, FlagWriteWithoutResponse, FlagReliableWrite,
		FlagAuthenticatedSignedWrites, FlagEncryptWrite, FlagEncryptAuthenticatedWrite, FlagSecureWrite)
}

// Notifiable reports whether the node may push value changes.
func (ff Flags) Notifiable() bool {
	return ff.hasAny(FlagNotify, FlagIndicate)
}

// Strings returns the tokens as BlueZ expects them in the Flags property.
func (ff Flags) Strings() []string {
	s := make([]string, len(ff))
	for i, f := range ff {
		s[i] = string(f)
	}
	return s
}

// An AttributeNode is one published element of a GATT application:
// a *Service, *Characteristic or *Descriptor.
type AttributeNode interface {
	// Path is the node's identity. It is assigned at creation and never changes.
	Path() dbus.ObjectPath
	UUID() UUID
	// Interface is the BlueZ interface the node implements.
	Interface() string
	// Properties is the node's property bag for that interface.
	Properties() map[string]dbus.Variant
	Children() []AttributeNode
	// Parent returns nil for services.
	Parent() AttributeNode
}

// A Request is the context for a read or write from a connected device.
type Request struct {
	Device dbus.ObjectPath // remote device, if BlueZ reported it
	MTU    uint16
	Link   string // "BR/EDR" or "LE"
	Offset int

	Characteristic *Characteristic
	Descriptor     *Descriptor // nil for characteristic requests
}

// A ReadRequest is a ReadValue call from BlueZ.
type ReadRequest struct {
	Request
}

// A WriteRequest is a WriteValue call from BlueZ.
type WriteRequest struct {
	Request
	Type             string // "command", "request" or "reliable"
	PrepareAuthorize bool
}

// A ReadHandler handles GATT read requests. It returns the whole value;
// the request offset is applied afterwards.
type ReadHandler interface {
	ServeRead(req *ReadRequest) ([]byte, error)
}

// ReadHandlerFunc is an adapter to allow the use of
// ordinary functions as ReadHandlers. If f is a function
// with the appropriate signature, ReadHandlerFunc(f) is a
// ReadHandler that calls f.
type ReadHandlerFunc func(req *ReadRequest) ([]byte, error)

// ServeRead returns f(req).
func (f ReadHandlerFunc) ServeRead(req *ReadRequest) ([]byte, error) {
	return f(req)
}

// A WriteHandler handles GATT write requests. When it returns nil the
// written data becomes the node's stored value.
type WriteHandler interface {
	ServeWrite(req *WriteRequest, data []byte) error
}

// WriteHandlerFunc is an adapter to allow the use of
// ordinary functions as WriteHandlers.
type WriteHandlerFunc func(req *WriteRequest, data []byte) error

// ServeWrite returns f(req, data).
func (f WriteHandlerFunc) ServeWrite(req *WriteRequest, data []byte) error {
	return f(req, data)
}

// parseRequest decodes the a{sv} options BlueZ passes to ReadValue and WriteValue.
func parseRequest(opts map[string]dbus.Variant) (Request, error) {
	var r Request
	for k, v := range opts {
		var ok bool
		switch k {
		case "device":
			r.Device, ok = v.Value().(dbus.ObjectPath)
		case "mtu":
			r.MTU, ok = v.Value().(uint16)
		case "link":
			r.Link, ok = v.Value().(string)
		case "offset":
			var off uint16
			off, ok = v.Value().(uint16)
			r.Offset = int(off)
		default:
			ok = true
		}
		if !ok {
			return r, &Error{Name: ErrInvalidArguments.Name, Message: "bad option " + k}
		}
	}
	return r, nil
}

func parseWriteRequest(opts map[string]dbus.Variant) (*WriteRequest, error) {
	r, err := parseRequest(opts)
	if err != nil {
		return nil, err
	}
	w := &WriteRequest{Request: r, Type: "request"}
	if v, ok := opts["type"]; ok {
		if w.Type, ok = v.Value().(string); !ok {
			return nil, &Error{Name: ErrInvalidArguments.Name, Message: "bad option type"}
		}
	}
	if v, ok := opts["prepare-authorize"]; ok {
		if w.PrepareAuthorize, ok = v.Value().(bool); !ok {
			return nil, &Error{Name: ErrInvalidArguments.Name, Message: "bad option prepare-authorize"}
		}
	}
	return w, nil
}

// attrValue holds the stored value and the handlers shared by
// characteristics and descriptors.
type attrValue struct {
	flags    Flags
	value    []byte
	rhandler ReadHandler
	whandler WriteHandler
}

func (a *attrValue) read(req *ReadRequest) ([]byte, error) {
	if !a.flags.Readable() {
		return nil, ErrNotSupported
	}
	v := a.value
	if a.rhandler != nil {
		var err error
		if v, err = a.rhandler.ServeRead(req); err != nil {
			return nil, err
		}
	}
	if req.Offset > len(v) {
		return nil, ErrInvalidOffset
	}
	out := make([]byte, len(v)-req.Offset)
	copy(out, v[req.Offset:])
	return out, nil
}

func (a *attrValue) write(req *WriteRequest, data []byte) error {
	if !a.flags.Writable() {
		return ErrNotSupported
	}
	if req.Offset > len(a.value) {
		return ErrInvalidOffset
	}
	if req.PrepareAuthorize {
		if !a.flags.Has(FlagAuthorize) {
			return ErrNotAuthorized
		}
		return nil
	}
	if a.whandler != nil {
		if err := a.whandler.ServeWrite(req, data); err != nil {
			return err
		}
	}
	v := make([]byte, req.Offset+len(data))
	copy(v, a.value[:req.Offset])
	copy(v[req.Offset:], data)
	a.value = v
	return nil
}

func (a *attrValue) setValue(b []byte) {
	a.value = append([]byte(nil), b...)
}

func (a *attrValue) getValue() []byte {
	return append([]byte(nil), a.value...)
}
