package gatt

import (
	"encoding/binary"
	"errors"
	"sort"

	"github.com/godbus/dbus/v5"
)

// MaxEIRPacketLength is the maximum allowed legacy advertising
// and scan response payload length.
const MaxEIRPacketLength = 31

// ErrEIRPacketTooLong is the error returned when an advertising
// payload does not fit a legacy advertising packet.
var ErrEIRPacketTooLong = errors.New("max packet length is 31")

// advertising data field types
const (
	typeFlags            = 0x01 // Flags
	typeAllUUID16        = 0x03 // Complete List of 16-bit Service Class UUIDs
	typeAllUUID128       = 0x07 // Complete List of 128-bit Service Class UUIDs
	typeShortName        = 0x08 // Shortened Local Name
	typeCompleteName     = 0x09 // Complete Local Name
	typeTxPower          = 0x0A // Tx Power Level
	typeServiceSol16     = 0x14 // List of 16-bit Service Solicitation UUIDs
	typeServiceSol128    = 0x15 // List of 128-bit Service Solicitation UUIDs
	typeServiceData16    = 0x16 // Service Data - 16-bit UUID
	typeAppearance       = 0x19 // Appearance
	typeServiceData128   = 0x21 // Service Data - 128-bit UUID
	typeManufacturerData = 0xFF // Manufacturer Specific Data
)

// flag bits
const (
	flagLimitedDiscoverable = 1 << iota // LE Limited Discoverable Mode
	flagGeneralDiscoverable             // LE General Discoverable Mode
	flagLEOnly                          // BR/EDR Not Supported. Bit 37 of LMP Feature Mask Definitions (Page 0)
)

// Advertisement types accepted by LEAdvertisingManager1.
const (
	AdvertisementPeripheral = "peripheral"
	AdvertisementBroadcast  = "broadcast"
)

// An Advertisement is the LEAdvertisement1 object handed to BlueZ.
// Optional fields stay unset, and absent from Properties, until
// their first Add or Set call.
type Advertisement struct {
	path dbus.ObjectPath
	typ  string

	serviceUUIDs     []UUID
	solicitUUIDs     []UUID
	manufacturerData map[uint16][]byte
	serviceData      map[UUID][]byte
	data             map[byte][]byte
	localName        *string
	includeTxPower   bool
	appearance       *uint16
	discoverable     *bool
	timeout          *uint16

	released func()
}

// NewAdvertisement returns an advertisement of type typ published at path.
func NewAdvertisement(path dbus.ObjectPath, typ string) *Advertisement {
	return &Advertisement{path: path, typ: typ}
}

// Path returns the object path BlueZ knows the advertisement by.
func (a *Advertisement) Path() dbus.ObjectPath { return a.path }

// Type returns "peripheral" or "broadcast".
func (a *Advertisement) Type() string { return a.typ }

func addUUID(uu []UUID, u UUID) []UUID {
	for _, x := range uu {
		if x.Equal(u) {
			return uu
		}
	}
	return append(uu, u)
}

// AddServiceUUID advertises u. Adding the same UUID twice is a no-op.
func (a *Advertisement) AddServiceUUID(u UUID) { a.serviceUUIDs = addUUID(a.serviceUUIDs, u) }

// EraseServiceUUIDs unsets the service UUID list.
func (a *Advertisement) EraseServiceUUIDs() { a.serviceUUIDs = nil }

// AddSolicitUUID adds u to the solicited services.
func (a *Advertisement) AddSolicitUUID(u UUID) { a.solicitUUIDs = addUUID(a.solicitUUIDs, u) }

// EraseSolicitUUIDs unsets the solicited services.
func (a *Advertisement) EraseSolicitUUIDs() { a.solicitUUIDs = nil }

// AddManufacturerData sets the payload for company code. A second call
// with the same code replaces the earlier payload.
func (a *Advertisement) AddManufacturerData(code uint16, b []byte) {
	if a.manufacturerData == nil {
		a.manufacturerData = make(map[uint16][]byte)
	}
	a.manufacturerData[code] = append([]byte(nil), b...)
}

// EraseManufacturerData unsets all manufacturer data.
func (a *Advertisement) EraseManufacturerData() { a.manufacturerData = nil }

// AddServiceData sets the service data for u.
func (a *Advertisement) AddServiceData(u UUID, b []byte) {
	if a.serviceData == nil {
		a.serviceData = make(map[UUID][]byte)
	}
	a.serviceData[u] = append([]byte(nil), b...)
}

// EraseServiceData unsets all service data.
func (a *Advertisement) EraseServiceData() { a.serviceData = nil }

// AddData sets a raw advertising data field of type tag.
func (a *Advertisement) AddData(tag byte, b []byte) {
	if a.data == nil {
		a.data = make(map[byte][]byte)
	}
	a.data[tag] = append([]byte(nil), b...)
}

// EraseData unsets all raw advertising data.
func (a *Advertisement) EraseData() { a.data = nil }

// SetLocalName sets the name scanners display.
func (a *Advertisement) SetLocalName(name string) { a.localName = &name }

// SetIncludeTxPower asks BlueZ to include the TX power level.
func (a *Advertisement) SetIncludeTxPower(on bool) { a.includeTxPower = on }

// SetAppearance sets the GAP appearance value.
func (a *Advertisement) SetAppearance(v uint16) { a.appearance = &v }

// SetDiscoverable sets the general discoverable flag.
func (a *Advertisement) SetDiscoverable(on bool) { a.discoverable = &on }

// SetTimeout sets how long, in seconds, BlueZ keeps the advertisement active.
func (a *Advertisement) SetTimeout(secs uint16) { a.timeout = &secs }

// HandleRelease sets a function to be called when BlueZ releases the advertisement.
func (a *Advertisement) HandleRelease(f func()) { a.released = f }

// Release is called by BlueZ when it drops the advertisement.
func (a *Advertisement) Release() {
	if a.released != nil {
		a.released()
	}
}

func uuidStrings(uu []UUID) []string {
	s := make([]string, len(uu))
	for i, u := range uu {
		s[i] = u.String()
	}
	return s
}

// Properties returns the LEAdvertisement1 property bag.
func (a *Advertisement) Properties() map[string]dbus.Variant {
	props := map[string]dbus.Variant{
		"Type": dbus.MakeVariant(a.typ),
	}
	if a.serviceUUIDs != nil {
		props["ServiceUUIDs"] = dbus.MakeVariant(uuidStrings(a.serviceUUIDs))
	}
	if a.solicitUUIDs != nil {
		props["SolicitUUIDs"] = dbus.MakeVariant(uuidStrings(a.solicitUUIDs))
	}
	if a.manufacturerData != nil {
		md := make(map[uint16]dbus.Variant, len(a.manufacturerData))
		for k, v := range a.manufacturerData {
			md[k] = dbus.MakeVariant(v)
		}
		props["ManufacturerData"] = dbus.MakeVariant(md)
	}
	if a.serviceData != nil {
		sd := make(map[string]dbus.Variant, len(a.serviceData))
		for k, v := range a.serviceData {
			sd[k.String()] = dbus.MakeVariant(v)
		}
		props["ServiceData"] = dbus.MakeVariant(sd)
	}
	if a.data != nil {
		d := make(map[byte]dbus.Variant, len(a.data))
		for k, v := range a.data {
			d[k] = dbus.MakeVariant(v)
		}
		props["Data"] = dbus.MakeVariant(d)
	}
	if a.localName != nil {
		props["LocalName"] = dbus.MakeVariant(*a.localName)
	}
	if a.includeTxPower {
		props["Includes"] = dbus.MakeVariant([]string{"tx-power"})
	}
	if a.appearance != nil {
		props["Appearance"] = dbus.MakeVariant(*a.appearance)
	}
	if a.discoverable != nil {
		props["Discoverable"] = dbus.MakeVariant(*a.discoverable)
	}
	if a.timeout != nil {
		props["Timeout"] = dbus.MakeVariant(*a.timeout)
	}
	return props
}

// Packet estimates the legacy advertising payload BlueZ builds from the
// advertisement, in the order BlueZ lays the fields out. It returns
// ErrEIRPacketTooLong, along with the full payload, when the result would
// not fit in MaxEIRPacketLength bytes. The host stack has the final say;
// the estimate only drives warnings.
func (a *Advertisement) Packet() ([]byte, error) {
	p := new(advPacket)
	if a.typ == AdvertisementPeripheral {
		flags := byte(flagLEOnly)
		if a.discoverable == nil || *a.discoverable {
			flags |= flagGeneralDiscoverable
		}
		p.appendField(typeFlags, []byte{flags})
	}
	p.appendUUIDs(typeAllUUID16, typeAllUUID128, a.serviceUUIDs)
	p.appendUUIDs(typeServiceSol16, typeServiceSol128, a.solicitUUIDs)

	codes := make([]int, 0, len(a.manufacturerData))
	for k := range a.manufacturerData {
		codes = append(codes, int(k))
	}
	sort.Ints(codes)
	for _, k := range codes {
		p.appendManufacturerData(uint16(k), a.manufacturerData[uint16(k)])
	}

	for _, u := range sortedUUIDs(a.serviceData) {
		typ := byte(typeServiceData128)
		if u.IsShort() {
			typ = typeServiceData16
		}
		p.appendField(typ, append(u.reverseBytes(), a.serviceData[u]...))
	}

	tags := make([]int, 0, len(a.data))
	for k := range a.data {
		tags = append(tags, int(k))
	}
	sort.Ints(tags)
	for _, k := range tags {
		p.appendField(byte(k), a.data[byte(k)])
	}

	if a.appearance != nil {
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, *a.appearance)
		p.appendField(typeAppearance, b)
	}
	if a.includeTxPower {
		p.appendField(typeTxPower, []byte{0})
	}
	if a.localName != nil {
		p.appendName(*a.localName)
	}

	if len(p.data) > MaxEIRPacketLength {
		return p.data, ErrEIRPacketTooLong
	}
	return p.data, nil
}

func sortedUUIDs(m map[UUID][]byte) []UUID {
	uu := make([]UUID, 0, len(m))
	for u := range m {
		uu = append(uu, u)
	}
	sort.Slice(uu, func(i, j int) bool { return uu[i].String() < uu[j].String() })
	return uu
}

type advPacket struct {
	data []byte
}

// appendField appends a BLE advertising packet field.
func (p *advPacket) appendField(typ byte, data []byte) {
	// A field consists of len, typ, data.
	// Len is 1 byte for typ plus len(data).
	p.data = append(p.data, byte(len(data)+1))
	p.data = append(p.data, typ)
	p.data = append(p.data, data...)
}

// appendName appends the local name as a complete name, or shortened
// to whatever room is left in a legacy packet.
func (p *advPacket) appendName(name string) {
	typ := byte(typeCompleteName)
	if room := MaxEIRPacketLength - len(p.data) - 2; room < len(name) && room > 0 {
		name = name[:room]
		typ = typeShortName
	}
	p.appendField(typ, []byte(name))
}

func (p *advPacket) appendManufacturerData(cid uint16, data []byte) {
	d := append([]byte{uint8(cid), uint8(cid >> 8)}, data...)
	p.appendField(typeManufacturerData, d)
}

// appendUUIDs groups uu by width into one field per width.
func (p *advPacket) appendUUIDs(typ16, typ128 byte, uu []UUID) {
	var b16, b128 []byte
	for _, u := range uu {
		if u.IsShort() {
			b16 = append(b16, u.reverseBytes()...)
		} else {
			b128 = append(b128, u.reverseBytes()...)
		}
	}
	if len(b16) > 0 {
		p.appendField(typ16, b16)
	}
	if len(b128) > 0 {
		p.appendField(typ128, b128)
	}
}
