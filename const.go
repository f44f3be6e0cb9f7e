package gatt

import "github.com/godbus/dbus/v5"

// This file includes the BlueZ D-Bus names and well-known BLE UUIDs.

const (
	BluezService = "org.bluez"
	BluezRoot    = dbus.ObjectPath("/org/bluez")

	AdapterInterface            = "org.bluez.Adapter1"
	DeviceInterface             = "org.bluez.Device1"
	GattManagerInterface        = "org.bluez.GattManager1"
	GattServiceInterface        = "org.bluez.GattService1"
	GattCharacteristicInterface = "org.bluez.GattCharacteristic1"
	GattDescriptorInterface     = "org.bluez.GattDescriptor1"
	AdvertisingManagerInterface = "org.bluez.LEAdvertisingManager1"
	AdvertisementInterface      = "org.bluez.LEAdvertisement1"
	AgentManagerInterface       = "org.bluez.AgentManager1"
	AgentInterface              = "org.bluez.Agent1"
	ObjectManagerInterface      = "org.freedesktop.DBus.ObjectManager"
	PropertiesInterface         = "org.freedesktop.DBus.Properties"

	PropertiesChangedSignal = PropertiesInterface + ".PropertiesChanged"
	InterfacesAddedSignal   = ObjectManagerInterface + ".InterfacesAdded"
)

// DefaultApplicationPath is the object path the GATT application and
// its companion objects are exported under unless configured otherwise.
const DefaultApplicationPath = dbus.ObjectPath("/org/bluez/gattd")

// Well-known 16-bit UUIDs used by the bundled services.
var (
	BatteryServiceUUID           = UUID16(0x180F)
	BatteryLevelUUID             = UUID16(0x2A19)
	HeartRateServiceUUID         = UUID16(0x180D)
	HeartRateMeasurementUUID     = UUID16(0x2A37)
	BodySensorLocationUUID       = UUID16(0x2A38)
	HeartRateControlPointUUID    = UUID16(0x2A39)
	CharacteristicUserDescUUID   = UUID16(0x2901)
	ClientCharacteristicConfUUID = UUID16(0x2902)
)

// https://www.bluetooth.com/specifications/assigned-numbers/
const (
	AppearanceUnknown            uint16 = 0x0000
	AppearanceGenericThermometer uint16 = 0x0300
	AppearanceGenericHeartRate   uint16 = 0x0340
)
