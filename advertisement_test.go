package gatt

import (
	"fmt"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvertisementDefaults(t *testing.T) {
	ad := NewAdvertisement("/t/advertisement0", AdvertisementPeripheral)
	props := ad.Properties()
	assert.Equal(t, map[string]dbus.Variant{"Type": dbus.MakeVariant("peripheral")}, props)
}

func TestAdvertisementProperties(t *testing.T) {
	ad := NewAdvertisement("/t/advertisement0", AdvertisementPeripheral)
	ad.AddServiceUUID(MustParseUUID("180D"))
	ad.AddServiceUUID(MustParseUUID("180D"))
	ad.AddSolicitUUID(UUID16(0x180F))
	ad.AddManufacturerData(0xffff, []byte{0x00, 0x01, 0x02, 0x03})
	ad.AddServiceData(UUID16(0x9999), []byte{0x01})
	ad.AddData(0x26, []byte{0x01, 0x01, 0x00})
	ad.SetLocalName("Oculo_BLE_Advertiser")
	ad.SetIncludeTxPower(true)

	props := ad.Properties()
	assert.Equal(t, []string{"0000180d-0000-1000-8000-00805f9b34fb"}, props["ServiceUUIDs"].Value())
	assert.Equal(t, []string{"0000180f-0000-1000-8000-00805f9b34fb"}, props["SolicitUUIDs"].Value())
	assert.Equal(t, "Oculo_BLE_Advertiser", props["LocalName"].Value())
	assert.Equal(t, []string{"tx-power"}, props["Includes"].Value())
	assert.Equal(t, "a{qv}", props["ManufacturerData"].Signature().String())
	assert.Equal(t, "a{sv}", props["ServiceData"].Signature().String())
	assert.Equal(t, "a{yv}", props["Data"].Signature().String())

	md := props["ManufacturerData"].Value().(map[uint16]dbus.Variant)
	assert.Equal(t, []byte{0x00, 0x01, 0x02, 0x03}, md[0xffff].Value())
}

func TestAdvertisementTxPowerOnlyInIncludes(t *testing.T) {
	ad := NewAdvertisement("/t/advertisement0", AdvertisementPeripheral)
	ad.SetIncludeTxPower(true)
	for k := range ad.Properties() {
		if k != "Type" && k != "Includes" {
			t.Errorf("unexpected property %q", k)
		}
	}
	ad.SetIncludeTxPower(false)
	_, ok := ad.Properties()["Includes"]
	assert.False(t, ok)
}

func TestManufacturerDataOverwrite(t *testing.T) {
	ad := NewAdvertisement("/t/advertisement0", AdvertisementPeripheral)
	ad.AddManufacturerData(0xffff, []byte{0x00})
	ad.AddManufacturerData(0xffff, []byte{0x01, 0x02})

	md := ad.Properties()["ManufacturerData"].Value().(map[uint16]dbus.Variant)
	require.Len(t, md, 1)
	assert.Equal(t, []byte{0x01, 0x02}, md[0xffff].Value())
}

func TestAdvertisementErase(t *testing.T) {
	ad := NewAdvertisement("/t/advertisement0", AdvertisementBroadcast)
	ad.AddServiceUUID(UUID16(0x180D))
	ad.AddSolicitUUID(UUID16(0x180D))
	ad.AddManufacturerData(1, []byte{1})
	ad.AddServiceData(UUID16(0x180D), []byte{1})
	ad.AddData(0x26, []byte{1})

	ad.EraseServiceUUIDs()
	ad.EraseSolicitUUIDs()
	ad.EraseManufacturerData()
	ad.EraseServiceData()
	ad.EraseData()

	assert.Equal(t, map[string]dbus.Variant{"Type": dbus.MakeVariant("broadcast")}, ad.Properties())
}

func TestAdvertisementRelease(t *testing.T) {
	ad := NewAdvertisement("/t/advertisement0", AdvertisementPeripheral)
	ad.Release()

	released := 0
	ad.HandleRelease(func() { released++ })
	ad.Release()
	assert.Equal(t, 1, released)
}

func TestAdvertisementPacket(t *testing.T) {
	cases := []struct {
		build func(*Advertisement)
		want  string
	}{
		{
			build: func(a *Advertisement) { a.AddServiceUUID(UUID16(0xFAFE)) },
			want:  "0201060303fefa",
		},
		{
			build: func(a *Advertisement) {
				a.AddServiceUUID(UUID16(0xFAFE))
				a.AddServiceUUID(UUID16(0xFAF9))
			},
			want: "0201060503fefaf9fa",
		},
		{
			build: func(a *Advertisement) { a.AddServiceUUID(MustParseUUID("ABABABABABABABABABABABABABABABAB")) },
			want:  "0201061107abababababababababababababababab",
		},
		{
			build: func(a *Advertisement) {
				a.AddServiceUUID(UUID16(0x180D))
				a.SetLocalName("gopher")
			},
			want: "02010603030d180709676f70686572",
		},
		{
			build: func(a *Advertisement) { a.AddManufacturerData(0xffff, []byte{0, 1, 2, 3}) },
			want:  "02010607ffffff00010203",
		},
		{
			build: func(a *Advertisement) { a.SetDiscoverable(false) },
			want:  "020104",
		},
	}

	for _, tt := range cases {
		ad := NewAdvertisement("/t/advertisement0", AdvertisementPeripheral)
		tt.build(ad)
		pkt, err := ad.Packet()
		if err != nil {
			t.Errorf("Packet(): unexpected error %v", err)
		}
		if got := fmt.Sprintf("%x", pkt); got != tt.want {
			t.Errorf("Packet(): got %q want %q", got, tt.want)
		}
	}
}

func TestAdvertisementPacketShortensName(t *testing.T) {
	ad := NewAdvertisement("/t/advertisement0", AdvertisementPeripheral)
	ad.SetLocalName("gophergophergophergophergophergopher")
	pkt, err := ad.Packet()
	require.NoError(t, err)
	assert.Len(t, pkt, MaxEIRPacketLength)
	assert.Equal(t, byte(typeShortName), pkt[4])
}

func TestAdvertisementPacketTooLong(t *testing.T) {
	ad := NewAdvertisement("/t/advertisement0", AdvertisementPeripheral)
	ad.AddServiceUUID(MustParseUUID("ABABABABABABABABABABABABABABABAB"))
	ad.AddServiceUUID(MustParseUUID("CDCDCDCDCDCDCDCDCDCDCDCDCDCDCDCD"))
	_, err := ad.Packet()
	assert.Equal(t, ErrEIRPacketTooLong, err)
}

func TestAppendName(t *testing.T) {
	cases := []struct {
		curr      []byte
		name      string
		wantBytes []byte
	}{
		{
			curr:      []byte{},
			name:      "ABCDE",
			wantBytes: []byte{0x06, typeCompleteName, 'A', 'B', 'C', 'D', 'E'},
		},
		{
			curr:      []byte("111111111122222222223333"),
			name:      "ABCDE",
			wantBytes: append([]byte("111111111122222222223333"), []byte{0x06, typeCompleteName, 'A', 'B', 'C', 'D', 'E'}...),
		},
		{
			curr:      []byte("1111111111222222222233333"),
			name:      "ABCDE",
			wantBytes: append([]byte("1111111111222222222233333"), []byte{0x05, typeShortName, 'A', 'B', 'C', 'D'}...),
		},
	}
	for _, tt := range cases {
		p := &advPacket{data: append([]byte(nil), tt.curr...)}
		p.appendName(tt.name)
		assert.Equal(t, tt.wantBytes, p.data, "%q appendName(%q)", tt.curr, tt.name)
	}
}
