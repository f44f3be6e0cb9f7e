// Package gatt provides a Bluetooth Low Energy peripheral that serves a
// GATT application and an advertisement through BlueZ.
//
// SETUP
//
// gatt only supports Linux with bluetoothd (BlueZ 5.50 or later) running.
// It talks to bluetoothd over the D-Bus system bus, so the process needs
// a bus policy allowing it to own objects and call org.bluez. Running as
// root works out of the box; otherwise add a policy file under
// /etc/dbus-1/system.d granting the user access to org.bluez.
//
// Advertising needs the experimental LEAdvertisingManager1 on older
// BlueZ releases; start bluetoothd with --experimental there.
//
// USAGE
//
//	conn, err := bluez.Dial()
//	if err != nil {
//		log.Fatal(err)
//	}
//	p, err := gatt.NewPeripheral(bluez.NewHost(conn), gatt.Name("gopher"))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	s := p.Application().AddService(gatt.BatteryServiceUUID, true)
//	c := s.AddCharacteristic(gatt.BatteryLevelUUID, gatt.FlagRead, gatt.FlagNotify)
//	c.SetValue([]byte{100})
//	p.Schedule(c, 5*time.Second, nextLevel)
//
//	p.Advertisement().AddServiceUUID(gatt.BatteryServiceUUID)
//	log.Fatal(p.Run(ctx))
//
// The tree must be complete before Run: Run exports the application and
// seals it. From then on every read, write and notification runs on the
// peripheral's event loop, one at a time, so handlers need no locking of
// their own.
//
// See the examples directory for a peripheral publishing heart rate,
// battery, temperature and test services.
package gatt
