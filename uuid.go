package gatt

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// baseUUID is the Bluetooth Base UUID. Short 16-bit and 32-bit UUIDs
// occupy its first four bytes.
var baseUUID = uuid.MustParse("00000000-0000-1000-8000-00805f9b34fb")

// A UUID is a 128-bit BLE attribute type.
// Short forms are expanded onto the Bluetooth Base UUID.
type UUID struct {
	u uuid.UUID
}

// UUID16 converts a uint16 (such as 0x1800) to a UUID.
func UUID16(i uint16) UUID {
	return UUID32(uint32(i))
}

// UUID32 converts a uint32 to a UUID.
func UUID32(i uint32) UUID {
	u := baseUUID
	binary.BigEndian.PutUint32(u[:4], i)
	return UUID{u}
}

// ParseUUID parses a standard-format UUID string, such
// as "1800" or "34DA3AD1-7110-41A1-B1EF-4430F509CDE7".
// Dashes are optional.
func ParseUUID(s string) (UUID, error) {
	h := strings.Replace(s, "-", "", -1)
	switch len(h) {
	case 4, 8:
		n, err := strconv.ParseUint(h, 16, 32)
		if err != nil {
			return UUID{}, fmt.Errorf("gatt: invalid uuid %q: %w", s, err)
		}
		return UUID32(uint32(n)), nil
	case 32:
		u, err := uuid.Parse(h)
		if err != nil {
			return UUID{}, fmt.Errorf("gatt: invalid uuid %q: %w", s, err)
		}
		return UUID{u}, nil
	}
	return UUID{}, fmt.Errorf("gatt: invalid uuid %q: length must be 4, 8 or 32 hex digits", s)
}

// MustParseUUID parses a standard-format UUID string,
// like ParseUUID, but panics in case of error.
func MustParseUUID(s string) UUID {
	u, err := ParseUUID(s)
	if err != nil {
		panic(err)
	}
	return u
}

// IsShort reports whether u lies on the Bluetooth Base UUID
// and fits in 16 bits.
func (u UUID) IsShort() bool {
	if u.u[0] != 0 || u.u[1] != 0 {
		return false
	}
	for i := 4; i < 16; i++ {
		if u.u[i] != baseUUID[i] {
			return false
		}
	}
	return true
}

// Short returns the 16-bit form of u. It is only meaningful when IsShort is true.
func (u UUID) Short() uint16 {
	return binary.BigEndian.Uint16(u.u[2:4])
}

// Len returns the number of bytes u occupies in an advertising packet.
func (u UUID) Len() int {
	if u.IsShort() {
		return 2
	}
	return 16
}

// String returns the canonical lower-case 128-bit representation of u.
func (u UUID) String() string {
	return u.u.String()
}

// Equal returns a boolean reporting whether v represent the same UUID as u.
func (u UUID) Equal(v UUID) bool {
	return u.u == v.u
}

// IsZero reports whether u was never set.
func (u UUID) IsZero() bool {
	return u.u == uuid.Nil
}

// reverseBytes returns u in little-endian order, as it appears
// in advertising data.
func (u UUID) reverseBytes() []byte {
	if u.IsShort() {
		return reverse(u.u[2:4])
	}
	return reverse(u.u[:])
}

// reverse returns a reversed copy of u.
func reverse(u []byte) []byte {
	// Special-case 16 bit UUIDS for speed.
	l := len(u)
	if l == 2 {
		return []byte{u[1], u[0]}
	}
	b := make([]byte, l)
	for i := 0; i < l/2+1; i++ {
		b[i], b[l-i-1] = u[l-i-1], u[i]
	}
	return b
}
