package gatt

import (
	"bytes"
	"testing"
)

func TestUUID16(t *testing.T) {
	if want, got := MustParseUUID("00001800-0000-1000-8000-00805f9b34fb"), UUID16(0x1800); !got.Equal(want) {
		t.Errorf("UUID16: got %s, want %s", got, want)
	}
}

func TestParseUUID(t *testing.T) {
	cases := []struct {
		in    string
		want  string
		short bool
	}{
		{in: "180D", want: "0000180d-0000-1000-8000-00805f9b34fb", short: true},
		{in: "180d", want: "0000180d-0000-1000-8000-00805f9b34fb", short: true},
		{in: "0000180F", want: "0000180f-0000-1000-8000-00805f9b34fb", short: true},
		{in: "1234ABCD", want: "1234abcd-0000-1000-8000-00805f9b34fb", short: false},
		{in: "E95D6100-251D-470A-A062-FA1922DFA9A8", want: "e95d6100-251d-470a-a062-fa1922dfa9a8", short: false},
		{in: "12345678123456781234567890abcdef", want: "12345678-1234-5678-1234-567890abcdef", short: false},
	}

	for _, tt := range cases {
		u, err := ParseUUID(tt.in)
		if err != nil {
			t.Errorf("ParseUUID(%q): unexpected error %v", tt.in, err)
			continue
		}
		if got := u.String(); got != tt.want {
			t.Errorf("ParseUUID(%q): got %q want %q", tt.in, got, tt.want)
		}
		if got := u.IsShort(); got != tt.short {
			t.Errorf("ParseUUID(%q).IsShort(): got %v want %v", tt.in, got, tt.short)
		}
	}
}

func TestParseUUIDInvalid(t *testing.T) {
	for _, in := range []string{"", "18", "180", "18zz", "e95d6100-251d-470a-a062-fa1922dfa9"} {
		if _, err := ParseUUID(in); err == nil {
			t.Errorf("ParseUUID(%q): expected error", in)
		}
	}
}

func TestUUIDShort(t *testing.T) {
	if got := MustParseUUID("2a19").Short(); got != 0x2A19 {
		t.Errorf("Short(): got %#04x want %#04x", got, 0x2A19)
	}
	if got := UUID16(0x2A19).Len(); got != 2 {
		t.Errorf("Len(): got %d want 2", got)
	}
	if got := MustParseUUID("e95d6100-251d-470a-a062-fa1922dfa9a8").Len(); got != 16 {
		t.Errorf("Len(): got %d want 16", got)
	}
}

func TestReverse(t *testing.T) {
	cases := []struct {
		fwd  []byte
		back []byte
	}{
		{fwd: []byte{0, 1}, back: []byte{1, 0}},
		{fwd: []byte{0, 1, 2}, back: []byte{2, 1, 0}},
		{fwd: []byte{0, 1, 2, 3}, back: []byte{3, 2, 1, 0}},
		{
			fwd:  []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
			back: []byte{15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0},
		},
	}

	for _, tt := range cases {
		got := reverse(tt.fwd)
		if !bytes.Equal(got, tt.back) {
			t.Errorf("reverse(%x): got %x want %x", tt.fwd, got, tt.back)
		}
	}

	if got, want := UUID16(0x180D).reverseBytes(), []byte{0x0D, 0x18}; !bytes.Equal(got, want) {
		t.Errorf("UUID16(0x180D).reverseBytes(): got %x want %x", got, want)
	}
}

func BenchmarkReverseBytes16(b *testing.B) {
	u := UUID16(0x1800)
	for i := 0; i < b.N; i++ {
		u.reverseBytes()
	}
}

func BenchmarkReverseBytes128(b *testing.B) {
	u := MustParseUUID("e95d6100-251d-470a-a062-fa1922dfa9a8")
	for i := 0; i < b.N; i++ {
		u.reverseBytes()
	}
}
