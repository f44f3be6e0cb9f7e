package gatt

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

func TestAgentAutoConfirms(t *testing.T) {
	log, hook := test.NewNullLogger()
	a := NewAgent("/t/agent", AgentLogger(log))
	dev := dbus.ObjectPath("/org/bluez/hci0/dev_00_11_22_33_44_55")

	pin, err := a.RequestPinCode(dev)
	assert.NoError(t, err)
	assert.Equal(t, "0000", pin)

	passkey, err := a.RequestPasskey(dev)
	assert.NoError(t, err)
	assert.Equal(t, uint32(0), passkey)

	assert.NoError(t, a.RequestConfirmation(dev, 123456))
	assert.NoError(t, a.AuthorizeService(dev, "0000180d-0000-1000-8000-00805f9b34fb"))
	assert.NoError(t, a.RequestAuthorization(dev))
	assert.NoError(t, a.DisplayPinCode(dev, "1234"))
	assert.NoError(t, a.DisplayPasskey(dev, 1, 0))
	assert.NoError(t, a.Cancel())

	entry := hook.LastEntry()
	if assert.NotNil(t, entry) {
		assert.Equal(t, logrus.InfoLevel, entry.Level)
	}
	assert.Equal(t, "KeyboardDisplay", a.Capability())
}

func TestAgentRelease(t *testing.T) {
	cases := []struct {
		exit bool
		want int
	}{
		{exit: true, want: 1},
		{exit: false, want: 0},
	}
	for _, tt := range cases {
		log, _ := test.NewNullLogger()
		a := NewAgent("/t/agent", ExitOnRelease(tt.exit), Capability("NoInputNoOutput"), AgentLogger(log))
		n := 0
		a.HandleRelease(func() { n++ })
		assert.NoError(t, a.Release())
		if n != tt.want {
			t.Errorf("Release() with ExitOnRelease(%v): released %d times, want %d", tt.exit, n, tt.want)
		}
		assert.Equal(t, "NoInputNoOutput", a.Capability())
	}
}
