package gatt

import (
	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/mock"
)

const testAdapter = dbus.ObjectPath("/org/bluez/hci0")

// fakeHost is a Host whose registration replies are delivered as soon
// as the request is made.
type fakeHost struct {
	mock.Mock
}

func (h *fakeHost) FindAdapter(want dbus.ObjectPath) (dbus.ObjectPath, error) {
	args := h.Called(want)
	return args.Get(0).(dbus.ObjectPath), args.Error(1)
}

func (h *fakeHost) PowerOn(adapter dbus.ObjectPath) error {
	return h.Called(adapter).Error(0)
}

func (h *fakeHost) Export(obj Object, loop *Loop) error {
	return h.Called(obj).Error(0)
}

func (h *fakeHost) Unexport(obj Object) {
	h.Called(obj)
}

func (h *fakeHost) RegisterAgent(agent dbus.ObjectPath, capability string) error {
	return h.Called(agent, capability).Error(0)
}

func (h *fakeHost) UnregisterAgent(agent dbus.ObjectPath) error {
	return h.Called(agent).Error(0)
}

func (h *fakeHost) reply(err error, done chan *dbus.Call) *dbus.Call {
	call := &dbus.Call{Err: err, Done: done}
	done <- call
	return call
}

func (h *fakeHost) RegisterApplication(adapter, app dbus.ObjectPath, done chan *dbus.Call) *dbus.Call {
	return h.reply(h.Called(adapter, app).Error(0), done)
}

func (h *fakeHost) UnregisterApplication(adapter, app dbus.ObjectPath) error {
	return h.Called(adapter, app).Error(0)
}

func (h *fakeHost) RegisterAdvertisement(adapter, ad dbus.ObjectPath, done chan *dbus.Call) *dbus.Call {
	return h.reply(h.Called(adapter, ad).Error(0), done)
}

func (h *fakeHost) UnregisterAdvertisement(adapter, ad dbus.ObjectPath) error {
	return h.Called(adapter, ad).Error(0)
}

func (h *fakeHost) WatchConnections(events chan<- ConnectionEvent) (func(), error) {
	args := h.Called(events)
	return func() {}, args.Error(0)
}

// stub registers successful defaults for every call not set up yet.
// Expectations registered earlier take precedence.
func (h *fakeHost) stub() *fakeHost {
	h.On("FindAdapter", mock.Anything).Return(testAdapter, nil).Maybe()
	h.On("PowerOn", mock.Anything).Return(nil).Maybe()
	h.On("Export", mock.Anything).Return(nil).Maybe()
	h.On("Unexport", mock.Anything).Return().Maybe()
	h.On("RegisterAgent", mock.Anything, mock.Anything).Return(nil).Maybe()
	h.On("UnregisterAgent", mock.Anything).Return(nil).Maybe()
	h.On("RegisterApplication", mock.Anything, mock.Anything).Return(nil).Maybe()
	h.On("UnregisterApplication", mock.Anything, mock.Anything).Return(nil).Maybe()
	h.On("RegisterAdvertisement", mock.Anything, mock.Anything).Return(nil).Maybe()
	h.On("UnregisterAdvertisement", mock.Anything, mock.Anything).Return(nil).Maybe()
	h.On("WatchConnections", mock.Anything).Return(nil).Maybe()
	return h
}
