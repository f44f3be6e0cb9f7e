package gatt

import (
	"errors"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// settle waits until the client has no registration awaiting a reply.
func settle(t *testing.T, l *Loop, c *RegistrationClient) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		var pending int
		require.NoError(t, l.Call(func() error {
			pending = c.Pending()
			return nil
		}))
		if pending == 0 {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("registration replies never arrived")
}

func TestRegistrationSuccess(t *testing.T) {
	l, _ := runLoop(t)
	h := (&fakeHost{}).stub()
	c := NewRegistrationClient(h, l, testAdapter)
	app := NewApplication("/t")
	ad := NewAdvertisement("/t/advertisement0", AdvertisementPeripheral)

	require.NoError(t, l.Call(func() error {
		c.RegisterApplication(app)
		return c.RegisterAdvertisement(ad)
	}))
	settle(t, l, c)

	var handles []*Registration
	require.NoError(t, l.Call(func() error {
		handles = c.Handles()
		return nil
	}))
	require.Len(t, handles, 2)
	assert.Equal(t, Registration{Kind: KindApplication, Adapter: testAdapter, Path: "/t"}, *handles[0])
	assert.Equal(t, Registration{Kind: KindAdvertisement, Adapter: testAdapter, Path: "/t/advertisement0"}, *handles[1])

	require.NoError(t, l.Call(c.UnregisterAdvertisement))
	require.NoError(t, l.Call(c.UnregisterApplication))
	h.AssertCalled(t, "UnregisterAdvertisement", testAdapter, ad.Path())
	h.AssertCalled(t, "UnregisterApplication", testAdapter, app.Path())
}

func TestRegistrationFailureCallsBack(t *testing.T) {
	l, _ := runLoop(t)
	h := &fakeHost{}
	h.On("RegisterApplication", testAdapter, dbus.ObjectPath("/t")).Return(errors.New("NoAdapter"))
	h.stub()

	failed := make(chan error, 1)
	c := NewRegistrationClient(h, l, testAdapter, OnRegistrationFailure(func(err error) { failed <- err }))
	require.NoError(t, l.Call(func() error {
		c.RegisterApplication(NewApplication("/t"))
		return nil
	}))

	select {
	case err := <-failed:
		assert.ErrorContains(t, err, "NoAdapter")
		assert.ErrorContains(t, err, "register application")
	case <-time.After(time.Second):
		t.Fatal("failure callback not called")
	}
	assert.Empty(t, c.Handles())
}

func TestRegistrationSingleAdvertisement(t *testing.T) {
	l, _ := runLoop(t)
	h := (&fakeHost{}).stub()
	c := NewRegistrationClient(h, l, testAdapter)

	err := l.Call(func() error {
		if err := c.RegisterAdvertisement(NewAdvertisement("/t/advertisement0", AdvertisementPeripheral)); err != nil {
			return err
		}
		return c.RegisterAdvertisement(NewAdvertisement("/t/advertisement1", AdvertisementPeripheral))
	})
	assert.Equal(t, ErrAdvertisementActive, err)
}

func TestUnregisterWithoutHandle(t *testing.T) {
	h := &fakeHost{}
	c := NewRegistrationClient(h, NewLoop(), testAdapter)
	assert.NoError(t, c.Unregister(nil))
	assert.NoError(t, c.UnregisterAdvertisement())
	assert.NoError(t, c.UnregisterApplication())
	assert.Empty(t, h.Calls)
}

func TestUnregisterRejectedAdvertisement(t *testing.T) {
	l, _ := runLoop(t)
	h := &fakeHost{}
	h.On("RegisterAdvertisement", testAdapter, dbus.ObjectPath("/t/advertisement0")).Return(errors.New("NoAdapter"))
	h.On("UnregisterAdvertisement", testAdapter, dbus.ObjectPath("/t/advertisement0")).Return(errors.New("DoesNotExist")).Once()

	failed := make(chan error, 1)
	c := NewRegistrationClient(h, l, testAdapter, OnRegistrationFailure(func(err error) { failed <- err }))
	require.NoError(t, l.Call(func() error {
		return c.RegisterAdvertisement(NewAdvertisement("/t/advertisement0", AdvertisementPeripheral))
	}))
	select {
	case err := <-failed:
		assert.ErrorContains(t, err, "register advertisement")
	case <-time.After(time.Second):
		t.Fatal("failure callback not called")
	}

	err := l.Call(c.UnregisterAdvertisement)
	assert.ErrorContains(t, err, "DoesNotExist")
	h.AssertCalled(t, "UnregisterAdvertisement", testAdapter, dbus.ObjectPath("/t/advertisement0"))

	// Withdrawn once; nothing is left to unregister.
	require.NoError(t, l.Call(c.UnregisterAdvertisement))
	h.AssertNumberOfCalls(t, "UnregisterAdvertisement", 1)
}

func TestReplyAfterUnregisterIgnored(t *testing.T) {
	l, _ := runLoop(t)
	h := (&fakeHost{}).stub()
	c := NewRegistrationClient(h, l, testAdapter)

	var handles []*Registration
	require.NoError(t, l.Call(func() error {
		if err := c.RegisterAdvertisement(NewAdvertisement("/t/advertisement0", AdvertisementPeripheral)); err != nil {
			return err
		}
		r := c.pendingOf(KindAdvertisement)
		if r == nil {
			return errors.New("advertisement not pending")
		}
		if err := c.UnregisterAdvertisement(); err != nil {
			return err
		}
		c.complete(r, nil)
		handles = c.Handles()
		return nil
	}))
	assert.Empty(t, handles)
	h.AssertCalled(t, "UnregisterAdvertisement", testAdapter, dbus.ObjectPath("/t/advertisement0"))

	// The reply queued by the host is dropped as well.
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, l.Call(func() error {
		handles = c.Handles()
		return nil
	}))
	assert.Empty(t, handles)
}
