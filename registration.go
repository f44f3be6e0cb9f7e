package gatt

import (
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
)

// Registration kinds.
const (
	KindApplication   = "application"
	KindAdvertisement = "advertisement"
)

// A Registration is a registration BlueZ has acknowledged.
type Registration struct {
	Kind    string
	Adapter dbus.ObjectPath
	Path    dbus.ObjectPath
}

// A RegistrationClient registers the application and the advertisement
// with an adapter. Register calls return immediately; each reply is
// consumed once and handled on the loop. Apart from construction, the
// client must only be used from the goroutine that runs the loop.
type RegistrationClient struct {
	host    Host
	loop    *Loop
	adapter dbus.ObjectPath

	log     logrus.FieldLogger
	metrics *Metrics
	failed  func(error)

	app     *Registration
	ad      *Registration
	pending map[dbus.ObjectPath]*Registration

	// last request per kind, kept after a rejection so shutdown can
	// still withdraw it
	requested map[string]*Registration
}

// A RegistrationOption configures a RegistrationClient.
type RegistrationOption func(*RegistrationClient)

// OnRegistrationFailure sets the function called, on the loop, when BlueZ
// rejects a registration.
func OnRegistrationFailure(f func(error)) RegistrationOption {
	return func(c *RegistrationClient) { c.failed = f }
}

// RegistrationLogger sets the client's logger.
func RegistrationLogger(l logrus.FieldLogger) RegistrationOption {
	return func(c *RegistrationClient) { c.log = l }
}

// RegistrationMetrics sets where registration results are counted.
func RegistrationMetrics(m *Metrics) RegistrationOption {
	return func(c *RegistrationClient) { c.metrics = m }
}

// NewRegistrationClient returns a client registering with adapter.
func NewRegistrationClient(host Host, loop *Loop, adapter dbus.ObjectPath, opts ...RegistrationOption) *RegistrationClient {
	c := &RegistrationClient{
		host:    host,
		loop:    loop,
		adapter: adapter,
		log:     logrus.StandardLogger(),
		pending:   make(map[dbus.ObjectPath]*Registration),
		requested: make(map[string]*Registration),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RegisterApplication asks BlueZ to register app.
func (c *RegistrationClient) RegisterApplication(app *Application) {
	r := &Registration{Kind: KindApplication, Adapter: c.adapter, Path: app.Path()}
	c.register(r, c.host.RegisterApplication)
}

// RegisterAdvertisement asks BlueZ to register ad. Only one advertisement
// may be registered or pending at a time.
func (c *RegistrationClient) RegisterAdvertisement(ad *Advertisement) error {
	if c.ad != nil || c.pendingOf(KindAdvertisement) != nil {
		return ErrAdvertisementActive
	}
	if pkt, err := ad.Packet(); err != nil {
		c.log.WithFields(logrus.Fields{"path": ad.Path(), "length": len(pkt)}).
			Warn("advertising data may not fit a legacy advertising packet")
	}
	r := &Registration{Kind: KindAdvertisement, Adapter: c.adapter, Path: ad.Path()}
	c.register(r, c.host.RegisterAdvertisement)
	return nil
}

func (c *RegistrationClient) register(r *Registration, call func(adapter, path dbus.ObjectPath, done chan *dbus.Call) *dbus.Call) {
	done := make(chan *dbus.Call, 1)
	c.pending[r.Path] = r
	c.requested[r.Kind] = r
	call(r.Adapter, r.Path, done)
	c.log.WithFields(logrus.Fields{"kind": r.Kind, "path": r.Path, "adapter": r.Adapter}).Debug("registration requested")

	go func() {
		reply := <-done
		if !c.loop.Post(func() { c.complete(r, reply.Err) }) {
			c.log.WithField("kind", r.Kind).Debug("registration reply arrived after shutdown")
		}
	}()
}

func (c *RegistrationClient) complete(r *Registration, err error) {
	if c.pending[r.Path] != r {
		c.log.WithFields(logrus.Fields{"kind": r.Kind, "path": r.Path}).Debug("reply for withdrawn registration ignored")
		return
	}
	delete(c.pending, r.Path)
	c.metrics.registration(r.Kind, err)
	log := c.log.WithFields(logrus.Fields{"kind": r.Kind, "path": r.Path})
	if err != nil {
		log.WithError(err).Error("registration failed")
		if c.failed != nil {
			c.failed(fmt.Errorf("register %s: %w", r.Kind, err))
		}
		return
	}
	log.Info("registered")
	switch r.Kind {
	case KindApplication:
		c.app = r
	case KindAdvertisement:
		c.ad = r
	}
}

func (c *RegistrationClient) pendingOf(kind string) *Registration {
	for _, r := range c.pending {
		if r.Kind == kind {
			return r
		}
	}
	return nil
}

// Handles returns the registrations BlueZ has acknowledged.
func (c *RegistrationClient) Handles() []*Registration {
	var hh []*Registration
	if c.app != nil {
		hh = append(hh, c.app)
	}
	if c.ad != nil {
		hh = append(hh, c.ad)
	}
	return hh
}

// Pending returns the number of registrations awaiting a reply.
func (c *RegistrationClient) Pending() int { return len(c.pending) }

// Unregister withdraws h. A nil handle is a no-op.
func (c *RegistrationClient) Unregister(h *Registration) error {
	if h == nil {
		return nil
	}
	if c.requested[h.Kind] == h {
		delete(c.requested, h.Kind)
	}
	switch h.Kind {
	case KindApplication:
		if c.app == h {
			c.app = nil
		}
		delete(c.pending, h.Path)
		return c.host.UnregisterApplication(h.Adapter, h.Path)
	case KindAdvertisement:
		if c.ad == h {
			c.ad = nil
		}
		delete(c.pending, h.Path)
		return c.host.UnregisterAdvertisement(h.Adapter, h.Path)
	}
	return fmt.Errorf("gatt: unknown registration kind %q", h.Kind)
}

// UnregisterAdvertisement withdraws the advertisement, whether it is
// registered, pending or was rejected. It is a no-op when none was
// ever requested.
func (c *RegistrationClient) UnregisterAdvertisement() error {
	return c.unregisterKind(KindAdvertisement, c.ad)
}

// UnregisterApplication withdraws the application, whether it is
// registered, pending or was rejected. It is a no-op when none was
// ever requested.
func (c *RegistrationClient) UnregisterApplication() error {
	return c.unregisterKind(KindApplication, c.app)
}

func (c *RegistrationClient) unregisterKind(kind string, held *Registration) error {
	h := held
	if h == nil {
		h = c.pendingOf(kind)
	}
	if h == nil {
		h = c.requested[kind]
	}
	return c.Unregister(h)
}
