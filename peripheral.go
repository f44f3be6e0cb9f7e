package gatt

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
)

// ConnectionState is whether a central is connected to the adapter.
type ConnectionState int

const (
	Disconnected ConnectionState = 0
	Connected    ConnectionState = 1
)

func (s ConnectionState) String() string {
	str := []string{
		"Disconnected",
		"Connected",
	}
	if s < 0 || int(s) >= len(str) {
		return "ConnectionState(" + strconv.Itoa(int(s)) + ")"
	}
	return str[int(s)]
}

// A Peripheral owns one BLE peripheral session: it publishes the GATT
// application, the advertisement and the pairing agent, keeps them
// registered while its event loop runs, and withdraws them on shutdown.
type Peripheral struct {
	host    Host
	loop    *Loop
	log     logrus.FieldLogger
	metrics *Metrics

	name        string
	timeout     time.Duration
	adapterPath dbus.ObjectPath
	appPath     dbus.ObjectPath
	powerOn     bool
	agent       *Agent
	agentSet    bool

	app       *Application
	ad        *Advertisement
	notifiers []*Notifier
	reg       *RegistrationClient

	exported        []Object
	agentRegistered bool
	stopWatch       func()
	ran             bool
	err             error

	statemu sync.RWMutex
	state   ConnectionState

	deviceConnected    func(dbus.ObjectPath)
	deviceDisconnected func(dbus.ObjectPath)
	closed             func(error)
}

// NewPeripheral returns a peripheral using host. The application and the
// advertisement are empty; fill them before calling Run.
func NewPeripheral(host Host, opts ...Option) (*Peripheral, error) {
	p := &Peripheral{
		host:    host,
		loop:    NewLoop(),
		log:     logrus.StandardLogger(),
		appPath: DefaultApplicationPath,
		powerOn: true,
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.app = NewApplication(p.appPath)
	p.ad = NewAdvertisement(p.appPath+"/advertisement0", AdvertisementPeripheral)
	if p.name != "" {
		p.ad.SetLocalName(p.name)
	}
	if !p.agentSet {
		p.agent = NewAgent(p.appPath+"/agent", AgentLogger(p.log))
	}
	return p, nil
}

type handler func(*Peripheral)

// Handle registers the specified handlers.
func (p *Peripheral) Handle(hh ...handler) {
	for _, h := range hh {
		h(p)
	}
}

// DeviceConnected sets a function to be called when a central connects.
func DeviceConnected(f func(dbus.ObjectPath)) handler {
	return func(p *Peripheral) { p.deviceConnected = f }
}

// DeviceDisconnected sets a function to be called when a central disconnects.
func DeviceDisconnected(f func(dbus.ObjectPath)) handler {
	return func(p *Peripheral) { p.deviceDisconnected = f }
}

// Closed sets a function to be called once the peripheral has shut down.
// err is nil on a graceful shutdown.
func Closed(f func(err error)) handler {
	return func(p *Peripheral) { p.closed = f }
}

// Application returns the GATT tree to populate before Run.
func (p *Peripheral) Application() *Application { return p.app }

// Advertisement returns the advertisement to configure before Run.
func (p *Peripheral) Advertisement() *Advertisement { return p.ad }

// Agent returns the pairing agent, or nil when pairing is left to another agent.
func (p *Peripheral) Agent() *Agent { return p.agent }

// Loop returns the event loop that serializes all peripheral state.
func (p *Peripheral) Loop() *Loop { return p.loop }

// Schedule attaches a notifier recomputing c every interval. The timer
// starts when Run does.
func (p *Peripheral) Schedule(c *Characteristic, interval time.Duration, next func() []byte) *Notifier {
	n := NewNotifier(c, interval, next)
	n.log = p.log
	n.metrics = p.metrics
	p.notifiers = append(p.notifiers, n)
	return n
}

// ConnectionState returns the last connection state BlueZ reported.
func (p *Peripheral) ConnectionState() ConnectionState {
	p.statemu.RLock()
	defer p.statemu.RUnlock()
	return p.state
}

// Close stops a running peripheral. Run returns after shutting down.
func (p *Peripheral) Close() {
	p.loop.Quit()
}

// Run publishes everything, then serves BlueZ until ctx is done, the
// timeout elapses, Close is called, the agent is released, or BlueZ
// rejects a registration. It withdraws everything before returning.
// The returned error is nil for a graceful shutdown.
func (p *Peripheral) Run(ctx context.Context) error {
	if p.ran {
		return errors.New("gatt: peripheral already ran")
	}
	p.ran = true

	adapter, err := p.host.FindAdapter(p.adapterPath)
	if err != nil {
		return err
	}
	log := p.log.WithField("adapter", adapter)
	if p.powerOn {
		if err := p.host.PowerOn(adapter); err != nil {
			log.WithError(err).Warn("could not power on adapter")
		}
	}

	p.reg = NewRegistrationClient(p.host, p.loop, adapter,
		OnRegistrationFailure(p.fail),
		RegistrationLogger(p.log),
		RegistrationMetrics(p.metrics))
	defer p.shutdown()

	if p.agent != nil {
		p.agent.HandleRelease(p.loop.Quit)
		if err := p.export(p.agent); err != nil {
			return p.abort(fmt.Errorf("export agent: %w", err))
		}
		if err := p.host.RegisterAgent(p.agent.Path(), p.agent.Capability()); err != nil {
			return p.abort(fmt.Errorf("register agent: %w", err))
		}
		p.agentRegistered = true
		log.WithField("path", p.agent.Path()).Info("pairing agent registered")
	}

	p.app.Seal()
	if err := p.export(p.app); err != nil {
		return p.abort(fmt.Errorf("export application: %w", err))
	}
	p.reg.RegisterApplication(p.app)

	if err := p.export(p.ad); err != nil {
		return p.abort(fmt.Errorf("export advertisement: %w", err))
	}
	if err := p.reg.RegisterAdvertisement(p.ad); err != nil {
		return p.abort(err)
	}

	events := make(chan ConnectionEvent, 16)
	if p.stopWatch, err = p.host.WatchConnections(events); err != nil {
		log.WithError(err).Warn("connection state will not be tracked")
		p.stopWatch = nil
	} else {
		go p.forward(events)
	}

	for _, n := range p.notifiers {
		n.Start(p.loop)
	}
	if p.timeout > 0 {
		p.loop.After(p.timeout, p.loop.Quit)
	}

	log.WithField("timeout", p.timeout).Info("peripheral running")
	if err := p.loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return p.abort(err)
	}
	return p.err
}

func (p *Peripheral) export(o Object) error {
	if err := p.host.Export(o, p.loop); err != nil {
		return err
	}
	p.exported = append(p.exported, o)
	return nil
}

func (p *Peripheral) forward(events <-chan ConnectionEvent) {
	for {
		select {
		case ev := <-events:
			p.loop.Post(func() { p.setConnection(ev) })
		case <-p.loop.Done():
			return
		}
	}
}

// abort records err as the reason Run gave up before serving.
func (p *Peripheral) abort(err error) error {
	if p.err == nil {
		p.err = err
	}
	return err
}

// fail records the first fatal error and stops the loop. It runs on the loop.
func (p *Peripheral) fail(err error) {
	if p.err == nil {
		p.err = err
	}
	p.loop.Quit()
}

func (p *Peripheral) setConnection(ev ConnectionEvent) {
	s := Disconnected
	if ev.Connected {
		s = Connected
	}
	p.statemu.Lock()
	p.state = s
	p.statemu.Unlock()

	p.metrics.connection(s)
	p.log.WithFields(logrus.Fields{"device": ev.Device, "state": s}).Info("connection state changed")
	switch {
	case ev.Connected && p.deviceConnected != nil:
		p.deviceConnected(ev.Device)
	case !ev.Connected && p.deviceDisconnected != nil:
		p.deviceDisconnected(ev.Device)
	}
}

// shutdown withdraws everything Run published. Failures are logged and
// never stop the remaining steps.
func (p *Peripheral) shutdown() {
	p.loop.Quit()
	for _, n := range p.notifiers {
		n.Stop()
	}
	if p.stopWatch != nil {
		p.stopWatch()
	}
	if err := p.reg.UnregisterAdvertisement(); err != nil {
		p.log.WithError(err).Warn("could not unregister advertisement")
	}
	if err := p.reg.UnregisterApplication(); err != nil {
		p.log.WithError(err).Warn("could not unregister application")
	}
	if p.agentRegistered {
		if err := p.host.UnregisterAgent(p.agent.Path()); err != nil {
			p.log.WithError(err).Warn("could not unregister agent")
		}
	}
	for i := len(p.exported) - 1; i >= 0; i-- {
		p.host.Unexport(p.exported[i])
	}
	p.exported = nil
	p.log.Info("peripheral stopped")
	if p.closed != nil {
		p.closed(p.err)
	}
}
