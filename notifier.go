package gatt

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// A Notifier periodically recomputes a characteristic's value and
// pushes it to the subscribed central. The value is recomputed on every
// tick whether or not anyone listens; it is only emitted while the
// characteristic is notifying. A failed emission is logged, never retried.
type Notifier struct {
	char     *Characteristic
	interval time.Duration
	next     func() []byte

	log     logrus.FieldLogger
	metrics *Metrics

	stopmu sync.Mutex
	stop   func()
}

// NewNotifier returns a notifier that calls next every interval.
func NewNotifier(c *Characteristic, interval time.Duration, next func() []byte) *Notifier {
	return &Notifier{
		char:     c,
		interval: interval,
		next:     next,
		log:      logrus.StandardLogger(),
	}
}

// Characteristic returns the characteristic the notifier drives.
func (n *Notifier) Characteristic() *Characteristic { return n.char }

// Interval returns the tick period.
func (n *Notifier) Interval() time.Duration { return n.interval }

// Tick computes the next value, stores it and emits it if the
// characteristic is notifying. It reports whether a notification went out.
// Tick must run on the loop that owns the characteristic.
func (n *Notifier) Tick() bool {
	v := n.next()
	sent, err := n.char.Notify(v)
	switch {
	case err != nil:
		n.log.WithError(err).WithField("path", n.char.Path()).Warn("notification failed")
		n.metrics.notification("failed")
	case sent:
		n.metrics.notification("sent")
	default:
		n.metrics.notification("skipped")
	}
	return sent
}

// Start arms the repeating timer on l.
func (n *Notifier) Start(l *Loop) {
	n.stopmu.Lock()
	defer n.stopmu.Unlock()
	if n.stop != nil {
		return
	}
	n.stop = l.Every(n.interval, func() { n.Tick() })
}

// Stop disarms the timer. It is safe to call more than once.
func (n *Notifier) Stop() {
	n.stopmu.Lock()
	defer n.stopmu.Unlock()
	if n.stop != nil {
		n.stop()
		n.stop = nil
	}
}
