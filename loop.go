package gatt

import (
	"context"
	"sync"
	"time"
)

// A Loop runs posted functions one at a time on a single goroutine.
// All attribute state is owned by the loop: bus handlers, timers and
// registration completions reach it only through Post or Call.
type Loop struct {
	events chan func()
	quit   chan struct{}
	done   chan struct{}

	quitOnce sync.Once
}

// NewLoop returns a loop that is not yet running.
func NewLoop() *Loop {
	return &Loop{
		events: make(chan func(), 64),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Run executes posted functions until Quit is called or ctx is done.
// It returns ctx.Err() in the latter case.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	for {
		select {
		case f := <-l.events:
			f()
		case <-l.quit:
			return nil
		case <-ctx.Done():
			l.Quit()
			return ctx.Err()
		}
	}
}

// Quit stops the loop. Functions still queued are dropped.
func (l *Loop) Quit() {
	l.quitOnce.Do(func() { close(l.quit) })
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Post queues f and reports whether the loop accepted it.
// Post blocks while the queue is full.
func (l *Loop) Post(f func()) bool {
	select {
	case <-l.quit:
		return false
	default:
	}
	select {
	case l.events <- f:
		return true
	case <-l.quit:
		return false
	}
}

// Call runs f on the loop and waits for its result.
// It must not be called from the loop itself.
func (l *Loop) Call(f func() error) error {
	res := make(chan error, 1)
	if !l.Post(func() { res <- f() }) {
		return ErrLoopClosed
	}
	select {
	case err := <-res:
		return err
	case <-l.quit:
		select {
		case err := <-res:
			return err
		default:
			return ErrLoopClosed
		}
	}
}

// After posts f once d has elapsed. The returned function cancels it.
func (l *Loop) After(d time.Duration, f func()) (stop func() bool) {
	t := time.AfterFunc(d, func() { l.Post(f) })
	return t.Stop
}

// Every posts f every d until stop is called or the loop quits.
// Ticks the loop cannot take in time are dropped, not queued.
func (l *Loop) Every(d time.Duration, f func()) (stop func()) {
	ticker := time.NewTicker(d)
	cancel := make(chan struct{})
	var once sync.Once
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.Post(f)
			case <-cancel:
				return
			case <-l.quit:
				return
			}
		}
	}()
	return func() { once.Do(func() { close(cancel) }) }
}
