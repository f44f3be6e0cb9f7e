package gatt

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runLoop(t *testing.T) (*Loop, context.CancelFunc) {
	t.Helper()
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-l.Done()
	})
	return l, cancel
}

func TestLoopRunsInOrder(t *testing.T) {
	l, _ := runLoop(t)
	var got []int
	for i := 0; i < 5; i++ {
		i := i
		require.True(t, l.Post(func() { got = append(got, i) }))
	}
	require.NoError(t, l.Call(func() error { return nil }))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestLoopCallReturnsError(t *testing.T) {
	l, _ := runLoop(t)
	boom := errors.New("boom")
	assert.Equal(t, boom, l.Call(func() error { return boom }))
}

func TestLoopQuit(t *testing.T) {
	l := NewLoop()
	done := make(chan error, 1)
	go func() { done <- l.Run(context.Background()) }()

	require.True(t, l.Post(l.Quit))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("loop did not quit")
	}
	l.Quit()
	assert.False(t, l.Post(func() {}))
	assert.Equal(t, ErrLoopClosed, l.Call(func() error { return nil }))
}

func TestLoopContextCanceled(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, l.Run(ctx), context.Canceled)
	assert.Equal(t, ErrLoopClosed, l.Call(func() error { return nil }))
}

func TestLoopAfter(t *testing.T) {
	l, _ := runLoop(t)
	fired := make(chan struct{})
	l.After(10*time.Millisecond, func() { close(fired) })
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("After did not fire")
	}

	stop := l.After(time.Hour, func() { t.Error("canceled timer fired") })
	assert.True(t, stop())
}

func TestLoopEvery(t *testing.T) {
	l, _ := runLoop(t)
	ticks := 0
	reached := make(chan struct{})
	stop := l.Every(5*time.Millisecond, func() {
		ticks++
		if ticks == 3 {
			close(reached)
		}
	})
	select {
	case <-reached:
	case <-time.After(time.Second):
		t.Fatal("Every did not tick three times")
	}
	stop()
	stop()
}
