package device

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingDevice struct {
	State
	updates atomic.Int32
	fail    atomic.Bool
}

func newCountingDevice() *countingDevice {
	return &countingDevice{State: NewState("counting")}
}

func (d *countingDevice) Open(_ context.Context) error {
	d.SetOpen(true)
	return nil
}

func (d *countingDevice) Close() error {
	d.SetOpen(false)
	return nil
}

func (d *countingDevice) Update() error {
	if err := d.State.Update(); err != nil {
		return err
	}
	if d.fail.Load() {
		return errors.New("poll failed")
	}
	d.updates.Add(1)
	return nil
}

func TestPollerUpdates(t *testing.T) {
	d := newCountingDevice()
	d.Delay = time.Millisecond
	if err := d.Open(context.Background()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errc := NewPoller(d).Run(ctx)

	waitFor(t, time.Second, func() bool { return d.updates.Load() >= 3 })

	cancel()
	for range errc {
		// drain until close
	}
}

func TestPollerSurfacesErrors(t *testing.T) {
	d := newCountingDevice()
	d.Delay = time.Millisecond

	// Never opened: every update fails with ErrNotOpen but the loop must
	// keep running.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := NewPoller(d).Run(ctx)

	for i := 0; i < 3; i++ {
		select {
		case err, ok := <-errc:
			if !ok {
				t.Fatal("error channel closed early")
			}
			if !errors.Is(err, ErrNotOpen) {
				t.Fatalf("expected ErrNotOpen, got %v", err)
			}
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for poller error")
		}
	}
}

func TestPollerSkipsDisabled(t *testing.T) {
	d := newCountingDevice()
	d.Delay = time.Millisecond
	d.Enabled = false
	if err := d.Open(context.Background()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := NewPoller(d)
	p.IdleDelay = time.Millisecond
	errc := p.Run(ctx)

	time.Sleep(20 * time.Millisecond)
	if n := d.updates.Load(); n != 0 {
		t.Fatalf("disabled device was polled %d times", n)
	}

	cancel()
	select {
	case _, ok := <-errc:
		if ok {
			t.Fatal("unexpected error from disabled device")
		}
	case <-time.After(time.Second):
		t.Fatal("error channel did not close after cancel")
	}
}

func TestPollerStopsOnCancel(t *testing.T) {
	d := newCountingDevice()
	d.Delay = time.Millisecond
	if err := d.Open(context.Background()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errc := NewPoller(d).Run(ctx)
	cancel()

	select {
	case _, ok := <-errc:
		if ok {
			t.Fatal("expected channel close, got error")
		}
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancel")
	}
}
