package device

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// fakeDevice is the minimal concrete device: Open/Close flip the flag and
// Update counts successful polls.
type fakeDevice struct {
	State
	updates int
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{State: NewState("fake")}
}

func (d *fakeDevice) Open(_ context.Context) error {
	d.SetOpen(true)
	return nil
}

func (d *fakeDevice) Close() error {
	d.SetOpen(false)
	return nil
}

func (d *fakeDevice) Update() error {
	if err := d.State.Update(); err != nil {
		return err
	}
	d.updates++
	return nil
}

func TestNewStateDefaults(t *testing.T) {
	d := newFakeDevice()

	if d.IsOpen() {
		t.Fatal("fresh device reports open")
	}
	if !d.Enabled {
		t.Fatal("fresh device is not enabled")
	}
	if d.Delay != 0 {
		t.Fatalf("fresh device has non-zero delay: %v", d.Delay)
	}
	if d.Name() != "fake" {
		t.Fatalf("unexpected name: %q", d.Name())
	}
}

func TestUpdateNotOpen(t *testing.T) {
	d := newFakeDevice()

	err := d.Update()
	if err == nil {
		t.Fatal("expected error from Update on a closed device")
	}
	if !errors.Is(err, ErrNotOpen) {
		t.Fatalf("expected ErrNotOpen, got %v", err)
	}
	if !strings.Contains(err.Error(), "not open") {
		t.Fatalf("diagnostic missing from error: %v", err)
	}
	if d.updates != 0 {
		t.Fatalf("Update mutated state on failure: %d updates", d.updates)
	}

	// Failure is deterministic, not one-shot.
	if err := d.Update(); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("second Update did not fail with ErrNotOpen: %v", err)
	}
}

func TestUpdateOpen(t *testing.T) {
	d := newFakeDevice()
	if err := d.Open(context.Background()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if err := d.Update(); err != nil {
		t.Fatalf("Update on an open device failed: %v", err)
	}
	if d.updates != 1 {
		t.Fatalf("expected 1 update, got %d", d.updates)
	}
}

func TestLifecycle(t *testing.T) {
	d := newFakeDevice()

	if d.IsOpen() {
		t.Fatal("device open before Open")
	}
	if err := d.Update(); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("expected ErrNotOpen before Open, got %v", err)
	}

	if err := d.Open(context.Background()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if !d.IsOpen() {
		t.Fatal("device not open after Open")
	}
	if err := d.Update(); err != nil {
		t.Fatalf("Update after Open failed: %v", err)
	}

	if err := d.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if d.IsOpen() {
		t.Fatal("device still open after Close")
	}
	if err := d.Update(); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("expected ErrNotOpen after Close, got %v", err)
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
