// Package gamepad implements a HID-backed gamepad as an input device.
// Update decodes the most recent input report into button and axis state
// and emits change events.
package gamepad

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/seagrayinc/inputdev/pkg/device"
	"github.com/seagrayinc/inputdev/pkg/hid"
)

// eventBuffer is the capacity of the event channel. Events are dropped when
// the consumer falls this far behind.
const eventBuffer = 64

// Gamepad is a HID gamepad identified by VID/PID.
type Gamepad struct {
	device.State

	VendorID  uint16
	ProductID uint16

	// Manager opens the HID handle. Defaults to the OS manager; tests
	// substitute one backed by a mock device.
	Manager hid.Manager

	mu     sync.Mutex
	latest *ReportState

	state  ReportState
	events chan Event
	dev    hid.Device
	cancel context.CancelFunc
}

// New returns a gamepad for the given vendor and product ID. The device
// starts closed; call Open before polling.
func New(vendorID, productID uint16) *Gamepad {
	return &Gamepad{
		State:     device.NewState(fmt.Sprintf("gamepad %04x:%04x", vendorID, productID)),
		VendorID:  vendorID,
		ProductID: productID,
		events:    make(chan Event, eventBuffer),
	}
}

// Open acquires the HID handle and starts reading input reports. The most
// recent report is kept until the next Update consumes it.
func (g *Gamepad) Open(ctx context.Context) error {
	if g.IsOpen() {
		return fmt.Errorf("%s: already open", g.Name())
	}

	mgr := g.Manager
	if mgr == nil {
		m, err := hid.NewManager()
		if err != nil {
			return err
		}
		mgr = m
	}

	dev, err := mgr.OpenVIDPID(g.VendorID, g.ProductID)
	if err != nil {
		return fmt.Errorf("open %s: %w", g.Name(), err)
	}

	pollCtx, cancel := context.WithCancel(ctx)
	g.dev = dev
	g.cancel = cancel
	g.SetOpen(true)

	reports := dev.PollReports(pollCtx)
	go func() {
		for r := range reports {
			rs, err := DecodeReport(r)
			if err != nil {
				slog.Warn("dropping report",
					slog.String("device", g.Name()),
					slog.Any("error", err))
				continue
			}

			g.mu.Lock()
			g.latest = &rs
			g.mu.Unlock()
		}
	}()

	return nil
}

// Close stops report polling and releases the HID handle. Closing a device
// that is not open is a no-op.
func (g *Gamepad) Close() error {
	if !g.IsOpen() {
		return nil
	}

	g.cancel()
	err := g.dev.Close()
	g.dev = nil
	g.SetOpen(false)
	return err
}

// Update consumes the most recent input report, diffs it against the state
// from the previous Update, and emits the resulting events. It fails if the
// device is not open.
func (g *Gamepad) Update() error {
	if err := g.State.Update(); err != nil {
		return err
	}

	g.mu.Lock()
	latest := g.latest
	g.latest = nil
	g.mu.Unlock()

	if latest == nil {
		return nil
	}

	g.emitDiff(g.state, *latest)
	g.state = *latest
	return nil
}

// Events returns the event channel. Events are emitted during Update.
func (g *Gamepad) Events() <-chan Event {
	return g.events
}

// Pressed reports whether the given button was down as of the last Update.
func (g *Gamepad) Pressed(button int) bool {
	if button < 0 || button >= ButtonCount {
		return false
	}
	return g.state.Buttons&(1<<button) != 0
}

// Axes returns the stick position as of the last Update.
func (g *Gamepad) Axes() (x, y int8) {
	return g.state.X, g.state.Y
}

// SetRumble sends a rumble output report with the given motor strengths.
// It fails if the device is not open.
func (g *Gamepad) SetRumble(ctx context.Context, strong, weak byte) error {
	if !g.IsOpen() {
		return fmt.Errorf("%s: %w", g.Name(), device.ErrNotOpen)
	}
	return g.dev.WriteReport(ctx, hid.Report{
		ID:   OutputReportID,
		Data: []byte{strong, weak},
	})
}

func (g *Gamepad) emitDiff(prev, next ReportState) {
	changed := prev.Buttons ^ next.Buttons
	for i := 0; i < ButtonCount; i++ {
		mask := uint16(1) << i
		if changed&mask == 0 {
			continue
		}
		kind := ButtonReleased
		if next.Buttons&mask != 0 {
			kind = ButtonPressed
		}
		g.emit(Event{Kind: kind, Button: i})
	}

	if prev.X != next.X || prev.Y != next.Y {
		g.emit(Event{Kind: AxisMoved, X: next.X, Y: next.Y})
	}
}

func (g *Gamepad) emit(ev Event) {
	select {
	case g.events <- ev:
	default:
		slog.Warn("event buffer full, dropping event", slog.String("device", g.Name()))
	}
}
