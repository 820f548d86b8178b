// Package keyboard implements a HID boot-protocol keyboard as an input
// device. Update diffs consecutive input reports into key press and
// release events.
package keyboard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/seagrayinc/inputdev/pkg/device"
	"github.com/seagrayinc/inputdev/pkg/hid"
)

const eventBuffer = 64

// EventKind discriminates keyboard events.
type EventKind int

const (
	KeyPressed EventKind = iota
	KeyReleased
)

// Event is a single key state change. Code is the HID usage code; modifier
// keys use their usage codes in the 0xE0..0xE7 range.
type Event struct {
	Kind EventKind
	Code byte
}

// Keyboard is a HID boot-protocol keyboard identified by VID/PID.
type Keyboard struct {
	device.State

	VendorID  uint16
	ProductID uint16

	// Manager opens the HID handle. Defaults to the OS manager.
	Manager hid.Manager

	mu     sync.Mutex
	latest *bootReport

	state   bootReport
	pressed [256]bool
	events  chan Event
	dev     hid.Device
	cancel  context.CancelFunc
}

// New returns a keyboard for the given vendor and product ID.
func New(vendorID, productID uint16) *Keyboard {
	return &Keyboard{
		State:     device.NewState(fmt.Sprintf("keyboard %04x:%04x", vendorID, productID)),
		VendorID:  vendorID,
		ProductID: productID,
		events:    make(chan Event, eventBuffer),
	}
}

// Open acquires the HID handle and starts reading input reports.
func (k *Keyboard) Open(ctx context.Context) error {
	if k.IsOpen() {
		return fmt.Errorf("%s: already open", k.Name())
	}

	mgr := k.Manager
	if mgr == nil {
		m, err := hid.NewManager()
		if err != nil {
			return err
		}
		mgr = m
	}

	dev, err := mgr.OpenVIDPID(k.VendorID, k.ProductID)
	if err != nil {
		return fmt.Errorf("open %s: %w", k.Name(), err)
	}

	pollCtx, cancel := context.WithCancel(ctx)
	k.dev = dev
	k.cancel = cancel
	k.SetOpen(true)

	reports := dev.PollReports(pollCtx)
	go func() {
		for r := range reports {
			br, err := decodeBootReport(r.Data)
			if err != nil {
				slog.Warn("dropping report",
					slog.String("device", k.Name()),
					slog.Any("error", err))
				continue
			}

			k.mu.Lock()
			k.latest = &br
			k.mu.Unlock()
		}
	}()

	return nil
}

// Close stops report polling and releases the HID handle.
func (k *Keyboard) Close() error {
	if !k.IsOpen() {
		return nil
	}

	k.cancel()
	err := k.dev.Close()
	k.dev = nil
	k.SetOpen(false)
	return err
}

// Update consumes the most recent input report and emits press and release
// events for every key whose state changed. It fails if the device is not
// open. A rollover report leaves key state untouched.
func (k *Keyboard) Update() error {
	if err := k.State.Update(); err != nil {
		return err
	}

	k.mu.Lock()
	latest := k.latest
	k.latest = nil
	k.mu.Unlock()

	if latest == nil {
		return nil
	}
	if latest.rollover() {
		slog.Debug("rollover report ignored", slog.String("device", k.Name()))
		return nil
	}

	for _, ev := range diffReports(k.state, *latest) {
		k.pressed[ev.Code] = ev.Kind == KeyPressed
		k.emit(ev)
	}
	k.state = *latest
	return nil
}

// Events returns the event channel. Events are emitted during Update.
func (k *Keyboard) Events() <-chan Event {
	return k.events
}

// IsPressed reports whether the key with the given usage code was down as
// of the last Update.
func (k *Keyboard) IsPressed(code byte) bool {
	return k.pressed[code]
}

// SetLEDs sends an output report updating the keyboard LED state (caps
// lock, num lock and so on). It fails if the device is not open.
func (k *Keyboard) SetLEDs(ctx context.Context, leds byte) error {
	if !k.IsOpen() {
		return fmt.Errorf("%s: %w", k.Name(), device.ErrNotOpen)
	}
	return k.dev.WriteReport(ctx, hid.Report{
		ID:   OutputReportID,
		Data: []byte{leds},
	})
}

func (k *Keyboard) emit(ev Event) {
	select {
	case k.events <- ev:
	default:
		slog.Warn("event buffer full, dropping event", slog.String("device", k.Name()))
	}
}
