//go:build linux

// Package evdev exposes Linux evdev input nodes through the device
// contract, with udev-based discovery and hotplug.
package evdev

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	evdev "github.com/gvalkov/golang-evdev"

	"github.com/seagrayinc/inputdev/pkg/device"
)

const eventBuffer = 256

// Device wraps an evdev node (/dev/input/eventN) as an input device.
// Update drains kernel events accumulated since the previous Update onto
// the Events channel.
type Device struct {
	device.State

	Node string

	mu      sync.Mutex
	pending []evdev.InputEvent

	events chan evdev.InputEvent
	dev    *evdev.InputDevice
	cancel context.CancelFunc
}

// NewDevice returns a device for the given event node.
func NewDevice(node string) *Device {
	return &Device{
		State:  device.NewState(filepath.Base(node)),
		Node:   node,
		events: make(chan evdev.InputEvent, eventBuffer),
	}
}

// Open opens the event node and starts reading kernel events.
func (d *Device) Open(ctx context.Context) error {
	if d.IsOpen() {
		return fmt.Errorf("%s: already open", d.Name())
	}

	ed, err := evdev.Open(d.Node)
	if err != nil {
		return fmt.Errorf("open %s: %w", d.Node, err)
	}

	readCtx, cancel := context.WithCancel(ctx)
	d.dev = ed
	d.cancel = cancel
	d.SetOpen(true)

	go d.readLoop(readCtx)
	return nil
}

// Close stops the read loop and releases the event node.
func (d *Device) Close() error {
	if !d.IsOpen() {
		return nil
	}

	d.cancel()
	err := d.dev.File.Close()
	d.dev = nil
	d.SetOpen(false)
	return err
}

// Update moves events read since the previous Update onto the Events
// channel. It fails if the device is not open.
func (d *Device) Update() error {
	if err := d.State.Update(); err != nil {
		return err
	}

	d.mu.Lock()
	pending := d.pending
	d.pending = nil
	d.mu.Unlock()

	for _, ev := range pending {
		select {
		case d.events <- ev:
		default:
			slog.Warn("event buffer full, dropping event", slog.String("device", d.Name()))
		}
	}
	return nil
}

// Events returns the event channel. Events are emitted during Update.
func (d *Device) Events() <-chan evdev.InputEvent {
	return d.events
}

func (d *Device) readLoop(ctx context.Context) {
	for {
		ev, err := d.dev.ReadOne()
		if err != nil {
			if ctx.Err() == nil {
				slog.Info("evdev read failed",
					slog.String("device", d.Name()),
					slog.Any("error", err))
			}
			return
		}
		if ctx.Err() != nil {
			return
		}

		d.mu.Lock()
		d.pending = append(d.pending, *ev)
		d.mu.Unlock()
	}
}
