// Package device defines the contract shared by all input devices: an
// open/closed flag, an enabled flag, a polling delay, and a guarded Update
// that fails when the device has not been opened.
package device

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotOpen is returned by Update when the device's underlying hardware
// handle has not been acquired. Callers test for it with errors.Is.
var ErrNotOpen = errors.New("device is not open")

// Device is implemented by every input device. Open acquires the underlying
// hardware handle and Close releases it. Update polls the device for new
// input and fails if the device is not open.
type Device interface {
	Name() string
	IsOpen() bool
	Open(ctx context.Context) error
	Close() error
	Update() error
}

// State holds the base state shared by all input devices. Concrete devices
// embed it and flip the open flag from their Open and Close via SetOpen.
type State struct {
	// Delay is the interval the poller waits between updates. Zero means
	// poll as fast as the transport allows.
	Delay time.Duration

	// Enabled gates polling. A disabled device is skipped by the poller;
	// Update itself does not check it.
	Enabled bool

	name string
	open bool
}

// NewState returns base state for a device with the given name. The device
// starts closed and enabled with no polling delay.
func NewState(name string) State {
	return State{
		Enabled: true,
		name:    name,
	}
}

func (s *State) Name() string { return s.name }

// IsOpen reports whether the underlying hardware handle has been acquired.
func (s *State) IsOpen() bool { return s.open }

// SetOpen records the result of an Open or Close. Only the embedding device
// should call it.
func (s *State) SetOpen(open bool) { s.open = open }

// Update fails when the device is not open and otherwise does nothing.
// Concrete devices call it first and then do their own polling work.
func (s *State) Update() error {
	if !s.open {
		return fmt.Errorf("%s: %w", s.name, ErrNotOpen)
	}
	return nil
}

func (s *State) base() *State { return s }
