package device

import (
	"context"
	"log/slog"
	"time"
)

// defaultIdleDelay is how long the poller waits before re-checking a
// disabled device.
const defaultIdleDelay = 100 * time.Millisecond

// Pollable is the view of a device the poller needs: the full Device
// contract plus access to the shared base state for Delay and Enabled.
// Any type embedding State satisfies it.
type Pollable interface {
	Device
	base() *State
}

// Poller drives a device's Update in a loop, waiting the device's Delay
// between updates. A disabled device is skipped, not failed.
type Poller struct {
	// IdleDelay is how long to wait before re-checking a disabled device.
	// Defaults to 100ms.
	IdleDelay time.Duration

	dev Pollable
}

// NewPoller returns a poller for the given device.
func NewPoller(dev Pollable) *Poller {
	return &Poller{dev: dev}
}

// Run starts the polling loop in a goroutine. Update errors are emitted on
// the returned channel; the loop keeps running after an error. The channel
// closes when the context is canceled.
func (p *Poller) Run(ctx context.Context) <-chan error {
	idle := p.IdleDelay
	if idle <= 0 {
		idle = defaultIdleDelay
	}

	errc := make(chan error)
	go func() {
		defer close(errc)
		for {
			if ctx.Err() != nil {
				return
			}

			st := p.dev.base()
			wait := st.Delay
			if !st.Enabled {
				wait = idle
			} else if err := p.dev.Update(); err != nil {
				slog.Warn("device update failed",
					slog.String("device", p.dev.Name()),
					slog.Any("error", err))
				select {
				case errc <- err:
				case <-ctx.Done():
					return
				}
			}

			if wait <= 0 {
				continue
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
		}
	}()
	return errc
}
