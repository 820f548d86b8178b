//go:build linux

package evdev

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/jochenvg/go-udev"
)

// Info describes an input event node found via udev.
type Info struct {
	Syspath string
	Node    string // /dev/input/eventN
	Name    string
}

// List enumerates input-subsystem devices that expose an event node.
func List() ([]Info, error) {
	u := udev.Udev{}
	e := u.NewEnumerate()
	if err := e.AddMatchSubsystem("input"); err != nil {
		return nil, err
	}

	devs, err := e.Devices()
	if err != nil {
		return nil, err
	}

	var out []Info
	for _, d := range devs {
		node := d.Devnode()
		if !isEventNode(node) {
			continue
		}
		out = append(out, Info{
			Syspath: d.Syspath(),
			Node:    node,
			Name:    strings.Trim(d.PropertyValue("NAME"), `"`),
		})
	}
	return out, nil
}

func isEventNode(node string) bool {
	return node != "" && strings.HasPrefix(filepath.Base(node), "event")
}

// Driver matches udev devices and binds matching event nodes.
type Driver interface {
	Name() string
	Match(d *udev.Device) bool
	Bind(node string) *Device
}

// Monitor watches the input subsystem for hotplug events and hands each
// added event node to the first matching driver. The returned channel
// carries bound (not yet opened) devices and closes when the context is
// canceled.
func Monitor(ctx context.Context, drivers []Driver) (<-chan *Device, error) {
	u := udev.Udev{}
	m := u.NewMonitorFromNetlink("udev")

	ch, err := m.DeviceChan(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan *Device)
	go func() {
		defer close(out)
		for d := range ch {
			if d.Subsystem() != "input" || d.Action() != "add" {
				continue
			}
			node := d.Devnode()
			if !isEventNode(node) {
				continue
			}

			for _, drv := range drivers {
				if !drv.Match(d) {
					continue
				}
				slog.Info("input device added",
					slog.String("driver", drv.Name()),
					slog.String("node", node))

				select {
				case out <- drv.Bind(node):
				case <-ctx.Done():
					return
				}
				break
			}
		}
	}()
	return out, nil
}
