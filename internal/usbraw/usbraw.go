// Package usbraw provides a raw bulk-endpoint transport for devices whose
// HID interface cannot be claimed (kernel driver bound, vendor-specific
// interfaces, and the like).
package usbraw

import (
	"fmt"
	"time"

	"github.com/karalabe/usb"
)

// Device is a USB device opened for bulk transfer.
type Device struct {
	dev      usb.Device
	readSize int
}

// Open finds and opens the first device matching VID/PID.
func Open(vendorID, productID uint16) (*Device, error) {
	infos, err := usb.Enumerate(vendorID, productID)
	if err != nil {
		return nil, fmt.Errorf("usb enumerate: %w", err)
	}
	if len(infos) == 0 {
		return nil, fmt.Errorf("device not found (VID:0x%04X PID:0x%04X)", vendorID, productID)
	}

	dev, err := infos[0].Open()
	if err != nil {
		return nil, fmt.Errorf("open device: %w", err)
	}

	return &Device{
		dev:      dev,
		readSize: 64,
	}, nil
}

// Close releases the device.
func (d *Device) Close() error {
	return d.dev.Close()
}

// Send writes a frame to the OUT endpoint and reads the response from the
// IN endpoint. The read buffer is sized to the larger of the written frame
// and the endpoint packet size. The timeout is advisory: karalabe/usb
// reads synchronously with an internal timeout of its own.
func (d *Device) Send(frame []byte, _ time.Duration) ([]byte, error) {
	n, err := d.dev.Write(frame)
	if err != nil {
		return nil, fmt.Errorf("usb write: %w", err)
	}

	readLen := len(frame)
	if readLen < d.readSize {
		readLen = d.readSize
	}
	buf := make([]byte, readLen)

	m, err := d.dev.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("usb read: %w (wrote %d bytes)", err, n)
	}

	return buf[:m], nil
}
