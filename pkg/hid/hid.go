// Package hid provides report-oriented access to USB HID devices with
// OS-specific backends.
package hid

import "context"

// Report is a single HID report. Data holds the payload without the leading
// report ID.
type Report struct {
	ID   byte
	Data []byte
}

// Bytes returns the on-wire form: report ID followed by the payload.
func (r Report) Bytes() []byte {
	b := make([]byte, len(r.Data)+1)
	b[0] = r.ID
	copy(b[1:], r.Data)
	return b
}

// Device represents an opened HID device capable of report I/O.
type Device interface {
	// WriteReport sends an output report to the device.
	WriteReport(ctx context.Context, r Report) error

	// PollReports starts a goroutine that reads input reports from the
	// device and emits them on the returned channel. The channel closes
	// when the context is canceled or the device stops producing reports.
	PollReports(ctx context.Context) <-chan Report

	Close() error
}

// Info describes an enumerated HID device.
type Info struct {
	Path         string
	VendorID     uint16
	ProductID    uint16
	Product      string
	Manufacturer string
}

// Manager enumerates and opens HID devices.
type Manager interface {
	List() ([]Info, error)
	Open(info Info) (Device, error)
	OpenVIDPID(vendorID, productID uint16) (Device, error)
}

// NewManager returns the OS-specific HID manager.
func NewManager() (Manager, error) {
	return newManager()
}
