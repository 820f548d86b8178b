//go:build windows

package hid

import (
	"context"
	"fmt"
	"log/slog"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Windows HID implementation using pure Go syscalls (no CGO). It calls the
// SetupAPI for enumeration and hid.dll plus file I/O for report transfer.

var (
	hidDLL   = windows.NewLazySystemDLL("hid.dll")
	setupapi = windows.NewLazySystemDLL("setupapi.dll")

	procHidD_GetHidGuid                  = hidDLL.NewProc("HidD_GetHidGuid")
	procHidD_GetAttributes               = hidDLL.NewProc("HidD_GetAttributes")
	procHidD_GetProductString            = hidDLL.NewProc("HidD_GetProductString")
	procHidD_GetManufacturerString       = hidDLL.NewProc("HidD_GetManufacturerString")
	procHidD_GetPreparsedData            = hidDLL.NewProc("HidD_GetPreparsedData")
	procHidD_FreePreparsedData           = hidDLL.NewProc("HidD_FreePreparsedData")
	procHidP_GetCaps                     = hidDLL.NewProc("HidP_GetCaps")
	procSetupDiGetClassDevsW             = setupapi.NewProc("SetupDiGetClassDevsW")
	procSetupDiEnumDeviceInterfaces      = setupapi.NewProc("SetupDiEnumDeviceInterfaces")
	procSetupDiGetDeviceInterfaceDetailW = setupapi.NewProc("SetupDiGetDeviceInterfaceDetailW")
	procSetupDiDestroyDeviceInfoList     = setupapi.NewProc("SetupDiDestroyDeviceInfoList")
)

const (
	digcfPresent         = 0x00000002
	digcfDeviceInterface = 0x00000010
	invalidHandleValue   = ^uintptr(0)
)

type guid struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

type hiddAttributes struct {
	Size          uint32
	VendorID      uint16
	ProductID     uint16
	VersionNumber uint16
}

type spDeviceInterfaceData struct {
	CbSize             uint32
	InterfaceClassGuid guid
	Flags              uint32
	Reserved           uintptr
}

type spDeviceInterfaceDetailData struct {
	CbSize     uint32
	DevicePath [1]uint16 // variable length
}

type hidpCaps struct {
	Usage                     uint16
	UsagePage                 uint16
	InputReportByteLength     uint16
	OutputReportByteLength    uint16
	FeatureReportByteLength   uint16
	Reserved                  [17]uint16
	NumberLinkCollectionNodes uint16
	NumberInputButtonCaps     uint16
	NumberInputValueCaps      uint16
	NumberInputDataIndices    uint16
	NumberOutputButtonCaps    uint16
	NumberOutputValueCaps     uint16
	NumberOutputDataIndices   uint16
	NumberFeatureButtonCaps   uint16
	NumberFeatureValueCaps    uint16
	NumberFeatureDataIndices  uint16
}

type winManager struct{}

func newManager() (Manager, error) {
	return &winManager{}, nil
}

func (m *winManager) List() ([]Info, error) {
	var hidGuid guid
	procHidD_GetHidGuid.Call(uintptr(unsafe.Pointer(&hidGuid)))

	devInfo, _, err := procSetupDiGetClassDevsW.Call(
		uintptr(unsafe.Pointer(&hidGuid)),
		0,
		0,
		digcfPresent|digcfDeviceInterface,
	)
	if devInfo == 0 || devInfo == invalidHandleValue {
		return nil, fmt.Errorf("SetupDiGetClassDevsW failed: %v", err)
	}
	defer procSetupDiDestroyDeviceInfoList.Call(devInfo)

	var devices []Info
	var ifaceData spDeviceInterfaceData
	ifaceData.CbSize = uint32(unsafe.Sizeof(ifaceData))

	for i := uint32(0); ; i++ {
		r, _, _ := procSetupDiEnumDeviceInterfaces.Call(
			devInfo,
			0,
			uintptr(unsafe.Pointer(&hidGuid)),
			uintptr(i),
			uintptr(unsafe.Pointer(&ifaceData)),
		)
		if r == 0 {
			break
		}

		var requiredSize uint32
		procSetupDiGetDeviceInterfaceDetailW.Call(
			devInfo,
			uintptr(unsafe.Pointer(&ifaceData)),
			0,
			0,
			uintptr(unsafe.Pointer(&requiredSize)),
			0,
		)

		detailBuf := make([]byte, requiredSize)
		detail := (*spDeviceInterfaceDetailData)(unsafe.Pointer(&detailBuf[0]))
		// CbSize is sizeof(SP_DEVICE_INTERFACE_DETAIL_DATA), which differs
		// between 32- and 64-bit Windows because of struct padding.
		if unsafe.Sizeof(uintptr(0)) == 8 {
			detail.CbSize = 8
		} else {
			detail.CbSize = 6
		}

		r, _, err = procSetupDiGetDeviceInterfaceDetailW.Call(
			devInfo,
			uintptr(unsafe.Pointer(&ifaceData)),
			uintptr(unsafe.Pointer(detail)),
			uintptr(requiredSize),
			0,
			0,
		)
		if r == 0 {
			continue
		}

		pathPtr := &detail.DevicePath[0]
		path := windows.UTF16PtrToString(pathPtr)

		// Open without access rights just to query the attributes.
		h, err := windows.CreateFile(
			pathPtr,
			0,
			windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE,
			nil,
			windows.OPEN_EXISTING,
			0,
			0,
		)
		if err != nil {
			continue
		}

		var attrs hiddAttributes
		attrs.Size = uint32(unsafe.Sizeof(attrs))
		r, _, _ = procHidD_GetAttributes.Call(uintptr(h), uintptr(unsafe.Pointer(&attrs)))

		var manufacturer, product string
		if r != 0 {
			mfr := make([]uint16, 256)
			procHidD_GetManufacturerString.Call(uintptr(h), uintptr(unsafe.Pointer(&mfr[0])), uintptr(len(mfr)*2))
			manufacturer = windows.UTF16ToString(mfr)

			prod := make([]uint16, 256)
			procHidD_GetProductString.Call(uintptr(h), uintptr(unsafe.Pointer(&prod[0])), uintptr(len(prod)*2))
			product = windows.UTF16ToString(prod)
		}

		windows.CloseHandle(h)

		if r != 0 {
			devices = append(devices, Info{
				Path:         path,
				VendorID:     attrs.VendorID,
				ProductID:    attrs.ProductID,
				Manufacturer: manufacturer,
				Product:      product,
			})
		}
	}

	return devices, nil
}

func (m *winManager) Open(info Info) (Device, error) {
	pathPtr, err := windows.UTF16PtrFromString(info.Path)
	if err != nil {
		return nil, err
	}

	h, err := windows.CreateFile(
		pathPtr,
		windows.GENERIC_READ|windows.GENERIC_WRITE,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE,
		nil,
		windows.OPEN_EXISTING,
		0, // synchronous I/O
		0,
	)
	if err != nil {
		return nil, fmt.Errorf("CreateFile failed: %v", err)
	}

	var preparsed uintptr
	r, _, _ := procHidD_GetPreparsedData.Call(uintptr(h), uintptr(unsafe.Pointer(&preparsed)))
	if r == 0 {
		windows.CloseHandle(h)
		return nil, fmt.Errorf("HidD_GetPreparsedData failed")
	}

	var caps hidpCaps
	r, _, _ = procHidP_GetCaps.Call(preparsed, uintptr(unsafe.Pointer(&caps)))
	procHidD_FreePreparsedData.Call(preparsed)

	const hidpStatusSuccess = 0x00110000
	if r != hidpStatusSuccess {
		windows.CloseHandle(h)
		return nil, fmt.Errorf("HidP_GetCaps failed: 0x%X", r)
	}

	return &winDevice{
		handle:    h,
		path:      info.Path,
		inputLen:  int(caps.InputReportByteLength),
		outputLen: int(caps.OutputReportByteLength),
	}, nil
}

func (m *winManager) OpenVIDPID(vendorID, productID uint16) (Device, error) {
	devs, err := m.List()
	if err != nil {
		return nil, err
	}
	for _, d := range devs {
		if d.VendorID == vendorID && d.ProductID == productID {
			return m.Open(d)
		}
	}
	return nil, fmt.Errorf("device not found (VID:0x%04X PID:0x%04X)", vendorID, productID)
}

type winDevice struct {
	handle    windows.Handle
	path      string
	inputLen  int
	outputLen int
}

func (d *winDevice) WriteReport(_ context.Context, r Report) error {
	// WriteFile performs the interrupt OUT transfer; the buffer must start
	// with the report ID.
	var written uint32
	if err := windows.WriteFile(d.handle, r.Bytes(), &written, nil); err != nil {
		return fmt.Errorf("WriteFile failed: %v", err)
	}
	return nil
}

func (d *winDevice) PollReports(ctx context.Context) <-chan Report {
	out := make(chan Report)

	go func() {
		// ReadFile has no cancellation; closing the handle unblocks it.
		<-ctx.Done()
		_ = d.Close()
	}()

	go func() {
		defer close(out)
		for {
			// ReadFile requires the buffer to match the device's input
			// report length, report ID included.
			var read uint32
			buf := make([]byte, d.inputLen)
			if err := windows.ReadFile(d.handle, buf, &read, nil); err != nil {
				if ctx.Err() == nil {
					slog.Info("reading report failed", slog.Any("error", err))
				}
				return
			}
			if read == 0 {
				continue
			}

			report := Report{
				ID:   buf[0],
				Data: append([]byte(nil), buf[1:read]...),
			}

			select {
			case out <- report:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (d *winDevice) Close() error {
	return windows.CloseHandle(d.handle)
}
