package gamepad

import (
	"encoding/binary"
	"fmt"

	"github.com/seagrayinc/inputdev/pkg/hid"
)

const (
	// InputReportID carries button and axis state.
	InputReportID = 0x01

	// OutputReportID carries rumble motor strengths.
	OutputReportID = 0x02

	// ButtonCount is the number of buttons in the input report bitmap.
	ButtonCount = 16
)

// EventKind discriminates gamepad events.
type EventKind int

const (
	ButtonPressed EventKind = iota
	ButtonReleased
	AxisMoved
)

func (k EventKind) String() string {
	switch k {
	case ButtonPressed:
		return "pressed"
	case ButtonReleased:
		return "released"
	case AxisMoved:
		return "axis"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is a single state change observed between two updates.
type Event struct {
	Kind   EventKind
	Button int  // button index for ButtonPressed/ButtonReleased
	X, Y   int8 // stick position for AxisMoved
}

// ReportState is the decoded form of one input report: a 16-bit button
// bitmap followed by signed X and Y axis positions.
type ReportState struct {
	Buttons uint16
	X, Y    int8
}

// DecodeReport decodes a gamepad input report.
func DecodeReport(r hid.Report) (ReportState, error) {
	if r.ID != InputReportID {
		return ReportState{}, fmt.Errorf("unexpected report id 0x%02X", r.ID)
	}
	if len(r.Data) < 4 {
		return ReportState{}, fmt.Errorf("short report: %d bytes", len(r.Data))
	}
	return ReportState{
		Buttons: binary.LittleEndian.Uint16(r.Data[0:2]),
		X:       int8(r.Data[2]),
		Y:       int8(r.Data[3]),
	}, nil
}
