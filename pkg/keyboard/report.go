package keyboard

import "fmt"

const (
	// OutputReportID carries the LED state.
	OutputReportID = 0x02

	// bootReportLen is the fixed size of a boot-protocol input report:
	// modifier byte, reserved byte, six key slots.
	bootReportLen = 8

	// rolloverCode fills every key slot when more keys are held than the
	// report can carry.
	rolloverCode = 0x01

	// modBase is the usage code of the first modifier key (left control).
	// Modifier bit N in the report maps to usage code modBase+N.
	modBase = 0xE0
)

// bootReport is the decoded form of one boot-protocol input report.
type bootReport struct {
	mods byte
	keys [6]byte
}

func decodeBootReport(b []byte) (bootReport, error) {
	if len(b) < bootReportLen {
		return bootReport{}, fmt.Errorf("short report: %d bytes", len(b))
	}
	var r bootReport
	r.mods = b[0]
	copy(r.keys[:], b[2:bootReportLen])
	return r, nil
}

func (r bootReport) rollover() bool {
	return r.keys[0] == rolloverCode
}

func (r bootReport) holds(code byte) bool {
	for _, k := range r.keys {
		if k == code {
			return true
		}
	}
	return false
}

// diffReports returns the events taking prev to next: releases first, then
// presses, modifiers after regular keys.
func diffReports(prev, next bootReport) []Event {
	var events []Event

	for _, code := range prev.keys {
		if code == 0 {
			continue
		}
		if !next.holds(code) {
			events = append(events, Event{Kind: KeyReleased, Code: code})
		}
	}
	for _, code := range next.keys {
		if code == 0 {
			continue
		}
		if !prev.holds(code) {
			events = append(events, Event{Kind: KeyPressed, Code: code})
		}
	}

	changed := prev.mods ^ next.mods
	for i := 0; i < 8; i++ {
		mask := byte(1) << i
		if changed&mask == 0 {
			continue
		}
		kind := KeyReleased
		if next.mods&mask != 0 {
			kind = KeyPressed
		}
		events = append(events, Event{Kind: kind, Code: modBase + byte(i)})
	}

	return events
}
