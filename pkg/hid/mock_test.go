package hid

import (
	"bytes"
	"context"
	"testing"
	"time"
)

func TestReportBytes(t *testing.T) {
	r := Report{ID: 0x02, Data: []byte{0xAA, 0xBB}}
	want := []byte{0x02, 0xAA, 0xBB}
	if !bytes.Equal(r.Bytes(), want) {
		t.Fatalf("Bytes mismatch: got %v, want %v", r.Bytes(), want)
	}
}

func TestMockDeviceRoundTrip(t *testing.T) {
	m := NewMockDevice()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reports := m.PollReports(ctx)
	go m.Emit(Report{ID: 0x01, Data: []byte{0x10, 0x20}})

	select {
	case r := <-reports:
		if r.ID != 0x01 || !bytes.Equal(r.Data, []byte{0x10, 0x20}) {
			t.Fatalf("unexpected report: %+v", r)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for report")
	}
}

func TestMockDeviceChannelClosesOnCancel(t *testing.T) {
	m := NewMockDevice()

	ctx, cancel := context.WithCancel(context.Background())
	reports := m.PollReports(ctx)
	cancel()

	select {
	case _, ok := <-reports:
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("report channel did not close after cancel")
	}
}

func TestMockDeviceRecordsWrites(t *testing.T) {
	m := NewMockDevice()

	if err := m.WriteReport(context.Background(), Report{ID: 0x02, Data: []byte{0x01}}); err != nil {
		t.Fatalf("WriteReport failed: %v", err)
	}

	written := m.Written()
	if len(written) != 1 {
		t.Fatalf("expected 1 written report, got %d", len(written))
	}
	if written[0].ID != 0x02 || !bytes.Equal(written[0].Data, []byte{0x01}) {
		t.Fatalf("unexpected written report: %+v", written[0])
	}
}
