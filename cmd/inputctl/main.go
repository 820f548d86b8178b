package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/seagrayinc/inputdev/internal/usbraw"
	"github.com/seagrayinc/inputdev/pkg/device"
	"github.com/seagrayinc/inputdev/pkg/gamepad"
	"github.com/seagrayinc/inputdev/pkg/hid"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: inputctl <command> [flags]

commands:
  list                      enumerate HID devices
  monitor -vid V -pid P     open a gamepad and print events until interrupted
  probe   -vid V -pid P     raw bulk round-trip (for devices without usable HID)
`)
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM, syscall.SIGINT,
	)
	defer stop()

	var err error
	switch os.Args[1] {
	case "list":
		err = runList()
	case "monitor":
		err = runMonitor(ctx, os.Args[2:])
	case "probe":
		err = runProbe(os.Args[2:])
	default:
		usage()
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "inputctl: %v\n", err)
		os.Exit(1)
	}
}

func runList() error {
	mgr, err := hid.NewManager()
	if err != nil {
		return err
	}

	devs, err := mgr.List()
	if err != nil {
		return err
	}

	for _, d := range devs {
		fmt.Printf("%04x:%04x  %-24s %-24s %s\n",
			d.VendorID, d.ProductID, d.Manufacturer, d.Product, d.Path)
	}
	return nil
}

func runMonitor(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("monitor", flag.ExitOnError)
	vid := fs.String("vid", "", "vendor ID (hex or decimal)")
	pid := fs.String("pid", "", "product ID (hex or decimal)")
	delay := fs.Duration("delay", 10*time.Millisecond, "polling interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	vendorID, productID, err := parseIDs(*vid, *pid)
	if err != nil {
		return err
	}

	g := gamepad.New(vendorID, productID)
	g.Delay = *delay

	if err := g.Open(ctx); err != nil {
		return err
	}
	defer g.Close()

	errc := device.NewPoller(g).Run(ctx)
	go func() {
		for err := range errc {
			fmt.Fprintf(os.Stderr, "poll: %v\n", err)
		}
	}()

	fmt.Printf("monitoring %s, ^C to stop\n", g.Name())
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-g.Events():
			switch ev.Kind {
			case gamepad.AxisMoved:
				fmt.Printf("axis    x=%d y=%d\n", ev.X, ev.Y)
			default:
				fmt.Printf("button  %d %s\n", ev.Button, ev.Kind)
			}
		}
	}
}

func runProbe(args []string) error {
	fs := flag.NewFlagSet("probe", flag.ExitOnError)
	vid := fs.String("vid", "", "vendor ID (hex or decimal)")
	pid := fs.String("pid", "", "product ID (hex or decimal)")
	payload := fs.String("hex", "", "frame to send, hex encoded")
	if err := fs.Parse(args); err != nil {
		return err
	}

	vendorID, productID, err := parseIDs(*vid, *pid)
	if err != nil {
		return err
	}
	frame, err := hex.DecodeString(*payload)
	if err != nil {
		return fmt.Errorf("bad -hex payload: %w", err)
	}
	if len(frame) == 0 {
		return fmt.Errorf("-hex payload required")
	}

	dev, err := usbraw.Open(vendorID, productID)
	if err != nil {
		return err
	}
	defer dev.Close()

	resp, err := dev.Send(frame, 2*time.Second)
	if err != nil {
		return err
	}

	fmt.Println(hex.EncodeToString(resp))
	return nil
}

func parseIDs(vid, pid string) (uint16, uint16, error) {
	if vid == "" || pid == "" {
		return 0, 0, fmt.Errorf("-vid and -pid are required")
	}
	v, err := strconv.ParseUint(vid, 0, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("bad -vid: %w", err)
	}
	p, err := strconv.ParseUint(pid, 0, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("bad -pid: %w", err)
	}
	return uint16(v), uint16(p), nil
}
