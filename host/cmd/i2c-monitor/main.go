package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"softi2c/config"
	"softi2c/core"
	"softi2c/host/monitor"
	"softi2c/host/serial"
)

var (
	device  = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud    = flag.Int("baud", 115200, "Baud rate (ignored for USB CDC)")
	out     = flag.String("out", "", "Append decoded events to this CBOR capture file")
	replay  = flag.String("replay", "", "Print a capture file instead of reading the device")
	verbose = flag.Bool("verbose", false, "Print stream statistics on exit")
	board   = flag.String("board", "", "Board description (JSON or YAML) to print bus timing for")
)

func main() {
	flag.Parse()

	if *board != "" {
		if err := printBoard(*board); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if *replay != "" {
		if err := printCapture(*replay); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud
	port, err := serial.Open(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer port.Close()
	if err := port.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: flush failed: %v\n", err)
	}

	var capture *monitor.CaptureWriter
	if *out != "" {
		capture, err = monitor.NewCaptureWriter(*out)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer capture.Close()
	}

	m := monitor.New(func(rec monitor.Record) {
		fmt.Printf("%s %s\n", rec.Received.Format("15:04:05.000"), monitor.Format(rec.Event))
		if capture != nil {
			if err := capture.Write(rec); err != nil {
				fmt.Fprintf(os.Stderr, "Error: capture: %v\n", err)
			}
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("Listening on %s (Ctrl-C to quit)\n", *device)
	err = m.Follow(ctx, port)
	if *verbose {
		printStats(m.Stats())
	}
	if err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printCapture(path string) error {
	recs, err := monitor.ReadCaptureFile(path)
	if err != nil {
		return err
	}
	var first time.Time
	for i, rec := range recs {
		if i == 0 {
			first = rec.Received
		}
		fmt.Printf("+%-10s %s\n", rec.Received.Sub(first).Round(time.Microsecond), monitor.Format(rec.Event))
	}
	fmt.Printf("%d events\n", len(recs))
	return nil
}

// printBoard shows the configured buses and the clock each one really runs
// at on a 1MHz tick source
func printBoard(path string) error {
	cfg, err := config.LoadConfigFile(path)
	if err != nil {
		return err
	}
	for _, name := range cfg.Names() {
		bus := cfg.Buses[name]
		line := fmt.Sprintf("%-8s id=%d sda=%s scl=%s", name, bus.ID, bus.SDAPin, bus.SCLPin)
		counts, err := core.HalfPeriodCounts(1000000, 1<<20, bus.Frequency)
		if err != nil {
			fmt.Printf("%s %dHz: %v\n", line, bus.Frequency, err)
			continue
		}
		fmt.Printf("%s %dHz -> %dHz\n", line, bus.Frequency, core.ActualFrequency(1000000, counts))
	}
	return nil
}

func printStats(s monitor.Stats) {
	fmt.Println("\nStream statistics:")
	fmt.Printf("  events         %d\n", s.Events)
	fmt.Printf("  missed events  %d\n", s.Missed)
	fmt.Printf("  bad frames     %d\n", s.BadFrames)
	fmt.Printf("  sequence gaps  %d\n", s.Gaps)
	fmt.Printf("  decode errors  %d\n", s.DecodeErrors)
}
