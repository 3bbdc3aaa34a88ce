// Command emulator loads a DCPU-16 binary image and runs it, optionally
// wired to a clock/keyboard/screen device set and an interactive debugger.
// Flag layout follows the cobra/pflag pattern the rest of the pack uses for
// its CLI entry points (e.g. oisee-z80-optimizer's cmd tree), not a bare
// flag.Parse().
package main

import (
	"encoding/binary"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/coredump16/dcpu16/bus"
	"github.com/coredump16/dcpu16/cpu"
	"github.com/coredump16/dcpu16/debugger"
	"github.com/coredump16/dcpu16/device"
)

func main() {
	var (
		ticksPerSecond int
		interactive    bool
		devices        []string
	)

	root := &cobra.Command{
		Use:   "emulator [flags] <image>",
		Short: "run a DCPU-16 binary image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], ticksPerSecond, interactive, devices)
		},
	}
	root.Flags().IntVar(&ticksPerSecond, "tps", 100000, "CPU ticks per second")
	root.Flags().BoolVar(&interactive, "debugger", false, "open the interactive debugger instead of free-running")
	root.Flags().StringSliceVarP(&devices, "device", "d", nil, "devices to attach: clock, keyboard, screen (repeatable)")

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func run(path string, tps int, interactive bool, deviceNames []string) error {
	image, err := loadImage(path)
	if err != nil {
		return fmt.Errorf("emulator: %w", err)
	}

	core := cpu.New()
	core.Load(0, image)

	attached, err := buildDevices(core, deviceNames)
	if err != nil {
		return err
	}
	computer := bus.NewComputer(core, attached)

	if interactive {
		return debugger.Run(debugger.New(computer, core))
	}
	return runFree(computer, tps)
}

func buildDevices(core *cpu.CPU, names []string) ([]bus.Device, error) {
	var attached []bus.Device
	for _, name := range names {
		switch name {
		case "clock":
			attached = append(attached, device.NewClock(60))
		case "keyboard":
			attached = append(attached, device.NewKeyboard(make(chan device.KeyEvent, 16)))
		case "screen":
			attached = append(attached, device.NewLEM1802(core.RAM.Word))
		default:
			return nil, fmt.Errorf("emulator: unknown device %q", name)
		}
	}
	return attached, nil
}

// runFree drives the machine at tps cycles per second (spec.md 4.2), not a
// flat instruction-per-tick cadence: an instruction that costs N cycles
// holds up real time for N times as long as a 1-cycle one, the same way
// dcpu16.go throttled its run loop against a cycle budget rather than an
// instruction count.
func runFree(computer *bus.Computer, tps int) error {
	cyclePeriod := time.Second / time.Duration(tps)

	for {
		err := computer.Tick()
		if state := computer.CPU.State(); state != cpu.Running {
			log.Printf("emulator: stopped: %s", state)
			return nil
		}
		if err != nil {
			return fmt.Errorf("emulator: %w", err)
		}
		time.Sleep(cyclePeriod * time.Duration(computer.LastStepCycles()))
	}
}

// loadImage reads a flat, big-endian stream of 16-bit words from path, per
// spec.md 6's binary image format.
func loadImage(path string) ([]uint16, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(raw)%2 != 0 {
		raw = append(raw, 0)
	}
	words := make([]uint16, len(raw)/2)
	for i := range words {
		words[i] = binary.BigEndian.Uint16(raw[i*2:])
	}
	return words, nil
}
