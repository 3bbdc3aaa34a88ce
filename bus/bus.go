// Package bus implements the DCPU-16 hardware bus: device enumeration and
// the HWN/HWQ/HWI dispatch the CPU calls into, plus the Computer tick loop
// that steps every attached device alongside the CPU core. The shape is
// ported from original_source/src/bin/emulator.rs's computer.tick() outer
// loop, generalized from that one fixed assembly of devices to an arbitrary
// attached slice.
package bus

import (
	"fmt"

	"github.com/coredump16/dcpu16/cpu"
)

// Device is anything that can sit on the hardware bus: a fixed identity
// triple for HWQ, a per-tick hook for asynchronous interrupt generation
// (e.g. the clock, the keyboard), and a synchronous HWI handler.
type Device interface {
	ID() uint32
	Version() uint16
	Manufacturer() uint32

	// Tick advances the device by one system tick. If the device wants to
	// raise an interrupt as a result, it returns the message to queue;
	// otherwise it returns nil.
	Tick(tick uint64) (interrupt *uint16, err error)

	// Interrupt runs the device's synchronous HWI handler. It may read and
	// write cpu's registers and RAM directly, the same way dcpu16.go's
	// handleHardwareInterrupt would reach into CPU state.
	Interrupt(c *cpu.CPU) (extraCycles int, err error)
}

// Computer owns a CPU core and the devices enumerated on its bus. It
// satisfies cpu.Bus, so a CPU can be attached to it and reach HWN/HWQ/HWI
// through it.
type Computer struct {
	CPU     *cpu.CPU
	Devices []Device

	tick uint64
}

// NewComputer builds a Computer wired to c with the given devices attached
// in enumeration order, and attaches itself to c as its bus.
func NewComputer(c *cpu.CPU, devices []Device) *Computer {
	comp := &Computer{CPU: c, Devices: devices}
	c.AttachBus(comp)
	return comp
}

// Tick advances every device by one system tick, queuing any interrupt a
// device raises, then steps the CPU once. This mirrors the Rust
// reference's computer.tick(), which always ticks peripherals before
// advancing the core.
func (comp *Computer) Tick() error {
	comp.tick++
	for i, d := range comp.Devices {
		msg, err := d.Tick(comp.tick)
		if err != nil {
			return fmt.Errorf("bus: device %d tick: %w", i, err)
		}
		if msg != nil {
			comp.CPU.QueueInterrupt(*msg)
		}
	}
	return comp.CPU.Step()
}

// LastStepCycles reports the cycle cost (spec.md 4.2) of the CPU step the
// most recent Tick performed, so a caller like cmd/emulator's free-running
// loop can pace real time by cycles instead of a flat tick-per-instruction
// cadence.
func (comp *Computer) LastStepCycles() int {
	return comp.CPU.LastStepCycles()
}

// DeviceCount implements cpu.Bus.
func (comp *Computer) DeviceCount() uint16 {
	return uint16(len(comp.Devices))
}

// DeviceInfo implements cpu.Bus. An out-of-range index is a no-op per
// spec.md 4.5, signaled by ok=false.
func (comp *Computer) DeviceInfo(index uint16) (id uint32, version uint16, mfr uint32, ok bool) {
	if int(index) >= len(comp.Devices) {
		return 0, 0, 0, false
	}
	d := comp.Devices[index]
	return d.ID(), d.Version(), d.Manufacturer(), true
}

// Interrupt implements cpu.Bus, dispatching HWI to the addressed device. An
// out-of-range index is a no-op, matching dcpu16.go's stubbed behavior now
// that a bus is actually attached.
func (comp *Computer) Interrupt(index uint16, c *cpu.CPU) (extraCycles int, err error) {
	if int(index) >= len(comp.Devices) {
		return 0, nil
	}
	return comp.Devices[index].Interrupt(c)
}
