// Package debugger wraps a CPU and its bus in a synchronous, blocking
// driver: step, continue-to-breakpoint, memory/register inspection, and
// disassembly. It injects no state the plain driver cannot reach — per
// spec.md 4.6 its contract is exactly the plain run loop plus breakpoints.
package debugger

import (
	"github.com/coredump16/dcpu16/bus"
	"github.com/coredump16/dcpu16/cpu"
	"github.com/coredump16/dcpu16/disasm"
)

// Ticker is the thing a Debugger steps: one CPU instruction plus one device
// tick. bus.Computer satisfies this; a bare *cpu.CPU (no devices attached)
// does not, so callers without a device set use Step's plain fallback via
// NewWithoutBus.
type Ticker interface {
	Tick() error
}

// Debugger drives a CPU (optionally wired to devices through a bus) one
// step at a time, with breakpoints on the program counter.
type Debugger struct {
	cpu         *cpu.CPU
	computer    *bus.Computer
	breakpoints map[uint16]bool
}

// New wraps a computer (CPU plus devices). Step ticks both the CPU and
// every device.
func New(c *bus.Computer, core *cpu.CPU) *Debugger {
	return &Debugger{cpu: core, computer: c, breakpoints: make(map[uint16]bool)}
}

// NewWithoutBus wraps a bare CPU with no attached devices. Step ticks only
// the CPU.
func NewWithoutBus(core *cpu.CPU) *Debugger {
	return &Debugger{cpu: core, breakpoints: make(map[uint16]bool)}
}

// SetBreakpoint arms a breakpoint at addr.
func (d *Debugger) SetBreakpoint(addr uint16) {
	d.breakpoints[addr] = true
}

// ClearBreakpoint disarms the breakpoint at addr, if any.
func (d *Debugger) ClearBreakpoint(addr uint16) {
	delete(d.breakpoints, addr)
}

// Breakpoints reports the currently armed breakpoint addresses.
func (d *Debugger) Breakpoints() []uint16 {
	out := make([]uint16, 0, len(d.breakpoints))
	for addr := range d.breakpoints {
		out = append(out, addr)
	}
	return out
}

// AtBreakpoint reports whether the CPU is currently sitting on an armed
// breakpoint address.
func (d *Debugger) AtBreakpoint() bool {
	return d.breakpoints[d.cpu.PC]
}

// Step executes one CPU instruction (plus, if a bus is attached, one
// device tick) and returns the resulting state.
func (d *Debugger) Step() error {
	if d.computer != nil {
		return d.computer.Tick()
	}
	return d.cpu.Step()
}

// Continue steps until a breakpoint is reached, the CPU stops running, or
// maxSteps is exhausted (maxSteps <= 0 means unbounded). It returns the
// number of steps actually taken.
func (d *Debugger) Continue(maxSteps int) (int, error) {
	taken := 0
	// step once unconditionally so Continue from a breakpoint makes
	// forward progress instead of reporting immediately.
	for {
		if err := d.Step(); err != nil {
			return taken, err
		}
		taken++
		if d.cpu.State() != cpu.Running {
			return taken, nil
		}
		if d.AtBreakpoint() {
			return taken, nil
		}
		if maxSteps > 0 && taken >= maxSteps {
			return taken, nil
		}
	}
}

// Registers returns a snapshot of the CPU's register file and flags.
func (d *Debugger) Registers() cpu.Registers {
	return d.cpu.Registers()
}

// ReadMemory returns n words of RAM starting at addr.
func (d *Debugger) ReadMemory(addr uint16, n int) []uint16 {
	return d.cpu.RAM.Read(addr, n)
}

// Disassemble decodes n instructions starting at addr.
func (d *Debugger) Disassemble(addr uint16, n int) []disasm.Line {
	return disasm.Disassemble(d.cpu.RAM.Word, addr, n)
}

// State reports whether the wrapped CPU is running, halted, or on fire.
func (d *Debugger) State() cpu.State {
	return d.cpu.State()
}

// CPU exposes the wrapped core directly, for front ends (the TUI) that
// need access beyond this package's read-only surface.
func (d *Debugger) CPU() *cpu.CPU { return d.cpu }
