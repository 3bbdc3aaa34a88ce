package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coredump16/dcpu16/cpu"
	"github.com/coredump16/dcpu16/inst"
)

// fakeDevice is a minimal Device used to exercise enumeration and dispatch
// without pulling in a real peripheral.
type fakeDevice struct {
	id, mfr   uint32
	version   uint16
	ticks     int
	raiseOn   int
	raiseMsg  uint16
	interrupt func(c *cpu.CPU) (int, error)
}

func (d *fakeDevice) ID() uint32           { return d.id }
func (d *fakeDevice) Version() uint16      { return d.version }
func (d *fakeDevice) Manufacturer() uint32 { return d.mfr }

func (d *fakeDevice) Tick(tick uint64) (*uint16, error) {
	d.ticks++
	if d.ticks == d.raiseOn {
		msg := d.raiseMsg
		return &msg, nil
	}
	return nil, nil
}

func (d *fakeDevice) Interrupt(c *cpu.CPU) (int, error) {
	if d.interrupt != nil {
		return d.interrupt(c)
	}
	return 0, nil
}

func TestDeviceCountAndInfo(t *testing.T) {
	c := cpu.New()
	d1 := &fakeDevice{id: 0x12D0B402, version: 1, mfr: 0x1c6c8b36}
	d2 := &fakeDevice{id: 0x30CF7406, version: 1, mfr: 0x1c6c8b36}
	comp := NewComputer(c, []Device{d1, d2})

	assert.Equal(t, uint16(2), comp.DeviceCount())

	id, version, mfr, ok := comp.DeviceInfo(0)
	require.True(t, ok)
	assert.Equal(t, uint32(0x12D0B402), id)
	assert.Equal(t, uint16(1), version)
	assert.Equal(t, uint32(0x1c6c8b36), mfr)

	_, _, _, ok = comp.DeviceInfo(2)
	assert.False(t, ok)
}

func TestHWNReturnsDeviceCount(t *testing.T) {
	c := cpu.New()
	NewComputer(c, []Device{&fakeDevice{}, &fakeDevice{}, &fakeDevice{}})

	// HWN sets A to the number of connected devices.
	words, err := inst.Encode(inst.Instruction{Special: true, SpecialOp: inst.HWN, A: inst.Register(cpu.A)})
	require.NoError(t, err)
	c.Load(0, words)
	require.NoError(t, c.Step())
	assert.Equal(t, uint16(3), c.Reg[cpu.A])
}

func TestHWQFillsIdentityRegisters(t *testing.T) {
	c := cpu.New()
	d := &fakeDevice{id: 0x7349F615, version: 0x1802, mfr: 0x1c6c8b36}
	NewComputer(c, []Device{d})

	c.Reg[cpu.A] = 0 // device index
	words, err := inst.Encode(inst.Instruction{Special: true, SpecialOp: inst.HWQ, A: inst.Register(cpu.A)})
	require.NoError(t, err)
	c.Load(0, words)
	require.NoError(t, c.Step())

	assert.Equal(t, uint16(0xF615), c.Reg[cpu.A])
	assert.Equal(t, uint16(0x7349), c.Reg[cpu.B])
	assert.Equal(t, uint16(0x1802), c.Reg[cpu.C])
	assert.Equal(t, uint16(0x8b36), c.Reg[cpu.X])
	assert.Equal(t, uint16(0x1c6c), c.Reg[cpu.Y])
}

func TestHWIDispatchesToAddressedDevice(t *testing.T) {
	c := cpu.New()
	called := false
	d := &fakeDevice{interrupt: func(c *cpu.CPU) (int, error) {
		called = true
		return 0, nil
	}}
	NewComputer(c, []Device{d})

	c.Reg[cpu.A] = 0
	words, err := inst.Encode(inst.Instruction{Special: true, SpecialOp: inst.HWI, A: inst.Register(cpu.A)})
	require.NoError(t, err)
	c.Load(0, words)
	require.NoError(t, c.Step())
	assert.True(t, called)
}

func TestHWIOutOfRangeIsNoop(t *testing.T) {
	c := cpu.New()
	NewComputer(c, []Device{&fakeDevice{}})

	c.Reg[cpu.A] = 5
	words, err := inst.Encode(inst.Instruction{Special: true, SpecialOp: inst.HWI, A: inst.Register(cpu.A)})
	require.NoError(t, err)
	c.Load(0, words)
	require.NoError(t, c.Step())
	assert.Equal(t, cpu.Running, c.State())
}

func TestTickStepsDevicesThenCPU(t *testing.T) {
	c := cpu.New()
	// SET A, 1
	words, _ := inst.Encode(inst.Instruction{Op: inst.SET, A: inst.Immediate(1), B: inst.Register(cpu.A)})
	c.Load(0, words)

	c.IA = 0x100
	d := &fakeDevice{raiseOn: 1, raiseMsg: 0x42}
	comp := NewComputer(c, []Device{d})

	require.NoError(t, comp.Tick())
	assert.Equal(t, 1, d.ticks)
	// The device ticked before the CPU stepped, so the interrupt it raised
	// was already queued and this tick's Step dispatched it instead of
	// executing SET A, 1.
	assert.Equal(t, uint16(0x42), c.Reg[cpu.A])
	assert.Equal(t, uint16(0x100), c.PC)
	assert.Equal(t, 0, c.Registers().QueueLength)
}
