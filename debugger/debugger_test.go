package debugger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coredump16/dcpu16/cpu"
	"github.com/coredump16/dcpu16/inst"
)

func program() []uint16 {
	// SET A, 1 ; SET A, 2 ; SET A, 3 ; BRK
	setA := func(v uint16) inst.Instruction {
		return inst.Instruction{Op: inst.SET, B: inst.Operand{Kind: inst.KindRegister, Reg: cpu.A}, A: inst.Operand{Kind: inst.KindShortLiteral, Value: v}}
	}
	var image []uint16
	for _, ins := range []inst.Instruction{setA(1), setA(2), setA(3), {Special: true, SpecialOp: 0}} {
		words, err := inst.Encode(ins)
		if err != nil {
			panic(err)
		}
		image = append(image, words...)
	}
	return image
}

func newDebugger(t *testing.T) (*Debugger, []uint16) {
	t.Helper()
	img := program()
	c := cpu.New()
	c.Load(0, img)
	return NewWithoutBus(c), img
}

func TestStepAdvancesOneInstruction(t *testing.T) {
	d, _ := newDebugger(t)
	require.NoError(t, d.Step())
	assert.Equal(t, uint16(1), d.Registers().A)
	require.NoError(t, d.Step())
	assert.Equal(t, uint16(2), d.Registers().A)
}

func TestContinueStopsAtBreakpoint(t *testing.T) {
	d, img := newDebugger(t)
	// address of the third SET A instruction (each short-literal SET is one word).
	bp := uint16(2)
	d.SetBreakpoint(bp)
	steps, err := d.Continue(0)
	require.NoError(t, err)
	assert.Equal(t, 2, steps)
	assert.Equal(t, bp, d.Registers().PC)
	assert.True(t, d.AtBreakpoint())
	_ = img
}

func TestContinueRunsToHaltWithoutBreakpoints(t *testing.T) {
	d, _ := newDebugger(t)
	// the 3 SET instructions step cleanly; the BRK word then halts the CPU
	// and its own Step call surfaces ErrUnknownOpcode.
	steps, err := d.Continue(0)
	require.Error(t, err)
	assert.Equal(t, 3, steps)
	assert.Equal(t, cpu.Halted, d.State())
}

func TestClearBreakpointLetsExecutionPass(t *testing.T) {
	d, _ := newDebugger(t)
	d.SetBreakpoint(2)
	d.ClearBreakpoint(2)
	_, err := d.Continue(0)
	require.Error(t, err)
	assert.Equal(t, cpu.Halted, d.State())
}

func TestReadMemoryAndDisassemble(t *testing.T) {
	d, img := newDebugger(t)
	mem := d.ReadMemory(0, len(img))
	assert.Equal(t, img, mem)

	lines := d.Disassemble(0, 4)
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0].Text, "SET")
}
