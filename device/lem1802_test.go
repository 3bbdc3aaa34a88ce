package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coredump16/dcpu16/cpu"
	"github.com/coredump16/dcpu16/ram"
)

func TestLEM1802Identity(t *testing.T) {
	m := NewLEM1802(ram.New().Word)
	assert.Equal(t, LEM1802ID, m.ID())
}

func TestLEM1802UnconnectedUntilVideoAddressSet(t *testing.T) {
	m := NewLEM1802(ram.New().Word)
	assert.False(t, m.Connected())

	cc := cpu.New()
	cc.Reg[cpu.A] = 0
	cc.Reg[cpu.B] = 0x8000
	_, err := m.Interrupt(cc)
	require.NoError(t, err)
	assert.True(t, m.Connected())
}

func TestLEM1802SnapshotDecodesCellFields(t *testing.T) {
	r := ram.New()
	m := NewLEM1802(r.Word)
	cc := cpu.New()
	cc.RAM = r

	videoAddr := uint16(0x8000)
	cc.Reg[cpu.A] = 0
	cc.Reg[cpu.B] = videoAddr
	_, err := m.Interrupt(cc)
	require.NoError(t, err)

	// char 'A' (0x41), fg=0xf, bg=0x1, blink set.
	r.SetWord(videoAddr, 0xf1<<8|0x41|0x80)

	cells := m.Snapshot()
	assert.Equal(t, byte(0x41), cells[0].Char)
	assert.Equal(t, uint8(0xf), cells[0].FG)
	assert.Equal(t, uint8(0x1), cells[0].BG)
	assert.True(t, cells[0].Blink)
}

func TestLEM1802SnapshotEmptyWhenUnconnected(t *testing.T) {
	m := NewLEM1802(ram.New().Word)
	cells := m.Snapshot()
	for _, c := range cells {
		assert.Equal(t, byte(0), c.Char)
	}
}

func TestLEM1802BorderColorMasksToFourBits(t *testing.T) {
	m := NewLEM1802(ram.New().Word)
	cc := cpu.New()
	cc.Reg[cpu.A] = 3
	cc.Reg[cpu.B] = 0xffff
	_, err := m.Interrupt(cc)
	require.NoError(t, err)
	assert.Equal(t, uint16(0xf), m.Border())
}

func TestLEM1802DumpDefaultFontWritesToRAM(t *testing.T) {
	r := ram.New()
	m := NewLEM1802(r.Word)
	cc := cpu.New()
	cc.RAM = r

	cc.Reg[cpu.A] = 4
	cc.Reg[cpu.B] = 0x100
	extra, err := m.Interrupt(cc)
	require.NoError(t, err)
	assert.Equal(t, 256, extra)
	assert.Equal(t, defaultFont[0], r.Word(0x100))
}

func TestLEM1802DefaultPaletteHasSixteenEntries(t *testing.T) {
	m := NewLEM1802(ram.New().Word)
	pal := m.Palette()
	assert.Len(t, pal, 16)
}

func TestLEM1802RenderProducesFullFramebuffer(t *testing.T) {
	r := ram.New()
	m := NewLEM1802(r.Word)
	cc := cpu.New()
	cc.RAM = r
	cc.Reg[cpu.A] = 0
	cc.Reg[cpu.B] = 0x8000
	_, err := m.Interrupt(cc)
	require.NoError(t, err)

	frame := m.Render()
	assert.Len(t, frame, 96)
	assert.Len(t, frame[0], 128)
}
