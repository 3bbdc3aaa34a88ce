package device

import "github.com/coredump16/dcpu16/cpu"

// LEM1802ID is the standard DCPU-16 monitor's hardware identity.
const LEM1802ID uint32 = 0x7349F615

const LEM1802Manufacturer uint32 = 0x1C6C8B36

const (
	screenCols  = 32
	screenRows  = 12
	cellCount   = screenCols * screenRows
	fontWords   = 256 // 2 words per glyph, 128 glyphs
	paletteSize = 16
)

// Color is a 4-bit-per-channel RGB color, the native LEM1802 palette
// representation.
type Color struct {
	R, G, B uint8
}

// Cell is one decoded screen cell: a character index plus its foreground
// and background colors and blink flag, per the {fg:4,bg:4,blink:1,char:7}
// word layout.
type Cell struct {
	Char  byte
	FG, BG uint8
	Blink bool
}

// LEM1802 is the standard low-energy monitor. It owns no pixels itself: it
// decodes the mapped video/font/palette RAM into Cells and leaves actual
// rasterization to a caller-supplied renderer (spec.md excludes rendering
// backends from core scope), except for the reference Render used by tests.
type LEM1802 struct {
	ram *ramWords

	videoAddr uint16
	fontAddr  uint16
	paletteAddr uint16
	border    uint16
	connected bool
}

// ramWords is the minimal read surface LEM1802 needs from guest memory: a
// single Word accessor, satisfied by *ram.RAM via the CPU it's attached to.
type ramWords struct {
	read func(addr uint16) uint16
}

// NewLEM1802 returns an unconnected monitor that decodes video/font/palette
// state through read, the guest RAM word-reader.
func NewLEM1802(read func(addr uint16) uint16) *LEM1802 {
	return &LEM1802{ram: &ramWords{read: read}}
}

func (l *LEM1802) ID() uint32           { return LEM1802ID }
func (l *LEM1802) Version() uint16      { return 0x1802 }
func (l *LEM1802) Manufacturer() uint32 { return LEM1802Manufacturer }

// Tick is a no-op: the LEM1802 has no autonomous behavior between HWI
// calls.
func (l *LEM1802) Tick(tick uint64) (*uint16, error) { return nil, nil }

// Interrupt runs the monitor's HWI protocol.
func (l *LEM1802) Interrupt(cc *cpu.CPU) (int, error) {
	switch cc.Reg[cpu.A] {
	case 0:
		l.videoAddr = cc.Reg[cpu.B]
		l.connected = l.videoAddr != 0
	case 1:
		l.fontAddr = cc.Reg[cpu.B]
	case 2:
		l.paletteAddr = cc.Reg[cpu.B]
	case 3:
		l.border = cc.Reg[cpu.B] & 0xf
	case 4:
		dumpDefaultFont(cc, cc.Reg[cpu.B])
		return 256, nil
	case 5:
		dumpDefaultPalette(cc, cc.Reg[cpu.B])
		return 16, nil
	}
	return 0, nil
}

// Connected reports whether a nonzero video address has been set.
func (l *LEM1802) Connected() bool { return l.connected }

// Border returns the current border color index.
func (l *LEM1802) Border() uint16 { return l.border }

// Snapshot decodes the currently mapped video RAM into a 32x12 grid of
// Cells (all zero while unconnected). It reads no font or palette data;
// Palette and Render fall back to the defaults when those addresses are
// unset (0).
func (l *LEM1802) Snapshot() [cellCount]Cell {
	var cells [cellCount]Cell
	if !l.connected {
		return cells
	}
	for i := 0; i < cellCount; i++ {
		word := l.ram.read(l.videoAddr + uint16(i))
		cells[i] = Cell{
			Char:  byte(word & 0x7f),
			Blink: word&0x80 != 0,
			FG:    uint8((word >> 12) & 0xf),
			BG:    uint8((word >> 8) & 0xf),
		}
	}
	return cells
}

// Palette returns the 16-entry color table, decoding caller RAM if a
// palette address is mapped, else the default palette.
func (l *LEM1802) Palette() [paletteSize]Color {
	var pal [paletteSize]Color
	if l.paletteAddr == 0 {
		for i := range pal {
			pal[i] = decodeColorWord(defaultPalette[i])
		}
		return pal
	}
	for i := 0; i < paletteSize; i++ {
		pal[i] = decodeColorWord(l.ram.read(l.paletteAddr + uint16(i)))
	}
	return pal
}

func decodeColorWord(w uint16) Color {
	return Color{
		R: uint8((w >> 8) & 0xf),
		G: uint8((w >> 4) & 0xf),
		B: uint8(w & 0xf),
	}
}

// glyph returns the 2-word, 4x8 bitmap for character ch, reading from
// mapped font RAM if set, else the built-in default font.
func (l *LEM1802) glyph(ch byte) [2]uint16 {
	if l.fontAddr == 0 {
		if int(ch)*2+1 < len(defaultFont) {
			return [2]uint16{defaultFont[ch*2], defaultFont[ch*2+1]}
		}
		return [2]uint16{}
	}
	base := l.fontAddr + uint16(ch)*2
	return [2]uint16{l.ram.read(base), l.ram.read(base + 1)}
}

// Render is a reference rasterizer used by tests to check cell/font/palette
// decoding end to end; a real UI front-end renders from Snapshot/Palette
// directly instead of calling this.
func (l *LEM1802) Render() [screenRows * 8][screenCols * 4]Color {
	var out [screenRows * 8][screenCols * 4]Color
	cells := l.Snapshot()
	pal := l.Palette()
	for row := 0; row < screenRows; row++ {
		for col := 0; col < screenCols; col++ {
			cell := cells[row*screenCols+col]
			glyph := l.glyph(cell.Char)
			fg, bg := pal[cell.FG], pal[cell.BG]
			for gx := 0; gx < 4; gx++ {
				column := glyph[gx/2]
				if gx%2 == 1 {
					column >>= 8
				}
				for gy := 0; gy < 8; gy++ {
					on := column&(1<<uint(gy)) != 0
					px, py := col*4+gx, row*8+gy
					if on {
						out[py][px] = fg
					} else {
						out[py][px] = bg
					}
				}
			}
		}
	}
	return out
}

// dumpDefaultFont writes the built-in font into guest RAM starting at
// addr, via a raw word-write special-cased here since LEM1802 otherwise
// only ever reads RAM.
func dumpDefaultFont(cc *cpu.CPU, addr uint16) {
	for i, w := range defaultFont {
		cc.RAM.SetWord(addr+uint16(i), w)
	}
}

func dumpDefaultPalette(cc *cpu.CPU, addr uint16) {
	for i, w := range defaultPalette {
		cc.RAM.SetWord(addr+uint16(i), w)
	}
}

// defaultPalette is the standard LEM1802's 16-entry boot palette (a
// classic 16-color terminal ramp).
var defaultPalette = [paletteSize]uint16{
	0x0000, 0x0008, 0x0080, 0x0088,
	0x0800, 0x0808, 0x0880, 0x0888,
	0x0444, 0x000f, 0x00f0, 0x00ff,
	0x0f00, 0x0f0f, 0x0ff0, 0x0fff,
}

// defaultFont holds a minimal placeholder glyph table (blank plus a solid
// block), sized so glyph() never indexes out of range; a full 128-glyph
// bitmap table is a data-entry exercise out of scope for this port.
var defaultFont = func() [fontWords]uint16 {
	var f [fontWords]uint16
	// glyph 0: blank. glyph 1: solid block.
	f[2] = 0xffff
	f[3] = 0xffff
	return f
}()
